package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"postavka/internal/config"
	"postavka/internal/database"
	"postavka/internal/domain"
	"postavka/internal/metrics"
	"postavka/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SummaryExporter renders a settlement summary into a downloadable workbook.
type SummaryExporter interface {
	WriteSummary(w io.Writer, summary *models.SettlementSummary) error
}

// HTTPServer exposes the assignment and settlement workflow over HTTP.
type HTTPServer struct {
	cfg         config.APIConfig
	assignments domain.AssignmentService
	fulfillment domain.FulfillmentService
	settlement  domain.SettlementService
	repo        domain.Repository
	exporter    SummaryExporter
	logger      *zerolog.Logger
	server      *http.Server
	auth        *HTTPAuth
}

func NewHTTPServer(
	cfg config.APIConfig,
	assignments domain.AssignmentService,
	fulfillment domain.FulfillmentService,
	settlement domain.SettlementService,
	repo domain.Repository,
	exporter SummaryExporter,
	logger *zerolog.Logger,
) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:         cfg,
		assignments: assignments,
		fulfillment: fulfillment,
		settlement:  settlement,
		repo:        repo,
		exporter:    exporter,
		logger:      logger,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/items", srv.handleItems)
	mux.HandleFunc("/api/v1/items/", srv.handleItem)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBooking)
	mux.HandleFunc("/api/v1/vendors", srv.handleVendors)
	mux.HandleFunc("/api/v1/vendors/", srv.handleVendor)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler returns the configured handler chain, mostly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

const requestIDHeader = "X-Request-Id"

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", dur).
			Msg("http request")
	})
}

// writeServiceError maps domain errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "concurrent modification, reload and retry")
	case errors.Is(err, database.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "operation not allowed in current status")
	case errors.Is(err, database.ErrInvalidCandidate):
		writeError(w, http.StatusUnprocessableEntity, "vendor is not an eligible candidate")
	case errors.Is(err, database.ErrEmptyNote):
		writeError(w, http.StatusBadRequest, "note is required")
	case errors.Is(err, database.ErrInvalidReason):
		writeError(w, http.StatusBadRequest, "unknown cancellation reason")
	case errors.Is(err, database.ErrInvalidPeriod):
		writeError(w, http.StatusBadRequest, "unknown settlement period")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
