package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"postavka/internal/models"
)

type assignRequest struct {
	VendorID int64 `json:"vendor_id"`
}

type noteRequest struct {
	Note string `json:"note"`
}

type cancelRequest struct {
	Note   string `json:"note"`
	Reason string `json:"reason"`
}

type suppliedRequest struct {
	Supplied bool `json:"supplied"`
}

// handleItems lists booking items that still need a vendor.
func (s *HTTPServer) handleItems(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	items, err := s.repo.ListItemsNeedingAssignment(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleItem dispatches /api/v1/items/{id}/{action}.
func (s *HTTPServer) handleItem(w http.ResponseWriter, r *http.Request) {
	id, action, err := parseIDAction(r.URL.Path, "/api/v1/items/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()

	if r.Method == http.MethodGet {
		switch action {
		case "assignment":
			a, err := s.assignments.GetAssignment(ctx, id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, a)
		case "candidates":
			vendors, err := s.assignments.ListCandidates(ctx, id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"candidates": vendors})
		case "rejections":
			records, err := s.repo.ListRejectionRecords(ctx, id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"rejections": records})
		case "supply":
			rec, err := s.fulfillment.GetSupplyRecord(ctx, id)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, rec)
		default:
			writeError(w, http.StatusNotFound, "unknown resource")
		}
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch action {
	case "assign":
		var req assignRequest
		if !decodeBody(w, r, &req) {
			return
		}
		a, err := s.assignments.Assign(ctx, id, req.VendorID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	case "reassign":
		var req assignRequest
		if !decodeBody(w, r, &req) {
			return
		}
		a, err := s.assignments.Reassign(ctx, id, req.VendorID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	case "accept":
		a, err := s.assignments.Accept(ctx, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	case "reject":
		var req noteRequest
		if !decodeBody(w, r, &req) {
			return
		}
		a, err := s.assignments.Reject(ctx, id, req.Note)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	case "cancel":
		var req cancelRequest
		if !decodeBody(w, r, &req) {
			return
		}
		a, err := s.assignments.Cancel(ctx, id, req.Note, req.Reason)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, a)
	case "supplied":
		var req suppliedRequest
		if !decodeBody(w, r, &req) {
			return
		}
		rec, err := s.fulfillment.SetSupplied(ctx, id, req.Supplied)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case "verify":
		rec, err := s.fulfillment.MarkVerified(ctx, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case "settle":
		entry, err := s.settlement.MarkSettled(ctx, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entry)
	default:
		writeError(w, http.StatusNotFound, "unknown operation")
	}
}

// handleBooking dispatches /api/v1/bookings/{id}/cancel.
func (s *HTTPServer) handleBooking(w http.ResponseWriter, r *http.Request) {
	id, action, err := parseIDAction(r.URL.Path, "/api/v1/bookings/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if r.Method != http.MethodPost || action != "cancel" {
		writeError(w, http.StatusNotFound, "unknown operation")
		return
	}

	var req cancelRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ids, err := s.assignments.CancelBooking(r.Context(), id, req.Note, req.Reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"cancelled_item_ids": ids})
}

func (s *HTTPServer) handleVendors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		vendors, err := s.repo.GetAllVendors(ctx)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"vendors": vendors})
	case http.MethodPost:
		var vendor models.Vendor
		if !decodeBody(w, r, &vendor) {
			return
		}
		if vendor.ID <= 0 || strings.TrimSpace(vendor.Name) == "" {
			writeError(w, http.StatusBadRequest, "vendor id and name are required")
			return
		}
		if err := s.repo.CreateOrUpdateVendor(ctx, &vendor); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, vendor)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleVendor dispatches /api/v1/vendors/{id}/{action}.
func (s *HTTPServer) handleVendor(w http.ResponseWriter, r *http.Request) {
	id, action, err := parseIDAction(r.URL.Path, "/api/v1/vendors/")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()

	switch {
	case r.Method == http.MethodPost && action == "disable":
		if err := s.repo.SetVendorDisabled(ctx, id, true); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
	case r.Method == http.MethodPost && action == "enable":
		if err := s.repo.SetVendorDisabled(ctx, id, false); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "enabled"})
	case r.Method == http.MethodGet && action == "settlement":
		summary, err := s.computeSummaryFromQuery(r, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	case r.Method == http.MethodGet && action == "settlement/export":
		if s.exporter == nil {
			writeError(w, http.StatusNotImplemented, "export is not configured")
			return
		}
		summary, err := s.computeSummaryFromQuery(r, id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		filename := fmt.Sprintf("settlement_%d_%s_%s.xlsx", id, summary.Period, time.Now().Format("2006-01-02"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		if err := s.exporter.WriteSummary(w, summary); err != nil {
			s.logger.Error().Err(err).Int64("vendor_id", id).Msg("settlement export error")
		}
	default:
		writeError(w, http.StatusNotFound, "unknown operation")
	}
}

func (s *HTTPServer) computeSummaryFromQuery(r *http.Request, vendorID int64) (*models.SettlementSummary, error) {
	period := r.URL.Query().Get("period")
	if period == "" {
		period = models.PeriodMonthly
	}
	includeUnverified := r.URL.Query().Get("include_unverified") == "true"
	return s.settlement.ComputeSummary(r.Context(), vendorID, period, includeUnverified)
}

// parseIDAction splits "{id}/{action}" out of the path after prefix. The
// action may itself contain a slash, as in "settlement/export".
func parseIDAction(path, prefix string) (int64, string, error) {
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.SplitN(rest, "/", 2)
	if parts[0] == "" {
		return 0, "", fmt.Errorf("missing id in path")
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, "", fmt.Errorf("invalid id %q", parts[0])
	}
	action := ""
	if len(parts) == 2 {
		action = strings.TrimSuffix(parts[1], "/")
	}
	return id, action, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
