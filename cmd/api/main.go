package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"postavka/internal/api"
	"postavka/internal/catalog"
	"postavka/internal/config"
	"postavka/internal/database"
	"postavka/internal/domain"
	"postavka/internal/events"
	"postavka/internal/export"
	"postavka/internal/google"
	"postavka/internal/logging"
	"postavka/internal/metrics"
	"postavka/internal/models"
	"postavka/internal/repository"
	"postavka/internal/service"
	"postavka/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	vendors, err := loadVendors(cfg, &logger)
	if err != nil {
		return err
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Сидируем справочник поставщиков из vendors.yaml
	vendorService := service.NewVendorService(db, vendors, &logger)
	for _, v := range vendors {
		if err := vendorService.SaveVendor(ctx, v); err != nil {
			logger.Error().Err(err).Int64("vendor_id", v.ID).Msg("vendor seed failed")
			return err
		}
	}

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	dedup := initDedupStore(redisClient, &logger)

	sheetsService := initGoogleSheets(cfg, &logger)

	eventBus := events.NewEventBus()

	// Воркеру нужен свой расчётный сервис без обратной ссылки на него самого.
	var syncer worker.SettlementSyncer
	if sheetsService != nil {
		syncSvc := service.NewSettlementService(db, nil, nil, &logger)
		syncer = google.NewSettlementSyncer(syncSvc, sheetsService)
	}

	outboxWorker := worker.NewOutboxWorker(
		db,
		&logNotifier{logger: &logger},
		syncer,
		redisClient,
		dedup,
		retryPolicy(cfg),
		log.Default(),
	)
	go outboxWorker.Start(ctx)

	assignmentService := service.NewAssignmentService(db, eventBus, outboxWorker, &logger)
	fulfillmentService := service.NewFulfillmentService(db, eventBus, outboxWorker, &logger)
	settlementService := service.NewSettlementService(db, eventBus, outboxWorker, &logger)

	exporter := export.NewExporter(cfg.Exports.Path, &logger)

	httpServer := api.NewHTTPServer(
		cfg.API, assignmentService, fulfillmentService, settlementService, db, exporter, &logger)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	startCatalogSync(ctx, cfg, db, redisClient, &logger)
	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

// logNotifier is the fire-and-forget notification boundary: delivery mechanics
// live outside this service, here the event is only recorded.
type logNotifier struct {
	logger *zerolog.Logger
}

func (n *logNotifier) Notify(_ context.Context, eventType string, bookingItemID int64, body json.RawMessage) error {
	n.logger.Info().
		Str("event_type", eventType).
		Int64("booking_item_id", bookingItemID).
		RawJSON("payload", body).
		Msg("assignment notification")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := logging.Component(baseLogger, "api-main")

	return cfg, logger, closer, nil
}

func loadVendors(cfg *config.Config, logger *zerolog.Logger) ([]*models.Vendor, error) {
	vendorsPath := os.Getenv("VENDORS_PATH")
	if vendorsPath == "" {
		vendorsPath = cfg.VendorsFile
	}
	if vendorsPath == "" {
		vendorsPath = "configs/vendors.yaml"
	}

	vendorsData, err := os.ReadFile(vendorsPath)
	if err != nil {
		logger.Error().Err(err).Str("vendors_path", vendorsPath).Msg("read vendors")
		return nil, err
	}

	var vendorsConfig struct {
		Vendors []*models.Vendor `yaml:"vendors"`
	}
	if err := yaml.Unmarshal(vendorsData, &vendorsConfig); err != nil {
		logger.Error().Err(err).Str("vendors_path", vendorsPath).Msg("parse vendors")
		return nil, err
	}

	if err := config.ValidateVendors(vendorsConfig.Vendors); err != nil {
		logger.Error().Err(err).Msg("vendors validation failed")
		return nil, err
	}

	return vendorsConfig.Vendors, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("create database directory")
		return err
	}
	if cfg.Exports.Path != "" {
		if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
			logger.Error().Err(err).Msg("create exports directory")
			return err
		}
	}
	return nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initDedupStore(redisClient *redis.Client, logger *zerolog.Logger) domain.DedupStore {
	memory := repository.NewMemoryDedupStore()
	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverDedupStore(repository.NewRedisDedupStore(redisClient), memory, logger)
}

func initGoogleSheets(cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.SettlementSpreadSheetID == "" {
		return nil
	}

	sheetsService, err := google.NewSheetsService(
		cfg.Google.GoogleCredentialsFile,
		cfg.Google.SettlementSpreadSheetID,
	)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return sheetsService
}

func retryPolicy(cfg *config.Config) worker.RetryPolicy {
	return worker.RetryPolicy{
		MaxRetries:    cfg.Worker.MaxRetries,
		InitialDelay:  time.Duration(cfg.Worker.InitialDelay) * time.Second,
		MaxDelay:      time.Duration(cfg.Worker.MaxDelay) * time.Second,
		BackoffFactor: cfg.Worker.BackoffFactor,
	}
}

func startCatalogSync(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) {
	if !cfg.Catalog.Enabled {
		return
	}

	client := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.APIKey,
		time.Duration(cfg.Catalog.FetchTimeout)*time.Second)
	if redisClient != nil {
		client.UseRedisCache(redisClient, time.Minute)
	}

	importer := catalog.NewImporter(client, db, logger)
	if _, err := importer.ImportOnce(ctx); err != nil {
		logger.Error().Err(err).Msg("initial catalog import failed")
	}

	syncMinutes := cfg.Catalog.SyncMinutes
	if syncMinutes <= 0 {
		syncMinutes = models.DefaultCatalogSyncMinutes
	}
	go importer.Run(ctx, time.Duration(syncMinutes)*time.Minute)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if !cfg.API.HTTP.Enabled {
			logger.Warn().Msg("HTTP API is disabled in config")
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("service started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("service stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
