package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/config"
	"github.com/boddenberg/linkbio-api-go/internal/handler"
	"github.com/boddenberg/linkbio-api-go/internal/infra/cache"
	"github.com/boddenberg/linkbio-api-go/internal/infra/observability"
	"github.com/boddenberg/linkbio-api-go/internal/infra/resilience"
	"github.com/boddenberg/linkbio-api-go/internal/infra/storage"
	"github.com/boddenberg/linkbio-api-go/internal/infra/supabase"
	"github.com/boddenberg/linkbio-api-go/internal/port"
	"github.com/boddenberg/linkbio-api-go/internal/qr"
	"github.com/boddenberg/linkbio-api-go/internal/render"
	"github.com/boddenberg/linkbio-api-go/internal/service"
	"github.com/boddenberg/linkbio-api-go/internal/session"
	"github.com/boddenberg/linkbio-api-go/internal/showcase"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("public_base_url", cfg.PublicBaseURL),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Bool("redis", cfg.RedisAddr != ""),
		zap.Bool("storage", cfg.StorageEnabled()),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("autosave_debounce", cfg.AutosaveDebounce),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("jwt_refresh_ttl", cfg.JWTRefreshTTL),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(context.Background(), "linkbio-api", cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase", supabase.IsClientError)
	imageBulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Data backend ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	db := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		cb,
		resilienceCfg,
		logger,
	).WithMetrics(metrics)
	deps := []service.Dependency{{Name: "supabase", Pinger: db, Critical: true}}

	// --- Page cache ---
	var pages port.PageCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		redisPages := cache.NewRedisPages(rdb, cfg.CacheTTL, logger)
		pages = redisPages
		deps = append(deps, service.Dependency{Name: "redis", Pinger: redisPages})
		logger.Info("page cache: redis", zap.String("addr", cfg.RedisAddr))
	} else {
		memPages := cache.NewMemoryPages(cfg.CacheTTL)
		defer memPages.Close()
		pages = memPages
		logger.Info("page cache: in-memory")
	}

	// --- Media storage ---
	var media port.MediaStorage
	if cfg.StorageEnabled() {
		s3, err := storage.NewS3(storage.Config{
			Endpoint:  cfg.StorageEndpoint,
			Region:    cfg.StorageRegion,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Bucket:    cfg.StorageBucket,
			PublicURL: cfg.StoragePublicURL,
		}, logger)
		if err != nil {
			logger.Fatal("failed to init storage", zap.Error(err))
		}
		media = s3
		deps = append(deps, service.Dependency{Name: "storage", Pinger: s3})
	} else {
		logger.Warn("media storage not configured, uploads unavailable")
	}

	// --- Editor sessions ---
	sessions := session.New(cfg.SessionTTL)
	defer sessions.Close()

	html, err := render.NewHTML()
	if err != nil {
		logger.Fatal("failed to parse page templates", zap.Error(err))
	}
	loc, err := time.LoadLocation(cfg.LeadsTimezone)
	if err != nil {
		logger.Warn("unknown leads timezone, using UTC", zap.String("timezone", cfg.LeadsTimezone), zap.Error(err))
		loc = time.UTC
	}

	// --- Services ---
	showcaseSvc := service.NewShowcaseService(db, db, db, sessions, pages, metrics,
		showcase.AutosaveOptions{Delay: cfg.AutosaveDebounce}, logger)

	svc := handler.Services{
		Auth:      service.NewAuthService(db, db, sessions, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger),
		Clients:   service.NewClientService(db, db, pages, logger),
		Profiles:  service.NewProfileService(db, db, pages, logger),
		Drafts:    service.NewDraftService(db, db, sessions, pages, metrics, logger),
		Showcase:  showcaseSvc,
		Leads:     service.NewLeadService(db, db, db, metrics, loc, logger),
		Analytics: service.NewAnalyticsService(db, db, db, db, logger),
		Media:     service.NewMediaService(db, db, media, imageBulkhead, logger),
		QR:        service.NewQRService(db, db, &qr.Fetcher{Client: httpClient}, imageBulkhead, cfg.PublicBaseURL, logger),
		Public:    service.NewPublicService(db, db, db, pages, html, metrics, cfg.PublicBaseURL, logger),
		Health:    service.NewHealthService(logger, deps...),
	}

	// --- Router ---
	router := handler.NewRouter(svc, metrics, cfg.CORSOrigins, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced shutdown", zap.Error(err))
	}
	if err := showcaseSvc.Flush(ctx); err != nil {
		logger.Error("pending showcase settings not saved", zap.Error(err))
	}
	if err := shutdownTracer(ctx); err != nil {
		logger.Warn("tracer shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
