package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/stockrisk/internal/api"
	"github.com/andresuchdata/stockrisk/internal/app"
	"github.com/andresuchdata/stockrisk/internal/broker"
	"github.com/andresuchdata/stockrisk/internal/cache"
	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/service"
	"github.com/andresuchdata/stockrisk/internal/tracing"
	"github.com/andresuchdata/stockrisk/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.Setup(cfg.Log.Format, cfg.Log.Level)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := tracing.InitTracer(cfg.Tracing)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to initialize tracing, continuing without it")
		shutdownTracer = func(context.Context) error { return nil }
	}

	source, closeSource, err := app.NewSource(ctx, cfg.Source.Kind, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("source", cfg.Source.Kind).Msg("Failed to initialize data source")
	}
	defer closeSource()

	runCache, err := cache.NewRunCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to initialize redis cache, falling back to in-memory only")
		runCache = cache.NewNoopRunCache()
	}

	alerts, err := broker.NewAlertPublisher(cfg.Kafka)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to initialize alert publisher, alerts disabled")
		alerts = broker.NewNoopPublisher()
	}
	defer alerts.Close()

	riskService := service.NewRiskService(source, runCache, alerts, service.Options{
		SourceName:    cfg.Source.Kind,
		WindowDays:    cfg.Analysis.WindowDays,
		Workers:       cfg.Analysis.Workers,
		MaxAge:        cfg.Analysis.MaxAge(),
		DegradedRetry: cfg.Analysis.DegradedRetry(),
	})

	if interval := cfg.Analysis.RefreshInterval(); interval > 0 {
		go service.RunScheduler(ctx, riskService, interval)
	}

	router := api.NewRouter(&api.Services{RiskService: riskService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().
			Str("port", cfg.Server.Port).
			Str("source", cfg.Source.Kind).
			Bool("fallback_to_demo", cfg.Source.FallbackToDemo).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to flush traces")
	}

	logger.Log.Info().Msg("Server exiting")
}
