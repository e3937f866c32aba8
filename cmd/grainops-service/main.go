package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rivadavia/grainops/internal/auth"
	"github.com/rivadavia/grainops/internal/config"
	"github.com/rivadavia/grainops/internal/db"
	"github.com/rivadavia/grainops/internal/excel"
	httphandler "github.com/rivadavia/grainops/internal/http"
	"github.com/rivadavia/grainops/internal/http/middleware"
	"github.com/rivadavia/grainops/internal/logger"
	"github.com/rivadavia/grainops/internal/metrics"
	"github.com/rivadavia/grainops/internal/ocr"
	"github.com/rivadavia/grainops/internal/pdf"
	"github.com/rivadavia/grainops/internal/repository"
	"github.com/rivadavia/grainops/internal/service"
	"github.com/rivadavia/grainops/internal/settings"
	"github.com/rivadavia/grainops/internal/settlement"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	operationRepo := repository.NewOperationRepository(database)
	contactRepo := repository.NewContactRepository(database)
	settingsStore := settings.NewStore(repository.NewSettingsRepository(database), settings.Defaults(cfg), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := settingsStore.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to load settings")
	}

	calculator := settlement.NewCalculator(log, appMetrics)
	operationService := service.NewOperationService(
		operationRepo,
		contactRepo,
		settingsStore,
		calculator,
		appMetrics,
		service.OperationOptions{
			StrictTickets:  cfg.Operations.StrictTickets,
			RequireUSDRate: cfg.Operations.RequireUSDRate,
		},
		log,
	)
	contactService := service.NewContactService(contactRepo, log)
	documentService := service.NewDocumentService(operationRepo, settingsStore, excel.NewGenerator(), pdf.NewGenerator(), appMetrics, log)
	ocrClient := ocr.NewClient(cfg.OCR, appMetrics, log)
	if cfg.OCR.APIKey == "" {
		log.Warn().Msg("OCR_API_KEY not set, ticket scanning disabled")
	}

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(operationService, contactService, documentService, settingsStore, ocrClient, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, httphandler.RouterConfig{
		Environment: cfg.Environment,
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Gatherer:    registry,
		Log:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("graceful shutdown failed")
		}
	}()

	log.Info().Str("addr", addr).Str("commission_mode", string(settingsStore.Policy().Mode)).Msg("starting grainops service")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}
