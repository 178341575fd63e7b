package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/cashflow/ledgerd/internal/config"
	"github.com/cashflow/ledgerd/internal/database"
	"github.com/cashflow/ledgerd/internal/handler"
	"github.com/cashflow/ledgerd/internal/repository"
	"github.com/cashflow/ledgerd/internal/scheduler"
	"github.com/cashflow/ledgerd/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Setup structured logger
	var logHandler slog.Handler
	if cfg.IsProduction() {
		logHandler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		logHandler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = db.Close() }()

	// Initialize repositories
	obligationRepo := repository.NewObligationRepository(db)
	cycleRepo := repository.NewCycleRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	debtRepo := repository.NewDebtRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	importRepo := repository.NewImportRepository(db)

	// Initialize services
	obligationService := service.NewObligationService(obligationRepo, cycleRepo, ledgerRepo)
	debtService := service.NewDebtService(debtRepo)
	preferenceService := service.NewPreferenceService(preferenceRepo)
	forecastService := service.NewForecastService(obligationRepo, debtRepo, preferenceRepo)
	importService := service.NewImportService(importRepo, obligationService)
	exportService := service.NewExportService(obligationRepo, cycleRepo, ledgerRepo)

	// Initialize handlers
	obligationHandler := handler.NewObligationHandler(obligationService)
	debtHandler := handler.NewDebtHandler(debtService)
	preferenceHandler := handler.NewPreferenceHandler(preferenceService)
	forecastHandler := handler.NewForecastHandler(forecastService)
	importHandler := handler.NewImportHandler(importService)
	exportHandler := handler.NewExportHandler(exportService)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Obligations, cycles, and the ledger
	r.Get("/api/obligations", obligationHandler.List)
	r.Post("/api/obligations", obligationHandler.Create)
	r.Get("/api/obligations/{id}", obligationHandler.Get)
	r.Put("/api/obligations/{id}", obligationHandler.Update)
	r.Delete("/api/obligations/{id}", obligationHandler.Delete)
	r.Get("/api/obligations/{id}/cycles", obligationHandler.ListCycles)
	r.Get("/api/obligations/{id}/cycles/export", exportHandler.ExportCycles)
	r.Get("/api/obligations/{id}/entries", obligationHandler.ListEntries)
	r.Post("/api/obligations/{id}/entries", obligationHandler.RecordEntry)
	r.Get("/api/obligations/{id}/entries/export", exportHandler.ExportEntries)
	r.Get("/api/cycles/{id}/entries", obligationHandler.ListCycleEntries)
	r.Put("/api/entries/{id}", obligationHandler.UpdateEntry)
	r.Delete("/api/entries/{id}", obligationHandler.DeleteEntry)

	// Debts
	r.Get("/api/debts", debtHandler.List)
	r.Post("/api/debts", debtHandler.Create)
	r.Get("/api/debts/total", debtHandler.Total)
	r.Get("/api/debts/calculator", debtHandler.Calculator)
	r.Get("/api/debts/{id}", debtHandler.Get)
	r.Put("/api/debts/{id}", debtHandler.Update)
	r.Delete("/api/debts/{id}", debtHandler.Delete)
	r.Post("/api/debts/{id}/payments", debtHandler.MakePayment)
	r.Get("/api/debts/{id}/payments", debtHandler.ListPayments)
	r.Get("/api/debts/{id}/payoff-plan", debtHandler.PayoffPlan)

	// Forecast
	r.Get("/api/forecast", forecastHandler.Get)

	// Preferences
	r.Get("/api/preferences", preferenceHandler.Get)
	r.Put("/api/preferences", preferenceHandler.Update)
	r.Put("/api/preferences/balance", preferenceHandler.SetBalance)

	// Bank statement imports
	r.Post("/api/imports", importHandler.Upload)
	r.Get("/api/imports", importHandler.List)
	r.Post("/api/imports/{id}/apply", importHandler.Apply)

	// Nightly cycle sweep
	var sweepScheduler *scheduler.Scheduler
	if cfg.SweepEnabled {
		schedCfg := scheduler.Config{
			Schedule: cfg.SweepSchedule,
			Timeout:  cfg.SweepTimeout,
			Enabled:  cfg.SweepEnabled,
		}
		sweepScheduler = scheduler.New(schedCfg, obligationService, logger)
		if err := sweepScheduler.Start(); err != nil {
			logger.Error("Failed to start sweep scheduler", slog.String("error", err.Error()))
		}
	}

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down server...")

		if sweepScheduler != nil {
			ctx := sweepScheduler.Stop()
			<-ctx.Done()
			logger.Info("Scheduler stopped")
		}

		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("Server shutdown error", slog.String("error", err.Error()))
		}
	}()

	log.Printf("Server starting on port %s", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("Server failed: %v", err)
	}
}
