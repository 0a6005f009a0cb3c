package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kitasuro/kitasuro/internal"
	"github.com/kitasuro/kitasuro/internal/billing"
	"github.com/kitasuro/kitasuro/internal/email"
	"github.com/kitasuro/kitasuro/internal/handler"
	"github.com/kitasuro/kitasuro/internal/jobs"
	"github.com/kitasuro/kitasuro/internal/metrics"
	"github.com/kitasuro/kitasuro/internal/middleware"
	"github.com/kitasuro/kitasuro/internal/report"
	"github.com/kitasuro/kitasuro/internal/repository"
	"github.com/kitasuro/kitasuro/internal/service"
	"github.com/kitasuro/kitasuro/internal/storage"
	"github.com/kitasuro/kitasuro/internal/worker"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository
	queries := repository.New(db)

	// Initialize storage
	var store storage.Storage
	switch cfg.StorageProvider {
	case storage.ProviderR2:
		store, err = storage.NewR2Storage(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		}, logger)
	default:
		store, err = storage.NewLocalStorage(storage.LocalConfig{
			BasePath: cfg.LocalStoragePath,
			BaseURL:  cfg.LocalStorageURL,
		}, logger)
	}
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// Initialize email service
	emailService, err := email.NewSMTPEmailService(email.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	}, cfg.BaseURL, logger)
	if err != nil {
		return fmt.Errorf("email service initialization failed: %w", err)
	}

	// Initialize billing (nil when Stripe is not configured)
	var billingService billing.Service
	if cfg.StripeSecretKey != "" {
		billingService = billing.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookSecret, billing.PriceConfig{
			StarterMonthlyPriceID:  cfg.StripeStarterMonthlyPriceID,
			StarterYearlyPriceID:   cfg.StripeStarterYearlyPriceID,
			ProMonthlyPriceID:      cfg.StripeProMonthlyPriceID,
			ProYearlyPriceID:       cfg.StripeProYearlyPriceID,
			BusinessMonthlyPriceID: cfg.StripeBusinessMonthlyPriceID,
			BusinessYearlyPriceID:  cfg.StripeBusinessYearlyPriceID,
		})
		logger.Info("Stripe billing enabled")
	} else {
		logger.Warn("Stripe billing disabled: STRIPE_SECRET_KEY not set")
	}

	// Initialize PDF pipeline
	converter := report.NewWeasyPrintConverter()
	converter.Command = cfg.WeasyPrintCommand
	generator, err := report.NewThemedHTMLGenerator(converter, report.NewHTTPImageDownloader(), logger)
	if err != nil {
		return fmt.Errorf("report generator initialization failed: %w", err)
	}

	// Initialize services
	planService := service.NewPlanService(queries, logger)
	userService := service.NewUserService(db, queries, logger)
	orgService := service.NewOrganizationService(db, queries, planService, logger)
	proposalService := service.NewProposalService(queries, planService, logger)
	imageService := service.NewImageService(queries, planService, store, service.NewImagingProcessor(), logger)

	// Initialize background worker
	var jobWorker *worker.Worker
	if cfg.WorkerEnabled {
		jobWorker, err = worker.New(db, queries, worker.Config{
			Concurrency:       cfg.WorkerConcurrency,
			PollInterval:      cfg.WorkerPollInterval,
			JobTimeout:        cfg.WorkerJobTimeout,
			ShutdownTimeout:   30 * time.Second,
			StaleJobThreshold: cfg.WorkerStaleJobSweep,
		}, logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}

		jobWorker.Register(jobs.NewRenderProposalPDFHandler(proposalService, planService, store, generator, logger))
		jobWorker.Register(jobs.NewSendProposalEmailHandler(queries, proposalService, planService, store, generator, emailService, logger))

		jobWorker.Start(ctx)
		logger.Info("Worker started", "concurrency", cfg.WorkerConcurrency)
	}

	// Initialize middleware
	isSecure := cfg.Env != "development"
	authMw := middleware.NewAuthMiddleware(userService, logger, isSecure)
	loggingMw := middleware.NewRequestLoggingMiddleware(logger)
	authLimiter := middleware.NewAuthRateLimiter(logger)
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(userService, authLimiter, logger, isSecure)
	orgHandler := handler.NewOrganizationHandler(orgService, emailService, logger)
	proposalHandler := handler.NewProposalHandler(proposalService, planService, imageService, orgService, queries, logger)
	planHandler := handler.NewPlanHandler(planService, orgService, logger)
	billingHandler := handler.NewBillingHandler(billingService, orgService, cfg.BaseURL, logger)
	webhookHandler := handler.NewWebhookHandler(billingService, orgService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics (basic-auth protected)
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Local storage files (development)
	if cfg.StorageProvider == storage.ProviderLocal {
		filesFS := http.FileServer(http.Dir(cfg.LocalStoragePath))
		mux.Handle("GET /files/", http.StripPrefix("/files/", filesFS))
	}

	requireUser := middleware.Stack(authMw.WithUser, authMw.RequireUser)

	authHandler.RegisterRoutes(mux, authLimiter.LimitLogin, authLimiter.LimitRegister, authMw.WithUser)
	orgHandler.RegisterRoutes(mux, requireUser)
	proposalHandler.RegisterRoutes(mux, requireUser)
	planHandler.RegisterRoutes(mux, requireUser)
	billingHandler.RegisterRoutes(mux, requireUser)
	webhookHandler.RegisterRoutes(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: loggingMw.Handler(metrics.Middleware(mux)),
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
		}
	}()

	<-sigChan
	logger.Info("Shutdown signal received, initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	if jobWorker != nil {
		jobWorker.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
