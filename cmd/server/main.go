package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "vicidash-backend/internal/api/http"
	"vicidash-backend/internal/callstats"
	"vicidash-backend/internal/clock"
	"vicidash-backend/internal/config"
	"vicidash-backend/internal/logger"
	"vicidash-backend/internal/repository/postgres"
	"vicidash-backend/internal/security"
	"vicidash-backend/internal/service"
	"vicidash-backend/internal/vicidial"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Vicidash Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress())
	logger.Info("Vicidial configuration", "url", cfg.Vicidial.URL, "timezone", cfg.Vicidial.Timezone, "default_campaign", cfg.Vicidial.DefaultCampaign)

	// Initialize dialer-local clock
	clk, err := clock.New(cfg.Vicidial.Timezone, cfg.Billing.EODHour, cfg.Billing.EODMinute)
	if err != nil {
		logger.Error("Failed to initialize clock", "error", err)
		log.Fatalf("Failed to initialize clock: %v", err)
	}

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Initialize Repositories and schema
	store := postgres.NewStore(db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.Bootstrap(ctx); err != nil {
		cancel()
		logger.Error("Failed to bootstrap schema", "error", err)
		log.Fatalf("Failed to bootstrap schema: %v", err)
	}
	if cfg.Auth.AdminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Auth.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			cancel()
			log.Fatalf("Failed to hash admin password: %v", err)
		}
		if err := store.SeedAdmin(ctx, "admin", string(hash), "Administrator"); err != nil {
			cancel()
			logger.Error("Failed to seed admin user", "error", err)
			log.Fatalf("Failed to seed admin user: %v", err)
		}
	}
	cancel()

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.Auth.Secret, cfg.Auth.TokenExpiryHours)

	// Initialize upstream client
	viciClient := vicidial.NewClient(cfg.Vicidial.URL, cfg.Vicidial.User, cfg.Vicidial.Pass, cfg.VicidialTimeout())

	// Initialize Services
	alertSvc := service.NewAlertService(
		cfg.Alerts.Enabled,
		cfg.Alerts.SendGridAPIKey,
		cfg.Alerts.FromEmail,
		cfg.Alerts.FromName,
		cfg.Alerts.ToEmail,
		cfg.Billing.LowBalanceThreshold,
	)
	ledgerSvc := service.NewLedgerService(
		store.BalanceRepository,
		store.PaymentRepository,
		alertSvc,
		clk,
		cfg.Billing.StartingBalance,
	)
	reportSvc := service.NewReportService(
		viciClient,
		store.ReportRepository,
		ledgerSvc,
		callstats.NewClassifier(cfg.Vicidial.ConnectedDispositions),
		clk,
		cfg.Billing.RatePerCall,
		cfg.Billing.BillConnectedOnly,
		cfg.Billing.ACDEstimateSeconds,
	)
	authSvc := service.NewAuthService(store.UserRepository, tokenManager)

	// Initialize HTTP surface
	handlers := httpapi.NewHandlers(authSvc, ledgerSvc, reportSvc, clk, cfg.Vicidial.DefaultCampaign)
	router := httpapi.NewRouter(handlers, httpapi.NewAuthMiddleware(tokenManager))

	server := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.VicidialTimeout() + 10*time.Second, // report requests wait on the dialer
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down HTTP server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}
