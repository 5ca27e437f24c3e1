package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"vicidash-backend/internal/callstats"
	"vicidash-backend/internal/clock"
	"vicidash-backend/internal/config"
	"vicidash-backend/internal/jobs"
	"vicidash-backend/internal/logger"
	"vicidash-backend/internal/repository/postgres"
	"vicidash-backend/internal/scheduler"
	"vicidash-backend/internal/service"
	"vicidash-backend/internal/vicidial"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'finalize-daily-deductions')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Vicidash Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize dialer-local clock
	clk, err := clock.New(cfg.Vicidial.Timezone, cfg.Billing.EODHour, cfg.Billing.EODMinute)
	if err != nil {
		log.Fatalf("Failed to initialize clock: %v", err)
	}

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
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

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Services
	viciClient := vicidial.NewClient(cfg.Vicidial.URL, cfg.Vicidial.User, cfg.Vicidial.Pass, cfg.VicidialTimeout())
	alertService := service.NewAlertService(
		cfg.Alerts.Enabled,
		cfg.Alerts.SendGridAPIKey,
		cfg.Alerts.FromEmail,
		cfg.Alerts.FromName,
		cfg.Alerts.ToEmail,
		cfg.Billing.LowBalanceThreshold,
	)
	ledgerService := service.NewLedgerService(
		store.BalanceRepository,
		store.PaymentRepository,
		alertService,
		clk,
		cfg.Billing.StartingBalance,
	)
	reportService := service.NewReportService(
		viciClient,
		store.ReportRepository,
		ledgerService,
		callstats.NewClassifier(cfg.Vicidial.ConnectedDispositions),
		clk,
		cfg.Billing.RatePerCall,
		cfg.Billing.BillConnectedOnly,
		cfg.Billing.ACDEstimateSeconds,
	)

	jobServices := &jobs.Services{
		Ledger: ledgerService,
		Report: reportService,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(store, jobServices, cfg, clk)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler := scheduler.NewScheduler(jobRunner, clk)

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	switch jobName {
	case "finalize-daily-deductions":
		jobRunner.FinalizeDailyDeductions()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - finalize-daily-deductions\n")
		os.Exit(1)
	}
}
