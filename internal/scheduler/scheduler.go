package scheduler

import (
	"vicidash-backend/internal/clock"
	"vicidash-backend/internal/jobs"
	"vicidash-backend/internal/logger"

	"github.com/robfig/cron/v3"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a scheduler running in the dialer timezone, so the
// end-of-day trigger fires at the dialer's cutoff rather than the host's.
func NewScheduler(jobRunner *jobs.JobRunner, clk *clock.Clock) *Scheduler {
	c := cron.New(
		cron.WithLocation(clk.Location()),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Scheduler

	_, err := s.cron.AddFunc(cfg.FinalizeDailyDeductions, s.jobs.FinalizeDailyDeductions)
	if err != nil {
		logger.Error("Failed to register FinalizeDailyDeductions job", "error", err)
		return
	}

	logger.Info("All cron jobs registered successfully", "finalize_daily_deductions", cfg.FinalizeDailyDeductions)
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has registered entries
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
