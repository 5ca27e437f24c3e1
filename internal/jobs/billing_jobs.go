package jobs

import (
	"context"
	"time"

	"vicidash-backend/internal/logger"
)

const jobTimeout = 5 * time.Minute

// FinalizeDailyDeductions closes the accounting day for every user: one
// upstream fetch for today's totals, then an idempotent finalization per user.
// Users whose deduction row already exists (a report request crossed the
// cutoff earlier) are skipped by the ledger.
func (jr *JobRunner) FinalizeDailyDeductions() {
	jr.runWithRecovery("finalize-daily-deductions", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		day := jr.clk.Today()
		campaign := jr.config.Vicidial.DefaultCampaign

		totalCalls, connected, totalCost, err := jr.services.Report.TodayStats(ctx, campaign)
		if err != nil {
			logger.Error("Failed to fetch today's stats, deductions not finalized",
				"day", day, "campaign", campaign, "error", err)
			return
		}
		if totalCalls == 0 {
			logger.Info("No calls today, nothing to finalize", "day", day, "campaign", campaign)
			return
		}

		userIDs, err := jr.store.UserRepository.ListIDs(ctx)
		if err != nil {
			logger.Error("Failed to list users for finalization", "day", day, "error", err)
			return
		}

		var finalized, skipped, failed int
		for _, userID := range userIDs {
			result, err := jr.services.Ledger.FinalizeDay(ctx, userID, totalCost, connected, day)
			if err != nil {
				failed++
				logger.Error("Failed to finalize user", "userID", userID, "day", day, "error", err)
				continue
			}
			if result.AlreadyRecorded {
				skipped++
				continue
			}
			finalized++
		}

		logger.Info("Daily deductions finalized", "day", day, "campaign", campaign,
			"totalCalls", totalCalls, "connectedCalls", connected, "totalCost", totalCost,
			"finalized", finalized, "alreadyRecorded", skipped, "failed", failed)
	})
}
