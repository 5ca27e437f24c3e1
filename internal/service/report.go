package service

import (
	"context"
	"fmt"
	"time"

	"vicidash-backend/internal/callstats"
	"vicidash-backend/internal/clock"
	"vicidash-backend/internal/domain"
	"vicidash-backend/internal/logger"
	"vicidash-backend/internal/repository"
)

// VicidialStats is the slice of the dialer client the report service needs.
type VicidialStats interface {
	TotalCalls(ctx context.Context, campaign, startDate, endDate string) (int, error)
	StatusCounts(ctx context.Context, campaign, startDate, endDate string) (map[string]int, error)
}

// UpstreamError marks a dialer fetch failure so the transport layer can
// answer 502 instead of 500.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("vicidial unavailable: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

type reportService struct {
	vici              VicidialStats
	reportRepo        repository.ReportRepository
	ledger            LedgerService
	classifier        *callstats.Classifier
	clk               *clock.Clock
	ratePerCall       float64
	billConnectedOnly bool
	acdSeconds        float64
}

func NewReportService(vici VicidialStats, reportRepo repository.ReportRepository, ledger LedgerService, classifier *callstats.Classifier, clk *clock.Clock, ratePerCall float64, billConnectedOnly bool, acdSeconds float64) ReportService {
	return &reportService{
		vici:              vici,
		reportRepo:        reportRepo,
		ledger:            ledger,
		classifier:        classifier,
		clk:               clk,
		ratePerCall:       ratePerCall,
		billConnectedOnly: billConnectedOnly,
		acdSeconds:        acdSeconds,
	}
}

func (s *reportService) GetReport(ctx context.Context, userID int32, campaign, startDate, endDate string) (*domain.CallReport, error) {
	logger.EnterMethod("reportService.GetReport", "userID", userID, "campaign", campaign, "startDate", startDate, "endDate", endDate)

	startDt, err := s.clk.ParseDate(startDate)
	if err != nil {
		return nil, err
	}
	endDt, err := s.clk.ParseDate(endDate)
	if err != nil {
		return nil, err
	}
	if startDt.After(endDt) {
		return nil, ErrInvalidDateRange
	}

	today := s.clk.Today()
	isLive := startDate == today && endDate == today
	closed := s.isClosedRange(endDt)

	if closed {
		cached, err := s.reportRepo.Get(ctx, campaign, startDate, endDate)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			balance, err := s.ledger.GetBalance(ctx, userID)
			if err != nil {
				return nil, err
			}
			logger.Info("Report served from cache", "campaign", campaign, "startDate", startDate, "endDate", endDate)
			return &domain.CallReport{
				Campaign:       cached.Campaign,
				StartDate:      cached.StartDate,
				EndDate:        cached.EndDate,
				TotalCalls:     cached.TotalCalls,
				ConnectedCalls: cached.ConnectedCalls,
				ASRPercent:     cached.ASRPercent,
				ACDSeconds:     cached.ACDSeconds,
				RatePerCall:    s.ratePerCall,
				TotalCost:      cached.TotalCost,
				Dispositions:   cached.Dispositions,
				Balance:        balance.CurrentBalance,
				Source:         domain.ReportSourceHistorical,
				Cached:         true,
				VicidialDate:   today,
				QueryDate:      startDate,
			}, nil
		}
	}

	totalCalls, err := s.vici.TotalCalls(ctx, campaign, startDate, endDate)
	if err != nil {
		logger.ExitMethodWithError("reportService.GetReport", err, "campaign", campaign)
		return nil, &UpstreamError{Err: err}
	}

	if totalCalls == 0 {
		balance, err := s.ledger.GetBalance(ctx, userID)
		if err != nil {
			return nil, err
		}
		// TotalCalls stays zero; the handler turns this into the no-data payload
		return &domain.CallReport{
			Campaign:     campaign,
			StartDate:    startDate,
			EndDate:      endDate,
			Balance:      balance.CurrentBalance,
			VicidialDate: today,
			QueryDate:    startDate,
		}, nil
	}

	counts, err := s.vici.StatusCounts(ctx, campaign, startDate, endDate)
	if err != nil {
		logger.ExitMethodWithError("reportService.GetReport", err, "campaign", campaign)
		return nil, &UpstreamError{Err: err}
	}

	connected := s.classifier.ConnectedCalls(counts)
	billable := callstats.BillableCalls(totalCalls, connected, s.billConnectedOnly)
	totalCost := callstats.TotalCost(billable, s.ratePerCall)

	report := &domain.CallReport{
		Campaign:       campaign,
		StartDate:      startDate,
		EndDate:        endDate,
		TotalCalls:     totalCalls,
		ConnectedCalls: connected,
		ASRPercent:     callstats.ASRPercent(connected, totalCalls),
		ACDSeconds:     s.acdSeconds,
		RatePerCall:    s.ratePerCall,
		TotalCost:      totalCost,
		Dispositions:   counts,
		Source:         domain.ReportSourceHistorical,
		VicidialDate:   today,
		QueryDate:      startDate,
	}

	if isLive {
		report.Source = domain.ReportSourceLive
		balance, pending, err := s.ledger.ApplyLiveReport(ctx, userID, totalCost, connected)
		if err != nil {
			return nil, err
		}
		report.Balance = balance.CurrentBalance
		report.DeductionPending = pending
	} else {
		balance, err := s.ledger.GetBalance(ctx, userID)
		if err != nil {
			return nil, err
		}
		report.Balance = balance.CurrentBalance
	}

	if closed {
		stored := &domain.Report{
			Campaign:       campaign,
			StartDate:      startDate,
			EndDate:        endDate,
			TotalCalls:     totalCalls,
			ConnectedCalls: connected,
			ASRPercent:     report.ASRPercent,
			ACDSeconds:     report.ACDSeconds,
			TotalCost:      totalCost,
			Dispositions:   counts,
		}
		if err := s.reportRepo.Save(ctx, stored); err != nil {
			// the report was still served; losing a cache write is not fatal
			logger.Warn("Failed to cache report", "campaign", campaign, "startDate", startDate, "endDate", endDate, "error", err)
		}
	}

	logger.ExitMethod("reportService.GetReport", "campaign", campaign,
		"totalCalls", totalCalls, "connectedCalls", connected, "source", string(report.Source))
	return report, nil
}

// TodayStats fetches today's totals for a campaign. Used by the end-of-day
// finalization paths that need one authoritative figure for the whole day.
func (s *reportService) TodayStats(ctx context.Context, campaign string) (int, int, float64, error) {
	today := s.clk.Today()

	totalCalls, err := s.vici.TotalCalls(ctx, campaign, today, today)
	if err != nil {
		return 0, 0, 0, &UpstreamError{Err: err}
	}
	if totalCalls == 0 {
		return 0, 0, 0, nil
	}

	counts, err := s.vici.StatusCounts(ctx, campaign, today, today)
	if err != nil {
		return 0, 0, 0, &UpstreamError{Err: err}
	}

	connected := s.classifier.ConnectedCalls(counts)
	billable := callstats.BillableCalls(totalCalls, connected, s.billConnectedOnly)
	return totalCalls, connected, callstats.TotalCost(billable, s.ratePerCall), nil
}

// isClosedRange reports whether the range end is settled, i.e. strictly more
// than one full day in the past. Yesterday still changes while the dialer
// flushes logs, so it never enters the cache.
func (s *reportService) isClosedRange(endDt time.Time) bool {
	return endDt.Before(s.clk.TodayDate().AddDate(0, 0, -1))
}
