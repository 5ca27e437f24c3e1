package service

import (
	"context"
	"errors"
	"testing"

	"vicidash-backend/internal/callstats"
	"vicidash-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// the fixed clock in mocks_test.go pins "today" to 2026-08-24
const (
	testToday     = "2026-08-24"
	testYesterday = "2026-08-23"
	testClosedDay = "2026-08-22"
)

func newTestReportService(t *testing.T) (ReportService, *MockVicidial, *MockReportRepo, *MockLedgerService) {
	t.Helper()
	vici := new(MockVicidial)
	reports := new(MockReportRepo)
	ledger := new(MockLedgerService)
	classifier := callstats.NewClassifier([]string{"A", "SALE", "DROP"})
	svc := NewReportService(vici, reports, ledger, classifier, fixedClock(t, 14, 0), 0.00245, true, 330.0)
	return svc, vici, reports, ledger
}

func TestGetReport_LiveRangeAppliesLedger(t *testing.T) {
	svc, vici, reports, ledger := newTestReportService(t)
	ctx := context.Background()

	vici.On("TotalCalls", ctx, "0006", testToday, testToday).Return(5000, nil)
	vici.On("StatusCounts", ctx, "0006", testToday, testToday).
		Return(map[string]int{"A": 1200, "SALE": 50, "NA": 3750}, nil)
	ledger.On("ApplyLiveReport", ctx, int32(7), 3.06, 1250).
		Return(&domain.Balance{CurrentBalance: 96.94}, true, nil)

	report, err := svc.GetReport(ctx, 7, "0006", testToday, testToday)
	assert.NoError(t, err)
	assert.Equal(t, 5000, report.TotalCalls)
	assert.Equal(t, 1250, report.ConnectedCalls)
	assert.InDelta(t, 25.0, report.ASRPercent, 1e-9)
	assert.InDelta(t, 3.06, report.TotalCost, 1e-9, "1250 connected * 0.00245 rounded")
	assert.Equal(t, domain.ReportSourceLive, report.Source)
	assert.True(t, report.DeductionPending)
	assert.InDelta(t, 96.94, report.Balance, 1e-9)

	ledger.AssertExpectations(t)
	reports.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	reports.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestGetReport_PastRangeNeverMutatesBalance(t *testing.T) {
	svc, vici, reports, ledger := newTestReportService(t)
	ctx := context.Background()

	// yesterday is not live and not yet closed: upstream fetch, no cache access
	vici.On("TotalCalls", ctx, "0006", testYesterday, testYesterday).Return(100, nil)
	vici.On("StatusCounts", ctx, "0006", testYesterday, testYesterday).
		Return(map[string]int{"A": 40}, nil)
	ledger.On("GetBalance", ctx, int32(7)).Return(&domain.Balance{CurrentBalance: 87.66}, nil)

	report, err := svc.GetReport(ctx, 7, "0006", testYesterday, testYesterday)
	assert.NoError(t, err)
	assert.Equal(t, domain.ReportSourceHistorical, report.Source)
	assert.False(t, report.Cached)
	assert.InDelta(t, 87.66, report.Balance, 1e-9)

	ledger.AssertNotCalled(t, "ApplyLiveReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	reports.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	reports.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestGetReport_ClosedRangeCacheHitSkipsUpstream(t *testing.T) {
	svc, vici, reports, ledger := newTestReportService(t)
	ctx := context.Background()

	reports.On("Get", ctx, "0006", testClosedDay, testClosedDay).Return(&domain.Report{
		Campaign:       "0006",
		StartDate:      testClosedDay,
		EndDate:        testClosedDay,
		TotalCalls:     2000,
		ConnectedCalls: 500,
		ASRPercent:     25.0,
		ACDSeconds:     330.0,
		TotalCost:      1.23,
		Dispositions:   map[string]int{"A": 500, "NA": 1500},
	}, nil)
	ledger.On("GetBalance", ctx, int32(7)).Return(&domain.Balance{CurrentBalance: 87.66}, nil)

	report, err := svc.GetReport(ctx, 7, "0006", testClosedDay, testClosedDay)
	assert.NoError(t, err)
	assert.True(t, report.Cached)
	assert.Equal(t, 2000, report.TotalCalls)
	assert.InDelta(t, 1.23, report.TotalCost, 1e-9)
	assert.InDelta(t, 87.66, report.Balance, 1e-9)

	vici.AssertNotCalled(t, "TotalCalls", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetReport_ClosedRangeCacheMissStoresSnapshot(t *testing.T) {
	svc, vici, reports, ledger := newTestReportService(t)
	ctx := context.Background()

	reports.On("Get", ctx, "0006", testClosedDay, testClosedDay).Return(nil, nil)
	vici.On("TotalCalls", ctx, "0006", testClosedDay, testClosedDay).Return(2000, nil)
	vici.On("StatusCounts", ctx, "0006", testClosedDay, testClosedDay).
		Return(map[string]int{"A": 500, "NA": 1500}, nil)
	ledger.On("GetBalance", ctx, int32(7)).Return(&domain.Balance{CurrentBalance: 87.66}, nil)
	reports.On("Save", ctx, mock.MatchedBy(func(r *domain.Report) bool {
		return r.Campaign == "0006" && r.StartDate == testClosedDay && r.TotalCalls == 2000 && r.ConnectedCalls == 500
	})).Return(nil)

	report, err := svc.GetReport(ctx, 7, "0006", testClosedDay, testClosedDay)
	assert.NoError(t, err)
	assert.False(t, report.Cached)
	assert.Equal(t, domain.ReportSourceHistorical, report.Source)
	reports.AssertExpectations(t)
}

func TestGetReport_NoDataReturnsEarly(t *testing.T) {
	svc, vici, _, ledger := newTestReportService(t)
	ctx := context.Background()

	vici.On("TotalCalls", ctx, "0006", testToday, testToday).Return(0, nil)
	ledger.On("GetBalance", ctx, int32(7)).Return(&domain.Balance{CurrentBalance: 100.0}, nil)

	report, err := svc.GetReport(ctx, 7, "0006", testToday, testToday)
	assert.NoError(t, err)
	assert.Equal(t, 0, report.TotalCalls)
	assert.InDelta(t, 100.0, report.Balance, 1e-9)

	vici.AssertNotCalled(t, "StatusCounts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	ledger.AssertNotCalled(t, "ApplyLiveReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestGetReport_UpstreamFailure(t *testing.T) {
	svc, vici, _, _ := newTestReportService(t)
	ctx := context.Background()

	vici.On("TotalCalls", ctx, "0006", testToday, testToday).Return(0, errors.New("dial tcp: timeout"))

	_, err := svc.GetReport(ctx, 7, "0006", testToday, testToday)
	var upstream *UpstreamError
	assert.ErrorAs(t, err, &upstream)
}

func TestGetReport_ValidatesDates(t *testing.T) {
	svc, _, _, _ := newTestReportService(t)
	ctx := context.Background()

	_, err := svc.GetReport(ctx, 7, "0006", "2026-08-24", "2026-08-20")
	assert.ErrorIs(t, err, ErrInvalidDateRange)

	_, err = svc.GetReport(ctx, 7, "0006", "24-08-2026", "2026-08-24")
	assert.Error(t, err)
}

func TestTodayStats(t *testing.T) {
	svc, vici, _, _ := newTestReportService(t)
	ctx := context.Background()

	vici.On("TotalCalls", ctx, "0006", testToday, testToday).Return(5000, nil)
	vici.On("StatusCounts", ctx, "0006", testToday, testToday).
		Return(map[string]int{"A": 1200, "SALE": 50, "NA": 3750}, nil)

	total, connected, cost, err := svc.TodayStats(ctx, "0006")
	assert.NoError(t, err)
	assert.Equal(t, 5000, total)
	assert.Equal(t, 1250, connected)
	assert.InDelta(t, 3.06, cost, 1e-9)
}

func TestTodayStats_NoCalls(t *testing.T) {
	svc, vici, _, _ := newTestReportService(t)
	ctx := context.Background()

	vici.On("TotalCalls", ctx, "0006", testToday, testToday).Return(0, nil)

	total, connected, cost, err := svc.TodayStats(ctx, "0006")
	assert.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, connected)
	assert.Zero(t, cost)
	vici.AssertNotCalled(t, "StatusCounts", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
