package service

import (
	"context"
	"testing"
	"time"

	"vicidash-backend/internal/clock"
	"vicidash-backend/internal/domain"
	"vicidash-backend/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}
func (m *MockUserRepo) ListIDs(ctx context.Context) ([]int32, error) {
	args := m.Called(ctx)
	return args.Get(0).([]int32), args.Error(1)
}

// MockPaymentRepo
type MockPaymentRepo struct {
	mock.Mock
}

func (m *MockPaymentRepo) List(ctx context.Context, userID int32, limit, offset int) ([]domain.Payment, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.Payment), args.Int(1), args.Error(2)
}
func (m *MockPaymentRepo) Stats(ctx context.Context, userID int32) (*domain.PaymentStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentStats), args.Error(1)
}

// MockReportRepo
type MockReportRepo struct {
	mock.Mock
}

func (m *MockReportRepo) Get(ctx context.Context, campaign, startDate, endDate string) (*domain.Report, error) {
	args := m.Called(ctx, campaign, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}
func (m *MockReportRepo) Save(ctx context.Context, report *domain.Report) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

// MockVicidial
type MockVicidial struct {
	mock.Mock
}

func (m *MockVicidial) TotalCalls(ctx context.Context, campaign, startDate, endDate string) (int, error) {
	args := m.Called(ctx, campaign, startDate, endDate)
	return args.Int(0), args.Error(1)
}
func (m *MockVicidial) StatusCounts(ctx context.Context, campaign, startDate, endDate string) (map[string]int, error) {
	args := m.Called(ctx, campaign, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

// MockLedgerService
type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetBalance(ctx context.Context, userID int32) (*domain.Balance, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Balance), args.Error(1)
}
func (m *MockLedgerService) ApplyLiveReport(ctx context.Context, userID int32, totalCost float64, connectedCalls int) (*domain.Balance, bool, error) {
	args := m.Called(ctx, userID, totalCost, connectedCalls)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.Balance), args.Bool(1), args.Error(2)
}
func (m *MockLedgerService) FinalizeDay(ctx context.Context, userID int32, totalCost float64, connectedCalls int, day string) (*domain.DeductionResult, error) {
	args := m.Called(ctx, userID, totalCost, connectedCalls, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DeductionResult), args.Error(1)
}
func (m *MockLedgerService) AddFunds(ctx context.Context, userID int32, amount float64, description string, transactionID *string) (*domain.BalanceChange, error) {
	args := m.Called(ctx, userID, amount, description, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceChange), args.Error(1)
}
func (m *MockLedgerService) SetBalance(ctx context.Context, userID int32, newBalance float64, description string, transactionID *string) (*domain.BalanceChange, error) {
	args := m.Called(ctx, userID, newBalance, description, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceChange), args.Error(1)
}
func (m *MockLedgerService) AdjustBalance(ctx context.Context, userID int32, adjustment float64, description string, transactionID *string) (*domain.BalanceChange, error) {
	args := m.Called(ctx, userID, adjustment, description, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BalanceChange), args.Error(1)
}
func (m *MockLedgerService) PaymentHistory(ctx context.Context, userID int32, limit, offset int) ([]domain.Payment, int, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.Payment), args.Int(1), args.Error(2)
}
func (m *MockLedgerService) PaymentStats(ctx context.Context, userID int32) (*domain.PaymentStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentStats), args.Error(1)
}

// fakeBalanceRepository keeps one balance row and its payment rows in memory,
// with transaction semantics: writes made through the LedgerTx are discarded
// when the callback fails.
type fakeBalanceRepository struct {
	created  bool
	balance  domain.Balance
	payments []domain.Payment
	nextID   int32
}

func newFakeBalanceRepository(initial, current float64, lastReset string) *fakeBalanceRepository {
	return &fakeBalanceRepository{
		created: true,
		balance: domain.Balance{
			ID:             1,
			UserID:         7,
			InitialBalance: initial,
			CurrentBalance: current,
			LastResetDate:  lastReset,
		},
		nextID: 1,
	}
}

func (f *fakeBalanceRepository) ensure(userID int32, startingBalance float64, today string) {
	if !f.created {
		f.created = true
		f.balance = domain.Balance{
			ID:             1,
			UserID:         userID,
			InitialBalance: startingBalance,
			CurrentBalance: startingBalance,
			LastResetDate:  today,
		}
	}
}

func (f *fakeBalanceRepository) GetOrCreate(ctx context.Context, userID int32, startingBalance float64, today string) (*domain.Balance, error) {
	f.ensure(userID, startingBalance, today)
	b := f.balance
	return &b, nil
}

func (f *fakeBalanceRepository) UpdateUnderLock(ctx context.Context, userID int32, startingBalance float64, today string, fn func(balance *domain.Balance, tx repository.LedgerTx) error) error {
	f.ensure(userID, startingBalance, today)
	working := f.balance
	tx := &fakeLedgerTx{repo: f, working: &working}
	if err := fn(&working, tx); err != nil {
		return err
	}

	// commit
	f.balance = working
	for _, w := range tx.deleteWindows {
		kept := f.payments[:0]
		for _, p := range f.payments {
			if p.Type == domain.PaymentTypeDeduction && !p.Timestamp.Before(w[0]) && p.Timestamp.Before(w[1]) {
				continue
			}
			kept = append(kept, p)
		}
		f.payments = kept
	}
	f.payments = append(f.payments, tx.inserted...)
	return nil
}

func (f *fakeBalanceRepository) deductions() []domain.Payment {
	var out []domain.Payment
	for _, p := range f.payments {
		if p.Type == domain.PaymentTypeDeduction {
			out = append(out, p)
		}
	}
	return out
}

type fakeLedgerTx struct {
	repo          *fakeBalanceRepository
	working       *domain.Balance
	inserted      []domain.Payment
	deleteWindows [][2]time.Time
}

func (tx *fakeLedgerTx) SaveBalance(ctx context.Context, balance *domain.Balance) error {
	*tx.working = *balance
	return nil
}

func (tx *fakeLedgerTx) GetDayDeduction(ctx context.Context, userID int32, from, to time.Time) (*domain.Payment, error) {
	for _, p := range tx.repo.payments {
		if p.UserID == userID && p.Type == domain.PaymentTypeDeduction && !p.Timestamp.Before(from) && p.Timestamp.Before(to) {
			q := p
			return &q, nil
		}
	}
	return nil, nil
}

func (tx *fakeLedgerTx) DeleteDayDeductions(ctx context.Context, userID int32, from, to time.Time) (int64, error) {
	var n int64
	for _, p := range tx.repo.payments {
		if p.UserID == userID && p.Type == domain.PaymentTypeDeduction && !p.Timestamp.Before(from) && p.Timestamp.Before(to) {
			n++
		}
	}
	tx.deleteWindows = append(tx.deleteWindows, [2]time.Time{from, to})
	return n, nil
}

func (tx *fakeLedgerTx) InsertPayment(ctx context.Context, payment *domain.Payment) error {
	tx.repo.nextID++
	payment.ID = tx.repo.nextID
	tx.inserted = append(tx.inserted, *payment)
	return nil
}

// recordingAlerts captures alert calls without touching the network.
type recordingAlerts struct {
	lowBalance []float64 // pairs of previous, current
	statements []string  // days
}

func (a *recordingAlerts) SendLowBalanceAlert(ctx context.Context, userID int32, previousBalance, currentBalance float64) error {
	a.lowBalance = append(a.lowBalance, previousBalance, currentBalance)
	return nil
}

func (a *recordingAlerts) SendDailyStatement(ctx context.Context, userID int32, day string, result *domain.DeductionResult) error {
	a.statements = append(a.statements, day)
	return nil
}

// fixedClock pins the dialer clock to 2026-08-24 at the given wall time in
// New York, with the standard 23:59 cutoff.
func fixedClock(t *testing.T, hour, minute int) *clock.Clock {
	t.Helper()
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("loading timezone: %v", err)
	}
	clk, err := clock.NewAt("America/New_York", 23, 59, func() time.Time {
		return time.Date(2026, 8, 24, hour, minute, 0, 0, loc)
	})
	if err != nil {
		t.Fatalf("building clock: %v", err)
	}
	return clk
}
