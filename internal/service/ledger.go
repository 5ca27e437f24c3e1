package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"vicidash-backend/internal/callstats"
	"vicidash-backend/internal/clock"
	"vicidash-backend/internal/domain"
	"vicidash-backend/internal/logger"
	"vicidash-backend/internal/repository"
)

type ledgerService struct {
	balanceRepo     repository.BalanceRepository
	paymentRepo     repository.PaymentRepository
	alerts          AlertService
	clk             *clock.Clock
	startingBalance float64
}

func NewLedgerService(balanceRepo repository.BalanceRepository, paymentRepo repository.PaymentRepository, alerts AlertService, clk *clock.Clock, startingBalance float64) LedgerService {
	return &ledgerService{
		balanceRepo:     balanceRepo,
		paymentRepo:     paymentRepo,
		alerts:          alerts,
		clk:             clk,
		startingBalance: startingBalance,
	}
}

func (s *ledgerService) GetBalance(ctx context.Context, userID int32) (*domain.Balance, error) {
	return s.balanceRepo.GetOrCreate(ctx, userID, s.startingBalance, s.clk.Today())
}

// ApplyLiveReport feeds today's running cost into the balance. The balance
// only ever moves down between resets: a cheaper partial fetch never raises
// it back, and once the day is finalized the deduction row wins.
func (s *ledgerService) ApplyLiveReport(ctx context.Context, userID int32, totalCost float64, connectedCalls int) (*domain.Balance, bool, error) {
	logger.EnterMethod("ledgerService.ApplyLiveReport", "userID", userID, "totalCost", totalCost)

	today := s.clk.Today()
	dayStart := s.clk.TodayDate()
	dayEnd := dayStart.AddDate(0, 0, 1)

	var (
		snapshot         domain.Balance
		entryBalance     float64
		deductionPending bool
		finalized        *domain.DeductionResult
	)
	err := s.balanceRepo.UpdateUnderLock(ctx, userID, s.startingBalance, today, func(b *domain.Balance, ltx repository.LedgerTx) error {
		if b.LastResetDate != today {
			b.InitialBalance = b.CurrentBalance
			b.LastResetDate = today
			if err := ltx.SaveBalance(ctx, b); err != nil {
				return err
			}
			logger.Info("Daily balance rollover", "userID", userID, "initialBalance", b.InitialBalance, "date", today)
		}
		entryBalance = b.CurrentBalance

		existing, err := ltx.GetDayDeduction(ctx, userID, dayStart, dayEnd)
		if err != nil {
			return err
		}
		if existing != nil {
			// finalized balance is authoritative for the rest of the day
			snapshot = *b
			return nil
		}

		if totalCost > b.SpentToday() {
			b.CurrentBalance = clampRound(b.InitialBalance - totalCost)
			if err := ltx.SaveBalance(ctx, b); err != nil {
				return err
			}
		}

		if s.clk.IsEndOfDay() {
			r, err := s.finalizeLocked(ctx, b, ltx, totalCost, connectedCalls, today, dayStart, dayEnd)
			if err != nil {
				return err
			}
			finalized = r
		} else {
			deductionPending = true
		}

		snapshot = *b
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("ledgerService.ApplyLiveReport", err, "userID", userID)
		return nil, false, err
	}

	if finalized != nil {
		_ = s.alerts.SendDailyStatement(ctx, userID, today, finalized)
	}
	if snapshot.CurrentBalance < entryBalance {
		_ = s.alerts.SendLowBalanceAlert(ctx, userID, entryBalance, snapshot.CurrentBalance)
	}

	logger.ExitMethod("ledgerService.ApplyLiveReport", "userID", userID,
		"currentBalance", snapshot.CurrentBalance, "deductionPending", deductionPending)
	return &snapshot, deductionPending, nil
}

// FinalizeDay writes the single deduction row for the given day and pins the
// balance to initial minus the day's cost. Safe to call more than once.
func (s *ledgerService) FinalizeDay(ctx context.Context, userID int32, totalCost float64, connectedCalls int, day string) (*domain.DeductionResult, error) {
	logger.EnterMethod("ledgerService.FinalizeDay", "userID", userID, "day", day, "totalCost", totalCost)

	dayStart, err := s.clk.ParseDate(day)
	if err != nil {
		return nil, err
	}
	dayEnd := dayStart.AddDate(0, 0, 1)

	var (
		result       domain.DeductionResult
		entryBalance float64
	)
	err = s.balanceRepo.UpdateUnderLock(ctx, userID, s.startingBalance, s.clk.Today(), func(b *domain.Balance, ltx repository.LedgerTx) error {
		// a user with no live report today still needs the day anchored before
		// the deduction; rollover only applies when closing the current day
		if day == s.clk.Today() && b.LastResetDate != day {
			b.InitialBalance = b.CurrentBalance
			b.LastResetDate = day
			if err := ltx.SaveBalance(ctx, b); err != nil {
				return err
			}
			logger.Info("Daily balance rollover", "userID", userID, "initialBalance", b.InitialBalance, "date", day)
		}
		entryBalance = b.CurrentBalance

		existing, err := ltx.GetDayDeduction(ctx, userID, dayStart, dayEnd)
		if err != nil {
			return err
		}
		if existing != nil {
			result = domain.DeductionResult{
				AlreadyRecorded: true,
				Amount:          existing.Amount,
				ConnectedCalls:  connectedCalls,
				NewBalance:      b.CurrentBalance,
			}
			return nil
		}

		r, err := s.finalizeLocked(ctx, b, ltx, totalCost, connectedCalls, day, dayStart, dayEnd)
		if err != nil {
			return err
		}
		result = *r
		return nil
	})
	if err != nil {
		logger.ExitMethodWithError("ledgerService.FinalizeDay", err, "userID", userID, "day", day)
		return nil, err
	}

	if !result.AlreadyRecorded {
		_ = s.alerts.SendDailyStatement(ctx, userID, day, &result)
		if result.NewBalance < entryBalance {
			_ = s.alerts.SendLowBalanceAlert(ctx, userID, entryBalance, result.NewBalance)
		}
	}

	logger.ExitMethod("ledgerService.FinalizeDay", "userID", userID, "day", day,
		"alreadyRecorded", result.AlreadyRecorded, "newBalance", result.NewBalance)
	return &result, nil
}

// finalizeLocked replaces any same-day deduction rows with the single
// authoritative one. The caller holds the row lock and has checked that no
// deduction row exists for the day.
func (s *ledgerService) finalizeLocked(ctx context.Context, b *domain.Balance, ltx repository.LedgerTx, totalCost float64, connectedCalls int, day string, dayStart, dayEnd time.Time) (*domain.DeductionResult, error) {
	if _, err := ltx.DeleteDayDeductions(ctx, b.UserID, dayStart, dayEnd); err != nil {
		return nil, err
	}

	amount := callstats.Round2(totalCost)
	newBalance := clampRound(b.InitialBalance - totalCost)

	payment := &domain.Payment{
		UserID:          b.UserID,
		Amount:          amount,
		Type:            domain.PaymentTypeDeduction,
		Description:     fmt.Sprintf("Daily deduction for %d connected calls (%s)", connectedCalls, day),
		PreviousBalance: b.InitialBalance,
		NewBalance:      newBalance,
		Timestamp:       s.clk.Now(),
	}
	if err := ltx.InsertPayment(ctx, payment); err != nil {
		return nil, err
	}

	b.CurrentBalance = newBalance
	if err := ltx.SaveBalance(ctx, b); err != nil {
		return nil, err
	}

	logger.Info("End-of-day deduction recorded", "userID", b.UserID, "day", day,
		"amount", amount, "connectedCalls", connectedCalls, "newBalance", newBalance)

	return &domain.DeductionResult{
		Amount:         amount,
		ConnectedCalls: connectedCalls,
		NewBalance:     newBalance,
	}, nil
}

func (s *ledgerService) AddFunds(ctx context.Context, userID int32, amount float64, description string, transactionID *string) (*domain.BalanceChange, error) {
	if amount <= 0 {
		return nil, ErrAmountNotPositive
	}
	if description == "" {
		description = fmt.Sprintf("Recharge $%.2f", amount)
	}

	var change domain.BalanceChange
	err := s.balanceRepo.UpdateUnderLock(ctx, userID, s.startingBalance, s.clk.Today(), func(b *domain.Balance, ltx repository.LedgerTx) error {
		previous := b.CurrentBalance
		newBalance := callstats.Round2(previous + amount)

		// a recharge opens a fresh spending day
		b.CurrentBalance = newBalance
		b.InitialBalance = newBalance
		if err := ltx.SaveBalance(ctx, b); err != nil {
			return err
		}

		now := s.clk.Now()
		payment := &domain.Payment{
			UserID:          userID,
			Amount:          amount,
			Type:            domain.PaymentTypeRecharge,
			Description:     description,
			PreviousBalance: previous,
			NewBalance:      newBalance,
			TransactionID:   transactionID,
			Timestamp:       now,
		}
		if err := ltx.InsertPayment(ctx, payment); err != nil {
			return err
		}

		change = domain.BalanceChange{
			PreviousBalance: previous,
			NewBalance:      newBalance,
			Adjustment:      amount,
			AdjustmentType:  domain.AdjustmentIncrease,
			Timestamp:       now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Funds added", "userID", userID, "amount", amount, "newBalance", change.NewBalance)
	return &change, nil
}

func (s *ledgerService) SetBalance(ctx context.Context, userID int32, newBalance float64, description string, transactionID *string) (*domain.BalanceChange, error) {
	if newBalance < 0 {
		return nil, ErrNegativeBalance
	}

	var change domain.BalanceChange
	err := s.balanceRepo.UpdateUnderLock(ctx, userID, s.startingBalance, s.clk.Today(), func(b *domain.Balance, ltx repository.LedgerTx) error {
		previous := b.CurrentBalance
		target := callstats.Round2(newBalance)
		adjustment := callstats.Round2(target - previous)

		b.CurrentBalance = target
		b.InitialBalance = target
		if err := ltx.SaveBalance(ctx, b); err != nil {
			return err
		}

		paymentType := domain.PaymentTypeAdjustment
		adjustmentType := domain.AdjustmentIncrease
		switch {
		case adjustment < 0:
			adjustmentType = domain.AdjustmentDecrease
		case adjustment == 0:
			paymentType = domain.PaymentTypeSetBalance
			adjustmentType = domain.AdjustmentNoChange
		}

		desc := description
		if desc == "" {
			desc = fmt.Sprintf("Balance adjusted from $%.2f to $%.2f", previous, target)
		}

		now := s.clk.Now()
		payment := &domain.Payment{
			UserID:          userID,
			Amount:          math.Abs(adjustment),
			Type:            paymentType,
			Description:     desc,
			PreviousBalance: previous,
			NewBalance:      target,
			TransactionID:   transactionID,
			Timestamp:       now,
		}
		if err := ltx.InsertPayment(ctx, payment); err != nil {
			return err
		}

		change = domain.BalanceChange{
			PreviousBalance: previous,
			NewBalance:      target,
			Adjustment:      adjustment,
			AdjustmentType:  adjustmentType,
			Timestamp:       now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if change.NewBalance < change.PreviousBalance {
		_ = s.alerts.SendLowBalanceAlert(ctx, userID, change.PreviousBalance, change.NewBalance)
	}

	logger.Info("Balance set", "userID", userID, "previousBalance", change.PreviousBalance, "newBalance", change.NewBalance)
	return &change, nil
}

func (s *ledgerService) AdjustBalance(ctx context.Context, userID int32, adjustment float64, description string, transactionID *string) (*domain.BalanceChange, error) {
	var change domain.BalanceChange
	err := s.balanceRepo.UpdateUnderLock(ctx, userID, s.startingBalance, s.clk.Today(), func(b *domain.Balance, ltx repository.LedgerTx) error {
		previous := b.CurrentBalance
		target := callstats.Round2(previous + adjustment)
		if target < 0 {
			return &NegativeBalanceError{Attempted: target}
		}

		b.CurrentBalance = target
		b.InitialBalance = target
		if err := ltx.SaveBalance(ctx, b); err != nil {
			return err
		}

		adjustmentType := domain.AdjustmentDecrease
		if adjustment > 0 {
			adjustmentType = domain.AdjustmentIncrease
		}

		desc := description
		if desc == "" {
			desc = fmt.Sprintf("Balance adjustment: %+.2f", adjustment)
		}

		now := s.clk.Now()
		payment := &domain.Payment{
			UserID:          userID,
			Amount:          math.Abs(adjustment),
			Type:            domain.PaymentTypeAdjustment,
			Description:     desc,
			PreviousBalance: previous,
			NewBalance:      target,
			TransactionID:   transactionID,
			Timestamp:       now,
		}
		if err := ltx.InsertPayment(ctx, payment); err != nil {
			return err
		}

		change = domain.BalanceChange{
			PreviousBalance: previous,
			NewBalance:      target,
			Adjustment:      adjustment,
			AdjustmentType:  adjustmentType,
			Timestamp:       now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if change.NewBalance < change.PreviousBalance {
		_ = s.alerts.SendLowBalanceAlert(ctx, userID, change.PreviousBalance, change.NewBalance)
	}

	logger.Info("Balance adjusted", "userID", userID, "adjustment", adjustment, "newBalance", change.NewBalance)
	return &change, nil
}

func (s *ledgerService) PaymentHistory(ctx context.Context, userID int32, limit, offset int) ([]domain.Payment, int, error) {
	return s.paymentRepo.List(ctx, userID, limit, offset)
}

func (s *ledgerService) PaymentStats(ctx context.Context, userID int32) (*domain.PaymentStats, error) {
	return s.paymentRepo.Stats(ctx, userID)
}

// clampRound rounds to cents and floors at zero; the balance never goes
// negative from call charges.
func clampRound(v float64) float64 {
	r := callstats.Round2(v)
	if r < 0 {
		return 0
	}
	return r
}
