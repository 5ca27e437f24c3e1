package postgres

import (
	"database/sql"

	"vicidash-backend/internal/repository"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
	repository.UserRepository
	repository.BalanceRepository
	repository.PaymentRepository
	repository.ReportRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                db,
		UserRepository:    NewUserRepository(db),
		BalanceRepository: NewBalanceRepository(db),
		PaymentRepository: NewPaymentRepository(db),
		ReportRepository:  NewReportRepository(db),
	}
}
