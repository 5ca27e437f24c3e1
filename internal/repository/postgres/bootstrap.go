package postgres

import (
	"context"
	"fmt"

	"vicidash-backend/internal/logger"
)

// schema is applied at startup. Statements are idempotent so restarts are
// safe.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		hashed_password TEXT NOT NULL,
		full_name TEXT NOT NULL DEFAULT '',
		created_on TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS balances (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL UNIQUE REFERENCES users(id),
		initial_balance DOUBLE PRECISION NOT NULL,
		current_balance DOUBLE PRECISION NOT NULL,
		last_reset_date DATE,
		updated_on TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS payment_history (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		amount DOUBLE PRECISION NOT NULL,
		payment_type TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		previous_balance DOUBLE PRECISION NOT NULL,
		new_balance DOUBLE PRECISION NOT NULL,
		transaction_id TEXT,
		timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payment_history_user_time
		ON payment_history (user_id, timestamp DESC)`,
	`CREATE TABLE IF NOT EXISTS reports (
		id SERIAL PRIMARY KEY,
		campaign TEXT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		total_calls INTEGER NOT NULL,
		connected_calls INTEGER NOT NULL,
		asr_percent DOUBLE PRECISION NOT NULL,
		acd_seconds DOUBLE PRECISION NOT NULL,
		total_cost DOUBLE PRECISION NOT NULL,
		dispositions JSONB NOT NULL DEFAULT '{}',
		created_on TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (campaign, start_date, end_date)
	)`,
}

// Bootstrap creates the schema if it does not exist yet.
func (s *Store) Bootstrap(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// SeedAdmin creates the bootstrap admin account when the users table is
// empty. The password hash is computed by the caller.
func (s *Store) SeedAdmin(ctx context.Context, username, passwordHash, fullName string) error {
	count, err := s.UserRepository.Count(ctx)
	if err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if count > 0 {
		return nil
	}

	query := `INSERT INTO users (username, hashed_password, full_name) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, query, username, passwordHash, fullName); err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}
	logger.Info("Seeded admin user", "username", username)
	return nil
}
