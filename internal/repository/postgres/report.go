package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"vicidash-backend/internal/domain"
	"vicidash-backend/internal/repository"
)

type reportRepository struct {
	db *sql.DB
}

func NewReportRepository(db *sql.DB) repository.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Get(ctx context.Context, campaign, startDate, endDate string) (*domain.Report, error) {
	rep := &domain.Report{}
	query := `SELECT id, campaign, start_date, end_date, total_calls, connected_calls, asr_percent, acd_seconds, total_cost, dispositions, created_on
	          FROM reports WHERE campaign = $1 AND start_date = $2 AND end_date = $3`

	var start, end time.Time
	var dispos []byte
	err := r.db.QueryRowContext(ctx, query, campaign, startDate, endDate).Scan(
		&rep.ID, &rep.Campaign, &start, &end, &rep.TotalCalls, &rep.ConnectedCalls,
		&rep.ASRPercent, &rep.ACDSeconds, &rep.TotalCost, &dispos, &rep.CreatedOn,
	)
	if err == sql.ErrNoRows {
		// a miss is not an error
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rep.StartDate = start.Format("2006-01-02")
	rep.EndDate = end.Format("2006-01-02")
	if err := json.Unmarshal(dispos, &rep.Dispositions); err != nil {
		return nil, err
	}
	return rep, nil
}

func (r *reportRepository) Save(ctx context.Context, rep *domain.Report) error {
	dispos, err := json.Marshal(rep.Dispositions)
	if err != nil {
		return err
	}

	query := `INSERT INTO reports (campaign, start_date, end_date, total_calls, connected_calls, asr_percent, acd_seconds, total_cost, dispositions)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          ON CONFLICT (campaign, start_date, end_date) DO NOTHING`
	_, err = r.db.ExecContext(ctx, query, rep.Campaign, rep.StartDate, rep.EndDate,
		rep.TotalCalls, rep.ConnectedCalls, rep.ASRPercent, rep.ACDSeconds, rep.TotalCost, dispos)
	return err
}
