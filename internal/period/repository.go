package period

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/premia/backend/internal/contracts"
)

// Repository persists competition periods
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new period repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const periodColumns = `
	id, month, start_date, end_date, status,
	closed_by, closed_at, winner_sector_id, created_at
`

// GetByID returns one period, or nil when it does not exist
func (r *Repository) GetByID(ctx context.Context, id int64) (*contracts.CompetitionPeriod, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+periodColumns+` FROM comp.periods WHERE id = $1
	`, id)
	return scanPeriodRow(row)
}

// GetByMonth returns the period for a month label, or nil
func (r *Repository) GetByMonth(ctx context.Context, month string) (*contracts.CompetitionPeriod, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+periodColumns+` FROM comp.periods WHERE month = $1
	`, month)
	return scanPeriodRow(row)
}

// List returns every period, newest first
func (r *Repository) List(ctx context.Context) ([]*contracts.CompetitionPeriod, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+periodColumns+` FROM comp.periods ORDER BY month DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	periods := make([]*contracts.CompetitionPeriod, 0)
	for rows.Next() {
		var p contracts.CompetitionPeriod
		err := rows.Scan(
			&p.ID, &p.Month, &p.StartDate, &p.EndDate, &p.Status,
			&p.ClosedBy, &p.ClosedAt, &p.WinnerSectorID, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan period: %w", err)
		}
		periods = append(periods, &p)
	}
	return periods, rows.Err()
}

// Create inserts a new period in PLANNING
func (r *Repository) Create(ctx context.Context, p *contracts.CompetitionPeriod) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO comp.periods (month, start_date, end_date, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, p.Month, p.StartDate, p.EndDate, p.Status).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert period: %w", err)
	}
	return nil
}

// AdvanceStatus moves the period forward with a compare-and-set on the
// current status
func (r *Repository) AdvanceStatus(ctx context.Context, id int64, from, to contracts.PeriodStatus) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE comp.periods SET status = $3 WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to advance period status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Close officializes the period (terminal)
func (r *Repository) Close(ctx context.Context, id int64, from contracts.PeriodStatus, closedBy string, closedAt time.Time, winnerSectorID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE comp.periods
		SET status = 'CLOSED',
		    closed_by = $3,
		    closed_at = $4,
		    winner_sector_id = $5
		WHERE id = $1 AND status = $2
	`, id, from, closedBy, closedAt, winnerSectorID)
	if err != nil {
		return false, fmt.Errorf("failed to close period: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func scanPeriodRow(row pgx.Row) (*contracts.CompetitionPeriod, error) {
	var p contracts.CompetitionPeriod
	err := row.Scan(
		&p.ID, &p.Month, &p.StartDate, &p.EndDate, &p.Status,
		&p.ClosedBy, &p.ClosedAt, &p.WinnerSectorID, &p.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan period: %w", err)
	}
	return &p, nil
}
