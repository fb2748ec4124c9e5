package expurgo

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/premia/backend/internal/contracts"
)

// Repository persists expurgo events
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new expurgo repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const expurgoColumns = `
	id, period_id, sector_id, criterion_id, event_date,
	description, request_justification, requested_magnitude,
	approved_magnitude, status, requested_by, reviewed_by,
	reviewed_at, review_justification, attachments, created_at
`

// Create inserts a new PENDING request
func (r *Repository) Create(ctx context.Context, e *contracts.ExpurgoEvent) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO comp.expurgo_events (
			period_id, sector_id, criterion_id, event_date,
			description, request_justification, requested_magnitude,
			status, requested_by, attachments
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, e.PeriodID, e.SectorID, e.CriterionID, e.EventDate,
		e.Description, e.RequestJustification, e.RequestedMagnitude,
		e.Status, e.RequestedBy, e.Attachments,
	).Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert expurgo event: %w", err)
	}
	return nil
}

// GetByID returns one request, or nil when it does not exist
func (r *Repository) GetByID(ctx context.Context, id int64) (*contracts.ExpurgoEvent, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+expurgoColumns+`
		FROM comp.expurgo_events
		WHERE id = $1
	`, id)

	e, err := scanExpurgo(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expurgo event: %w", err)
	}
	return e, nil
}

// ListByPeriod returns every request of the period, newest first
func (r *Repository) ListByPeriod(ctx context.Context, periodID int64) ([]*contracts.ExpurgoEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+expurgoColumns+`
		FROM comp.expurgo_events
		WHERE period_id = $1
		ORDER BY created_at DESC, id DESC
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expurgo events: %w", err)
	}
	defer rows.Close()

	events := make([]*contracts.ExpurgoEvent, 0)
	for rows.Next() {
		e, err := scanExpurgo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expurgo event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Review resolves a PENDING request with a status compare-and-set.
// Exactly one of two concurrent callers sees true.
func (r *Repository) Review(ctx context.Context, id int64, status contracts.ExpurgoStatus, approved *float64, reviewedBy string, reviewedAt time.Time, justification string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE comp.expurgo_events
		SET status = $2,
		    approved_magnitude = $3,
		    reviewed_by = $4,
		    reviewed_at = $5,
		    review_justification = $6
		WHERE id = $1 AND status = 'PENDING'
	`, id, status, approved, reviewedBy, reviewedAt, justification)
	if err != nil {
		return false, fmt.Errorf("failed to review expurgo event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeletePending removes a request only while it is still PENDING
func (r *Repository) DeletePending(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM comp.expurgo_events
		WHERE id = $1 AND status = 'PENDING'
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete expurgo event: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// AdjustmentsByPeriod sums approved magnitudes of resolved events per
// (sector, criterion). Pending and rejected events contribute nothing.
func (r *Repository) AdjustmentsByPeriod(ctx context.Context, periodID int64) (map[contracts.SectorCriterion]float64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sector_id, criterion_id, SUM(approved_magnitude)::float8
		FROM comp.expurgo_events
		WHERE period_id = $1
		  AND status IN ('APPROVED', 'PARTIALLY_APPROVED')
		GROUP BY sector_id, criterion_id
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query expurgo adjustments: %w", err)
	}
	defer rows.Close()

	adjustments := make(map[contracts.SectorCriterion]float64)
	for rows.Next() {
		var key contracts.SectorCriterion
		var sum float64
		if err := rows.Scan(&key.SectorID, &key.CriterionID, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan expurgo adjustment: %w", err)
		}
		adjustments[key] = sum
	}
	return adjustments, rows.Err()
}

func scanExpurgo(row pgx.Row) (*contracts.ExpurgoEvent, error) {
	var e contracts.ExpurgoEvent
	err := row.Scan(
		&e.ID, &e.PeriodID, &e.SectorID, &e.CriterionID, &e.EventDate,
		&e.Description, &e.RequestJustification, &e.RequestedMagnitude,
		&e.ApprovedMagnitude, &e.Status, &e.RequestedBy, &e.ReviewedBy,
		&e.ReviewedAt, &e.ReviewJustification, &e.Attachments, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
