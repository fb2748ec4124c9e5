package params

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/premia/backend/internal/contracts"
)

// Repository persists the versioned target log
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new parameter repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const parameterColumns = `
	id, period_id, criterion_id, sector_id, name, value,
	effective_from, effective_to, version, supersedes_id,
	created_by, justification, created_at
`

// ListByPeriod returns every version row of the period, newest first
func (r *Repository) ListByPeriod(ctx context.Context, periodID int64) ([]*contracts.ParameterValue, error) {
	query := `
		SELECT ` + parameterColumns + `
		FROM comp.parameter_values
		WHERE period_id = $1
		ORDER BY criterion_id, sector_id NULLS FIRST, version DESC
	`

	rows, err := r.pool.Query(ctx, query, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parameter values: %w", err)
	}
	defer rows.Close()

	return scanParameters(rows)
}

// Supersede atomically closes the group's current open-ended version and
// inserts the new one. The whole operation runs in one transaction so
// the at-most-one-open-version invariant holds under concurrent edits.
func (r *Repository) Supersede(ctx context.Context, p *contracts.ParameterValue) (*contracts.ParameterValue, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Close the open version of the same (criterion, sector, period)
	// group and pick up its id and version. FOR UPDATE serializes two
	// concurrent supersessions of the same group.
	var prevID *int64
	version := 1

	row := tx.QueryRow(ctx, `
		SELECT id, version
		FROM comp.parameter_values
		WHERE period_id = $1
		  AND criterion_id = $2
		  AND sector_id IS NOT DISTINCT FROM $3
		  AND effective_to IS NULL
		FOR UPDATE
	`, p.PeriodID, p.CriterionID, p.SectorID)

	var openID int64
	var openVersion int
	switch err := row.Scan(&openID, &openVersion); err {
	case nil:
		closeAt := p.EffectiveFrom.AddDate(0, 0, -1)
		if _, err := tx.Exec(ctx, `
			UPDATE comp.parameter_values SET effective_to = $2 WHERE id = $1
		`, openID, closeAt); err != nil {
			return nil, fmt.Errorf("failed to close superseded version: %w", err)
		}
		prevID = &openID
		version = openVersion + 1
	case pgx.ErrNoRows:
		// First version of the group
	default:
		return nil, fmt.Errorf("failed to lock current version: %w", err)
	}

	inserted := *p
	inserted.Version = version
	inserted.SupersedesID = prevID

	err = tx.QueryRow(ctx, `
		INSERT INTO comp.parameter_values (
			period_id, criterion_id, sector_id, name, value,
			effective_from, effective_to, version, supersedes_id,
			created_by, justification
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`, p.PeriodID, p.CriterionID, p.SectorID, p.Name, p.Value,
		p.EffectiveFrom, p.EffectiveTo, version, prevID,
		p.CreatedBy, p.Justification,
	).Scan(&inserted.ID, &inserted.CreatedAt)
	if err != nil {
		// Two concurrent first versions of the same group both pass
		// the FOR UPDATE lookup (no row to lock yet); the partial
		// unique index rejects the loser here.
		if isUniqueViolation(err) {
			return nil, contracts.Conflictf("target for this group was defined concurrently")
		}
		return nil, fmt.Errorf("failed to insert parameter version: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &inserted, nil
}

// isUniqueViolation reports whether err is a unique-constraint
// violation (SQLSTATE 23505)
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanParameters(rows pgx.Rows) ([]*contracts.ParameterValue, error) {
	values := make([]*contracts.ParameterValue, 0)
	for rows.Next() {
		var p contracts.ParameterValue
		err := rows.Scan(
			&p.ID, &p.PeriodID, &p.CriterionID, &p.SectorID, &p.Name, &p.Value,
			&p.EffectiveFrom, &p.EffectiveTo, &p.Version, &p.SupersedesID,
			&p.CreatedBy, &p.Justification, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan parameter value: %w", err)
		}
		values = append(values, &p)
	}
	return values, rows.Err()
}
