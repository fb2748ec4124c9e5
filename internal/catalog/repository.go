package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/premia/backend/internal/contracts"
)

// SectorRepository reads the sector catalogue. Sectors and criteria are
// referenced by competition rows, never owned; this engine only reads
// them.
type SectorRepository struct {
	pool *pgxpool.Pool
}

// NewSectorRepository creates a new sector repository
func NewSectorRepository(pool *pgxpool.Pool) *SectorRepository {
	return &SectorRepository{pool: pool}
}

// GetByID returns one sector, or nil when it does not exist
func (r *SectorRepository) GetByID(ctx context.Context, id int64) (*contracts.Sector, error) {
	var s contracts.Sector
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, active FROM comp.sectors WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Active)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sector: %w", err)
	}
	return &s, nil
}

// ListActive returns the competing sectors ordered by name
func (r *SectorRepository) ListActive(ctx context.Context) ([]*contracts.Sector, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, active FROM comp.sectors WHERE active ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sectors: %w", err)
	}
	defer rows.Close()

	sectors := make([]*contracts.Sector, 0)
	for rows.Next() {
		var s contracts.Sector
		if err := rows.Scan(&s.ID, &s.Name, &s.Active); err != nil {
			return nil, fmt.Errorf("failed to scan sector: %w", err)
		}
		sectors = append(sectors, &s)
	}
	return sectors, rows.Err()
}

// CriterionRepository reads the criterion catalogue
type CriterionRepository struct {
	pool *pgxpool.Pool
}

// NewCriterionRepository creates a new criterion repository
func NewCriterionRepository(pool *pgxpool.Pool) *CriterionRepository {
	return &CriterionRepository{pool: pool}
}

// GetByID returns one criterion, or nil when it does not exist
func (r *CriterionRepository) GetByID(ctx context.Context, id int64) (*contracts.Criterion, error) {
	var c contracts.Criterion
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, sort_index, direction, unit, active, precision
		FROM comp.criteria WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.SortIndex, &c.Direction, &c.Unit, &c.Active, &c.Precision)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get criterion: %w", err)
	}
	return &c, nil
}

// ListActive returns the scoring criteria in display order
func (r *CriterionRepository) ListActive(ctx context.Context) ([]*contracts.Criterion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, sort_index, direction, unit, active, precision
		FROM comp.criteria WHERE active ORDER BY sort_index, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query criteria: %w", err)
	}
	defer rows.Close()

	criteria := make([]*contracts.Criterion, 0)
	for rows.Next() {
		var c contracts.Criterion
		if err := rows.Scan(&c.ID, &c.Name, &c.SortIndex, &c.Direction, &c.Unit, &c.Active, &c.Precision); err != nil {
			return nil, fmt.Errorf("failed to scan criterion: %w", err)
		}
		criteria = append(criteria, &c)
	}
	return criteria, rows.Err()
}
