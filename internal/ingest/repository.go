package ingest

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/premia/backend/internal/contracts"
)

// Repository reads the raw-measurement store. The rows are deposited by
// the upstream extraction jobs; this engine never writes them.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new ingestion read repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ contracts.PerformanceRepository = (*Repository)(nil)

// TotalsByPeriod sums measured values per (sector, criterion). Cells
// with no measurement rows are absent from the map, not zero.
func (r *Repository) TotalsByPeriod(ctx context.Context, periodID int64) (map[contracts.SectorCriterion]float64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT sector_id, criterion_id, SUM(value)::float8
		FROM comp.performance_data
		WHERE period_id = $1
		GROUP BY sector_id, criterion_id
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurement totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[contracts.SectorCriterion]float64)
	for rows.Next() {
		var key contracts.SectorCriterion
		var sum float64
		if err := rows.Scan(&key.SectorID, &key.CriterionID, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan measurement total: %w", err)
		}
		totals[key] = sum
	}
	return totals, rows.Err()
}

// ListByPeriod returns the period's raw measurement rows
func (r *Repository) ListByPeriod(ctx context.Context, periodID int64) ([]*contracts.Measurement, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT period_id, sector_id, criterion_id, measure_date, value::float8
		FROM comp.performance_data
		WHERE period_id = $1
		ORDER BY sector_id, criterion_id, measure_date
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query measurements: %w", err)
	}
	defer rows.Close()

	measurements := make([]*contracts.Measurement, 0)
	for rows.Next() {
		var m contracts.Measurement
		if err := rows.Scan(&m.PeriodID, &m.SectorID, &m.CriterionID, &m.Date, &m.Value); err != nil {
			return nil, fmt.Errorf("failed to scan measurement: %w", err)
		}
		measurements = append(measurements, &m)
	}
	return measurements, rows.Err()
}
