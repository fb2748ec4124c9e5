package scoring

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetops/premia/backend/internal/contracts"
)

// Repository loads scoring snapshots and persists derived rows
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new scoring repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// LoadSnapshot reads the period's catalogue, target log, raw totals and
// approved adjustments inside one repeatable-read transaction, so the
// whole recomputation sees a single point-in-time view.
func (r *Repository) LoadSnapshot(ctx context.Context, period *contracts.CompetitionPeriod) (*Snapshot, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	snap := &Snapshot{
		Period:      period,
		RawTotals:   make(map[contracts.SectorCriterion]float64),
		Adjustments: make(map[contracts.SectorCriterion]float64),
	}

	if snap.Sectors, err = loadSectors(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Criteria, err = loadCriteria(ctx, tx); err != nil {
		return nil, err
	}
	if snap.Parameters, err = loadParameters(ctx, tx, period.ID); err != nil {
		return nil, err
	}
	if err = loadTotals(ctx, tx, period.ID, snap.RawTotals); err != nil {
		return nil, err
	}
	if err = loadAdjustments(ctx, tx, period.ID, snap.Adjustments); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit snapshot transaction: %w", err)
	}

	return snap, nil
}

// Replace swaps the period's derived rows for the freshly computed set.
// Delete plus insert in one transaction keeps re-runs idempotent and
// never exposes a half-updated ranking.
func (r *Repository) Replace(ctx context.Context, periodID int64, scores []*contracts.CriterionScore, rankings []*contracts.FinalRanking) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM comp.criterion_scores WHERE period_id = $1`, periodID); err != nil {
		return fmt.Errorf("failed to clear criterion scores: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM comp.final_rankings WHERE period_id = $1`, periodID); err != nil {
		return fmt.Errorf("failed to clear final rankings: %w", err)
	}

	for _, s := range scores {
		_, err := tx.Exec(ctx, `
			INSERT INTO comp.criterion_scores (
				period_id, sector_id, criterion_id, realized_value,
				target_value, attainment_ratio, rank_in_criterion,
				score, scale_hash, computed_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, s.PeriodID, s.SectorID, s.CriterionID, s.RealizedValue,
			s.TargetValue, s.AttainmentRatio, s.RankInCriterion,
			s.Score, s.ScaleHash, s.ComputedAt)
		if err != nil {
			return fmt.Errorf("failed to insert criterion score: %w", err)
		}
	}

	for _, fr := range rankings {
		_, err := tx.Exec(ctx, `
			INSERT INTO comp.final_rankings (
				period_id, sector_id, total_score, rank_position, tied, computed_at
			) VALUES ($1, $2, $3, $4, $5, $6)
		`, fr.PeriodID, fr.SectorID, fr.TotalScore, fr.RankPosition, fr.Tied, fr.ComputedAt)
		if err != nil {
			return fmt.Errorf("failed to insert final ranking: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListScores returns the period's criterion scores
func (r *Repository) ListScores(ctx context.Context, periodID int64) ([]*contracts.CriterionScore, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT period_id, sector_id, criterion_id, realized_value,
		       target_value, attainment_ratio, rank_in_criterion,
		       score, scale_hash, computed_at
		FROM comp.criterion_scores
		WHERE period_id = $1
		ORDER BY criterion_id, rank_in_criterion, sector_id
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query criterion scores: %w", err)
	}
	defer rows.Close()

	scores := make([]*contracts.CriterionScore, 0)
	for rows.Next() {
		var s contracts.CriterionScore
		err := rows.Scan(
			&s.PeriodID, &s.SectorID, &s.CriterionID, &s.RealizedValue,
			&s.TargetValue, &s.AttainmentRatio, &s.RankInCriterion,
			&s.Score, &s.ScaleHash, &s.ComputedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan criterion score: %w", err)
		}
		scores = append(scores, &s)
	}
	return scores, rows.Err()
}

// ListRanking returns the period's final ranking, best first
func (r *Repository) ListRanking(ctx context.Context, periodID int64) ([]*contracts.FinalRanking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT period_id, sector_id, total_score, rank_position, tied, computed_at
		FROM comp.final_rankings
		WHERE period_id = $1
		ORDER BY rank_position, sector_id
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query final rankings: %w", err)
	}
	defer rows.Close()

	rankings := make([]*contracts.FinalRanking, 0)
	for rows.Next() {
		var fr contracts.FinalRanking
		err := rows.Scan(&fr.PeriodID, &fr.SectorID, &fr.TotalScore, &fr.RankPosition, &fr.Tied, &fr.ComputedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan final ranking: %w", err)
		}
		rankings = append(rankings, &fr)
	}
	return rankings, rows.Err()
}

func loadSectors(ctx context.Context, tx pgx.Tx) ([]*contracts.Sector, error) {
	rows, err := tx.Query(ctx, `
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

func loadCriteria(ctx context.Context, tx pgx.Tx) ([]*contracts.Criterion, error) {
	rows, err := tx.Query(ctx, `
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

func loadParameters(ctx context.Context, tx pgx.Tx, periodID int64) ([]*contracts.ParameterValue, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, period_id, criterion_id, sector_id, name, value,
		       effective_from, effective_to, version, supersedes_id,
		       created_by, justification, created_at
		FROM comp.parameter_values
		WHERE period_id = $1
	`, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query parameter values: %w", err)
	}
	defer rows.Close()

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

func loadTotals(ctx context.Context, tx pgx.Tx, periodID int64, totals map[contracts.SectorCriterion]float64) error {
	rows, err := tx.Query(ctx, `
		SELECT sector_id, criterion_id, SUM(value)::float8
		FROM comp.performance_data
		WHERE period_id = $1
		GROUP BY sector_id, criterion_id
	`, periodID)
	if err != nil {
		return fmt.Errorf("failed to query raw totals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key contracts.SectorCriterion
		var sum float64
		if err := rows.Scan(&key.SectorID, &key.CriterionID, &sum); err != nil {
			return fmt.Errorf("failed to scan raw total: %w", err)
		}
		totals[key] = sum
	}
	return rows.Err()
}

func loadAdjustments(ctx context.Context, tx pgx.Tx, periodID int64, adjustments map[contracts.SectorCriterion]float64) error {
	rows, err := tx.Query(ctx, `
		SELECT sector_id, criterion_id, SUM(approved_magnitude)::float8
		FROM comp.expurgo_events
		WHERE period_id = $1
		  AND status IN ('APPROVED', 'PARTIALLY_APPROVED')
		GROUP BY sector_id, criterion_id
	`, periodID)
	if err != nil {
		return fmt.Errorf("failed to query adjustments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key contracts.SectorCriterion
		var sum float64
		if err := rows.Scan(&key.SectorID, &key.CriterionID, &sum); err != nil {
			return fmt.Errorf("failed to scan adjustment: %w", err)
		}
		adjustments[key] = sum
	}
	return rows.Err()
}
