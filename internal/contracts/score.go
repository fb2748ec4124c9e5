package contracts

import "time"

// CriterionScore is the derived outcome for one (period, sector,
// criterion). Recomputed wholesale, never hand-edited.
type CriterionScore struct {
	PeriodID        int64     `json:"period_id"`
	SectorID        int64     `json:"sector_id"`
	CriterionID     int64     `json:"criterion_id"`
	RealizedValue   float64   `json:"realized_value"` // raw minus approved expurgos
	TargetValue     float64   `json:"target_value"`
	AttainmentRatio float64   `json:"attainment_ratio"`
	RankInCriterion int       `json:"rank_in_criterion"`
	Score           float64   `json:"score"`
	ScaleHash       string    `json:"scale_hash"`
	ComputedAt      time.Time `json:"computed_at"`
}

// FinalRanking is the derived total for one (period, sector).
// Lower total score is the better outcome.
type FinalRanking struct {
	PeriodID     int64     `json:"period_id"`
	SectorID     int64     `json:"sector_id"`
	TotalScore   float64   `json:"total_score"`
	RankPosition int       `json:"rank_position"`
	Tied         bool      `json:"tied"`
	ComputedAt   time.Time `json:"computed_at"`
}

// ComputeWarning flags a cell the engine could not score: a missing
// measurement or an unresolved target. Warnings accompany partial
// results instead of aborting the run.
type ComputeWarning struct {
	SectorID    int64  `json:"sector_id"`
	CriterionID int64  `json:"criterion_id"`
	Reason      string `json:"reason"`
}
