package contracts

import (
	"context"
	"time"
)

// Repository interfaces are defined here and implemented by the owning
// packages against pgx. Services depend on these, not on the pool, so
// tests can substitute in-memory fakes.

// SectorCriterion keys per-cell aggregates (adjustment sums, totals)
type SectorCriterion struct {
	SectorID    int64
	CriterionID int64
}

// PeriodRepository manages competition periods
type PeriodRepository interface {
	GetByID(ctx context.Context, id int64) (*CompetitionPeriod, error)
	GetByMonth(ctx context.Context, month string) (*CompetitionPeriod, error)
	List(ctx context.Context) ([]*CompetitionPeriod, error)
	Create(ctx context.Context, p *CompetitionPeriod) error
	// AdvanceStatus moves from one status to the next with a
	// compare-and-set on the current status. Returns false when the
	// period was not in the expected status.
	AdvanceStatus(ctx context.Context, id int64, from, to PeriodStatus) (bool, error)
	// Close officializes the period: terminal status, closure actor and
	// time, declared winner. Same compare-and-set contract.
	Close(ctx context.Context, id int64, from PeriodStatus, closedBy string, closedAt time.Time, winnerSectorID int64) (bool, error)
}

// SectorRepository reads the sector catalogue
type SectorRepository interface {
	GetByID(ctx context.Context, id int64) (*Sector, error)
	ListActive(ctx context.Context) ([]*Sector, error)
}

// CriterionRepository reads the criterion catalogue
type CriterionRepository interface {
	GetByID(ctx context.Context, id int64) (*Criterion, error)
	ListActive(ctx context.Context) ([]*Criterion, error)
}

// ParameterRepository manages the versioned target log
type ParameterRepository interface {
	ListByPeriod(ctx context.Context, periodID int64) ([]*ParameterValue, error)
	// Supersede atomically closes the group's open-ended version (if
	// any) and inserts the new one, preserving the at-most-one-open
	// invariant under concurrent edits.
	Supersede(ctx context.Context, p *ParameterValue) (*ParameterValue, error)
}

// PerformanceRepository reads ingestion-owned raw measurements
type PerformanceRepository interface {
	// TotalsByPeriod sums measured values per (sector, criterion).
	// Cells with no rows are simply absent from the map.
	TotalsByPeriod(ctx context.Context, periodID int64) (map[SectorCriterion]float64, error)
}

// ExpurgoRepository manages correction requests
type ExpurgoRepository interface {
	GetByID(ctx context.Context, id int64) (*ExpurgoEvent, error)
	ListByPeriod(ctx context.Context, periodID int64) ([]*ExpurgoEvent, error)
	Create(ctx context.Context, e *ExpurgoEvent) error
	// Review resolves a PENDING request with a compare-and-set on the
	// status column. Returns false when the request was already
	// reviewed by a concurrent caller.
	Review(ctx context.Context, id int64, status ExpurgoStatus, approved *float64, reviewedBy string, reviewedAt time.Time, justification string) (bool, error)
	// DeletePending removes a request that is still PENDING. Returns
	// false when the request was resolved in the meantime.
	DeletePending(ctx context.Context, id int64) (bool, error)
	// AdjustmentsByPeriod sums effective adjustments of resolved
	// events per (sector, criterion).
	AdjustmentsByPeriod(ctx context.Context, periodID int64) (map[SectorCriterion]float64, error)
}

// ScoreRepository persists derived scores and rankings
type ScoreRepository interface {
	ListScores(ctx context.Context, periodID int64) ([]*CriterionScore, error)
	ListRanking(ctx context.Context, periodID int64) ([]*FinalRanking, error)
	// Replace swaps the period's derived rows for the freshly computed
	// set inside one transaction.
	Replace(ctx context.Context, periodID int64, scores []*CriterionScore, rankings []*FinalRanking) error
}

// AuditRepository persists audit entries
type AuditRepository interface {
	Insert(ctx context.Context, entry *AuditEntry) error
}
