package contracts

import "time"

// PeriodStatus is the lifecycle state of a competition period.
// Transitions move forward only; CLOSED is terminal.
type PeriodStatus string

const (
	PeriodPlanning  PeriodStatus = "PLANNING"
	PeriodActive    PeriodStatus = "ACTIVE"
	PeriodPreClosed PeriodStatus = "PRECLOSED"
	PeriodClosed    PeriodStatus = "CLOSED"
)

// Valid reports whether s is a known period status
func (s PeriodStatus) Valid() bool {
	switch s {
	case PeriodPlanning, PeriodActive, PeriodPreClosed, PeriodClosed:
		return true
	}
	return false
}

// CompetitionPeriod is one calendar month of competition between sectors.
// At most one period exists per month label.
type CompetitionPeriod struct {
	ID             int64        `json:"id"`
	Month          string       `json:"month"` // "2026-01"
	StartDate      time.Time    `json:"start_date"`
	EndDate        time.Time    `json:"end_date"`
	Status         PeriodStatus `json:"status"`
	ClosedBy       *string      `json:"closed_by,omitempty"`
	ClosedAt       *time.Time   `json:"closed_at,omitempty"`
	WinnerSectorID *int64       `json:"winner_sector_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// CanDefineTargets reports whether target definition is legal in the
// current state. Versioning in ACTIVE supersedes, never deletes.
func (p *CompetitionPeriod) CanDefineTargets() bool {
	return p.Status == PeriodPlanning || p.Status == PeriodActive
}

// CanRequestExpurgo reports whether new correction requests are accepted
func (p *CompetitionPeriod) CanRequestExpurgo() bool {
	return p.Status == PeriodActive
}

// CanReviewExpurgo reports whether pending requests may still be reviewed
func (p *CompetitionPeriod) CanReviewExpurgo() bool {
	return p.Status == PeriodActive || p.Status == PeriodPreClosed
}

// CanCompute reports whether scoring may run in the current state
func (p *CompetitionPeriod) CanCompute() bool {
	return p.Status == PeriodActive || p.Status == PeriodPreClosed
}

// NextStatus returns the forward transition target for Advance.
// Closing is a separate operation with its own preconditions.
func (p *CompetitionPeriod) NextStatus() (PeriodStatus, bool) {
	switch p.Status {
	case PeriodPlanning:
		return PeriodActive, true
	case PeriodActive:
		return PeriodPreClosed, true
	}
	return "", false
}
