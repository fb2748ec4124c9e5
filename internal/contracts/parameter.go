package contracts

import "time"

// ParameterValue is one version of a target ("meta") for a criterion,
// scoped either to a single sector or globally (SectorID nil). Versions
// form an append-only chain: superseding closes the predecessor's
// effective window, nothing is ever deleted.
type ParameterValue struct {
	ID            int64      `json:"id"`
	PeriodID      int64      `json:"period_id"`
	CriterionID   int64      `json:"criterion_id"`
	SectorID      *int64     `json:"sector_id,omitempty"` // nil = global default
	Name          string     `json:"name"`
	Value         float64    `json:"value"`
	EffectiveFrom time.Time  `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to,omitempty"` // nil = open-ended
	Version       int        `json:"version"`
	SupersedesID  *int64     `json:"supersedes_id,omitempty"`
	CreatedBy     string     `json:"created_by"`
	Justification string     `json:"justification"`
	CreatedAt     time.Time  `json:"created_at"`
}

// InWindow reports whether the version's effective window contains t
func (p *ParameterValue) InWindow(t time.Time) bool {
	if p.EffectiveFrom.After(t) {
		return false
	}
	return p.EffectiveTo == nil || !p.EffectiveTo.Before(t)
}

// Measurement is one raw performance row deposited by the ingestion
// collaborator. Read-only to this engine.
type Measurement struct {
	PeriodID    int64     `json:"period_id"`
	SectorID    int64     `json:"sector_id"`
	CriterionID int64     `json:"criterion_id"`
	Date        time.Time `json:"date"`
	Value       float64   `json:"value"`
}
