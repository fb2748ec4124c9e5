package contracts

import "time"

// ExpurgoStatus is the review state of a correction request.
// PENDING is the only state transitions fire from.
type ExpurgoStatus string

const (
	ExpurgoPending           ExpurgoStatus = "PENDING"
	ExpurgoApproved          ExpurgoStatus = "APPROVED"
	ExpurgoPartiallyApproved ExpurgoStatus = "PARTIALLY_APPROVED"
	ExpurgoRejected          ExpurgoStatus = "REJECTED"
)

// Resolved reports whether the status is terminal
func (s ExpurgoStatus) Resolved() bool {
	return s == ExpurgoApproved || s == ExpurgoPartiallyApproved || s == ExpurgoRejected
}

// Granting reports whether the status carries an approved magnitude
func (s ExpurgoStatus) Granting() bool {
	return s == ExpurgoApproved || s == ExpurgoPartiallyApproved
}

// ExpurgoEvent is a request to discount part of a sector's raw
// measurement for one criterion in one period. Several events may exist
// for the same (period, sector, criterion); scoring sums their effective
// adjustments. Once reviewed, the row is immutable history.
type ExpurgoEvent struct {
	ID                   int64         `json:"id"`
	PeriodID             int64         `json:"period_id"`
	SectorID             int64         `json:"sector_id"`
	CriterionID          int64         `json:"criterion_id"`
	EventDate            time.Time     `json:"event_date"`
	Description          string        `json:"description"`
	RequestJustification string        `json:"request_justification"`
	RequestedMagnitude   float64       `json:"requested_magnitude"`
	ApprovedMagnitude    *float64      `json:"approved_magnitude,omitempty"`
	Status               ExpurgoStatus `json:"status"`
	RequestedBy          string        `json:"requested_by"`
	ReviewedBy           *string       `json:"reviewed_by,omitempty"`
	ReviewedAt           *time.Time    `json:"reviewed_at,omitempty"`
	ReviewJustification  *string       `json:"review_justification,omitempty"`
	Attachments          []string      `json:"attachments,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
}

// EffectiveAdjustment is the magnitude scoring subtracts from the raw
// measurement: the approved magnitude when granted, otherwise zero.
func (e *ExpurgoEvent) EffectiveAdjustment() float64 {
	if e.Status.Granting() && e.ApprovedMagnitude != nil {
		return *e.ApprovedMagnitude
	}
	return 0
}
