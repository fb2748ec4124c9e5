package expurgo

import (
	"context"
	"strings"
	"time"

	"github.com/fleetops/premia/backend/internal/audit"
	"github.com/fleetops/premia/backend/internal/contracts"
	"github.com/fleetops/premia/backend/internal/notify"
	"github.com/fleetops/premia/backend/pkg/logger"
)

// minJustification is the shortest accepted justification text
const minJustification = 10

// Workflow guards the correction-request state machine:
// PENDING -> APPROVED | PARTIALLY_APPROVED | REJECTED, one review only.
type Workflow struct {
	periods  contracts.PeriodRepository
	criteria contracts.CriterionRepository
	sectors  contracts.SectorRepository
	expurgos contracts.ExpurgoRepository
	auditor  *audit.Emitter
	hub      *notify.Hub
	logger   *logger.Logger
}

// NewWorkflow creates a new expurgo workflow
func NewWorkflow(
	periods contracts.PeriodRepository,
	criteria contracts.CriterionRepository,
	sectors contracts.SectorRepository,
	expurgos contracts.ExpurgoRepository,
	auditor *audit.Emitter,
	hub *notify.Hub,
	log *logger.Logger,
) *Workflow {
	return &Workflow{
		periods:  periods,
		criteria: criteria,
		sectors:  sectors,
		expurgos: expurgos,
		auditor:  auditor,
		hub:      hub,
		logger:   log,
	}
}

// RequestInput carries a new correction request
type RequestInput struct {
	PeriodID      int64
	SectorID      int64
	CriterionID   int64
	EventDate     time.Time
	Description   string
	Justification string
	Magnitude     float64
	Attachments   []string
}

// Request files a new correction request. Only legal while the period
// is ACTIVE; the request starts PENDING with no effect on scoring.
func (w *Workflow) Request(ctx context.Context, actor contracts.Actor, in RequestInput) (*contracts.ExpurgoEvent, error) {
	if !actor.Can(contracts.CapExpurgoRequest) {
		return nil, contracts.Forbiddenf("actor %s may not request expurgos", actor.ID)
	}
	if in.Magnitude == 0 {
		return nil, contracts.Validationf("requested adjustment magnitude must be non-zero")
	}
	if len(strings.TrimSpace(in.Justification)) < minJustification {
		return nil, contracts.Validationf("justification must be at least %d characters", minJustification)
	}
	if in.EventDate.IsZero() {
		return nil, contracts.Validationf("event date is required")
	}

	period, err := w.periods.GetByID(ctx, in.PeriodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, contracts.NotFoundf("period %d not found", in.PeriodID)
	}
	if !period.CanRequestExpurgo() {
		return nil, contracts.Conflictf("period %s is %s; expurgo requests are only accepted while active", period.Month, period.Status)
	}

	sector, err := w.sectors.GetByID(ctx, in.SectorID)
	if err != nil {
		return nil, err
	}
	if sector == nil {
		return nil, contracts.NotFoundf("sector %d not found", in.SectorID)
	}

	criterion, err := w.criteria.GetByID(ctx, in.CriterionID)
	if err != nil {
		return nil, err
	}
	if criterion == nil {
		return nil, contracts.NotFoundf("criterion %d not found", in.CriterionID)
	}

	event := &contracts.ExpurgoEvent{
		PeriodID:             in.PeriodID,
		SectorID:             in.SectorID,
		CriterionID:          in.CriterionID,
		EventDate:            in.EventDate,
		Description:          in.Description,
		RequestJustification: in.Justification,
		RequestedMagnitude:   in.Magnitude,
		Status:               contracts.ExpurgoPending,
		RequestedBy:          actor.ID,
		Attachments:          in.Attachments,
	}

	if err := w.expurgos.Create(ctx, event); err != nil {
		return nil, err
	}

	w.auditor.Emit(contracts.AuditEntry{
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		Action:        "expurgo.request",
		EntityType:    "expurgo_event",
		EntityID:      event.ID,
		After:         event,
		Justification: in.Justification,
	})

	w.logger.WithFields(map[string]interface{}{
		"period":    in.PeriodID,
		"sector":    in.SectorID,
		"criterion": in.CriterionID,
		"magnitude": in.Magnitude,
	}).Info("Expurgo requested")

	return event, nil
}

// ReviewInput carries the approver's decision. The status is chosen by
// the approver, not derived from the magnitude comparison.
type ReviewInput struct {
	Status        contracts.ExpurgoStatus
	Magnitude     *float64 // required for the two approved states
	Justification string
}

// Review resolves a PENDING request exactly once. Two concurrent review
// attempts end in one success and one conflict thanks to the status
// compare-and-set in the repository.
func (w *Workflow) Review(ctx context.Context, actor contracts.Actor, eventID int64, in ReviewInput) (*contracts.ExpurgoEvent, error) {
	if !actor.Can(contracts.CapExpurgoReview) {
		return nil, contracts.Forbiddenf("actor %s may not review expurgos", actor.ID)
	}
	if !in.Status.Resolved() {
		return nil, contracts.Validationf("review status must be APPROVED, PARTIALLY_APPROVED or REJECTED")
	}
	if in.Status.Granting() {
		if in.Magnitude == nil {
			return nil, contracts.Validationf("an approved magnitude is required for status %s", in.Status)
		}
		if *in.Magnitude == 0 {
			return nil, contracts.Validationf("approved magnitude must be non-zero")
		}
	}
	if len(strings.TrimSpace(in.Justification)) < minJustification {
		return nil, contracts.Validationf("review justification must be at least %d characters", minJustification)
	}

	event, err := w.expurgos.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, contracts.NotFoundf("expurgo request %d not found", eventID)
	}
	if event.Status != contracts.ExpurgoPending {
		return nil, contracts.Conflictf("expurgo request %d was already reviewed (%s)", eventID, event.Status)
	}

	period, err := w.periods.GetByID(ctx, event.PeriodID)
	if err != nil {
		return nil, err
	}
	if period == nil || !period.CanReviewExpurgo() {
		return nil, contracts.Conflictf("period of expurgo request %d no longer accepts reviews", eventID)
	}

	var approved *float64
	if in.Status.Granting() {
		approved = in.Magnitude
	}

	before := *event
	now := time.Now()

	ok, err := w.expurgos.Review(ctx, eventID, in.Status, approved, actor.ID, now, in.Justification)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, contracts.Conflictf("expurgo request %d was already reviewed", eventID)
	}

	event.Status = in.Status
	event.ApprovedMagnitude = approved
	event.ReviewedBy = &actor.ID
	event.ReviewedAt = &now
	event.ReviewJustification = &in.Justification

	w.auditor.Emit(contracts.AuditEntry{
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		Action:        "expurgo.review",
		EntityType:    "expurgo_event",
		EntityID:      event.ID,
		Before:        before,
		After:         event,
		Justification: in.Justification,
	})

	w.hub.Publish(notify.Event{
		Type:     "expurgo.resolved",
		PeriodID: event.PeriodID,
		Payload: map[string]interface{}{
			"expurgo_id": event.ID,
			"status":     event.Status,
		},
	})

	w.logger.WithFields(map[string]interface{}{
		"expurgo": eventID,
		"status":  in.Status,
	}).Info("Expurgo reviewed")

	return event, nil
}

// Delete removes a request that is still PENDING. Resolved requests are
// immutable history.
func (w *Workflow) Delete(ctx context.Context, actor contracts.Actor, eventID int64) error {
	event, err := w.expurgos.GetByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return contracts.NotFoundf("expurgo request %d not found", eventID)
	}
	if event.RequestedBy != actor.ID && !actor.Can(contracts.CapExpurgoReview) {
		return contracts.Forbiddenf("actor %s may not delete expurgo request %d", actor.ID, eventID)
	}
	if event.Status != contracts.ExpurgoPending {
		return contracts.Conflictf("expurgo request %d was already reviewed and is immutable", eventID)
	}

	ok, err := w.expurgos.DeletePending(ctx, eventID)
	if err != nil {
		return err
	}
	if !ok {
		return contracts.Conflictf("expurgo request %d was reviewed concurrently", eventID)
	}

	w.auditor.Emit(contracts.AuditEntry{
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Action:     "expurgo.delete",
		EntityType: "expurgo_event",
		EntityID:   eventID,
		Before:     event,
	})

	return nil
}

// ListByPeriod returns every request of the period
func (w *Workflow) ListByPeriod(ctx context.Context, periodID int64) ([]*contracts.ExpurgoEvent, error) {
	period, err := w.periods.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, contracts.NotFoundf("period %d not found", periodID)
	}
	return w.expurgos.ListByPeriod(ctx, periodID)
}
