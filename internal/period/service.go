package period

import (
	"context"
	"time"

	"github.com/fleetops/premia/backend/internal/audit"
	"github.com/fleetops/premia/backend/internal/contracts"
	"github.com/fleetops/premia/backend/internal/notify"
	"github.com/fleetops/premia/backend/internal/scoring"
	"github.com/fleetops/premia/backend/pkg/logger"
)

// Service drives the period lifecycle:
// PLANNING -> ACTIVE -> PRECLOSED -> CLOSED, with ACTIVE -> CLOSED as a
// shortcut for deployments without a pre-close review. Forward only.
type Service struct {
	periods contracts.PeriodRepository
	sectors contracts.SectorRepository
	scores  contracts.ScoreRepository
	auditor *audit.Emitter
	hub     *notify.Hub
	webhook *notify.Webhook
	logger  *logger.Logger
}

// NewService creates a new period service
func NewService(
	periods contracts.PeriodRepository,
	sectors contracts.SectorRepository,
	scores contracts.ScoreRepository,
	auditor *audit.Emitter,
	hub *notify.Hub,
	webhook *notify.Webhook,
	log *logger.Logger,
) *Service {
	return &Service{
		periods: periods,
		sectors: sectors,
		scores:  scores,
		auditor: auditor,
		hub:     hub,
		webhook: webhook,
		logger:  log,
	}
}

// CreateInput carries a new period
type CreateInput struct {
	Month     string // "2026-01"
	StartDate time.Time
	EndDate   time.Time
}

// Create opens a new period in PLANNING. Month labels are unique.
func (s *Service) Create(ctx context.Context, actor contracts.Actor, in CreateInput) (*contracts.CompetitionPeriod, error) {
	if !actor.Can(contracts.CapPeriodAdvance) {
		return nil, contracts.Forbiddenf("actor %s may not create periods", actor.ID)
	}
	if _, err := time.Parse("2006-01", in.Month); err != nil {
		return nil, contracts.Validationf("month label %q must look like 2006-01", in.Month)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() || in.EndDate.Before(in.StartDate) {
		return nil, contracts.Validationf("period needs a valid start/end date range")
	}

	existing, err := s.periods.GetByMonth(ctx, in.Month)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, contracts.Conflictf("a period for month %s already exists", in.Month)
	}

	p := &contracts.CompetitionPeriod{
		Month:     in.Month,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		Status:    contracts.PeriodPlanning,
	}
	if err := s.periods.Create(ctx, p); err != nil {
		return nil, err
	}

	s.auditor.Emit(contracts.AuditEntry{
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Action:     "period.create",
		EntityType: "competition_period",
		EntityID:   p.ID,
		After:      p,
	})

	return p, nil
}

// Advance moves the period one state forward (PLANNING -> ACTIVE or
// ACTIVE -> PRECLOSED). Closing is a separate operation.
func (s *Service) Advance(ctx context.Context, actor contracts.Actor, periodID int64) (*contracts.CompetitionPeriod, error) {
	if !actor.Can(contracts.CapPeriodAdvance) {
		return nil, contracts.Forbiddenf("actor %s may not advance periods", actor.ID)
	}

	p, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, contracts.NotFoundf("period %d not found", periodID)
	}

	next, ok := p.NextStatus()
	if !ok {
		return nil, contracts.Conflictf("period %s is %s and cannot advance further", p.Month, p.Status)
	}

	moved, err := s.periods.AdvanceStatus(ctx, periodID, p.Status, next)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, contracts.Conflictf("period %s changed state concurrently", p.Month)
	}

	before := *p
	p.Status = next

	s.auditor.Emit(contracts.AuditEntry{
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		Action:     "period.advance",
		EntityType: "competition_period",
		EntityID:   p.ID,
		Before:     before,
		After:      p,
	})

	s.hub.Publish(notify.Event{
		Type:     "period.advanced",
		PeriodID: p.ID,
		Payload:  map[string]interface{}{"status": p.Status},
	})

	s.logger.WithFields(map[string]interface{}{
		"period": p.Month,
		"status": p.Status,
	}).Info("Period advanced")

	return p, nil
}

// CloseInput carries the officialization decision
type CloseInput struct {
	// WinnerSectorID must be set when the top rank is tied; otherwise
	// it is optional and, when set, must match the computed leader.
	WinnerSectorID *int64
	Justification  string
}

// Close officializes the period and declares its winner. A tie at the
// top cannot be broken automatically: the closing actor must pick one
// of the tied sectors.
func (s *Service) Close(ctx context.Context, actor contracts.Actor, periodID int64, in CloseInput) (*contracts.CompetitionPeriod, error) {
	if !actor.Can(contracts.CapPeriodClose) {
		return nil, contracts.Forbiddenf("actor %s may not close periods", actor.ID)
	}

	p, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, contracts.NotFoundf("period %d not found", periodID)
	}
	if p.Status != contracts.PeriodActive && p.Status != contracts.PeriodPreClosed {
		return nil, contracts.Conflictf("period %s is %s and cannot be closed", p.Month, p.Status)
	}

	rankings, err := s.scores.ListRanking(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if len(rankings) == 0 {
		return nil, contracts.Conflictf("period %s has no computed ranking yet", p.Month)
	}

	winner, err := s.resolveWinner(rankings, in.WinnerSectorID, p.Month)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	closed, err := s.periods.Close(ctx, periodID, p.Status, actor.ID, now, winner)
	if err != nil {
		return nil, err
	}
	if !closed {
		return nil, contracts.Conflictf("period %s changed state concurrently", p.Month)
	}

	before := *p
	p.Status = contracts.PeriodClosed
	p.ClosedBy = &actor.ID
	p.ClosedAt = &now
	p.WinnerSectorID = &winner

	s.auditor.Emit(contracts.AuditEntry{
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		Action:        "period.close",
		EntityType:    "competition_period",
		EntityID:      p.ID,
		Before:        before,
		After:         p,
		Justification: in.Justification,
	})

	event := notify.Event{
		Type:     "period.closed",
		PeriodID: p.ID,
		Payload: map[string]interface{}{
			"winner_sector_id": winner,
			"closed_by":        actor.ID,
		},
	}
	s.hub.Publish(event)
	s.webhook.Notify(event)

	s.logger.WithFields(map[string]interface{}{
		"period": p.Month,
		"winner": winner,
	}).Info("Period officialized")

	return p, nil
}

// resolveWinner applies the tie rule: a sole leader wins by default, a
// tied top requires an explicit choice among the tied sectors.
func (s *Service) resolveWinner(rankings []*contracts.FinalRanking, chosen *int64, month string) (int64, error) {
	leaders := scoring.WinnerTie(rankings)

	if len(leaders) == 1 {
		if chosen != nil && *chosen != leaders[0] {
			return 0, contracts.Validationf("sector %d is not the ranking leader of period %s", *chosen, month)
		}
		return leaders[0], nil
	}

	if chosen == nil {
		return 0, contracts.Conflictf("period %s has %d sectors tied at rank 1; an explicit winner is required", month, len(leaders))
	}
	for _, id := range leaders {
		if id == *chosen {
			return id, nil
		}
	}
	return 0, contracts.Validationf("sector %d is not among the sectors tied at rank 1", *chosen)
}

// GetByID returns one period
func (s *Service) GetByID(ctx context.Context, periodID int64) (*contracts.CompetitionPeriod, error) {
	p, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, contracts.NotFoundf("period %d not found", periodID)
	}
	return p, nil
}

// List returns every period, newest first
func (s *Service) List(ctx context.Context) ([]*contracts.CompetitionPeriod, error) {
	return s.periods.List(ctx)
}
