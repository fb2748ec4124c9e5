package params

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/fleetops/premia/backend/internal/audit"
	"github.com/fleetops/premia/backend/internal/contracts"
	"github.com/fleetops/premia/backend/pkg/logger"
)

// minJustification is the shortest accepted justification text
const minJustification = 10

// Service guards and executes target definition and versioning
type Service struct {
	periods    contracts.PeriodRepository
	criteria   contracts.CriterionRepository
	sectors    contracts.SectorRepository
	parameters contracts.ParameterRepository
	auditor    *audit.Emitter
	logger     *logger.Logger
}

// NewService creates a new parameter service
func NewService(
	periods contracts.PeriodRepository,
	criteria contracts.CriterionRepository,
	sectors contracts.SectorRepository,
	parameters contracts.ParameterRepository,
	auditor *audit.Emitter,
	log *logger.Logger,
) *Service {
	return &Service{
		periods:    periods,
		criteria:   criteria,
		sectors:    sectors,
		parameters: parameters,
		auditor:    auditor,
		logger:     log,
	}
}

// DefineTargetInput carries a target definition or supersession request.
// Value arrives as text and is parsed here so a malformed number is
// rejected before any mutation.
type DefineTargetInput struct {
	PeriodID      int64
	CriterionID   int64
	SectorID      *int64 // nil defines the global default
	Name          string
	Value         string
	EffectiveFrom time.Time
	Justification string
}

// DefineTarget creates the next version of a target, superseding the
// current open-ended version of its (criterion, sector, period) group.
// Allowed in PLANNING freely; in ACTIVE only with a justification.
func (s *Service) DefineTarget(ctx context.Context, actor contracts.Actor, in DefineTargetInput) (*contracts.ParameterValue, error) {
	if !actor.Can(contracts.CapTargetWrite) {
		return nil, contracts.Forbiddenf("actor %s may not define targets", actor.ID)
	}

	value, err := strconv.ParseFloat(strings.TrimSpace(in.Value), 64)
	if err != nil {
		return nil, contracts.Validationf("target value %q is not numeric", in.Value)
	}
	if in.Name == "" {
		return nil, contracts.Validationf("parameter name is required")
	}
	if in.EffectiveFrom.IsZero() {
		return nil, contracts.Validationf("effective start date is required")
	}

	period, err := s.periods.GetByID(ctx, in.PeriodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, contracts.NotFoundf("period %d not found", in.PeriodID)
	}
	if !period.CanDefineTargets() {
		return nil, contracts.Conflictf("period %s is %s; targets can no longer change", period.Month, period.Status)
	}
	if period.Status == contracts.PeriodActive && len(strings.TrimSpace(in.Justification)) < minJustification {
		return nil, contracts.Validationf("superseding a target in an active period requires a justification of at least %d characters", minJustification)
	}

	criterion, err := s.criteria.GetByID(ctx, in.CriterionID)
	if err != nil {
		return nil, err
	}
	if criterion == nil {
		return nil, contracts.NotFoundf("criterion %d not found", in.CriterionID)
	}

	if in.SectorID != nil {
		sector, err := s.sectors.GetByID(ctx, *in.SectorID)
		if err != nil {
			return nil, err
		}
		if sector == nil {
			return nil, contracts.NotFoundf("sector %d not found", *in.SectorID)
		}
	}

	created, err := s.parameters.Supersede(ctx, &contracts.ParameterValue{
		PeriodID:      in.PeriodID,
		CriterionID:   in.CriterionID,
		SectorID:      in.SectorID,
		Name:          in.Name,
		Value:         value,
		EffectiveFrom: in.EffectiveFrom,
		CreatedBy:     actor.ID,
		Justification: in.Justification,
	})
	if err != nil {
		return nil, err
	}

	s.auditor.Emit(contracts.AuditEntry{
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		Action:        "target.define",
		EntityType:    "parameter_value",
		EntityID:      created.ID,
		After:         created,
		Justification: in.Justification,
	})

	s.logger.WithFields(map[string]interface{}{
		"period":    in.PeriodID,
		"criterion": in.CriterionID,
		"version":   created.Version,
	}).Info("Target version created")

	return created, nil
}

// ListByPeriod returns the full version log for a period
func (s *Service) ListByPeriod(ctx context.Context, periodID int64) ([]*contracts.ParameterValue, error) {
	period, err := s.periods.GetByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, contracts.NotFoundf("period %d not found", periodID)
	}
	return s.parameters.ListByPeriod(ctx, periodID)
}
