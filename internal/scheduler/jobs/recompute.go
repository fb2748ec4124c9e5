package jobs

import (
	"context"
	"fmt"

	"github.com/fleetops/premia/backend/internal/contracts"
	"github.com/fleetops/premia/backend/internal/scoring"
	"github.com/fleetops/premia/backend/pkg/logger"
)

// RecomputeJob rescores every period that is still computable, so an
// approved expurgo or a target change lands in the ranking without a
// manual trigger. The job decides nothing itself; it only invokes the
// engine per period.
type RecomputeJob struct {
	periods  contracts.PeriodRepository
	engine   *scoring.Engine
	schedule string
	logger   *logger.Logger
}

// NewRecomputeJob creates a new recompute job
func NewRecomputeJob(periods contracts.PeriodRepository, engine *scoring.Engine, schedule string, log *logger.Logger) *RecomputeJob {
	return &RecomputeJob{
		periods:  periods,
		engine:   engine,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *RecomputeJob) Name() string {
	return "recompute"
}

// Schedule returns the cron schedule expression
func (j *RecomputeJob) Schedule() string {
	return j.schedule
}

// Run rescores every ACTIVE and PRECLOSED period
func (j *RecomputeJob) Run(ctx context.Context) error {
	periods, err := j.periods.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list periods: %w", err)
	}

	actor := contracts.NewActor("scheduler", "scheduler", contracts.CapComputeRun)

	var failures int
	for _, p := range periods {
		if !p.CanCompute() {
			continue
		}

		result, err := j.engine.Recompute(ctx, actor, p.ID)
		if err != nil {
			// One period's failure must not block the others
			failures++
			j.logger.WithError(err).WithField("period", p.Month).Error("Scheduled recomputation failed")
			continue
		}

		j.logger.WithFields(map[string]interface{}{
			"period":   p.Month,
			"cells":    result.ScoredCells,
			"warnings": len(result.Warnings),
		}).Info("Scheduled recomputation finished")
	}

	if failures > 0 {
		return fmt.Errorf("%d period(s) failed to recompute", failures)
	}
	return nil
}
