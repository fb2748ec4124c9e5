package expurgo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/premia/backend/internal/audit"
	"github.com/fleetops/premia/backend/internal/contracts"
	"github.com/fleetops/premia/backend/internal/notify"
	"github.com/fleetops/premia/backend/pkg/config"
	"github.com/fleetops/premia/backend/pkg/logger"
)

type fakePeriodRepo struct {
	periods map[int64]*contracts.CompetitionPeriod
}

func (f *fakePeriodRepo) GetByID(_ context.Context, id int64) (*contracts.CompetitionPeriod, error) {
	return f.periods[id], nil
}

func (f *fakePeriodRepo) GetByMonth(_ context.Context, _ string) (*contracts.CompetitionPeriod, error) {
	return nil, nil
}

func (f *fakePeriodRepo) List(_ context.Context) ([]*contracts.CompetitionPeriod, error) {
	return nil, nil
}

func (f *fakePeriodRepo) Create(_ context.Context, p *contracts.CompetitionPeriod) error {
	f.periods[p.ID] = p
	return nil
}

func (f *fakePeriodRepo) AdvanceStatus(_ context.Context, id int64, from, to contracts.PeriodStatus) (bool, error) {
	p, ok := f.periods[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	return true, nil
}

func (f *fakePeriodRepo) Close(_ context.Context, id int64, from contracts.PeriodStatus, closedBy string, closedAt time.Time, winnerSectorID int64) (bool, error) {
	p, ok := f.periods[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = contracts.PeriodClosed
	return true, nil
}

type fakeSectorRepo struct {
	sectors map[int64]*contracts.Sector
}

func (f *fakeSectorRepo) GetByID(_ context.Context, id int64) (*contracts.Sector, error) {
	return f.sectors[id], nil
}

func (f *fakeSectorRepo) ListActive(_ context.Context) ([]*contracts.Sector, error) {
	out := make([]*contracts.Sector, 0, len(f.sectors))
	for _, s := range f.sectors {
		out = append(out, s)
	}
	return out, nil
}

type fakeCriterionRepo struct {
	criteria map[int64]*contracts.Criterion
}

func (f *fakeCriterionRepo) GetByID(_ context.Context, id int64) (*contracts.Criterion, error) {
	return f.criteria[id], nil
}

func (f *fakeCriterionRepo) ListActive(_ context.Context) ([]*contracts.Criterion, error) {
	out := make([]*contracts.Criterion, 0, len(f.criteria))
	for _, c := range f.criteria {
		out = append(out, c)
	}
	return out, nil
}

type fakeExpurgoRepo struct {
	nextID int64
	events map[int64]*contracts.ExpurgoEvent
}

func newFakeExpurgoRepo() *fakeExpurgoRepo {
	return &fakeExpurgoRepo{events: make(map[int64]*contracts.ExpurgoEvent)}
}

func (f *fakeExpurgoRepo) GetByID(_ context.Context, id int64) (*contracts.ExpurgoEvent, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	clone := *e
	return &clone, nil
}

func (f *fakeExpurgoRepo) ListByPeriod(_ context.Context, periodID int64) ([]*contracts.ExpurgoEvent, error) {
	out := make([]*contracts.ExpurgoEvent, 0)
	for _, e := range f.events {
		if e.PeriodID == periodID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeExpurgoRepo) Create(_ context.Context, e *contracts.ExpurgoEvent) error {
	f.nextID++
	e.ID = f.nextID
	e.CreatedAt = time.Now()
	clone := *e
	f.events[e.ID] = &clone
	return nil
}

func (f *fakeExpurgoRepo) Review(_ context.Context, id int64, status contracts.ExpurgoStatus, approved *float64, reviewedBy string, reviewedAt time.Time, justification string) (bool, error) {
	e, ok := f.events[id]
	if !ok || e.Status != contracts.ExpurgoPending {
		return false, nil
	}
	e.Status = status
	e.ApprovedMagnitude = approved
	e.ReviewedBy = &reviewedBy
	e.ReviewedAt = &reviewedAt
	e.ReviewJustification = &justification
	return true, nil
}

func (f *fakeExpurgoRepo) DeletePending(_ context.Context, id int64) (bool, error) {
	e, ok := f.events[id]
	if !ok || e.Status != contracts.ExpurgoPending {
		return false, nil
	}
	delete(f.events, id)
	return true, nil
}

func (f *fakeExpurgoRepo) AdjustmentsByPeriod(_ context.Context, periodID int64) (map[contracts.SectorCriterion]float64, error) {
	out := make(map[contracts.SectorCriterion]float64)
	for _, e := range f.events {
		if e.PeriodID != periodID {
			continue
		}
		adj := e.EffectiveAdjustment()
		if adj != 0 {
			out[contracts.SectorCriterion{SectorID: e.SectorID, CriterionID: e.CriterionID}] += adj
		}
	}
	return out, nil
}

type nopAuditRepo struct{}

func (nopAuditRepo) Insert(_ context.Context, _ *contracts.AuditEntry) error { return nil }

type fixture struct {
	workflow *Workflow
	periods  *fakePeriodRepo
	repo     *fakeExpurgoRepo
	auditor  *audit.Emitter
}

func newFixture(t *testing.T, status contracts.PeriodStatus) *fixture {
	t.Helper()
	log := logger.New(&config.Config{Env: "test", LogLevel: "error"})

	periods := &fakePeriodRepo{periods: map[int64]*contracts.CompetitionPeriod{
		1: {ID: 1, Month: "2026-01", Status: status,
			StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)},
	}}
	sectors := &fakeSectorRepo{sectors: map[int64]*contracts.Sector{
		1: {ID: 1, Name: "Norte", Active: true},
	}}
	criteria := &fakeCriterionRepo{criteria: map[int64]*contracts.Criterion{
		10: {ID: 10, Name: "fuel consumption", Direction: contracts.LowerIsBetter, Active: true},
	}}
	repo := newFakeExpurgoRepo()
	auditor := audit.NewEmitter(nopAuditRepo{}, log)
	t.Cleanup(auditor.Close)

	return &fixture{
		workflow: NewWorkflow(periods, criteria, sectors, repo, auditor, notify.NewHub(log), log),
		periods:  periods,
		repo:     repo,
		auditor:  auditor,
	}
}

func requester() contracts.Actor {
	return contracts.NewActor("driver1", "Driver One", contracts.CapExpurgoRequest)
}

func reviewer() contracts.Actor {
	return contracts.NewActor("mgr1", "Manager One", contracts.CapExpurgoReview)
}

func validRequest() RequestInput {
	return RequestInput{
		PeriodID:      1,
		SectorID:      1,
		CriterionID:   10,
		EventDate:     time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
		Description:   "road closure detour",
		Justification: "detour added 10 liters outside the sector's control",
		Magnitude:     10,
	}
}

func TestRequest_StartsPending(t *testing.T) {
	fx := newFixture(t, contracts.PeriodActive)

	event, err := fx.workflow.Request(context.Background(), requester(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, contracts.ExpurgoPending, event.Status)
	assert.Equal(t, "driver1", event.RequestedBy)
	assert.Nil(t, event.ApprovedMagnitude)
	assert.Equal(t, 0.0, event.EffectiveAdjustment())
}

func TestRequest_OnlyWhileActive(t *testing.T) {
	for _, status := range []contracts.PeriodStatus{contracts.PeriodPlanning, contracts.PeriodPreClosed, contracts.PeriodClosed} {
		fx := newFixture(t, status)
		_, err := fx.workflow.Request(context.Background(), requester(), validRequest())
		assert.True(t, contracts.IsKind(err, contracts.KindConflict), "status %s must reject requests", status)
	}
}

func TestRequest_Validation(t *testing.T) {
	fx := newFixture(t, contracts.PeriodActive)

	in := validRequest()
	in.Magnitude = 0
	_, err := fx.workflow.Request(context.Background(), requester(), in)
	assert.True(t, contracts.IsKind(err, contracts.KindValidation))

	in = validRequest()
	in.Justification = "too short"
	_, err = fx.workflow.Request(context.Background(), requester(), in)
	assert.True(t, contracts.IsKind(err, contracts.KindValidation))

	_, err = fx.workflow.Request(context.Background(), contracts.NewActor("x", "X"), validRequest())
	assert.True(t, contracts.IsKind(err, contracts.KindForbidden))
}

func TestReview_PartialApproval(t *testing.T) {
	fx := newFixture(t, contracts.PeriodActive)

	event, err := fx.workflow.Request(context.Background(), requester(), validRequest())
	require.NoError(t, err)

	// 10 requested, 5 granted
	granted := 5.0
	reviewed, err := fx.workflow.Review(context.Background(), reviewer(), event.ID, ReviewInput{
		Status:        contracts.ExpurgoPartiallyApproved,
		Magnitude:     &granted,
		Justification: "only the detour stretch is out of the sector's control",
	})
	require.NoError(t, err)

	assert.Equal(t, contracts.ExpurgoPartiallyApproved, reviewed.Status)
	assert.Equal(t, 10.0, reviewed.RequestedMagnitude)
	require.NotNil(t, reviewed.ApprovedMagnitude)
	assert.Equal(t, 5.0, *reviewed.ApprovedMagnitude)
	assert.Equal(t, 5.0, reviewed.EffectiveAdjustment())

	adjustments, err := fx.repo.AdjustmentsByPeriod(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 5.0, adjustments[contracts.SectorCriterion{SectorID: 1, CriterionID: 10}])
}

func TestReview_RejectionContributesNothing(t *testing.T) {
	fx := newFixture(t, contracts.PeriodActive)

	event, err := fx.workflow.Request(context.Background(), requester(), validRequest())
	require.NoError(t, err)

	reviewed, err := fx.workflow.Review(context.Background(), reviewer(), event.ID, ReviewInput{
		Status:        contracts.ExpurgoRejected,
		Justification: "the event was within the sector's control",
	})
	require.NoError(t, err)

	assert.Equal(t, contracts.ExpurgoRejected, reviewed.Status)
	assert.Nil(t, reviewed.ApprovedMagnitude)
	assert.Equal(t, 0.0, reviewed.EffectiveAdjustment())

	adjustments, err := fx.repo.AdjustmentsByPeriod(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, adjustments)
}

func TestReview_ExactlyOnce(t *testing.T) {
	fx := newFixture(t, contracts.PeriodActive)

	event, err := fx.workflow.Request(context.Background(), requester(), validRequest())
	require.NoError(t, err)

	granted := 10.0
	in := ReviewInput{
		Status:        contracts.ExpurgoApproved,
		Magnitude:     &granted,
		Justification: "fully outside the sector's control",
	}

	_, err = fx.workflow.Review(context.Background(), reviewer(), event.ID, in)
	require.NoError(t, err)

	_, err = fx.workflow.Review(context.Background(), reviewer(), event.ID, in)
	assert.True(t, contracts.IsKind(err, contracts.KindConflict))
}

func TestReview_GrantRequiresMagnitude(t *testing.T) {
	fx := newFixture(t, contracts.PeriodActive)

	event, err := fx.workflow.Request(context.Background(), requester(), validRequest())
	require.NoError(t, err)

	_, err = fx.workflow.Review(context.Background(), reviewer(), event.ID, ReviewInput{
		Status:        contracts.ExpurgoApproved,
		Justification: "fully outside the sector's control",
	})
	assert.True(t, contracts.IsKind(err, contracts.KindValidation))

	zero := 0.0
	_, err = fx.workflow.Review(context.Background(), reviewer(), event.ID, ReviewInput{
		Status:        contracts.ExpurgoApproved,
		Magnitude:     &zero,
		Justification: "fully outside the sector's control",
	})
	assert.True(t, contracts.IsKind(err, contracts.KindValidation))
}

func TestReview_AllowedWhilePreClosed(t *testing.T) {
	fx := newFixture(t, contracts.PeriodActive)

	event, err := fx.workflow.Request(context.Background(), requester(), validRequest())
	require.NoError(t, err)

	fx.periods.periods[1].Status = contracts.PeriodPreClosed

	granted := 10.0
	_, err = fx.workflow.Review(context.Background(), reviewer(), event.ID, ReviewInput{
		Status:        contracts.ExpurgoApproved,
		Magnitude:     &granted,
		Justification: "fully outside the sector's control",
	})
	require.NoError(t, err)
}

func TestReview_BlockedAfterClose(t *testing.T) {
	fx := newFixture(t, contracts.PeriodActive)

	event, err := fx.workflow.Request(context.Background(), requester(), validRequest())
	require.NoError(t, err)

	fx.periods.periods[1].Status = contracts.PeriodClosed

	granted := 10.0
	_, err = fx.workflow.Review(context.Background(), reviewer(), event.ID, ReviewInput{
		Status:        contracts.ExpurgoApproved,
		Magnitude:     &granted,
		Justification: "fully outside the sector's control",
	})
	assert.True(t, contracts.IsKind(err, contracts.KindConflict))
}

func TestDelete_PendingOnlyAndOwnerOnly(t *testing.T) {
	fx := newFixture(t, contracts.PeriodActive)

	event, err := fx.workflow.Request(context.Background(), requester(), validRequest())
	require.NoError(t, err)

	// A third party without review rights may not delete
	err = fx.workflow.Delete(context.Background(), contracts.NewActor("other", "Other"), event.ID)
	assert.True(t, contracts.IsKind(err, contracts.KindForbidden))

	// The requester may
	require.NoError(t, fx.workflow.Delete(context.Background(), requester(), event.ID))

	// Resolved requests are immutable
	event, err = fx.workflow.Request(context.Background(), requester(), validRequest())
	require.NoError(t, err)
	granted := 10.0
	_, err = fx.workflow.Review(context.Background(), reviewer(), event.ID, ReviewInput{
		Status:        contracts.ExpurgoApproved,
		Magnitude:     &granted,
		Justification: "fully outside the sector's control",
	})
	require.NoError(t, err)

	err = fx.workflow.Delete(context.Background(), requester(), event.ID)
	assert.True(t, contracts.IsKind(err, contracts.KindConflict))
}
