package params

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/premia/backend/internal/audit"
	"github.com/fleetops/premia/backend/internal/contracts"
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

func (f *fakePeriodRepo) Close(_ context.Context, id int64, from contracts.PeriodStatus, _ string, _ time.Time, _ int64) (bool, error) {
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
	return nil, nil
}

type fakeCriterionRepo struct {
	criteria map[int64]*contracts.Criterion
}

func (f *fakeCriterionRepo) GetByID(_ context.Context, id int64) (*contracts.Criterion, error) {
	return f.criteria[id], nil
}

func (f *fakeCriterionRepo) ListActive(_ context.Context) ([]*contracts.Criterion, error) {
	return nil, nil
}

// fakeParameterRepo mirrors the SQL repository's supersession contract
// in memory: close the group's open version, insert the successor.
type fakeParameterRepo struct {
	nextID int64
	rows   []*contracts.ParameterValue
}

func (f *fakeParameterRepo) ListByPeriod(_ context.Context, periodID int64) ([]*contracts.ParameterValue, error) {
	out := make([]*contracts.ParameterValue, 0)
	for _, row := range f.rows {
		if row.PeriodID == periodID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeParameterRepo) Supersede(_ context.Context, p *contracts.ParameterValue) (*contracts.ParameterValue, error) {
	version := 1
	var prevID *int64

	for _, row := range f.rows {
		if row.PeriodID != p.PeriodID || row.CriterionID != p.CriterionID || row.EffectiveTo != nil {
			continue
		}
		if (row.SectorID == nil) != (p.SectorID == nil) {
			continue
		}
		if row.SectorID != nil && *row.SectorID != *p.SectorID {
			continue
		}
		closeAt := p.EffectiveFrom.AddDate(0, 0, -1)
		row.EffectiveTo = &closeAt
		id := row.ID
		prevID = &id
		version = row.Version + 1
	}

	f.nextID++
	inserted := *p
	inserted.ID = f.nextID
	inserted.Version = version
	inserted.SupersedesID = prevID
	inserted.CreatedAt = time.Now()
	f.rows = append(f.rows, &inserted)
	return &inserted, nil
}

type nopAuditRepo struct{}

func (nopAuditRepo) Insert(_ context.Context, _ *contracts.AuditEntry) error { return nil }

func newTestService(t *testing.T, status contracts.PeriodStatus) (*Service, *fakeParameterRepo) {
	t.Helper()
	log := logger.New(&config.Config{Env: "test", LogLevel: "error"})

	periods := &fakePeriodRepo{periods: map[int64]*contracts.CompetitionPeriod{
		1: {ID: 1, Month: "2026-01", Status: status,
			StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)},
	}}
	criteria := &fakeCriterionRepo{criteria: map[int64]*contracts.Criterion{
		10: {ID: 10, Name: "fuel consumption", Direction: contracts.LowerIsBetter, Active: true},
	}}
	sectors := &fakeSectorRepo{sectors: map[int64]*contracts.Sector{
		1: {ID: 1, Name: "Norte", Active: true},
	}}
	repo := &fakeParameterRepo{}
	auditor := audit.NewEmitter(nopAuditRepo{}, log)
	t.Cleanup(auditor.Close)

	return NewService(periods, criteria, sectors, repo, auditor, log), repo
}

func writer() contracts.Actor {
	return contracts.NewActor("planner1", "Planner One", contracts.CapTargetWrite)
}

func defineInput(value string) DefineTargetInput {
	return DefineTargetInput{
		PeriodID:      1,
		CriterionID:   10,
		Name:          "meta_fuel",
		Value:         value,
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestDefineTarget_FirstVersion(t *testing.T) {
	svc, _ := newTestService(t, contracts.PeriodPlanning)

	created, err := svc.DefineTarget(context.Background(), writer(), defineInput("310"))
	require.NoError(t, err)

	assert.Equal(t, 1, created.Version)
	assert.Nil(t, created.SupersedesID)
	assert.Nil(t, created.EffectiveTo)
	assert.Equal(t, 310.0, created.Value)
	assert.Equal(t, "planner1", created.CreatedBy)
}

func TestDefineTarget_SupersessionChainsVersions(t *testing.T) {
	svc, repo := newTestService(t, contracts.PeriodPlanning)

	first, err := svc.DefineTarget(context.Background(), writer(), defineInput("310"))
	require.NoError(t, err)

	in := defineInput("320")
	in.EffectiveFrom = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	second, err := svc.DefineTarget(context.Background(), writer(), in)
	require.NoError(t, err)

	assert.Equal(t, 2, second.Version)
	require.NotNil(t, second.SupersedesID)
	assert.Equal(t, first.ID, *second.SupersedesID)

	// The predecessor's window closed the day before the successor opens
	rows, err := repo.ListByPeriod(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotNil(t, rows[0].EffectiveTo)
	assert.Equal(t, time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC), *rows[0].EffectiveTo)

	// Resolution honors the windows
	got, ok := Resolve(rows, 10, nil, time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 310.0, got.Value)

	got, ok = Resolve(rows, 10, nil, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, 320.0, got.Value)
}

func TestDefineTarget_ActiveRequiresJustification(t *testing.T) {
	svc, _ := newTestService(t, contracts.PeriodActive)

	_, err := svc.DefineTarget(context.Background(), writer(), defineInput("310"))
	assert.True(t, contracts.IsKind(err, contracts.KindValidation))

	in := defineInput("310")
	in.Justification = "upstream fuel price revision for the month"
	_, err = svc.DefineTarget(context.Background(), writer(), in)
	require.NoError(t, err)
}

func TestDefineTarget_BlockedAfterActive(t *testing.T) {
	for _, status := range []contracts.PeriodStatus{contracts.PeriodPreClosed, contracts.PeriodClosed} {
		svc, _ := newTestService(t, status)
		_, err := svc.DefineTarget(context.Background(), writer(), defineInput("310"))
		assert.True(t, contracts.IsKind(err, contracts.KindConflict), "status %s must reject target writes", status)
	}
}

func TestDefineTarget_Validation(t *testing.T) {
	svc, _ := newTestService(t, contracts.PeriodPlanning)

	_, err := svc.DefineTarget(context.Background(), writer(), defineInput("not-a-number"))
	assert.True(t, contracts.IsKind(err, contracts.KindValidation))

	in := defineInput("310")
	in.Name = ""
	_, err = svc.DefineTarget(context.Background(), writer(), in)
	assert.True(t, contracts.IsKind(err, contracts.KindValidation))

	in = defineInput("310")
	in.CriterionID = 99
	_, err = svc.DefineTarget(context.Background(), writer(), in)
	assert.True(t, contracts.IsKind(err, contracts.KindNotFound))

	missing := int64(99)
	in = defineInput("310")
	in.SectorID = &missing
	_, err = svc.DefineTarget(context.Background(), writer(), in)
	assert.True(t, contracts.IsKind(err, contracts.KindNotFound))

	_, err = svc.DefineTarget(context.Background(), contracts.NewActor("x", "X"), defineInput("310"))
	assert.True(t, contracts.IsKind(err, contracts.KindForbidden))
}

func TestDefineTarget_SectorGroupsVersionIndependently(t *testing.T) {
	svc, _ := newTestService(t, contracts.PeriodPlanning)

	global, err := svc.DefineTarget(context.Background(), writer(), defineInput("310"))
	require.NoError(t, err)
	assert.Equal(t, 1, global.Version)

	sector := int64(1)
	in := defineInput("280")
	in.SectorID = &sector
	scoped, err := svc.DefineTarget(context.Background(), writer(), in)
	require.NoError(t, err)

	// A sector override is its own chain, not version 2 of the global
	assert.Equal(t, 1, scoped.Version)
	assert.Nil(t, scoped.SupersedesID)
}
