package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetops/premia/backend/internal/contracts"
	"github.com/fleetops/premia/backend/internal/scoring/scaleconfig"
)

var computedAt = time.Date(2026, 2, 1, 3, 0, 0, 0, time.UTC)

func testCalculator(t *testing.T) *Calculator {
	t.Helper()
	scale := scaleconfig.Default()
	hash, err := scaleconfig.Hash(scale)
	require.NoError(t, err)
	return NewCalculator(scale, hash)
}

func testSnapshot(sectors ...*contracts.Sector) *Snapshot {
	return &Snapshot{
		Period: &contracts.CompetitionPeriod{
			ID:        1,
			Month:     "2026-01",
			StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
			Status:    contracts.PeriodActive,
		},
		Sectors:     sectors,
		RawTotals:   make(map[contracts.SectorCriterion]float64),
		Adjustments: make(map[contracts.SectorCriterion]float64),
	}
}

func globalTarget(criterionID int64, value float64) *contracts.ParameterValue {
	return &contracts.ParameterValue{
		ID:            criterionID * 100,
		PeriodID:      1,
		CriterionID:   criterionID,
		Value:         value,
		Version:       1,
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func lowerIsBetter(id int64) *contracts.Criterion {
	return &contracts.Criterion{ID: id, Name: "fuel consumption", Direction: contracts.LowerIsBetter, Active: true, Precision: 2}
}

func TestScoreCriterion_LowerIsBetter(t *testing.T) {
	calc := testCalculator(t)
	criterion := lowerIsBetter(10)

	snap := testSnapshot(
		&contracts.Sector{ID: 1, Name: "Norte", Active: true},
		&contracts.Sector{ID: 2, Name: "Sul", Active: true},
	)
	snap.Parameters = []*contracts.ParameterValue{globalTarget(10, 310)}
	snap.RawTotals[contracts.SectorCriterion{SectorID: 1, CriterionID: 10}] = 300
	snap.RawTotals[contracts.SectorCriterion{SectorID: 2, CriterionID: 10}] = 320

	scores, warnings := calc.ScoreCriterion(snap, criterion, computedAt)
	require.Empty(t, warnings)
	require.Len(t, scores, 2)

	// 300 beats 320 when lower is better
	assert.Equal(t, int64(1), scores[0].SectorID)
	assert.Equal(t, 1, scores[0].RankInCriterion)
	assert.Equal(t, 1.0, scores[0].Score)
	assert.InDelta(t, 310.0/300.0, scores[0].AttainmentRatio, 0.0001)

	assert.Equal(t, int64(2), scores[1].SectorID)
	assert.Equal(t, 2, scores[1].RankInCriterion)
	assert.Equal(t, 1.5, scores[1].Score)
	assert.InDelta(t, 310.0/320.0, scores[1].AttainmentRatio, 0.0001)
}

func TestScoreCriterion_HigherIsBetter(t *testing.T) {
	calc := testCalculator(t)
	criterion := &contracts.Criterion{ID: 20, Name: "availability", Direction: contracts.HigherIsBetter, Active: true, Precision: 2}

	snap := testSnapshot(
		&contracts.Sector{ID: 1, Name: "Norte", Active: true},
		&contracts.Sector{ID: 2, Name: "Sul", Active: true},
	)
	snap.Parameters = []*contracts.ParameterValue{globalTarget(20, 95)}
	snap.RawTotals[contracts.SectorCriterion{SectorID: 1, CriterionID: 20}] = 92
	snap.RawTotals[contracts.SectorCriterion{SectorID: 2, CriterionID: 20}] = 97

	scores, warnings := calc.ScoreCriterion(snap, criterion, computedAt)
	require.Empty(t, warnings)
	require.Len(t, scores, 2)

	assert.Equal(t, int64(2), scores[0].SectorID)
	assert.Equal(t, 1, scores[0].RankInCriterion)
	assert.InDelta(t, 97.0/95.0, scores[0].AttainmentRatio, 0.0001)
	assert.Equal(t, int64(1), scores[1].SectorID)
	assert.Equal(t, 2, scores[1].RankInCriterion)
}

func TestScoreCriterion_TieSharesRankAndScore(t *testing.T) {
	calc := testCalculator(t)
	criterion := lowerIsBetter(10)

	snap := testSnapshot(
		&contracts.Sector{ID: 1, Name: "Norte", Active: true},
		&contracts.Sector{ID: 2, Name: "Sul", Active: true},
		&contracts.Sector{ID: 3, Name: "Leste", Active: true},
	)
	snap.Parameters = []*contracts.ParameterValue{globalTarget(10, 310)}
	snap.RawTotals[contracts.SectorCriterion{SectorID: 1, CriterionID: 10}] = 300
	snap.RawTotals[contracts.SectorCriterion{SectorID: 2, CriterionID: 10}] = 300
	snap.RawTotals[contracts.SectorCriterion{SectorID: 3, CriterionID: 10}] = 320

	scores, warnings := calc.ScoreCriterion(snap, criterion, computedAt)
	require.Empty(t, warnings)
	require.Len(t, scores, 3)

	// Both tied sectors hold rank 1 with the rank-1 score
	assert.Equal(t, 1, scores[0].RankInCriterion)
	assert.Equal(t, 1, scores[1].RankInCriterion)
	assert.Equal(t, 1.0, scores[0].Score)
	assert.Equal(t, 1.0, scores[1].Score)

	// The next sector skips past the tie group
	assert.Equal(t, int64(3), scores[2].SectorID)
	assert.Equal(t, 3, scores[2].RankInCriterion)
	assert.Equal(t, 2.0, scores[2].Score)
}

func TestScoreCriterion_ApprovedAdjustmentLowersRealized(t *testing.T) {
	calc := testCalculator(t)
	criterion := lowerIsBetter(10)

	snap := testSnapshot(
		&contracts.Sector{ID: 1, Name: "Norte", Active: true},
		&contracts.Sector{ID: 2, Name: "Sul", Active: true},
	)
	snap.Parameters = []*contracts.ParameterValue{globalTarget(10, 310)}
	snap.RawTotals[contracts.SectorCriterion{SectorID: 1, CriterionID: 10}] = 305
	snap.RawTotals[contracts.SectorCriterion{SectorID: 2, CriterionID: 10}] = 320
	// 20 expurgated units turn 320 into 300, flipping the order
	snap.Adjustments[contracts.SectorCriterion{SectorID: 2, CriterionID: 10}] = 20

	scores, warnings := calc.ScoreCriterion(snap, criterion, computedAt)
	require.Empty(t, warnings)
	require.Len(t, scores, 2)

	assert.Equal(t, int64(2), scores[0].SectorID)
	assert.Equal(t, 300.0, scores[0].RealizedValue)
	assert.Equal(t, 1, scores[0].RankInCriterion)
	assert.Equal(t, int64(1), scores[1].SectorID)
	assert.Equal(t, 2, scores[1].RankInCriterion)
}

func TestScoreCriterion_MissingInputsAreWarningsNotZeros(t *testing.T) {
	calc := testCalculator(t)
	criterion := lowerIsBetter(10)

	snap := testSnapshot(
		&contracts.Sector{ID: 1, Name: "Norte", Active: true},
		&contracts.Sector{ID: 2, Name: "Sul", Active: true},
		&contracts.Sector{ID: 3, Name: "Leste", Active: true},
	)
	// Only Norte has both a measurement and a target
	sul := int64(2)
	snap.Parameters = []*contracts.ParameterValue{
		{ID: 1, PeriodID: 1, CriterionID: 10, SectorID: &sul, Value: 310, Version: 1,
			EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 2, PeriodID: 1, CriterionID: 10, SectorID: func() *int64 { v := int64(1); return &v }(), Value: 310, Version: 1,
			EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	snap.RawTotals[contracts.SectorCriterion{SectorID: 1, CriterionID: 10}] = 300
	snap.RawTotals[contracts.SectorCriterion{SectorID: 3, CriterionID: 10}] = 280

	scores, warnings := calc.ScoreCriterion(snap, criterion, computedAt)

	// Sul has no measurement, Leste has no target; neither is scored
	require.Len(t, scores, 1)
	assert.Equal(t, int64(1), scores[0].SectorID)
	assert.Equal(t, 1, scores[0].RankInCriterion)

	require.Len(t, warnings, 2)
	reasons := map[int64]string{}
	for _, w := range warnings {
		reasons[w.SectorID] = w.Reason
	}
	assert.Contains(t, reasons[2], "no raw measurement")
	assert.Contains(t, reasons[3], "no applicable target")
}

func TestScoreCriterion_FullyExpurgatedRealizedCapsRatio(t *testing.T) {
	calc := testCalculator(t)
	criterion := lowerIsBetter(10)

	snap := testSnapshot(&contracts.Sector{ID: 1, Name: "Norte", Active: true})
	snap.Parameters = []*contracts.ParameterValue{globalTarget(10, 310)}
	snap.RawTotals[contracts.SectorCriterion{SectorID: 1, CriterionID: 10}] = 15
	snap.Adjustments[contracts.SectorCriterion{SectorID: 1, CriterionID: 10}] = 15

	scores, warnings := calc.ScoreCriterion(snap, criterion, computedAt)
	require.Empty(t, warnings)
	require.Len(t, scores, 1)

	assert.Equal(t, 0.0, scores[0].RealizedValue)
	assert.Equal(t, calc.scale.AttainmentCap, scores[0].AttainmentRatio)
}

func TestScoreCriterion_NonPositiveTargetIsWarning(t *testing.T) {
	calc := testCalculator(t)
	criterion := lowerIsBetter(10)

	snap := testSnapshot(&contracts.Sector{ID: 1, Name: "Norte", Active: true})
	snap.Parameters = []*contracts.ParameterValue{globalTarget(10, 0)}
	snap.RawTotals[contracts.SectorCriterion{SectorID: 1, CriterionID: 10}] = 300

	scores, warnings := calc.ScoreCriterion(snap, criterion, computedAt)
	assert.Empty(t, scores)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Reason, "not positive")
}

func TestScoreCriterion_ScaleHashOnEveryRow(t *testing.T) {
	calc := testCalculator(t)
	criterion := lowerIsBetter(10)

	snap := testSnapshot(
		&contracts.Sector{ID: 1, Name: "Norte", Active: true},
		&contracts.Sector{ID: 2, Name: "Sul", Active: true},
	)
	snap.Parameters = []*contracts.ParameterValue{globalTarget(10, 310)}
	snap.RawTotals[contracts.SectorCriterion{SectorID: 1, CriterionID: 10}] = 300
	snap.RawTotals[contracts.SectorCriterion{SectorID: 2, CriterionID: 10}] = 320

	scores, _ := calc.ScoreCriterion(snap, criterion, computedAt)
	for _, s := range scores {
		assert.Equal(t, calc.scaleHash, s.ScaleHash)
		assert.Equal(t, computedAt, s.ComputedAt)
	}
}
