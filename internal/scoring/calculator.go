package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/fleetops/premia/backend/internal/contracts"
	"github.com/fleetops/premia/backend/internal/params"
	"github.com/fleetops/premia/backend/internal/scoring/scaleconfig"
)

// Snapshot is everything one period's recomputation reads: the catalogue,
// the target version log, summed raw measurements and summed approved
// adjustments. Loaded in a single repeatable-read transaction so scores
// and rankings derive from one consistent view.
type Snapshot struct {
	Period      *contracts.CompetitionPeriod
	Sectors     []*contracts.Sector
	Criteria    []*contracts.Criterion
	Parameters  []*contracts.ParameterValue
	RawTotals   map[contracts.SectorCriterion]float64
	Adjustments map[contracts.SectorCriterion]float64
}

// Calculator turns a snapshot into criterion scores
type Calculator struct {
	scale     *scaleconfig.Config
	scaleHash string
}

// NewCalculator creates a calculator for the given scale
func NewCalculator(scale *scaleconfig.Config, scaleHash string) *Calculator {
	return &Calculator{scale: scale, scaleHash: scaleHash}
}

// cell is one sector's scored position within a criterion
type cell struct {
	sector   *contracts.Sector
	realized float64
	target   float64
	ratio    float64
}

// ScoreCriterion computes every sector's score for one criterion.
// Sectors with a missing measurement or an unresolved target are
// reported as warnings and excluded, not scored as zero.
func (c *Calculator) ScoreCriterion(snap *Snapshot, criterion *contracts.Criterion, computedAt time.Time) ([]*contracts.CriterionScore, []contracts.ComputeWarning) {
	warnings := make([]contracts.ComputeWarning, 0)
	cells := make([]*cell, 0, len(snap.Sectors))

	for _, sector := range snap.Sectors {
		key := contracts.SectorCriterion{SectorID: sector.ID, CriterionID: criterion.ID}

		raw, measured := snap.RawTotals[key]
		if !measured {
			warnings = append(warnings, contracts.ComputeWarning{
				SectorID:    sector.ID,
				CriterionID: criterion.ID,
				Reason:      "no raw measurement for the period",
			})
			continue
		}

		target, resolved := params.Resolve(snap.Parameters, criterion.ID, &sector.ID, snap.Period.EndDate)
		if !resolved {
			warnings = append(warnings, contracts.ComputeWarning{
				SectorID:    sector.ID,
				CriterionID: criterion.ID,
				Reason:      "no applicable target",
			})
			continue
		}

		realized := round(raw-snap.Adjustments[key], criterion.Precision)

		ratio, ok := c.attainment(criterion.Direction, realized, target.Value)
		if !ok {
			warnings = append(warnings, contracts.ComputeWarning{
				SectorID:    sector.ID,
				CriterionID: criterion.ID,
				Reason:      "target is not positive",
			})
			continue
		}

		cells = append(cells, &cell{
			sector:   sector,
			realized: realized,
			target:   target.Value,
			ratio:    ratio,
		})
	}

	// Rank by raw performance in the criterion's better direction, not
	// by the ratio, so differing targets across sectors cannot skew
	// the order. Equal realized values share a rank and a score; the
	// next rank skips past the tie group.
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].realized != cells[j].realized {
			if criterion.Direction == contracts.LowerIsBetter {
				return cells[i].realized < cells[j].realized
			}
			return cells[i].realized > cells[j].realized
		}
		return cells[i].sector.Name < cells[j].sector.Name
	})

	scores := make([]*contracts.CriterionScore, 0, len(cells))
	rank := 0
	for i, cl := range cells {
		if i == 0 || cl.realized != cells[i-1].realized {
			rank = i + 1
		}

		scores = append(scores, &contracts.CriterionScore{
			PeriodID:        snap.Period.ID,
			SectorID:        cl.sector.ID,
			CriterionID:     criterion.ID,
			RealizedValue:   cl.realized,
			TargetValue:     cl.target,
			AttainmentRatio: cl.ratio,
			RankInCriterion: rank,
			Score:           c.scale.ScoreForRank(rank),
			ScaleHash:       c.scaleHash,
			ComputedAt:      computedAt,
		})
	}

	return scores, warnings
}

// attainment normalizes realized performance against the target so that
// beating the target yields a ratio >= 1 in either direction. The ratio
// is capped: a realized value expurgated to zero or below on a
// lower-is-better criterion counts as a maximal beat, not a division by
// zero.
func (c *Calculator) attainment(direction contracts.Direction, realized, target float64) (float64, bool) {
	limit := c.scale.AttainmentCap

	if direction == contracts.LowerIsBetter {
		if target <= 0 {
			return 0, false
		}
		if realized <= 0 {
			return limit, true
		}
		return round(math.Min(target/realized, limit), 4), true
	}

	if target <= 0 {
		return 0, false
	}
	if realized <= 0 {
		return 0, true
	}
	return round(math.Min(realized/target, limit), 4), true
}

// round keeps stored values at the criterion's precision so repeated
// runs over unchanged inputs reproduce identical rows.
func round(v float64, precision int) float64 {
	if precision < 0 {
		precision = 0
	}
	factor := math.Pow(10, float64(precision))
	return math.Round(v*factor) / factor
}
