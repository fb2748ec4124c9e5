package scoring

import (
	"math"
	"sort"
	"time"

	"github.com/fleetops/premia/backend/internal/contracts"
)

// Aggregate sums per-criterion scores into final rankings. Lower total
// is the better outcome, mirroring the per-criterion scale where 1.0 is
// first place. Sectors with no scored criterion do not rank at all.
// Equal totals share a rank position and are flagged as tied.
func Aggregate(snap *Snapshot, scores []*contracts.CriterionScore, computedAt time.Time) []*contracts.FinalRanking {
	totals := make(map[int64]float64)
	for _, score := range scores {
		totals[score.SectorID] += score.Score
	}

	names := make(map[int64]string, len(snap.Sectors))
	for _, sector := range snap.Sectors {
		names[sector.ID] = sector.Name
	}

	rankings := make([]*contracts.FinalRanking, 0, len(totals))
	for sectorID, total := range totals {
		rankings = append(rankings, &contracts.FinalRanking{
			PeriodID:   snap.Period.ID,
			SectorID:   sectorID,
			TotalScore: roundTotal(total),
			ComputedAt: computedAt,
		})
	}

	sort.Slice(rankings, func(i, j int) bool {
		if rankings[i].TotalScore != rankings[j].TotalScore {
			return rankings[i].TotalScore < rankings[j].TotalScore
		}
		return names[rankings[i].SectorID] < names[rankings[j].SectorID]
	})

	// Competition ranking with tie flags
	rank := 0
	for i, fr := range rankings {
		if i == 0 || fr.TotalScore != rankings[i-1].TotalScore {
			rank = i + 1
		}
		fr.RankPosition = rank
	}
	for i, fr := range rankings {
		prev := i > 0 && rankings[i-1].TotalScore == fr.TotalScore
		next := i < len(rankings)-1 && rankings[i+1].TotalScore == fr.TotalScore
		fr.Tied = prev || next
	}

	return rankings
}

// WinnerTie returns the sectors tied at rank 1. Officializing a period
// requires a human choice among them when more than one is returned.
func WinnerTie(rankings []*contracts.FinalRanking) []int64 {
	leaders := make([]int64, 0, 2)
	for _, fr := range rankings {
		if fr.RankPosition == 1 {
			leaders = append(leaders, fr.SectorID)
		}
	}
	return leaders
}

// roundTotal keeps the summed score free of float accumulation noise;
// the scale steps in halves, so two decimals is plenty.
func roundTotal(v float64) float64 {
	return math.Round(v*100) / 100
}
