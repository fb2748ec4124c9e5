package params

import (
	"time"

	"github.com/fleetops/premia/backend/internal/contracts"
)

// Resolve picks the single applicable target for a criterion and sector
// at a given date, from the period's full version log. A row scoped to
// the sector beats the global (sector-null) row; among the remaining
// candidates the highest version wins. The boolean is false when no
// version qualifies; during planning that is a legitimate state, not
// an error, and callers must not read it as a zero target.
func Resolve(rows []*contracts.ParameterValue, criterionID int64, sectorID *int64, asOf time.Time) (*contracts.ParameterValue, bool) {
	var sectorBest, globalBest *contracts.ParameterValue

	for _, row := range rows {
		if row.CriterionID != criterionID || !row.InWindow(asOf) {
			continue
		}

		switch {
		case row.SectorID == nil:
			if globalBest == nil || row.Version > globalBest.Version {
				globalBest = row
			}
		case sectorID != nil && *row.SectorID == *sectorID:
			if sectorBest == nil || row.Version > sectorBest.Version {
				sectorBest = row
			}
		}
	}

	if sectorBest != nil {
		return sectorBest, true
	}
	if globalBest != nil {
		return globalBest, true
	}
	return nil, false
}
