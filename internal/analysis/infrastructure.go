package analysis

import (
	"time"

	"github.com/safepath-labs/safepath/internal/model"
)

// maintenanceWindow is how far back a maintenance date still counts as
// recent. The 90-day figure comes from the scoring model and is fixed.
const maintenanceWindow = 90 * 24 * time.Hour

// AnalyzeInfrastructure summarizes street light records into a coverage
// score and maintenance recency. An empty record set yields the zero
// summary; percentages default to 0 when there are no lights.
func AnalyzeInfrastructure(records []model.LightRecord, now time.Time) (*model.InfrastructureAnalysis, error) {
	out := &model.InfrastructureAnalysis{}
	if len(records) == 0 {
		return out, nil
	}

	cutoff := now.Add(-maintenanceWindow)

	for _, rec := range records {
		out.TotalLights++
		if rec.Status == model.LightStatusWorking {
			out.WorkingLights++
		}

		maintained, err := model.ParseCivicTime(rec.MaintenanceDate)
		if err != nil {
			return nil, &Error{Dataset: "lights", Records: len(records), Err: err}
		}
		// Lights with no recorded maintenance parse to the zero time and
		// never count as recently maintained.
		if !maintained.IsZero() && !maintained.Before(cutoff) {
			out.RecentMaintenanceCount++
		}
	}

	out.CoverageScore = ratio(out.WorkingLights, out.TotalLights)
	out.MaintenancePercentage = ratio(out.RecentMaintenanceCount, out.TotalLights)

	return out, nil
}
