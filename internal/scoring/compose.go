// Package scoring combines analyzer outputs into one bounded safety score.
package scoring

import (
	"math"

	"go.uber.org/zap"

	"github.com/safepath-labs/safepath/internal/model"
)

// Fixed weights of the scoring model. These match the figures the model was
// calibrated with and are not configurable.
const (
	incidentWeight       = 0.4
	infrastructureWeight = 0.3
	responseWeight       = 0.3

	// maxIncidentImpact caps how many points raw incident volume can cost.
	maxIncidentImpact = 50
	// maxTrendImpact bounds the week-over-week trend adjustment to ±10 points.
	maxTrendImpact = 10
)

// Compose combines the three analyses into a single score in [0,100].
// It starts from a perfect 100 and applies weighted penalties; a nil
// analysis simply contributes nothing, so an area with no data at all
// scores 100. Compose never fails: if the inputs produce a non-finite
// value it logs a warning and returns 0.
func Compose(inc *model.IncidentAnalysis, infra *model.InfrastructureAnalysis, resp *model.ResponseAnalysis) float64 {
	score := 100.0

	if inc != nil {
		incidentImpact := math.Min(maxIncidentImpact, float64(inc.TotalIncidents)*2)
		trendImpact := clamp(inc.TrendChangePercentage/10, -maxTrendImpact, maxTrendImpact)
		score -= incidentImpact * incidentWeight
		score += trendImpact * incidentWeight
	}

	if infra != nil {
		score += (infra.CoverageScore - 100) * infrastructureWeight
	}

	if resp != nil {
		score += (resp.ResolutionRate - 100) * responseWeight
	}

	if math.IsNaN(score) || math.IsInf(score, 0) {
		zap.L().Warn("scoring: composition produced non-finite score, returning 0",
			zap.Bool("has_incidents", inc != nil),
			zap.Bool("has_infrastructure", infra != nil),
			zap.Bool("has_response", resp != nil),
		)
		return 0
	}

	return clamp(score, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
