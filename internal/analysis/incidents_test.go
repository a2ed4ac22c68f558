package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepath-labs/safepath/internal/model"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

// incidentAt builds an incident record with a Socrata-style timestamp
// offset from testNow.
func incidentAt(category string, daysAgo int, hour int) model.IncidentRecord {
	ts := testNow.AddDate(0, 0, -daysAgo)
	ts = time.Date(ts.Year(), ts.Month(), ts.Day(), hour, 0, 0, 0, time.UTC)
	return model.IncidentRecord{
		Category: category,
		Date:     ts.Format("2006-01-02T15:04:05.000"),
	}
}

func TestAnalyzeIncidents_Empty(t *testing.T) {
	got, err := AnalyzeIncidents(nil, testNow)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalIncidents)
	assert.Empty(t, got.HourlyDistribution)
	assert.Empty(t, got.CategoryDistribution)
	assert.Empty(t, got.HighRiskHours)
	assert.Empty(t, got.MostCommonCategories)
	assert.Zero(t, got.TrendChangePercentage)
}

func TestAnalyzeIncidents_HourlyDistributionSumsToTotal(t *testing.T) {
	records := []model.IncidentRecord{
		incidentAt("ASSAULT", 1, 22),
		incidentAt("ASSAULT", 2, 22),
		incidentAt("LARCENY", 3, 14),
		incidentAt("BURGLARY", 4, 3),
		incidentAt("LARCENY", 5, 9),
	}

	got, err := AnalyzeIncidents(records, testNow)
	require.NoError(t, err)

	assert.Equal(t, len(records), got.TotalIncidents)
	sum := 0
	for _, n := range got.HourlyDistribution {
		sum += n
	}
	assert.Equal(t, got.TotalIncidents, sum)

	sum = 0
	for _, n := range got.CategoryDistribution {
		sum += n
	}
	assert.Equal(t, got.TotalIncidents, sum)
}

func TestAnalyzeIncidents_TimeOfDayBuckets(t *testing.T) {
	records := []model.IncidentRecord{
		incidentAt("A", 1, 6),  // morning lower bound
		incidentAt("A", 1, 11), // morning upper bound
		incidentAt("A", 1, 12), // afternoon lower bound
		incidentAt("A", 1, 17), // afternoon upper bound
		incidentAt("A", 1, 18), // evening lower bound
		incidentAt("A", 1, 23), // evening upper bound
		incidentAt("A", 1, 0),  // night lower bound
		incidentAt("A", 1, 5),  // night upper bound
	}

	got, err := AnalyzeIncidents(records, testNow)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TimePatterns.Morning)
	assert.Equal(t, 2, got.TimePatterns.Afternoon)
	assert.Equal(t, 2, got.TimePatterns.Evening)
	assert.Equal(t, 2, got.TimePatterns.Night)
}

func TestAnalyzeIncidents_Trend(t *testing.T) {
	t.Run("doubling week over week", func(t *testing.T) {
		records := []model.IncidentRecord{
			// previous week: 2
			incidentAt("A", 10, 12),
			incidentAt("A", 9, 12),
			// recent week: 4
			incidentAt("A", 6, 12),
			incidentAt("A", 5, 12),
			incidentAt("A", 2, 12),
			incidentAt("A", 1, 12),
		}
		got, err := AnalyzeIncidents(records, testNow)
		require.NoError(t, err)
		assert.InDelta(t, 100.0, got.TrendChangePercentage, 0.001)
	})

	t.Run("zero previous week yields zero, not a blow-up", func(t *testing.T) {
		records := []model.IncidentRecord{
			incidentAt("A", 1, 12),
			incidentAt("A", 2, 12),
			incidentAt("A", 3, 12),
		}
		got, err := AnalyzeIncidents(records, testNow)
		require.NoError(t, err)
		assert.Zero(t, got.TrendChangePercentage)
	})

	t.Run("decline", func(t *testing.T) {
		records := []model.IncidentRecord{
			incidentAt("A", 10, 12),
			incidentAt("A", 9, 12),
			incidentAt("A", 8, 12),
			incidentAt("A", 12, 12),
			incidentAt("A", 1, 12),
		}
		got, err := AnalyzeIncidents(records, testNow)
		require.NoError(t, err)
		assert.InDelta(t, -75.0, got.TrendChangePercentage, 0.001)
	})
}

func TestAnalyzeIncidents_TopThreeDeterministicTieBreak(t *testing.T) {
	// Hours 4 and 20 tie; the earlier hour must rank first. Categories
	// "B" and "C" tie; lexicographic order must rank "B" first.
	records := []model.IncidentRecord{
		incidentAt("A", 1, 10),
		incidentAt("A", 2, 10),
		incidentAt("A", 3, 10),
		incidentAt("B", 1, 20),
		incidentAt("B", 2, 4),
		incidentAt("C", 3, 4),
		incidentAt("C", 4, 20),
	}

	got, err := AnalyzeIncidents(records, testNow)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 4, 20}, got.HighRiskHours)
	assert.Equal(t, []string{"A", "B", "C"}, got.MostCommonCategories)
}

func TestAnalyzeIncidents_Idempotent(t *testing.T) {
	records := []model.IncidentRecord{
		incidentAt("ASSAULT", 1, 22),
		incidentAt("LARCENY", 9, 14),
		incidentAt("BURGLARY", 3, 3),
	}

	first, err := AnalyzeIncidents(records, testNow)
	require.NoError(t, err)
	second, err := AnalyzeIncidents(records, testNow)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalyzeIncidents_MalformedTimestamp(t *testing.T) {
	records := []model.IncidentRecord{
		incidentAt("A", 1, 12),
		{Category: "B", Date: "yesterdayish"},
	}

	_, err := AnalyzeIncidents(records, testNow)
	require.Error(t, err)

	var analysisErr *Error
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, "incidents", analysisErr.Dataset)
	assert.Equal(t, 2, analysisErr.Records)
}
