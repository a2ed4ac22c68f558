package analysis

import (
	"sort"
	"time"

	"github.com/safepath-labs/safepath/internal/model"
)

// topN is how many high-risk hours and common categories are reported.
const topN = 3

// AnalyzeIncidents summarizes incident records: hourly and category
// histograms, time-of-day buckets, a week-over-week trend, and the top
// risk hours and categories. An empty record set yields the zero summary.
func AnalyzeIncidents(records []model.IncidentRecord, now time.Time) (*model.IncidentAnalysis, error) {
	out := &model.IncidentAnalysis{
		HourlyDistribution:   map[int]int{},
		CategoryDistribution: map[string]int{},
		HighRiskHours:        []int{},
		MostCommonCategories: []string{},
	}
	if len(records) == 0 {
		return out, nil
	}

	weekAgo := now.AddDate(0, 0, -7)
	twoWeeksAgo := now.AddDate(0, 0, -14)
	var recent, previous int

	for _, rec := range records {
		ts, err := model.ParseCivicTime(rec.Date)
		if err != nil {
			return nil, &Error{Dataset: "incidents", Records: len(records), Err: err}
		}

		out.TotalIncidents++
		hour := ts.Hour()
		out.HourlyDistribution[hour]++
		out.CategoryDistribution[rec.Category]++

		switch {
		case hour >= 6 && hour <= 11:
			out.TimePatterns.Morning++
		case hour >= 12 && hour <= 17:
			out.TimePatterns.Afternoon++
		case hour >= 18 && hour <= 23:
			out.TimePatterns.Evening++
		default:
			out.TimePatterns.Night++
		}

		if !ts.Before(weekAgo) {
			recent++
		} else if !ts.Before(twoWeeksAgo) {
			previous++
		}
	}

	// Week-over-week change. A zero previous week yields 0, not a blow-up.
	if previous > 0 {
		out.TrendChangePercentage = float64(recent-previous) / float64(previous) * 100
	}

	out.HighRiskHours = topHours(out.HourlyDistribution)
	out.MostCommonCategories = topCategories(out.CategoryDistribution)

	return out, nil
}

// topHours returns up to three hours ordered by descending count.
// Ties break toward the earlier hour so the ranking is deterministic.
func topHours(counts map[int]int) []int {
	hours := make([]int, 0, len(counts))
	for h := range counts {
		hours = append(hours, h)
	}
	sort.Slice(hours, func(i, j int) bool {
		if counts[hours[i]] != counts[hours[j]] {
			return counts[hours[i]] > counts[hours[j]]
		}
		return hours[i] < hours[j]
	})
	if len(hours) > topN {
		hours = hours[:topN]
	}
	return hours
}

// topCategories returns up to three categories ordered by descending count.
// Ties break lexicographically so the ranking is deterministic.
func topCategories(counts map[string]int) []string {
	cats := make([]string, 0, len(counts))
	for c := range counts {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool {
		if counts[cats[i]] != counts[cats[j]] {
			return counts[cats[i]] > counts[cats[j]]
		}
		return cats[i] < cats[j]
	})
	if len(cats) > topN {
		cats = cats[:topN]
	}
	return cats
}
