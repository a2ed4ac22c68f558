package model

import "time"

// TimeOfDayBuckets counts incidents per part of day. Bucket boundaries are
// inclusive: morning 06-11, afternoon 12-17, evening 18-23, night 00-05.
type TimeOfDayBuckets struct {
	Morning   int `json:"morning"`
	Afternoon int `json:"afternoon"`
	Evening   int `json:"evening"`
	Night     int `json:"night"`
}

// IncidentAnalysis is the statistical summary of incident records for an area.
type IncidentAnalysis struct {
	TotalIncidents        int              `json:"total_incidents"`
	HourlyDistribution    map[int]int      `json:"hourly_distribution"`
	CategoryDistribution  map[string]int   `json:"category_distribution"`
	TimePatterns          TimeOfDayBuckets `json:"time_patterns"`
	TrendChangePercentage float64          `json:"trend_change_percentage"`
	HighRiskHours         []int            `json:"high_risk_hours"`
	MostCommonCategories  []string         `json:"most_common_categories"`
}

// InfrastructureAnalysis summarizes street light coverage and maintenance
// recency for an area. Percentages are clamped to [0,100].
type InfrastructureAnalysis struct {
	TotalLights            int     `json:"total_lights"`
	WorkingLights          int     `json:"working_lights"`
	CoverageScore          float64 `json:"coverage_score"`
	RecentMaintenanceCount int     `json:"recent_maintenance_count"`
	MaintenancePercentage  float64 `json:"maintenance_percentage"`
}

// CategoryPerformance holds response time statistics for one case category.
type CategoryPerformance struct {
	MeanHours   float64 `json:"mean_hours"`
	MedianHours float64 `json:"median_hours"`
	Count       int     `json:"count"`
}

// ResponseAnalysis summarizes civic case response times and resolution for
// an area. Cases without a close date are counted as open and excluded from
// the response time statistics.
type ResponseAnalysis struct {
	MeanResponseHours   float64                        `json:"mean_response_hours"`
	MedianResponseHours float64                        `json:"median_response_hours"`
	Percentile90        float64                        `json:"percentile_90"`
	Percentile95        float64                        `json:"percentile_95"`
	CategoryPerformance map[string]CategoryPerformance `json:"category_performance"`
	HourlyPerformance   map[int]float64                `json:"hourly_performance"`
	TotalCases          int                            `json:"total_cases"`
	OpenCases           int                            `json:"open_cases"`
	ResolutionRate      float64                        `json:"resolution_rate"`
}

// SafetyResult is the composite output of an area safety assessment. A nil
// analysis section means the corresponding dataset returned no records; the
// composer treats such sections as absent rather than penalizing them.
type SafetyResult struct {
	IncidentAnalysis *IncidentAnalysis       `json:"incident_analysis,omitempty"`
	Infrastructure   *InfrastructureAnalysis `json:"infrastructure,omitempty"`
	ResponseMetrics  *ResponseAnalysis       `json:"response_metrics,omitempty"`
	SafetyScore      float64                 `json:"safety_score"`
}

// Assessment is a persisted safety assessment: the query that produced it,
// the result, and when it was computed.
type Assessment struct {
	ID             string       `json:"id"`
	Lat            float64      `json:"lat"`
	Lng            float64      `json:"lng"`
	RadiusMeters   int          `json:"radius_meters"`
	TimeWindowDays int          `json:"time_window_days"`
	Result         SafetyResult `json:"result"`
	CreatedAt      time.Time    `json:"created_at"`
}
