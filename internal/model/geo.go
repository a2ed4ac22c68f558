// Package model defines the data types shared across the safety scoring pipeline.
package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// GeoQuery describes a geographic circle and time window used to filter
// civic dataset records.
type GeoQuery struct {
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	RadiusMeters   int     `json:"radius_meters"`
	TimeWindowDays int     `json:"time_window_days"`
}

// Validate checks the query invariants: a positive radius and a
// non-negative time window.
func (q GeoQuery) Validate() error {
	if q.RadiusMeters <= 0 {
		return eris.Errorf("geo query: radius_meters must be positive, got %d", q.RadiusMeters)
	}
	if q.TimeWindowDays < 0 {
		return eris.Errorf("geo query: time_window_days must be non-negative, got %d", q.TimeWindowDays)
	}
	if q.Lat < -90 || q.Lat > 90 {
		return eris.Errorf("geo query: lat out of range: %f", q.Lat)
	}
	if q.Lng < -180 || q.Lng > 180 {
		return eris.Errorf("geo query: lng out of range: %f", q.Lng)
	}
	return nil
}

// Since returns the start of the query's time window relative to now.
func (q GeoQuery) Since(now time.Time) time.Time {
	return now.AddDate(0, 0, -q.TimeWindowDays)
}

// socrataLayouts lists the timestamp formats open-data providers emit.
// Socrata floating timestamps carry no zone; they are treated as UTC.
var socrataLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// ParseCivicTime parses a timestamp string as emitted by civic open-data
// feeds. An empty string is not an error; it returns a zero time.
func ParseCivicTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range socrataLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, eris.Errorf("unparseable timestamp %q", s)
}
