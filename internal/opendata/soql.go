package opendata

import (
	"fmt"
	"net/url"
	"time"

	"github.com/safepath-labs/safepath/internal/model"
)

// Socrata query parameter names.
const (
	paramWhere  = "$where"
	paramSelect = "$select"
	paramLimit  = "$limit"
)

// maxRecords bounds how many rows a single dataset fetch may return. The
// geographic and time filters keep real result sets far below this.
const maxRecords = 5000

// withinCircle renders the Socrata geographic circle predicate.
func withinCircle(q model.GeoQuery) string {
	return fmt.Sprintf("within_circle(location, %f, %f, %d)", q.Lat, q.Lng, q.RadiusMeters)
}

// incidentQuery builds the SoQL parameters for the incidents dataset:
// records within the circle whose date falls inside the time window.
func incidentQuery(q model.GeoQuery, now time.Time) url.Values {
	since := q.Since(now).UTC().Format("2006-01-02T15:04:05")
	return url.Values{
		paramWhere:  {fmt.Sprintf("%s AND date >= '%s'", withinCircle(q), since)},
		paramSelect: {"category,date"},
		paramLimit:  {fmt.Sprint(maxRecords)},
	}
}

// lightQuery builds the SoQL parameters for the street lights dataset.
// Lights are point infrastructure; no time filter applies.
func lightQuery(q model.GeoQuery) url.Values {
	return url.Values{
		paramWhere:  {withinCircle(q)},
		paramSelect: {"status,installation_date,maintenance_date"},
		paramLimit:  {fmt.Sprint(maxRecords)},
	}
}

// caseQuery builds the SoQL parameters for the 311 cases dataset:
// records within the circle created inside the time window.
func caseQuery(q model.GeoQuery, now time.Time) url.Values {
	since := q.Since(now).UTC().Format("2006-01-02T15:04:05")
	return url.Values{
		paramWhere:  {fmt.Sprintf("%s AND created_date >= '%s'", withinCircle(q), since)},
		paramSelect: {"category,status,created_date,closed_date"},
		paramLimit:  {fmt.Sprint(maxRecords)},
	}
}
