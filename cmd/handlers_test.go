package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safepath-labs/safepath/internal/config"
	"github.com/safepath-labs/safepath/internal/model"
	"github.com/safepath-labs/safepath/internal/safety"
	"github.com/safepath-labs/safepath/internal/store"
)

// stubSource serves fixed records so handler tests get deterministic scores.
type stubSource struct {
	incidents []model.IncidentRecord
	lights    []model.LightRecord
	cases     []model.CaseRecord
}

func (s *stubSource) Incidents(ctx context.Context, q model.GeoQuery, now time.Time) ([]model.IncidentRecord, error) {
	return s.incidents, nil
}

func (s *stubSource) Lights(ctx context.Context, q model.GeoQuery) ([]model.LightRecord, error) {
	return s.lights, nil
}

func (s *stubSource) Cases(ctx context.Context, q model.GeoQuery, now time.Time) ([]model.CaseRecord, error) {
	return s.cases, nil
}

func newTestServer(t *testing.T, src *stubSource) (*httptest.Server, store.Store) {
	t.Helper()

	cfg = &config.Config{
		Safety: config.SafetyConfig{DefaultRadiusMeters: 500, DefaultTimeWindowDays: 30},
	}

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "handlers_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	e := &env{
		Safety: safety.NewServiceAt(src, func() time.Time { return now }),
		Store:  st,
	}

	srv := httptest.NewServer(newRouter(e, []string{"http://localhost:3000"}))
	t.Cleanup(srv.Close)
	return srv, st
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decodeBody(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}

func TestAreaSafetyEndpoint(t *testing.T) {
	srv, st := newTestServer(t, &stubSource{})

	resp := postJSON(t, srv.URL+"/api/v1/safety/area", map[string]any{
		"lat": 37.7749, "lng": -122.4194,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		AssessmentID string             `json:"assessment_id"`
		Result       model.SafetyResult `json:"result"`
	}
	decodeBody(t, resp, &body)
	require.NotEmpty(t, body.AssessmentID)
	assert.InDelta(t, 100.0, body.Result.SafetyScore, 0.001)

	// The assessment was persisted with the configured defaults.
	saved, err := st.GetAssessment(context.Background(), body.AssessmentID)
	require.NoError(t, err)
	assert.Equal(t, 500, saved.RadiusMeters)
	assert.Equal(t, 30, saved.TimeWindowDays)
}

func TestAreaSafetyEndpoint_BadBody(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})

	resp, err := http.Post(srv.URL+"/api/v1/safety/area", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAreaSafetyEndpoint_InvalidCoordinates(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})

	resp := postJSON(t, srv.URL+"/api/v1/safety/area", map[string]any{
		"lat": 137.0, "lng": -122.4194,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListAssessmentsEndpoint(t *testing.T) {
	srv, st := newTestServer(t, &stubSource{})
	ctx := context.Background()

	q := model.GeoQuery{Lat: 37.7749, Lng: -122.4194, RadiusMeters: 500, TimeWindowDays: 30}
	_, err := st.CreateAssessment(ctx, q, model.SafetyResult{SafetyScore: 90})
	require.NoError(t, err)

	far := model.GeoQuery{Lat: 40.7128, Lng: -74.0060, RadiusMeters: 500, TimeWindowDays: 30}
	_, err = st.CreateAssessment(ctx, far, model.SafetyResult{SafetyScore: 70})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/v1/safety/assessments")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Assessments []model.Assessment `json:"assessments"`
	}
	decodeBody(t, resp, &body)
	assert.Len(t, body.Assessments, 2)

	// Proximity filter keeps only the nearby one.
	resp2, err := http.Get(srv.URL + "/api/v1/safety/assessments?lat=37.7749&lng=-122.4194")
	require.NoError(t, err)
	defer resp2.Body.Close()
	var near struct {
		Assessments []model.Assessment `json:"assessments"`
	}
	decodeBody(t, resp2, &near)
	require.Len(t, near.Assessments, 1)
	assert.InDelta(t, 90.0, near.Assessments[0].Result.SafetyScore, 0.001)
}

func TestGetAssessmentEndpoint(t *testing.T) {
	srv, st := newTestServer(t, &stubSource{})

	q := model.GeoQuery{Lat: 37.7749, Lng: -122.4194, RadiusMeters: 500, TimeWindowDays: 30}
	created, err := st.CreateAssessment(context.Background(), q, model.SafetyResult{SafetyScore: 88})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/v1/safety/assessments/" + created.ID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got model.Assessment
	decodeBody(t, resp, &got)
	assert.Equal(t, created.ID, got.ID)
	assert.InDelta(t, 88.0, got.Result.SafetyScore, 0.001)
}

func TestGetAssessmentEndpoint_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, &stubSource{})

	resp, err := http.Get(srv.URL + "/api/v1/safety/assessments/no-such-id")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGuidanceEndpoint_FallbackWithoutGenerator(t *testing.T) {
	// Lights feed with heavy outages drags the score into the medium band.
	src := &stubSource{}
	for i := 0; i < 2; i++ {
		src.lights = append(src.lights, model.LightRecord{Status: model.LightStatusWorking})
	}
	for i := 0; i < 8; i++ {
		src.lights = append(src.lights, model.LightRecord{Status: "OTHER"})
	}
	srv, _ := newTestServer(t, src)

	resp := postJSON(t, srv.URL+"/api/v1/safety/guidance", map[string]any{
		"lat": 37.7749, "lng": -122.4194,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Result   model.SafetyResult `json:"result"`
		Guidance struct {
			RiskLevel       string   `json:"risk_level"`
			Recommendations []string `json:"recommendations"`
		} `json:"guidance"`
	}
	decodeBody(t, resp, &body)
	// 100 + (20-100)*0.3 = 76
	assert.InDelta(t, 76.0, body.Result.SafetyScore, 0.001)
	assert.Equal(t, "low", body.Guidance.RiskLevel)
	assert.NotEmpty(t, body.Guidance.Recommendations)
}
