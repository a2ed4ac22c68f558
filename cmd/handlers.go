package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/safepath-labs/safepath/internal/guidance"
	"github.com/safepath-labs/safepath/internal/model"
	"github.com/safepath-labs/safepath/internal/store"
)

// areaRequest is the body of POST /api/v1/safety/area and /guidance.
type areaRequest struct {
	Lat            float64 `json:"lat"`
	Lng            float64 `json:"lng"`
	RadiusMeters   int     `json:"radius_meters"`
	TimeWindowDays int     `json:"time_window_days"`
}

// geoQuery fills unset fields from the configured defaults.
func (a areaRequest) geoQuery() model.GeoQuery {
	q := model.GeoQuery{
		Lat:            a.Lat,
		Lng:            a.Lng,
		RadiusMeters:   a.RadiusMeters,
		TimeWindowDays: a.TimeWindowDays,
	}
	if q.RadiusMeters == 0 {
		q.RadiusMeters = cfg.Safety.DefaultRadiusMeters
	}
	if q.TimeWindowDays == 0 {
		q.TimeWindowDays = cfg.Safety.DefaultTimeWindowDays
	}
	return q
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleAreaSafety computes an area safety assessment and records it.
func handleAreaSafety(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req areaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		q := req.geoQuery()
		if err := q.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		result, err := e.Safety.AreaSafety(r.Context(), q)
		if err != nil {
			zap.L().Error("area safety request failed",
				zap.Float64("lat", q.Lat),
				zap.Float64("lng", q.Lng),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "safety analysis failed")
			return
		}

		assessment, err := e.Store.CreateAssessment(r.Context(), q, *result)
		if err != nil {
			// The score is still good; log the persistence failure and
			// return the result without an ID.
			zap.L().Error("persist assessment failed", zap.Error(err))
			writeJSON(w, http.StatusOK, map[string]any{"result": result})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"assessment_id": assessment.ID,
			"result":        result,
		})
	}
}

// handleListAssessments returns recent assessments, optionally limited to
// the area around a point.
func handleListAssessments(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := store.Filter{
			Limit:  intParam(r, "limit"),
			Offset: intParam(r, "offset"),
		}

		if latStr := r.URL.Query().Get("lat"); latStr != "" {
			lat, err1 := strconv.ParseFloat(latStr, 64)
			lng, err2 := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
			if err1 != nil || err2 != nil {
				writeError(w, http.StatusBadRequest, "invalid lat/lng")
				return
			}
			radius := intParam(r, "radius_meters")
			if radius == 0 {
				radius = cfg.Safety.DefaultRadiusMeters
			}
			filter.Near = &model.GeoQuery{Lat: lat, Lng: lng, RadiusMeters: radius}
		}

		assessments, err := e.Store.ListAssessments(r.Context(), filter)
		if err != nil {
			zap.L().Error("list assessments failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "list assessments failed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"assessments": assessments})
	}
}

func handleGetAssessment(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		assessment, err := e.Store.GetAssessment(r.Context(), id)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "assessment not found")
			return
		}
		if err != nil {
			zap.L().Error("get assessment failed", zap.String("id", id), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "get assessment failed")
			return
		}
		writeJSON(w, http.StatusOK, assessment)
	}
}

// handleGuidance computes an assessment and returns narrative advice for
// it. Without a configured model key the deterministic fallback is used.
func handleGuidance(e *env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req areaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		q := req.geoQuery()
		if err := q.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		result, err := e.Safety.AreaSafety(r.Context(), q)
		if err != nil {
			zap.L().Error("guidance request failed",
				zap.Float64("lat", q.Lat),
				zap.Float64("lng", q.Lng),
				zap.Error(err),
			)
			writeError(w, http.StatusInternalServerError, "safety analysis failed")
			return
		}

		var advice *guidance.Guidance
		if e.Guidance != nil {
			advice = e.Guidance.AreaGuidance(r.Context(), result)
		} else {
			advice = guidance.Fallback(result.SafetyScore)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"result":   result,
			"guidance": advice,
		})
	}
}

func intParam(r *http.Request, name string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
