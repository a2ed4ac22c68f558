// Package safety orchestrates the area safety assessment: concurrent civic
// dataset fetches, statistical analysis, and score composition.
package safety

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/safepath-labs/safepath/internal/analysis"
	"github.com/safepath-labs/safepath/internal/model"
	"github.com/safepath-labs/safepath/internal/scoring"
)

// DataSource provides the three civic dataset feeds. Implementations must
// degrade transient failures to empty record sets; an error here means the
// dataset itself was misconfigured, not that the provider was unreachable.
type DataSource interface {
	Incidents(ctx context.Context, q model.GeoQuery, now time.Time) ([]model.IncidentRecord, error)
	Lights(ctx context.Context, q model.GeoQuery) ([]model.LightRecord, error)
	Cases(ctx context.Context, q model.GeoQuery, now time.Time) ([]model.CaseRecord, error)
}

// Service computes area safety assessments.
type Service struct {
	data DataSource
	now  func() time.Time
}

// NewService creates a Service backed by the given data source.
func NewService(data DataSource) *Service {
	return &Service{data: data, now: func() time.Time { return time.Now().UTC() }}
}

// NewServiceAt is NewService with an injected clock, for tests.
func NewServiceAt(data DataSource, now func() time.Time) *Service {
	return &Service{data: data, now: now}
}

// AreaSafety fetches the three datasets concurrently, analyzes whichever
// returned records, and composes the weighted safety score. The three
// fetches are independent; the analyzers run only after all have completed.
// Analyzer failures are surfaced: a score computed from a partially
// understood dataset cannot be trusted.
func (s *Service) AreaSafety(ctx context.Context, q model.GeoQuery) (*model.SafetyResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	now := s.now()

	zap.L().Info("safety: assessing area",
		zap.Float64("lat", q.Lat),
		zap.Float64("lng", q.Lng),
		zap.Int("radius_meters", q.RadiusMeters),
		zap.Int("time_window_days", q.TimeWindowDays),
	)

	var (
		incidents []model.IncidentRecord
		lights    []model.LightRecord
		cases     []model.CaseRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		incidents, err = s.data.Incidents(gctx, q, now)
		return err
	})
	g.Go(func() error {
		var err error
		lights, err = s.data.Lights(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		cases, err = s.data.Cases(gctx, q, now)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "safety: dataset fetch")
	}

	result := &model.SafetyResult{}

	if len(incidents) > 0 {
		inc, err := analysis.AnalyzeIncidents(incidents, now)
		if err != nil {
			return nil, s.analysisFailed(err, q, len(incidents), len(lights), len(cases))
		}
		result.IncidentAnalysis = inc
	}

	if len(lights) > 0 {
		infra, err := analysis.AnalyzeInfrastructure(lights, now)
		if err != nil {
			return nil, s.analysisFailed(err, q, len(incidents), len(lights), len(cases))
		}
		result.Infrastructure = infra
	}

	if len(cases) > 0 {
		resp, err := analysis.AnalyzeResponse(cases, now)
		if err != nil {
			return nil, s.analysisFailed(err, q, len(incidents), len(lights), len(cases))
		}
		result.ResponseMetrics = resp
	}

	result.SafetyScore = scoring.Compose(result.IncidentAnalysis, result.Infrastructure, result.ResponseMetrics)

	zap.L().Info("safety: score computed",
		zap.Float64("lat", q.Lat),
		zap.Float64("lng", q.Lng),
		zap.Float64("safety_score", result.SafetyScore),
	)

	return result, nil
}

// analysisFailed logs the failing inputs with full context and wraps the
// analyzer error for the caller.
func (s *Service) analysisFailed(err error, q model.GeoQuery, incidents, lights, cases int) error {
	zap.L().Error("safety: analysis failed",
		zap.Float64("lat", q.Lat),
		zap.Float64("lng", q.Lng),
		zap.Int("incidents", incidents),
		zap.Int("lights", lights),
		zap.Int("cases", cases),
		zap.Error(err),
	)
	return eris.Wrap(err, "safety: analyze datasets")
}
