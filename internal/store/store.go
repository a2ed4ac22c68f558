// Package store persists computed safety assessments so callers can chart
// how an area's score moves over time.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/safepath-labs/safepath/internal/config"
	"github.com/safepath-labs/safepath/internal/model"
)

// ErrNotFound is returned when the requested assessment does not exist.
var ErrNotFound = eris.New("store: not found")

// Filter specifies criteria for listing assessments.
type Filter struct {
	// Near restricts results to assessments whose center falls inside a
	// small box around the given point. Zero value means no restriction.
	Near *model.GeoQuery `json:"near,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Store defines the persistence interface for safety assessments.
type Store interface {
	CreateAssessment(ctx context.Context, q model.GeoQuery, result model.SafetyResult) (*model.Assessment, error)
	GetAssessment(ctx context.Context, id string) (*model.Assessment, error)
	ListAssessments(ctx context.Context, filter Filter) ([]model.Assessment, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
