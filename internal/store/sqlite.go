package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/safepath-labs/safepath/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS assessments (
	id               TEXT PRIMARY KEY,
	lat              REAL NOT NULL,
	lng              REAL NOT NULL,
	radius_meters    INTEGER NOT NULL,
	time_window_days INTEGER NOT NULL,
	result           TEXT NOT NULL,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at);
CREATE INDEX IF NOT EXISTS idx_assessments_lat_lng ON assessments(lat, lng);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateAssessment(ctx context.Context, q model.GeoQuery, result model.SafetyResult) (*model.Assessment, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, lat, lng, radius_meters, time_window_days, result, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, q.Lat, q.Lng, q.RadiusMeters, q.TimeWindowDays, string(resultJSON), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert assessment")
	}

	return &model.Assessment{
		ID:             id,
		Lat:            q.Lat,
		Lng:            q.Lng,
		RadiusMeters:   q.RadiusMeters,
		TimeWindowDays: q.TimeWindowDays,
		Result:         result,
		CreatedAt:      now,
	}, nil
}

func (s *SQLiteStore) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, lat, lng, radius_meters, time_window_days, result, created_at FROM assessments WHERE id = ?`,
		id,
	)
	a, err := scanAssessment(row.Scan)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "assessment %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get assessment %s", id)
	}
	return a, nil
}

func (s *SQLiteStore) ListAssessments(ctx context.Context, filter Filter) ([]model.Assessment, error) {
	query := `SELECT id, lat, lng, radius_meters, time_window_days, result, created_at FROM assessments`
	var args []any

	if filter.Near != nil {
		minLat, maxLat, minLng, maxLng := boundingBox(*filter.Near)
		query += ` WHERE lat BETWEEN ? AND ? AND lng BETWEEN ? AND ?`
		args = append(args, minLat, maxLat, minLng, maxLng)
	}

	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list assessments")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Assessment
	for rows.Next() {
		a, err := scanAssessment(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan assessment")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate assessments")
}

// scanAssessment reads one assessment row through the given scan function.
func scanAssessment(scan func(dest ...any) error) (*model.Assessment, error) {
	var (
		a          model.Assessment
		resultJSON string
	)
	if err := scan(&a.ID, &a.Lat, &a.Lng, &a.RadiusMeters, &a.TimeWindowDays, &resultJSON, &a.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(resultJSON), &a.Result); err != nil {
		return nil, eris.Wrap(err, "unmarshal result")
	}
	return &a, nil
}

// boundingBox converts a circle query into a small lat/lng box for the
// proximity filter. Precision is deliberately coarse; this is a history
// lookup, not a spatial join.
func boundingBox(q model.GeoQuery) (minLat, maxLat, minLng, maxLng float64) {
	// One degree of latitude is ~111.32 km everywhere.
	dLat := float64(q.RadiusMeters) / 111_320
	cos := math.Cos(q.Lat * math.Pi / 180)
	if cos < 0.01 {
		cos = 0.01
	}
	dLng := float64(q.RadiusMeters) / (111_320 * cos)
	return q.Lat - dLat, q.Lat + dLat, q.Lng - dLng, q.Lng + dLng
}
