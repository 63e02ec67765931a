package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/enrollment-cli/internal/model"
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
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL DEFAULT 'running',
	states       INTEGER NOT NULL DEFAULT 0,
	points       INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	started_at   DATETIME NOT NULL,
	completed_at DATETIME
);

CREATE TABLE IF NOT EXISTS projections (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	geo_id     TEXT NOT NULL,
	geo_name   TEXT NOT NULL,
	geo_level  TEXT NOT NULL,
	state_fips TEXT NOT NULL,
	year       INTEGER NOT NULL,
	enrollment INTEGER NOT NULL,
	source_id  TEXT NOT NULL,
	method     TEXT NOT NULL,
	PRIMARY KEY (run_id, geo_id, year)
);

CREATE TABLE IF NOT EXISTS coverage (
	run_id             TEXT NOT NULL REFERENCES runs(id),
	fips               TEXT NOT NULL,
	abbr               TEXT NOT NULL,
	name               TEXT NOT NULL,
	status             TEXT NOT NULL,
	direct_years       INTEGER NOT NULL DEFAULT 0,
	allocated_years    INTEGER NOT NULL DEFAULT 0,
	counties_direct    INTEGER NOT NULL DEFAULT 0,
	counties_allocated INTEGER NOT NULL DEFAULT 0,
	degraded           INTEGER NOT NULL DEFAULT 0,
	degraded_reason    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, fips)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_projections_state ON projections(run_id, state_fips, geo_level);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		Status:    model.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES (?, ?, ?)`,
		run.ID, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return run, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, states, points int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, states = ?, points = ?, completed_at = ? WHERE id = ?`,
		string(model.RunStatusCompleted), states, points, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

const runColumns = `id, status, states, points, error, started_at, completed_at`

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, runID)
	return scanRun(row)
}

func (s *SQLiteStore) LatestRun(ctx context.Context) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE status = ? ORDER BY started_at DESC LIMIT 1`,
		string(model.RunStatusCompleted))
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	var args []any
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs")
}

func (s *SQLiteStore) SaveProjections(ctx context.Context, runID string, points []model.ProjectionPoint) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin projections tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO projections (run_id, geo_id, geo_name, geo_level, state_fips, year, enrollment, source_id, method)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare projection insert")
	}
	defer stmt.Close()

	for _, p := range points {
		if _, err := stmt.ExecContext(ctx,
			runID, p.GeoID, p.GeoName, string(p.GeoLevel), p.StateFIPS,
			p.Year, p.Enrollment, p.SourceID, string(p.Method),
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert projection %s/%d", p.GeoID, p.Year)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit projections")
}

func (s *SQLiteStore) LatestProjections(ctx context.Context, stateFIPS string, level model.GeoLevel) ([]model.ProjectionPoint, error) {
	latest, err := s.LatestRun(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT geo_id, geo_name, geo_level, state_fips, year, enrollment, source_id, method
		FROM projections WHERE run_id = ? AND state_fips = ?`
	args := []any{latest.ID, model.NormalizeStateFIPS(stateFIPS)}
	if level != "" {
		query += ` AND geo_level = ?`
		args = append(args, string(level))
	}
	query += ` ORDER BY geo_id, year`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query projections")
	}
	defer rows.Close()

	var points []model.ProjectionPoint
	for rows.Next() {
		var p model.ProjectionPoint
		var geoLevel, method string
		if err := rows.Scan(&p.GeoID, &p.GeoName, &geoLevel, &p.StateFIPS,
			&p.Year, &p.Enrollment, &p.SourceID, &method); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan projection")
		}
		p.GeoLevel = model.GeoLevel(geoLevel)
		p.Method = model.Method(method)
		points = append(points, p)
	}
	return points, eris.Wrap(rows.Err(), "sqlite: query projections")
}

func (s *SQLiteStore) SaveCoverage(ctx context.Context, runID string, entries []model.CoverageEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin coverage tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO coverage (run_id, fips, abbr, name, status, direct_years, allocated_years, counties_direct, counties_allocated, degraded, degraded_reason)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare coverage insert")
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx,
			runID, e.FIPS, e.Abbr, e.Name, string(e.Status),
			e.DirectYears, e.AllocatedYears, e.CountiesDirect, e.CountiesAllocated,
			boolToInt(e.Degraded), e.DegradedReason,
		); err != nil {
			return eris.Wrapf(err, "sqlite: insert coverage %s", e.FIPS)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit coverage")
}

func (s *SQLiteStore) LatestCoverage(ctx context.Context) ([]model.CoverageEntry, error) {
	latest, err := s.LatestRun(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT fips, abbr, name, status, direct_years, allocated_years, counties_direct, counties_allocated, degraded, degraded_reason
		 FROM coverage WHERE run_id = ? ORDER BY fips`, latest.ID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query coverage")
	}
	defer rows.Close()

	var entries []model.CoverageEntry
	for rows.Next() {
		var e model.CoverageEntry
		var status string
		var degraded int
		if err := rows.Scan(&e.FIPS, &e.Abbr, &e.Name, &status,
			&e.DirectYears, &e.AllocatedYears, &e.CountiesDirect, &e.CountiesAllocated,
			&degraded, &e.DegradedReason); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan coverage")
		}
		e.Status = model.Status(status)
		e.Degraded = degraded != 0
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: query coverage")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.Run, error) {
	var run model.Run
	var status string
	var completed sql.NullTime
	if err := row.Scan(&run.ID, &status, &run.States, &run.Points, &run.Error,
		&run.StartedAt, &completed); err != nil {
		if err == sql.ErrNoRows {
			return nil, eris.Wrap(err, "sqlite: run not found")
		}
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	run.Status = model.RunStatus(status)
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	return &run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkRowsAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: run %s not found", runID)
	}
	return nil
}
