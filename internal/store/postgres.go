package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/enrollment-cli/internal/model"
)

// PgxPool is the subset of pgxpool.Pool the store uses. pgxmock implements
// it for tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool PgxPool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests.
func NewPostgresFromPool(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL DEFAULT 'running',
	states       INTEGER NOT NULL DEFAULT 0,
	points       INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	started_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ
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
	degraded           BOOLEAN NOT NULL DEFAULT FALSE,
	degraded_reason    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, fips)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_projections_state ON projections(run_id, state_fips, geo_level);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		Status:    model.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES ($1, $2, $3)`,
		run.ID, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return run, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, states, points int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, states = $2, points = $3, completed_at = $4 WHERE id = $5`,
		string(model.RunStatusCompleted), states, points, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, completed_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run %s not found", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, states, points, error, started_at, completed_at FROM runs WHERE id = $1`,
		runID)
	return scanPgRun(row)
}

func (s *PostgresStore) LatestRun(ctx context.Context) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, status, states, points, error, started_at, completed_at FROM runs
		 WHERE status = $1 ORDER BY started_at DESC LIMIT 1`,
		string(model.RunStatusCompleted))
	return scanPgRun(row)
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, status, states, points, error, started_at, completed_at FROM runs`
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		run, err := scanPgRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs")
}

func (s *PostgresStore) SaveProjections(ctx context.Context, runID string, points []model.ProjectionPoint) error {
	if len(points) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(
			`INSERT INTO projections (run_id, geo_id, geo_name, geo_level, state_fips, year, enrollment, source_id, method)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			runID, p.GeoID, p.GeoName, string(p.GeoLevel), p.StateFIPS,
			p.Year, p.Enrollment, p.SourceID, string(p.Method),
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range points {
		if _, err := results.Exec(); err != nil {
			return eris.Wrap(err, "postgres: insert projections batch")
		}
	}
	return nil
}

func (s *PostgresStore) LatestProjections(ctx context.Context, stateFIPS string, level model.GeoLevel) ([]model.ProjectionPoint, error) {
	latest, err := s.LatestRun(ctx)
	if err != nil {
		return nil, err
	}

	query := `SELECT geo_id, geo_name, geo_level, state_fips, year, enrollment, source_id, method
		FROM projections WHERE run_id = $1 AND state_fips = $2`
	args := []any{latest.ID, model.NormalizeStateFIPS(stateFIPS)}
	if level != "" {
		args = append(args, string(level))
		query += ` AND geo_level = $3`
	}
	query += ` ORDER BY geo_id, year`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query projections")
	}
	defer rows.Close()

	var points []model.ProjectionPoint
	for rows.Next() {
		var p model.ProjectionPoint
		var geoLevel, method string
		if err := rows.Scan(&p.GeoID, &p.GeoName, &geoLevel, &p.StateFIPS,
			&p.Year, &p.Enrollment, &p.SourceID, &method); err != nil {
			return nil, eris.Wrap(err, "postgres: scan projection")
		}
		p.GeoLevel = model.GeoLevel(geoLevel)
		p.Method = model.Method(method)
		points = append(points, p)
	}
	return points, eris.Wrap(rows.Err(), "postgres: query projections")
}

func (s *PostgresStore) SaveCoverage(ctx context.Context, runID string, entries []model.CoverageEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO coverage (run_id, fips, abbr, name, status, direct_years, allocated_years, counties_direct, counties_allocated, degraded, degraded_reason)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			runID, e.FIPS, e.Abbr, e.Name, string(e.Status),
			e.DirectYears, e.AllocatedYears, e.CountiesDirect, e.CountiesAllocated,
			e.Degraded, e.DegradedReason,
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return eris.Wrap(err, "postgres: insert coverage batch")
		}
	}
	return nil
}

func (s *PostgresStore) LatestCoverage(ctx context.Context) ([]model.CoverageEntry, error) {
	latest, err := s.LatestRun(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT fips, abbr, name, status, direct_years, allocated_years, counties_direct, counties_allocated, degraded, degraded_reason
		 FROM coverage WHERE run_id = $1 ORDER BY fips`, latest.ID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query coverage")
	}
	defer rows.Close()

	var entries []model.CoverageEntry
	for rows.Next() {
		var e model.CoverageEntry
		var status string
		if err := rows.Scan(&e.FIPS, &e.Abbr, &e.Name, &status,
			&e.DirectYears, &e.AllocatedYears, &e.CountiesDirect, &e.CountiesAllocated,
			&e.Degraded, &e.DegradedReason); err != nil {
			return nil, eris.Wrap(err, "postgres: scan coverage")
		}
		e.Status = model.Status(status)
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: query coverage")
}

func scanPgRun(row pgx.Row) (*model.Run, error) {
	var run model.Run
	var status string
	var completed *time.Time
	if err := row.Scan(&run.ID, &status, &run.States, &run.Points, &run.Error,
		&run.StartedAt, &completed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrap(err, "postgres: run not found")
		}
		return nil, eris.Wrap(err, "postgres: scan run")
	}
	run.Status = model.RunStatus(status)
	run.CompletedAt = completed
	return &run, nil
}
