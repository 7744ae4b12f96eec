package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite

	"github.com/BhoomiAgrawal12/ppt-Evaluator/internal/domain/model"
	"github.com/BhoomiAgrawal12/ppt-Evaluator/pkg/metrics"
)

// Default SQL store configuration constants.
const (
	defaultMetricsUpdateInterval = 30 * time.Second
	defaultPostgresOpenConns     = 10
	connMaxLifetime              = 30 * time.Minute
)

// SQLStore is a durable Store on database/sql, speaking both sqlite
// (modernc, no cgo) and postgres (pgx stdlib). Both drivers accept $N
// placeholders, so the statements below are shared verbatim.
//
// Insertion order is the seq column, assigned by the database on
// commit. Vectors, weight snapshots and feedback lists are stored as
// JSON text columns; every scored value also gets its own typed column
// so the table stays queryable without JSON functions.
type SQLStore struct {
	db     *sql.DB
	driver string // DriverSQLite or DriverPostgres

	metricsUpdateInterval time.Duration
	maxOpenConns          int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// OpenSQL opens a database for the given driver, applies schema and
// pool settings, and starts the background metrics updater.
func OpenSQL(ctx context.Context, driver, dsn string, opts ...Option) (*SQLStore, error) {
	s := &SQLStore{
		driver:                driver,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
	}

	for _, opt := range opts {
		opt(s)
	}

	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:evaluations.db?cache=shared&mode=rwc"
		}
		if s.maxOpenConns == 0 {
			// SQLite must not see concurrent writers.
			s.maxOpenConns = 1
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/ppteval?sslmode=disable"
		}
		if s.maxOpenConns == 0 {
			s.maxOpenConns = defaultPostgresOpenConns
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", driver, err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(s.maxOpenConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging %s store: %w", driver, err)
	}

	if driver == DriverSQLite {
		if _, err := db.ExecContext(ctx, `
			PRAGMA foreign_keys = ON;
			PRAGMA journal_mode = WAL;
			PRAGMA synchronous = NORMAL;
			PRAGMA busy_timeout = 5000;
		`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite pragmas: %w", err)
		}
	}

	s.db = db
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensuring schema: %w", err)
	}

	updaterCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.startMetricsUpdater(updaterCtx)

	return s, nil
}

func (s *SQLStore) ensureSchema(ctx context.Context) error {
	schema := schemaSQLite
	if s.driver == DriverPostgres {
		schema = schemaPostgres
	}
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS evaluations (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  team_name TEXT NOT NULL,
  problem_statement_id TEXT NOT NULL,
  ts INTEGER NOT NULL,
  raw_json TEXT NOT NULL,
  normalized_json TEXT NOT NULL,
  weights_json TEXT NOT NULL,
  total_score REAL NOT NULL,
  normalized_score REAL NOT NULL,
  percentage_score REAL NOT NULL,
  grade TEXT NOT NULL,
  strengths_json TEXT NOT NULL,
  weaknesses_json TEXT NOT NULL,
  recommendations_json TEXT NOT NULL,
  degraded INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_evaluations_cohort ON evaluations(problem_statement_id);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS evaluations (
  seq BIGSERIAL PRIMARY KEY,
  id TEXT NOT NULL UNIQUE,
  team_name TEXT NOT NULL,
  problem_statement_id TEXT NOT NULL,
  ts BIGINT NOT NULL,
  raw_json TEXT NOT NULL,
  normalized_json TEXT NOT NULL,
  weights_json TEXT NOT NULL,
  total_score DOUBLE PRECISION NOT NULL,
  normalized_score DOUBLE PRECISION NOT NULL,
  percentage_score DOUBLE PRECISION NOT NULL,
  grade TEXT NOT NULL,
  strengths_json TEXT NOT NULL,
  weaknesses_json TEXT NOT NULL,
  recommendations_json TEXT NOT NULL,
  degraded INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_evaluations_cohort ON evaluations(problem_statement_id);
`

const selectColumns = `id, team_name, problem_statement_id, ts,
	raw_json, normalized_json, weights_json,
	total_score, normalized_score, percentage_score, grade,
	strengths_json, weaknesses_json, recommendations_json, degraded`

// Append commits a record inside a transaction. The existence check
// runs in the same transaction; the unique index on id backstops races
// between concurrent appends of the same id.
func (s *SQLStore) Append(ctx context.Context, rec model.EvaluationRecord) error {
	start := time.Now()

	enc, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("encoding evaluation %s: %w", rec.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM evaluations WHERE id=$1`, rec.ID).Scan(&one)
	switch {
	case err == nil:
		metrics.RecordErrorByComponent("repository", "duplicate_id")
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("checking evaluation id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO evaluations
		(id, team_name, problem_statement_id, ts,
		 raw_json, normalized_json, weights_json,
		 total_score, normalized_score, percentage_score, grade,
		 strengths_json, weaknesses_json, recommendations_json, degraded)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`,
		rec.ID, rec.TeamName, rec.ProblemStatementID, rec.Timestamp.UnixNano(),
		enc.raw, enc.normalized, enc.weights,
		rec.TotalScore, rec.NormalizedScore, rec.PercentageScore, rec.Grade,
		enc.strengths, enc.weaknesses, enc.recommendations, boolToInt(rec.Degraded),
	); err != nil {
		if isUniqueViolation(err) {
			metrics.RecordErrorByComponent("repository", "duplicate_id")
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.ID)
		}
		return fmt.Errorf("inserting evaluation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing evaluation: %w", err)
	}

	metrics.RecordStoreAppendLatency(float64(time.Since(start).Milliseconds()))
	return nil
}

// Get returns the record with the given id, or ErrNotFound.
func (s *SQLStore) Get(ctx context.Context, id string) (model.EvaluationRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM evaluations WHERE id=$1`, id)

	rec, err := scanRecord(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			metrics.RecordErrorByComponent("repository", "not_found")
			return model.EvaluationRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return model.EvaluationRecord{}, fmt.Errorf("loading evaluation %s: %w", id, err)
	}
	return rec, nil
}

// List returns records ordered by commit sequence, optionally filtered
// to one problem-statement cohort.
func (s *SQLStore) List(ctx context.Context, problemStatementID string) ([]model.EvaluationRecord, error) {
	start := time.Now()

	query := `SELECT ` + selectColumns + ` FROM evaluations ORDER BY seq ASC`
	args := []any{}
	if problemStatementID != "" {
		query = `SELECT ` + selectColumns + ` FROM evaluations WHERE problem_statement_id=$1 ORDER BY seq ASC`
		args = append(args, problemStatementID)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing evaluations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []model.EvaluationRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning evaluation: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing evaluations: %w", err)
	}

	metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	return out, nil
}

// Count returns the number of committed records, or 0 when the query
// fails.
func (s *SQLStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM evaluations`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Close stops the metrics updater and closes the database.
func (s *SQLStore) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	return s.db.Close()
}

func (s *SQLStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				metrics.UpdateStoreRecordsTotal(s.Count(ctx))
			}
		}
	}()
}

// encodedRecord carries the JSON text columns of one record.
type encodedRecord struct {
	raw             string
	normalized      string
	weights         string
	strengths       string
	weaknesses      string
	recommendations string
}

func encodeRecord(rec model.EvaluationRecord) (encodedRecord, error) {
	var enc encodedRecord
	fields := []struct {
		name string
		v    any
		dst  *string
	}{
		{"raw scores", rec.Raw, &enc.raw},
		{"normalized scores", rec.Normalized, &enc.normalized},
		{"weights", rec.Weights, &enc.weights},
		{"strengths", rec.Strengths, &enc.strengths},
		{"weaknesses", rec.Weaknesses, &enc.weaknesses},
		{"recommendations", rec.Recommendations, &enc.recommendations},
	}
	for _, f := range fields {
		b, err := json.Marshal(f.v)
		if err != nil {
			return encodedRecord{}, fmt.Errorf("%s: %w", f.name, err)
		}
		*f.dst = string(b)
	}
	return enc, nil
}

// scanRecord decodes one row via the given scan function, shared by
// QueryRow and rows iteration.
func scanRecord(scan func(dest ...any) error) (model.EvaluationRecord, error) {
	var (
		rec             model.EvaluationRecord
		ts              int64
		raw             string
		normalized      string
		weightsJSON     string
		strengths       string
		weaknesses      string
		recommendations string
		degraded        int
	)
	if err := scan(
		&rec.ID, &rec.TeamName, &rec.ProblemStatementID, &ts,
		&raw, &normalized, &weightsJSON,
		&rec.TotalScore, &rec.NormalizedScore, &rec.PercentageScore, &rec.Grade,
		&strengths, &weaknesses, &recommendations, &degraded,
	); err != nil {
		return model.EvaluationRecord{}, err
	}

	rec.Timestamp = time.Unix(0, ts).UTC()
	rec.Degraded = degraded != 0

	for _, f := range []struct {
		name string
		data string
		dst  any
	}{
		{"raw scores", raw, &rec.Raw},
		{"normalized scores", normalized, &rec.Normalized},
		{"weights", weightsJSON, &rec.Weights},
		{"strengths", strengths, &rec.Strengths},
		{"weaknesses", weaknesses, &rec.Weaknesses},
		{"recommendations", recommendations, &rec.Recommendations},
	} {
		if err := json.Unmarshal([]byte(f.data), f.dst); err != nil {
			return model.EvaluationRecord{}, fmt.Errorf("decoding %s: %w", f.name, err)
		}
	}
	return rec, nil
}

// isUniqueViolation matches the duplicate-key errors of both drivers:
// modernc sqlite reports the constraint by name, pgx reports SQLSTATE
// 23505.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "SQLSTATE 23505") ||
		strings.Contains(msg, "duplicate key value")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
