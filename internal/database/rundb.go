package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/proxycheck/internal/model"
)

// FileName is the name of the history database inside the data directory.
const FileName = "proxycheck.db"

var (
	// ErrRunNotFound is returned when a run ID does not exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrDatabaseNotFound is returned by Open when CreateIfNotExists is
	// off and no database file exists yet.
	ErrDatabaseNotFound = errors.New("database not found")
)

// RunDB stores one summary row per validation run, plus one row per round.
// Individual proxies are never stored.
type RunDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the run history database in dbDir.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s (use CreateIfNotExists option to create)", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

func (rdb *RunDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		input_file TEXT NOT NULL,
		output_file TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		max_workers INTEGER NOT NULL,
		state TEXT NOT NULL,
		total INTEGER NOT NULL,
		accepted INTEGER NOT NULL,
		rejected INTEGER NOT NULL,
		pending INTEGER NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		failures TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);

	CREATE TABLE IF NOT EXISTS run_rounds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		round INTEGER NOT NULL,
		state TEXT NOT NULL,
		total INTEGER NOT NULL,
		completed INTEGER NOT NULL,
		accepted INTEGER NOT NULL,
		rejected INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		elapsed_ms INTEGER NOT NULL,
		failures TEXT,
		UNIQUE(run_id, round)
	);

	CREATE INDEX IF NOT EXISTS idx_rounds_run ON run_rounds(run_id);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is the stored summary of one validation run.
// Counts describe the final round.
type RunRecord struct {
	ID         int64
	Timestamp  time.Time
	InputFile  string
	OutputFile string
	Endpoint   string
	MaxWorkers int
	State      model.RunState
	Total      int
	Accepted   int
	Rejected   int
	Pending    int
	Elapsed    time.Duration
	Failures   map[model.Failure]int
	Rounds     []RoundRecord
}

// RoundRecord is the stored summary of one round.
type RoundRecord struct {
	Round     int
	State     model.RunState
	Total     int
	Completed int
	Accepted  int
	Rejected  int
	StartedAt time.Time
	Elapsed   time.Duration
	Failures  map[model.Failure]int
}

// NewRunRecord summarizes reports. Elapsed covers every round; the
// remaining counts come from the last one.
func NewRunRecord(inputFile, outputFile, endpoint string, maxWorkers int, reports []*model.ValidationReport) *RunRecord {
	rec := &RunRecord{
		InputFile:  inputFile,
		OutputFile: outputFile,
		Endpoint:   endpoint,
		MaxWorkers: maxWorkers,
		Failures:   map[model.Failure]int{},
	}
	if len(reports) == 0 {
		rec.State = model.RunPending
		return rec
	}

	for _, r := range reports {
		rec.Elapsed += r.Elapsed
		rec.Rounds = append(rec.Rounds, RoundRecord{
			Round:     r.Round,
			State:     r.State,
			Total:     r.Total,
			Completed: r.Completed,
			Accepted:  r.AcceptedCount(),
			Rejected:  r.RejectedCount(),
			StartedAt: r.StartedAt,
			Elapsed:   r.Elapsed,
			Failures:  r.Failures,
		})
	}

	final := reports[len(reports)-1]
	rec.State = final.State
	rec.Total = reports[0].Total
	rec.Accepted = final.AcceptedCount()
	rec.Rejected = final.RejectedCount()
	rec.Pending = final.Pending()
	rec.Failures = final.Failures

	return rec
}

// SaveRun stores rec and its rounds in one transaction and sets rec.ID.
func (rdb *RunDB) SaveRun(ctx context.Context, rec *RunRecord) (err error) {
	failuresJSON, err := json.Marshal(rec.Failures)
	if err != nil {
		return fmt.Errorf("failed to serialize failures: %w", err)
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (input_file, output_file, endpoint, max_workers, state, total, accepted, rejected, pending, elapsed_ms, failures)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.InputFile,
		rec.OutputFile,
		rec.Endpoint,
		rec.MaxWorkers,
		rec.State.String(),
		rec.Total,
		rec.Accepted,
		rec.Rejected,
		rec.Pending,
		rec.Elapsed.Milliseconds(),
		string(failuresJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get run id: %w", err)
	}

	for _, round := range rec.Rounds {
		roundFailures, err := json.Marshal(round.Failures)
		if err != nil {
			return fmt.Errorf("failed to serialize round failures: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
		INSERT INTO run_rounds (run_id, round, state, total, completed, accepted, rejected, started_at, elapsed_ms, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			id,
			round.Round,
			round.State.String(),
			round.Total,
			round.Completed,
			round.Accepted,
			round.Rejected,
			round.StartedAt.UTC().Format(time.RFC3339Nano),
			round.Elapsed.Milliseconds(),
			string(roundFailures),
		)
		if err != nil {
			return fmt.Errorf("failed to save round %d: %w", round.Round, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}

	rec.ID = id
	return nil
}

const runColumns = `id, timestamp, input_file, output_file, endpoint, max_workers, state, total, accepted, rejected, pending, elapsed_ms, failures`

// ListRuns returns the most recent runs first, without their rounds.
// A limit of zero or less returns every run.
func (rdb *RunDB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY id DESC`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *rec)
	}

	return runs, rows.Err()
}

// GetRun returns one run with its rounds, or ErrRunNotFound.
func (rdb *RunDB) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := rdb.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)

	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rounds, err := rdb.rounds(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Rounds = rounds

	return rec, nil
}

// ClearRuns deletes every stored run and returns how many were removed.
func (rdb *RunDB) ClearRuns(ctx context.Context) (int64, error) {
	if _, err := rdb.db.ExecContext(ctx, `DELETE FROM run_rounds`); err != nil {
		return 0, fmt.Errorf("failed to clear rounds: %w", err)
	}
	result, err := rdb.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear runs: %w", err)
	}
	return result.RowsAffected()
}

func (rdb *RunDB) rounds(ctx context.Context, runID int64) ([]RoundRecord, error) {
	rows, err := rdb.db.QueryContext(ctx, `
	SELECT round, state, total, completed, accepted, rejected, started_at, elapsed_ms, failures
	FROM run_rounds
	WHERE run_id = ?
	ORDER BY round
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []RoundRecord
	for rows.Next() {
		var (
			r         RoundRecord
			state     string
			startedAt string
			elapsedMS int64
			failures  sql.NullString
		)
		if err := rows.Scan(&r.Round, &state, &r.Total, &r.Completed, &r.Accepted, &r.Rejected, &startedAt, &elapsedMS, &failures); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		if err := r.State.UnmarshalText([]byte(state)); err != nil {
			return nil, fmt.Errorf("failed to parse round state: %w", err)
		}
		r.StartedAt = parseTimestamp(startedAt)
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		r.Failures = parseFailures(failures)
		rounds = append(rounds, r)
	}

	return rounds, rows.Err()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		rec       RunRecord
		timestamp string
		state     string
		elapsedMS int64
		failures  sql.NullString
	)

	err := row.Scan(
		&rec.ID,
		&timestamp,
		&rec.InputFile,
		&rec.OutputFile,
		&rec.Endpoint,
		&rec.MaxWorkers,
		&state,
		&rec.Total,
		&rec.Accepted,
		&rec.Rejected,
		&rec.Pending,
		&elapsedMS,
		&failures,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	if err := rec.State.UnmarshalText([]byte(state)); err != nil {
		return nil, fmt.Errorf("failed to parse run state: %w", err)
	}
	rec.Timestamp = parseTimestamp(timestamp)
	rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	rec.Failures = parseFailures(failures)

	return &rec, nil
}

// parseFailures decodes a stored tally. Unreadable data yields an empty map.
func parseFailures(s sql.NullString) map[model.Failure]int {
	failures := make(map[model.Failure]int)
	if !s.Valid || s.String == "" {
		return failures
	}
	if err := json.Unmarshal([]byte(s.String), &failures); err != nil {
		return make(map[model.Failure]int)
	}
	return failures
}

// timestampFormats contains the timestamp formats that SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp tries each known format and returns the zero time if
// none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
