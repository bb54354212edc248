// Package store keeps a SQLite history of measurement runs so that results
// of different corpora can be compared later.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tsawler/bias"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// timeLayout has a fixed width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Run summarizes one stored measurement.
type Run struct {
	RunID         string
	Source        string
	TargetGroup   string
	SentenceCount int
	TokenCount    int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// CellValue is one stored co-occurrence cell.
type CellValue struct {
	Term  string
	Group string
	Value int
}

// Open initializes or connects to the history database at path and applies
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SaveResult stores res, its demographic counts and every matrix cell in one
// transaction. source names the analysed text, usually its file path.
func (s *Store) SaveResult(ctx context.Context, source string, res *bias.Result) (err error) {
	if res == nil || res.Cooccurrence == nil {
		return fmt.Errorf("save result: incomplete result")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, source, target_group, sentence_count, token_count, started_at, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.RunID,
		source,
		res.Cooccurrence.TargetGroup(),
		res.SentenceCount,
		res.TokenCount,
		res.StartedAt.UTC().Format(timeLayout),
		res.FinishedAt.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, group := range res.Demographics.Groups() {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO demographic_counts (run_id, group_name, value) VALUES (?, ?, ?)`,
			res.RunID, group, res.Demographics.Count(group),
		); err != nil {
			return fmt.Errorf("insert demographic count %q: %w", group, err)
		}
	}

	m := res.Cooccurrence
	for _, term := range m.Terms() {
		for _, group := range m.Groups() {
			if _, err = tx.ExecContext(ctx,
				`INSERT INTO cooccurrence_cells (run_id, term, group_name, value) VALUES (?, ?, ?, ?)`,
				res.RunID, term, group, m.Get(term, group),
			); err != nil {
				return fmt.Errorf("insert cell (%s, %s): %w", term, group, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A limit of 0 or less returns
// every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT run_id, source, target_group, sentence_count, token_count, started_at, finished_at
              FROM runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished string
		)
		if err := rows.Scan(&run.RunID, &run.Source, &run.TargetGroup, &run.SentenceCount, &run.TokenCount, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DemographicCounts returns the stored demographic counts of a run.
func (s *Store) DemographicCounts(ctx context.Context, runID string) (map[string]int, error) {
	if err := s.ensureRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT group_name, value FROM demographic_counts WHERE run_id = ? ORDER BY group_name`, runID)
	if err != nil {
		return nil, fmt.Errorf("query demographic counts: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var (
			group string
			value int
		)
		if err := rows.Scan(&group, &value); err != nil {
			return nil, fmt.Errorf("scan demographic count: %w", err)
		}
		counts[group] = value
	}
	return counts, rows.Err()
}

// LoadCells returns the stored matrix cells of a run ordered by term, then
// group.
func (s *Store) LoadCells(ctx context.Context, runID string) ([]CellValue, error) {
	if err := s.ensureRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT term, group_name, value FROM cooccurrence_cells WHERE run_id = ? ORDER BY term, group_name`, runID)
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	defer rows.Close()

	var cells []CellValue
	for rows.Next() {
		var c CellValue
		if err := rows.Scan(&c.Term, &c.Group, &c.Value); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

func (s *Store) ensureRun(ctx context.Context, runID string) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM runs WHERE run_id = ?`, runID).Scan(&count); err != nil {
		return fmt.Errorf("lookup run: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
