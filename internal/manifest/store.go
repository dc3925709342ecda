// Package manifest records conversion runs and per-frame outcomes in a
// SQLite database so long batch jobs can be audited and resumed by hand.
package manifest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/waymo-kitti/internal/convert"
	"github.com/banshee-data/waymo-kitti/internal/monitoring"
	"github.com/banshee-data/waymo-kitti/internal/timeutil"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// ErrNoActiveRun is returned when frames are recorded outside a run.
var ErrNoActiveRun = errors.New("manifest: no active run")

// Store is a run manifest backed by SQLite. It records at most one active
// run at a time and is safe for concurrent use.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock

	mu    sync.Mutex
	runID string
}

// Open opens (creating if needed) the manifest at path and applies pending
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Single session; writes are serialised by Store.mu.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, clock: timeutil.RealClock{}}, nil
}

// SetClock replaces the clock used for timestamps.
func (s *Store) SetClock(c timeutil.Clock) { s.clock = c }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// SchemaVersion returns the applied migration version.
func (s *Store) SchemaVersion() (uint, error) {
	v, dirty, err := schemaVersion(s.db)
	if err != nil {
		return 0, err
	}
	if dirty {
		return v, fmt.Errorf("manifest schema version %d is dirty", v)
	}
	return v, nil
}

// CurrentRunID returns the active run id, or "".
func (s *Store) CurrentRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// StartRun inserts a new running run and makes it active.
func (s *Store) StartRun(ctx context.Context, sourceDir, destDir, optionsJSON string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runID != "" {
		return "", fmt.Errorf("manifest: run %s is still active", s.runID)
	}
	if optionsJSON == "" {
		optionsJSON = "{}"
	}

	runID := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, source_dir, dest_dir, options_json, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, sourceDir, destDir, optionsJSON, RunRunning, s.clock.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	s.runID = runID
	monitoring.Logf("[Manifest] Started run %s for %s", runID, sourceDir)
	return runID, nil
}

// RecordFrame stores one frame outcome for the active run. A frame recorded
// twice keeps the latest outcome.
func (s *Store) RecordFrame(ctx context.Context, res convert.FrameResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runID == "" {
		return ErrNoActiveRun
	}

	var errMsg sql.NullString
	if res.Err != nil {
		errMsg = sql.NullString{String: res.Err.Error(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO frames
		 (run_id, file_index, frame_index, frame_key, source_path, location, status, objects, points, error_message, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.runID, res.FileIndex, res.FrameIndex, res.Key, res.Source, res.Location,
		string(res.Status), res.Objects, res.Points, errMsg, s.clock.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record frame %s: %w", res.Key, err)
	}
	return nil
}

// CompleteRun stores the run statistics and closes the active run.
func (s *Store) CompleteRun(ctx context.Context, stats *convert.Stats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runID == "" {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, files = ?, files_failed = ?,
		 frames_converted = ?, frames_skipped = ?, frames_failed = ?, objects = ?, points = ?
		 WHERE run_id = ?`,
		RunCompleted, s.clock.Now().UnixNano(), stats.Files, stats.FilesFailed,
		stats.FramesConverted, stats.FramesSkipped, stats.FramesFailed, stats.Objects(), stats.Points,
		s.runID)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	for _, class := range stats.Classes() {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO run_classes (run_id, class, objects) VALUES (?, ?, ?)`,
			s.runID, class, stats.ObjectsByClass[class]); err != nil {
			return fmt.Errorf("failed to record class %s: %w", class, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	monitoring.Logf("[Manifest] Completed run %s: %d frames converted, %d failed",
		s.runID, stats.FramesConverted, stats.FramesFailed)
	s.runID = ""
	return nil
}

// FailRun marks the active run as failed.
func (s *Store) FailRun(ctx context.Context, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runID == "" {
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error_message = ?, completed_at = ? WHERE run_id = ?`,
		RunFailed, errMsg, s.clock.Now().UnixNano(), s.runID)
	if err != nil {
		return fmt.Errorf("failed to update run status: %w", err)
	}

	monitoring.Logf("[Manifest] Failed run %s: %s", s.runID, errMsg)
	s.runID = ""
	return nil
}

// Run is a stored run row.
type Run struct {
	RunID           string
	SourceDir       string
	DestDir         string
	OptionsJSON     string
	Status          string
	ErrorMessage    string
	StartedAt       time.Time
	CompletedAt     time.Time // zero while running
	Files           int
	FilesFailed     int
	FramesConverted int
	FramesSkipped   int
	FramesFailed    int
	Objects         int
	Points          int64
	ObjectsByClass  map[string]int
}

// GetRun loads a run by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	var (
		r           Run
		errMsg      sql.NullString
		startedAt   int64
		completedAt sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, source_dir, dest_dir, options_json, status, error_message, started_at, completed_at,
		 files, files_failed, frames_converted, frames_skipped, frames_failed, objects, points
		 FROM runs WHERE run_id = ?`, runID).Scan(
		&r.RunID, &r.SourceDir, &r.DestDir, &r.OptionsJSON, &r.Status, &errMsg, &startedAt, &completedAt,
		&r.Files, &r.FilesFailed, &r.FramesConverted, &r.FramesSkipped, &r.FramesFailed, &r.Objects, &r.Points)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", runID, err)
	}
	r.ErrorMessage = errMsg.String
	r.StartedAt = time.Unix(0, startedAt)
	if completedAt.Valid {
		r.CompletedAt = time.Unix(0, completedAt.Int64)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT class, objects FROM run_classes WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	r.ObjectsByClass = make(map[string]int)
	for rows.Next() {
		var class string
		var n int
		if err := rows.Scan(&class, &n); err != nil {
			return nil, err
		}
		r.ObjectsByClass[class] = n
	}
	return &r, rows.Err()
}

// LatestRunID returns the most recently started run, or "" when there is none.
func (s *Store) LatestRunID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT run_id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find latest run: %w", err)
	}
	return id, nil
}

// Frame is a stored frame row.
type Frame struct {
	FileIndex    int
	FrameIndex   int
	Key          string
	SourcePath   string
	Location     string
	Status       convert.FrameStatus
	Objects      int
	Points       int
	ErrorMessage string
}

// ListFrames returns the frames of a run ordered by (file, frame) index,
// optionally restricted to one status.
func (s *Store) ListFrames(ctx context.Context, runID string, status convert.FrameStatus) ([]Frame, error) {
	query := `SELECT file_index, frame_index, frame_key, source_path, location, status, objects, points, error_message
		FROM frames WHERE run_id = ?`
	args := []interface{}{runID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY file_index, frame_index`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list frames: %w", err)
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var f Frame
		var st string
		var errMsg sql.NullString
		if err := rows.Scan(&f.FileIndex, &f.FrameIndex, &f.Key, &f.SourcePath, &f.Location, &st, &f.Objects, &f.Points, &errMsg); err != nil {
			return nil, err
		}
		f.Status = convert.FrameStatus(st)
		f.ErrorMessage = errMsg.String
		frames = append(frames, f)
	}
	return frames, rows.Err()
}

// StatusCounts returns the number of frames of a run per status.
func (s *Store) StatusCounts(ctx context.Context, runID string) (map[convert.FrameStatus]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM frames WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[convert.FrameStatus]int)
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		counts[convert.FrameStatus(st)] = n
	}
	return counts, rows.Err()
}
