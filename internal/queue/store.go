package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"reel/internal/config"
	"reel/internal/task"
)

// Store manages job queue persistence backed by SQLite.
type Store struct {
	db        *sql.DB
	path      string
	cacheDir  string
	container string
}

// Open initializes or connects to the queue database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "queue.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		db:        db,
		path:      dbPath,
		cacheDir:  cfg.Paths.CacheDir,
		container: cfg.Engine.TargetContainer,
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the queue database location.
func (s *Store) Path() string {
	return s.path
}

// NewFile enqueues a source file for conversion.
func (s *Store) NewFile(ctx context.Context, sourcePath string) (*task.Task, error) {
	sourcePath = strings.TrimSpace(sourcePath)
	if sourcePath == "" {
		return nil, errors.New("source path required")
	}

	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	title := displayTitle(sourcePath)
	cachePath := s.cachePathFor(sourcePath)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO queue_items (source_path, cache_path, title, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		sourcePath,
		cachePath,
		title,
		StatusPending,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert queue item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return &task.Task{
		ID:         id,
		SourcePath: sourcePath,
		CachePath:  cachePath,
		Title:      title,
		CreatedAt:  now,
	}, nil
}

// cachePathFor derives the output location for a source file.
func (s *Store) cachePathFor(sourcePath string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" {
		stem = base
	}
	return filepath.Join(s.cacheDir, stem+"."+s.container)
}

// NextIncoming claims the oldest pending item and marks it processing.
// Returns nil when no pending work exists.
func (s *Store) NextIncoming(ctx context.Context) (*task.Task, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin claim tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(
		ctx,
		`SELECT id, source_path, cache_path, title, created_at
         FROM queue_items WHERE status = ? ORDER BY created_at, id LIMIT 1`,
		StatusPending,
	)

	var (
		id         int64
		sourcePath string
		cachePath  string
		title      string
		createdRaw string
	)
	if err := row.Scan(&id, &sourcePath, &cachePath, &title, &createdRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("claim next item: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE queue_items SET status = ?, updated_at = ? WHERE id = ?`,
		StatusProcessing,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return nil, fmt.Errorf("mark item processing: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit claim: %w", err)
	}

	t := &task.Task{
		ID:         id,
		SourcePath: sourcePath,
		CachePath:  cachePath,
		Title:      title,
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		t.CreatedAt = created
	}
	return t, nil
}

// IncomingEmpty reports whether any pending items remain.
func (s *Store) IncomingEmpty(ctx context.Context) (bool, error) {
	var count int
	err := s.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM queue_items WHERE status = ?`,
		StatusPending,
	).Scan(&count)
	if err != nil {
		return true, fmt.Errorf("count pending items: %w", err)
	}
	return count == 0, nil
}

// MarkProcessed records a task's terminal outcome and appends a history entry.
func (s *Store) MarkProcessed(ctx context.Context, t *task.Task) error {
	if t == nil {
		return errors.New("task is nil")
	}

	status := StatusCompleted
	if !t.Success {
		status = StatusFailed
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin processed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`UPDATE queue_items SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		now,
		t.ID,
	); err != nil {
		return fmt.Errorf("update item status: %w", err)
	}

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO history (task_id, run_id, source_path, cache_path, title, success, finished_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID,
		t.RunID,
		t.SourcePath,
		t.CachePath,
		t.Title,
		boolToInt(t.Success),
		now,
	); err != nil {
		return fmt.Errorf("append history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit processed: %w", err)
	}
	return nil
}

// History returns processed-task records, newest first.
func (s *Store) History(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, task_id, run_id, source_path, cache_path, title, success, finished_at
         FROM history ORDER BY finished_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			record      Record
			success     int
			finishedRaw string
		)
		if err := rows.Scan(
			&record.ID,
			&record.TaskID,
			&record.RunID,
			&record.SourcePath,
			&record.CachePath,
			&record.Title,
			&success,
			&finishedRaw,
		); err != nil {
			return nil, fmt.Errorf("scan history record: %w", err)
		}
		record.Success = success != 0
		if finished, err := time.Parse(time.RFC3339Nano, finishedRaw); err == nil {
			record.FinishedAt = finished
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// List returns queue items oldest first, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]Item, error) {
	query := `SELECT id, source_path, cache_path, title, status, created_at, updated_at
         FROM queue_items`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var (
			item       Item
			status     string
			createdRaw string
			updatedRaw string
		)
		if err := rows.Scan(
			&item.ID,
			&item.SourcePath,
			&item.CachePath,
			&item.Title,
			&status,
			&createdRaw,
			&updatedRaw,
		); err != nil {
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		item.Status = Status(status)
		if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
			item.CreatedAt = created
		}
		if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
			item.UpdatedAt = updated
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Stats counts queue items per status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		switch status {
		case StatusPending:
			stats.Pending = count
		case StatusProcessing:
			stats.Processing = count
		case StatusCompleted:
			stats.Completed = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}

// ResetStuckProcessing returns items stuck in processing back to pending.
// Used at daemon startup after an unclean shutdown.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items SET status = ?, updated_at = ? WHERE status = ?`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusProcessing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck items: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes all items from the queue. History is preserved.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_items`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
