package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mediabox/internal/config"
)

// Store wraps the SQLite database that backs the queue.
type Store struct {
	db       *sql.DB
	path     string
	maxItems int
}

const itemColumns = `id, title, task_type, source_path, source_url, options_json,
	status, progress, progress_stage, speed, error_message, output_path,
	created_at, updated_at, started_at, completed_at, last_heartbeat`

// Open creates or opens the queue database under the configured work
// directory and applies the schema.
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("queue: config is required")
	}
	return OpenAt(cfg.QueueDBPath(), cfg.Queue.MaxItems)
}

// OpenAt opens a queue database at an explicit path.
func OpenAt(path string, maxItems int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create queue directory: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply queue schema: %w", err)
	}

	return &Store{db: db, path: path, maxItems: maxItems}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// NewTask inserts a pending item. It fails with ErrQueueFull when the number
// of pending and running items has reached the configured capacity.
func (s *Store) NewTask(ctx context.Context, title string, task TaskType, sourcePath, sourceURL, optionsJSON string) (*Item, error) {
	if _, ok := taskTypeSet[task]; !ok {
		return nil, fmt.Errorf("unknown task type %q", task)
	}
	if strings.TrimSpace(optionsJSON) == "" {
		optionsJSON = "{}"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin enqueue: %w", err)
	}
	defer tx.Rollback()

	if s.maxItems > 0 {
		var active int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM queue_items WHERE status IN (?, ?)`,
			StatusPending, StatusRunning,
		).Scan(&active)
		if err != nil {
			return nil, fmt.Errorf("count active items: %w", err)
		}
		if active >= s.maxItems {
			return nil, fmt.Errorf("%w: %d active items (limit %d)", ErrQueueFull, active, s.maxItems)
		}
	}

	now := time.Now().UTC()
	result, err := tx.ExecContext(ctx, `
		INSERT INTO queue_items (title, task_type, source_path, source_url, options_json, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		title, task, sourcePath, sourceURL, optionsJSON, StatusPending,
		formatTime(now), formatTime(now),
	)
	if err != nil {
		return nil, fmt.Errorf("insert queue item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read inserted id: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit enqueue: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID retrieves a single item.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return item, err
}

// Update persists every mutable field of the item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	item.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx, `
		UPDATE queue_items SET
			title = ?, task_type = ?, source_path = ?, source_url = ?,
			options_json = ?, status = ?, progress = ?, progress_stage = ?,
			speed = ?, error_message = ?, output_path = ?, updated_at = ?,
			started_at = ?, completed_at = ?, last_heartbeat = ?
		WHERE id = ?`,
		item.Title, item.TaskType, item.SourcePath, item.SourceURL,
		item.OptionsJSON, item.Status, item.Progress, item.ProgressStage,
		item.Speed, nullableString(item.ErrorMessage), nullableString(item.OutputPath),
		formatTime(item.UpdatedAt), nullableTime(item.StartedAt),
		nullableTime(item.CompletedAt), nullableTime(item.LastHeartbeat),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update queue item %d: %w", item.ID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update queue item %d: %w", item.ID, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateOptions replaces the options payload of a pending or failed item.
// Running and completed items are rejected with ErrNotEditable. Editing a
// failed item requeues it: status back to pending, progress and error
// cleared.
func (s *Store) UpdateOptions(ctx context.Context, id int64, optionsJSON string) (*Item, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !item.Editable() {
		return nil, fmt.Errorf("%w: item %d is %s", ErrNotEditable, id, item.Status)
	}
	if strings.TrimSpace(optionsJSON) == "" {
		optionsJSON = "{}"
	}
	item.OptionsJSON = optionsJSON
	if item.Status == StatusFailed {
		item.Status = StatusPending
		item.StartedAt = nil
		item.CompletedAt = nil
	}
	item.InitProgress("")
	if err := s.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// List returns items filtered by status, oldest first. With no statuses it
// returns everything.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM queue_items`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextForStatuses returns the oldest item in any of the statuses, or nil.
func (s *Store) NextForStatuses(ctx context.Context, statuses ...Status) (*Item, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, status)
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM queue_items
		 WHERE status IN (`+makePlaceholders(len(statuses))+`)
		 ORDER BY created_at ASC, id ASC LIMIT 1`, args...)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return item, err
}

// Remove deletes an item by id.
func (s *Store) Remove(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove queue item %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove queue item %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearCompleted deletes completed items and returns how many were removed.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	return s.clearStatuses(ctx, StatusCompleted)
}

// ClearFailed deletes failed items and returns how many were removed.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	return s.clearStatuses(ctx, StatusFailed)
}

// ClearAll deletes every item not currently running.
func (s *Store) ClearAll(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM queue_items WHERE status != ?`, StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return result.RowsAffected()
}

func (s *Store) clearStatuses(ctx context.Context, statuses ...Status) (int64, error) {
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, status)
	}
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM queue_items WHERE status IN (`+makePlaceholders(len(statuses))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("clear queue items: %w", err)
	}
	return result.RowsAffected()
}

// RetryFailed moves failed items back to pending with progress reset.
func (s *Store) RetryFailed(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE queue_items
		SET status = ?, progress = 0, progress_stage = '', speed = 0,
		    error_message = NULL, started_at = NULL, completed_at = NULL,
		    last_heartbeat = NULL, updated_at = ?
		WHERE status = ?`,
		StatusPending, formatTime(time.Now().UTC()), StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	return result.RowsAffected()
}

// ResetStuckRunning reverts running items to pending. Called on daemon
// startup so work orphaned by a crash is picked up again.
func (s *Store) ResetStuckRunning(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE queue_items
		SET status = ?, progress = 0, progress_stage = '', speed = 0,
		    started_at = NULL, last_heartbeat = NULL, updated_at = ?
		WHERE status = ?`,
		StatusPending, formatTime(time.Now().UTC()), StatusRunning)
	if err != nil {
		return 0, fmt.Errorf("reset stuck items: %w", err)
	}
	return result.RowsAffected()
}

// UpdateHeartbeat stamps the item's heartbeat with the current time.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := formatTime(time.Now().UTC())
	result, err := s.db.ExecContext(ctx,
		`UPDATE queue_items SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now, now, id)
	if err != nil {
		return fmt.Errorf("update heartbeat for item %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update heartbeat for item %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ReclaimStale fails running items whose heartbeat is older than cutoff.
func (s *Store) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE queue_items
		SET status = ?, error_message = 'task abandoned: heartbeat expired',
		    completed_at = ?, updated_at = ?
		WHERE status = ? AND (last_heartbeat IS NULL OR last_heartbeat < ?)`,
		StatusFailed, formatTime(time.Now().UTC()), formatTime(time.Now().UTC()),
		StatusRunning, formatTime(cutoff.UTC()))
	if err != nil {
		return 0, fmt.Errorf("reclaim stale items: %w", err)
	}
	return result.RowsAffected()
}

// Stats counts items per status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM queue_items GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("queue stats: %w", err)
		}
		stats.Total += count
		switch status {
		case StatusPending:
			stats.Pending = count
		case StatusRunning:
			stats.Running = count
		case StatusCompleted:
			stats.Completed = count
		case StatusFailed:
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}

// CheckHealth verifies the database answers a trivial query.
func (s *Store) CheckHealth(ctx context.Context) HealthSummary {
	var one int
	if err := s.db.QueryRowContext(ctx, `SELECT 1`).Scan(&one); err != nil {
		return HealthSummary{Healthy: false, Detail: err.Error()}
	}
	return HealthSummary{Healthy: true, Detail: "ok"}
}
