package queue

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const timeLayout = time.RFC3339Nano

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*Item, error) {
	var (
		item          Item
		task          string
		status        string
		errorMessage  sql.NullString
		outputPath    sql.NullString
		createdAt     string
		updatedAt     string
		startedAt     sql.NullString
		completedAt   sql.NullString
		lastHeartbeat sql.NullString
	)

	err := row.Scan(
		&item.ID, &item.Title, &task, &item.SourcePath, &item.SourceURL,
		&item.OptionsJSON, &status, &item.Progress, &item.ProgressStage,
		&item.Speed, &errorMessage, &outputPath,
		&createdAt, &updatedAt, &startedAt, &completedAt, &lastHeartbeat,
	)
	if err != nil {
		return nil, err
	}

	item.TaskType = TaskType(task)
	item.Status = Status(status)
	item.ErrorMessage = errorMessage.String
	item.OutputPath = outputPath.String

	if item.CreatedAt, err = parseTimeString(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if item.UpdatedAt, err = parseTimeString(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if item.StartedAt, err = parseNullableTime(startedAt); err != nil {
		return nil, fmt.Errorf("parse started_at: %w", err)
	}
	if item.CompletedAt, err = parseNullableTime(completedAt); err != nil {
		return nil, fmt.Errorf("parse completed_at: %w", err)
	}
	if item.LastHeartbeat, err = parseNullableTime(lastHeartbeat); err != nil {
		return nil, fmt.Errorf("parse last_heartbeat: %w", err)
	}
	return &item, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(raw string) (time.Time, error) {
	return time.Parse(timeLayout, raw)
}

func parseNullableTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTimeString(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func makePlaceholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
