package queue

import (
	"context"
	"fmt"
	"time"
)

// MarkRunning transitions a pending item to running and initializes its
// progress fields and heartbeat.
func (s *Store) MarkRunning(ctx context.Context, id int64, stage string) (*Item, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item.Status != StatusPending {
		return nil, fmt.Errorf("item %d is %s, expected pending", id, item.Status)
	}
	now := time.Now().UTC()
	item.Status = StatusRunning
	item.StartedAt = &now
	item.LastHeartbeat = &now
	item.CompletedAt = nil
	item.InitProgress(stage)
	if err := s.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// MarkCompleted finishes a running item and records its output path.
func (s *Store) MarkCompleted(ctx context.Context, id int64, outputPath string) (*Item, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	item.Status = StatusCompleted
	item.OutputPath = outputPath
	item.CompletedAt = &now
	item.SetProgress(100, "done")
	item.ErrorMessage = ""
	if err := s.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// MarkFailed records a failure message against the item.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) (*Item, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	item.SetFailed(message)
	item.CompletedAt = &now
	if err := s.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// RevertToPending returns a running item to pending with progress cleared.
// Used when the active task is cancelled rather than failed.
func (s *Store) RevertToPending(ctx context.Context, id int64) (*Item, error) {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	item.Status = StatusPending
	item.StartedAt = nil
	item.CompletedAt = nil
	item.LastHeartbeat = nil
	item.InitProgress("")
	if err := s.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateProgress stores progress, stage, and speed for a running item.
func (s *Store) UpdateProgress(ctx context.Context, id int64, percent float64, stage string, speed float64) error {
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	item.SetProgress(percent, stage)
	item.Speed = speed
	return s.Update(ctx, item)
}
