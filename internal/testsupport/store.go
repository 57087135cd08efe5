package testsupport

import (
	"context"
	"testing"

	"mediabox/internal/config"
	"mediabox/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewTask enqueues a task for tests using the provided store.
func NewTask(t testing.TB, store *queue.Store, task queue.TaskType, sourcePath string) *queue.Item {
	t.Helper()

	item, err := store.NewTask(context.Background(), "test item", task, sourcePath, "", "")
	if err != nil {
		t.Fatalf("store.NewTask: %v", err)
	}
	return item
}
