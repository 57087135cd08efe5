// Package queue persists conversion tasks in SQLite and exposes the
// operations the workflow manager and API need: enqueue with a capacity
// check, status transitions, option edits for pending items, and recovery
// of tasks orphaned by a daemon crash.
package queue
