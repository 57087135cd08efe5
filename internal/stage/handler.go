// Package stage defines the contract between the workflow manager and the
// per-task handlers.
package stage

import (
	"context"

	"mediabox/internal/queue"
)

// Handler describes the contract the workflow manager needs from each task
// handler. Prepare validates the item and resolves its output; Execute does
// the work and may run for a long time under the item's context.
type Handler interface {
	Prepare(context.Context, *queue.Item) error
	Execute(context.Context, *queue.Item) error
	HealthCheck(context.Context) Health
}

// Health summarizes the readiness of a task handler.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
