package queue

import "errors"

var (
	// ErrNotFound indicates the requested item does not exist.
	ErrNotFound = errors.New("queue item not found")
	// ErrQueueFull indicates the enqueue would exceed the configured capacity.
	ErrQueueFull = errors.New("queue is full")
	// ErrNotEditable indicates an edit was attempted on a non-pending item.
	ErrNotEditable = errors.New("queue item is not editable")
)
