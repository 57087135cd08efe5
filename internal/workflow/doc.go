// Package workflow drives queue processing. A single lane polls for pending
// items and runs them through their task handler one at a time, refreshing a
// heartbeat while work is in flight. A failure halts auto-advance until the
// operator resumes the queue; cancelling the active item returns it to
// pending with its progress cleared.
package workflow
