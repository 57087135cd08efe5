package trim

import (
	"sync"
	"time"
)

// DefaultSeekInterval is the minimum spacing between preview seeks while a
// handle is being dragged.
const DefaultSeekInterval = 30 * time.Millisecond

// SeekFunc performs the actual preview seek.
type SeekFunc func(position float64)

// SmartSeeker coalesces rapid seek requests during scrubbing. At most one
// seek fires per interval; the newest requested position always wins, with
// Flush delivering any position still pending when the drag ends.
type SmartSeeker struct {
	mu       sync.Mutex
	seek     SeekFunc
	interval time.Duration
	now      func() time.Time
	lastSeek time.Time
	pending  float64
	hasPend  bool
}

// NewSmartSeeker creates a seeker with the given minimum interval. A zero
// interval selects DefaultSeekInterval.
func NewSmartSeeker(seek SeekFunc, interval time.Duration) *SmartSeeker {
	if interval <= 0 {
		interval = DefaultSeekInterval
	}
	return &SmartSeeker{seek: seek, interval: interval, now: time.Now}
}

// Request asks for a seek to position. It fires immediately when the
// interval has elapsed since the last seek, otherwise the position is
// remembered for Flush.
func (s *SmartSeeker) Request(position float64) {
	s.mu.Lock()
	now := s.now()
	if now.Sub(s.lastSeek) >= s.interval {
		s.lastSeek = now
		s.hasPend = false
		s.mu.Unlock()
		s.seek(position)
		return
	}
	s.pending = position
	s.hasPend = true
	s.mu.Unlock()
}

// Flush delivers the most recent throttled position, if any.
func (s *SmartSeeker) Flush() {
	s.mu.Lock()
	if !s.hasPend {
		s.mu.Unlock()
		return
	}
	position := s.pending
	s.hasPend = false
	s.lastSeek = s.now()
	s.mu.Unlock()
	s.seek(position)
}
