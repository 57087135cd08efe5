package trim

import (
	"testing"
	"time"
)

func newSeekerWithClock(interval time.Duration) (*SmartSeeker, *time.Time, *[]float64) {
	var positions []float64
	clock := time.Unix(0, 0)
	seeker := NewSmartSeeker(func(p float64) { positions = append(positions, p) }, interval)
	seeker.now = func() time.Time { return clock }
	return seeker, &clock, &positions
}

func TestSmartSeekerFiresFirstRequest(t *testing.T) {
	seeker, clock, positions := newSeekerWithClock(30 * time.Millisecond)
	*clock = clock.Add(time.Second)

	seeker.Request(1.5)
	if len(*positions) != 1 || (*positions)[0] != 1.5 {
		t.Fatalf("positions = %v", *positions)
	}
}

func TestSmartSeekerThrottlesBursts(t *testing.T) {
	seeker, clock, positions := newSeekerWithClock(30 * time.Millisecond)
	*clock = clock.Add(time.Second)

	seeker.Request(1)
	*clock = clock.Add(5 * time.Millisecond)
	seeker.Request(2)
	*clock = clock.Add(5 * time.Millisecond)
	seeker.Request(3)

	if len(*positions) != 1 {
		t.Fatalf("burst produced %d seeks, want 1", len(*positions))
	}

	*clock = clock.Add(30 * time.Millisecond)
	seeker.Request(4)
	if len(*positions) != 2 || (*positions)[1] != 4 {
		t.Fatalf("positions = %v", *positions)
	}
}

func TestSmartSeekerFlushDeliversPending(t *testing.T) {
	seeker, clock, positions := newSeekerWithClock(30 * time.Millisecond)
	*clock = clock.Add(time.Second)

	seeker.Request(1)
	seeker.Request(2.5)
	seeker.Flush()

	if len(*positions) != 2 || (*positions)[1] != 2.5 {
		t.Fatalf("positions = %v, want flush of 2.5", *positions)
	}

	// Nothing pending, flush is a no-op.
	seeker.Flush()
	if len(*positions) != 2 {
		t.Fatalf("redundant flush produced a seek: %v", *positions)
	}
}
