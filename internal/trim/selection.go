// Package trim models the timeline selection used by the clip cutter: a
// start/end range clamped to the media duration, drag handles, and a
// throttled preview seeker.
package trim

import (
	"errors"
	"fmt"
)

// MinWidth is the smallest selectable range in seconds.
const MinWidth = 0.01

// DragMode identifies which part of the selection a drag moves.
type DragMode string

const (
	DragStart DragMode = "start"
	DragEnd   DragMode = "end"
	DragRange DragMode = "range"
)

// Selection is a trim range over a media file. All values are seconds.
type Selection struct {
	Start    float64
	End      float64
	Duration float64
}

// NewSelection creates a full-length selection for a media duration.
func NewSelection(duration float64) (*Selection, error) {
	if duration < MinWidth {
		return nil, fmt.Errorf("duration %.3f too short to trim", duration)
	}
	return &Selection{Start: 0, End: duration, Duration: duration}, nil
}

// Width returns the selected range length.
func (s *Selection) Width() float64 {
	return s.End - s.Start
}

// SetStart moves the start handle, clamped to [0, end-MinWidth].
func (s *Selection) SetStart(value float64) float64 {
	if value < 0 {
		value = 0
	}
	if max := s.End - MinWidth; value > max {
		value = max
	}
	s.Start = value
	return s.Start
}

// SetEnd moves the end handle, clamped to [start+MinWidth, duration].
func (s *Selection) SetEnd(value float64) float64 {
	if value > s.Duration {
		value = s.Duration
	}
	if min := s.Start + MinWidth; value < min {
		value = min
	}
	s.End = value
	return s.End
}

// Shift moves the whole range by delta, preserving its width and stopping
// at the timeline edges.
func (s *Selection) Shift(delta float64) {
	width := s.Width()
	start := s.Start + delta
	if start < 0 {
		start = 0
	}
	if start+width > s.Duration {
		start = s.Duration - width
	}
	s.Start = start
	s.End = start + width
}

// Drag applies a pointer position to the active handle. For DragRange the
// value is interpreted as a delta rather than an absolute time.
func (s *Selection) Drag(mode DragMode, value float64) error {
	switch mode {
	case DragStart:
		s.SetStart(value)
	case DragEnd:
		s.SetEnd(value)
	case DragRange:
		s.Shift(value)
	default:
		return fmt.Errorf("unknown drag mode %q", mode)
	}
	return nil
}

// DragFraction applies a pointer position expressed as a 0..1 fraction of
// the track width, projected onto the timeline. Handle drags clamp the
// fraction; range drags treat it as a signed delta.
func (s *Selection) DragFraction(mode DragMode, frac float64) error {
	if mode != DragRange {
		if frac < 0 {
			frac = 0
		} else if frac > 1 {
			frac = 1
		}
	}
	return s.Drag(mode, frac*s.Duration)
}

// Validate confirms the invariant 0 <= start < end <= duration.
func (s *Selection) Validate() error {
	if s.Start < 0 || s.End > s.Duration || s.End-s.Start < MinWidth {
		return errors.New("selection out of bounds")
	}
	return nil
}
