package health

import (
	"errors"
	"sync/atomic"
	"time"
)

// ErrStartAlreadyMarked is the panic value of a second StartMarker.Mark.
var ErrStartAlreadyMarked = errors.New("process start time already marked")

// StartMarker records the process start time exactly once.
type StartMarker struct {
	start atomic.Pointer[time.Time]
}

// NewStartMarker returns a marker already set to t.
func NewStartMarker(t time.Time) *StartMarker {
	m := &StartMarker{}
	m.Mark(t)
	return m
}

// Mark sets the start time. It panics with ErrStartAlreadyMarked if the
// marker was already set.
func (m *StartMarker) Mark(t time.Time) {
	if !m.start.CompareAndSwap(nil, &t) {
		panic(ErrStartAlreadyMarked)
	}
}

// Time returns the start time and whether it has been marked. A nil
// marker reads as unmarked.
func (m *StartMarker) Time() (time.Time, bool) {
	if m == nil {
		return time.Time{}, false
	}
	if p := m.start.Load(); p != nil {
		return *p, true
	}
	return time.Time{}, false
}

// Uptime returns the time elapsed between the start and now. An unmarked
// marker, or a clock that moved backwards, yields zero.
func (m *StartMarker) Uptime(now time.Time) time.Duration {
	start, ok := m.Time()
	if !ok {
		return 0
	}
	if d := now.Sub(start); d > 0 {
		return d
	}
	return 0
}
