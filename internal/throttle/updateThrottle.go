package throttle

import (
	"sync"
	"time"
)

type Result int

const (
	Dropped Result = iota
	Accepted
	// there was no value to write so the throttle wasn't consulted
	Skipped
)

func (r Result) String() string {
	switch r {
	case Accepted:
		return "accepted"
	case Skipped:
		return "skipped"
	default:
		return "dropped"
	}
}

// Throttle gates writes for continuously changing fields so that at most one
// write per field is forwarded per window. Superseded values are dropped, not queued.
type Throttle struct {
	mu        sync.Mutex
	window    time.Duration
	lastWrite map[string]time.Time
}

func New(window time.Duration) *Throttle {
	return &Throttle{window: window, lastWrite: map[string]time.Time{}}
}

func (t *Throttle) Window() time.Duration {
	return t.window
}

// Attempt calls write and records now against field if the field has never been
// written or the previous accepted write is more than a window away from now.
// Otherwise nothing happens and Dropped is returned.
func (t *Throttle) Attempt(field string, now time.Time, write func()) Result {
	t.mu.Lock()
	last, seen := t.lastWrite[field]
	if seen && absDuration(now.Sub(last)) <= t.window {
		t.mu.Unlock()
		return Dropped
	}
	t.lastWrite[field] = now
	t.mu.Unlock()

	write()
	return Accepted
}

// LastWrite returns the time of the last accepted write for field.
func (t *Throttle) LastWrite(field string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.lastWrite[field]
	return last, ok
}

// the clock may be adjusted backwards between calls
func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
