package domain

import (
	"sync"
	"time"
)

// DefaultRateWindow is the minimum spacing between support forwards per author.
const DefaultRateWindow = 5 * time.Minute

// RateWindow tracks, per author, when their last support post was forwarded,
// so that rapid repeats inside the window are suppressed instead of spamming
// the support channel.
//
// Entries live for the whole process run and are never deleted; the map is
// bounded only by the number of distinct authors seen. No persistence.
type RateWindow struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
}

// NewRateWindow creates a tracker with the given window. Non-positive windows
// fall back to DefaultRateWindow.
func NewRateWindow(window time.Duration) *RateWindow {
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &RateWindow{
		window: window,
		last:   make(map[string]time.Time),
	}
}

// ShouldForward reports whether a support post from authorID observed at now
// may be forwarded, recording now as the new last-forwarded time when it may.
//
// The decision looks only at the previously accepted timestamp: a burst of
// messages arriving after the window reopens resets the window exactly once,
// and the first one in arrival order wins. The read-check-write is a single
// critical section, so concurrent callers for the same author cannot both
// win.
func (w *RateWindow) ShouldForward(authorID string, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	last, ok := w.last[authorID]
	if ok && now.Sub(last) < w.window {
		return false
	}
	w.last[authorID] = now
	return true
}

// Window returns the configured window duration.
func (w *RateWindow) Window() time.Duration {
	return w.window
}
