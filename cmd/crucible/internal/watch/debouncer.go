// Package watch implements filesystem watching for continuous dirty checks.
package watch

import (
	"sync"
	"time"
)

// MaxPendingTargets is the maximum number of targets that can be pending.
// If this limit is reached, a flush is triggered immediately to prevent
// unbounded growth from rapid file churn.
const MaxPendingTargets = 1000

// Debouncer coalesces rapid change events into batched target checks. It
// groups events within a time window so a burst of writes (IDE autosave,
// formatter runs) triggers one check instead of many.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]struct{} // set of pending target identities
	timer   *time.Timer
	window  time.Duration
	onFlush func(ids []string)
	stopped bool
}

// NewDebouncer creates a debouncer with the given window duration. The
// onFlush callback receives the pending target identities after the window
// expires with no new events.
func NewDebouncer(window time.Duration, onFlush func(ids []string)) *Debouncer {
	return &Debouncer{
		pending: make(map[string]struct{}),
		window:  window,
		onFlush: onFlush,
	}
}

// Add records a change affecting the given target identity. Multiple calls
// with the same identity within the window are coalesced.
func (d *Debouncer) Add(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending[id] = struct{}{}

	if len(d.pending) >= MaxPendingTargets {
		if d.timer != nil {
			d.timer.Stop()
			d.timer = nil
		}
		d.flushLocked()
		return
	}

	// Note: timer.Stop() may return false if the timer already fired and
	// flush() is queued. That is safe: flush() exits early on an empty
	// pending set.
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushLocked()
}

// flushLocked performs the flush. Caller must hold d.mu.
func (d *Debouncer) flushLocked() {
	if d.stopped || len(d.pending) == 0 {
		return
	}

	ids := make([]string, 0, len(d.pending))
	for id := range d.pending {
		ids = append(ids, id)
	}
	d.pending = make(map[string]struct{})

	// Call the handler outside the lock to prevent deadlocks; the caller
	// expects the lock held again on return.
	d.mu.Unlock()
	if d.onFlush != nil {
		d.onFlush(ids)
	}
	d.mu.Lock()
}

// FlushNow immediately flushes any pending targets without waiting for the
// timer. Useful for graceful shutdown.
func (d *Debouncer) FlushNow() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	ids := make([]string, 0, len(d.pending))
	for id := range d.pending {
		ids = append(ids, id)
	}
	d.pending = make(map[string]struct{})
	d.mu.Unlock()

	if d.onFlush != nil {
		d.onFlush(ids)
	}
}

// Stop stops the debouncer. Any pending targets are flushed.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	ids := make([]string, 0, len(d.pending))
	for id := range d.pending {
		ids = append(ids, id)
	}
	d.pending = make(map[string]struct{})
	d.mu.Unlock()

	if len(ids) > 0 && d.onFlush != nil {
		d.onFlush(ids)
	}
}

// PendingCount returns the number of targets waiting to be flushed.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}
