package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces a burst of change events into a single callback,
// invoked with the last event observed once the quiet window elapses.
type Debouncer struct {
	window time.Duration
	fire   func(ChangeEvent)

	mu      sync.Mutex
	pending ChangeEvent
	timer   *time.Timer
}

// NewDebouncer creates a debouncer over the given quiet window.
func NewDebouncer(window time.Duration, fire func(ChangeEvent)) *Debouncer {
	return &Debouncer{window: window, fire: fire}
}

// Observe records an event and restarts the quiet window.
func (d *Debouncer) Observe(ev ChangeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = ev
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		last := d.pending
		d.mu.Unlock()
		if d.fire != nil {
			d.fire(last)
		}
	})
}

// Stop cancels any pending callback.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
}
