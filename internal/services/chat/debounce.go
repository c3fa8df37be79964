package chat

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period used to coalesce rapid snapshot writes.
const DefaultDebounce = 400 * time.Millisecond

// debouncer coalesces rapid trigger calls into one deferred fn call per quiet
// period. It is a per-turn scoped resource: Stop must run on every exit path
// so no timer outlives the turn, and after Stop no fire can race a final
// synchronous write.
type debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func(text string)
	timer   *time.Timer
	pending string
	stopped bool
}

func newDebouncer(delay time.Duration, fn func(text string)) *debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &debouncer{delay: delay, fn: fn}
}

// Trigger schedules fn with the given text after the quiet period, replacing
// any previously scheduled call.
func (d *debouncer) Trigger(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.pending = text
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *debouncer) fire() {
	// fn runs under the lock so Stop blocks until an in-flight fire has
	// finished; nothing can land after Stop returns.
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	text := d.pending
	d.timer = nil
	d.fn(text)
}

// Stop cancels any pending call and prevents all future fires.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
