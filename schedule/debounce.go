package schedule

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into one call that runs after a
// quiet period. A new Trigger replaces both the pending function and its timer.
type Debouncer struct {
	clock Clock
	delay time.Duration

	mu    sync.Mutex
	timer Timer
	fn    func()
	gen   uint64
}

func NewDebouncer(clock Clock, delay time.Duration) *Debouncer {
	if clock == nil {
		clock = Real
	}
	return &Debouncer{clock: clock, delay: delay}
}

// Trigger schedules f to run once the delay elapses without another Trigger.
func (d *Debouncer) Trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.fn = f
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.fn == nil {
		d.mu.Unlock()
		return
	}
	f := d.take()
	d.mu.Unlock()
	f()
}

// take clears the pending state. Callers hold d.mu.
func (d *Debouncer) take() func() {
	f := d.fn
	d.fn = nil
	d.timer = nil
	d.gen++
	return f
}

// Flush runs the pending function immediately, if there is one.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.fn == nil {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	f := d.take()
	d.mu.Unlock()
	f()
}

// Stop cancels the pending function without running it.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.take()
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fn != nil
}
