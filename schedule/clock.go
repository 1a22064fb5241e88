// Package schedule provides timers behind a Clock so that debounced work can
// be driven by the wall clock in production and by a virtual clock in tests.
package schedule

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending callback. Stop reports whether it prevented the call.
type Timer interface {
	Stop() bool
}

type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// Real is the wall clock.
var Real Clock = realClock{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Virtual is a manually advanced clock. Callbacks only run inside Advance,
// on the caller's goroutine, in deadline order.
type Virtual struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*virtualTimer
}

type virtualTimer struct {
	clock *Virtual
	when  time.Time
	seq   uint64
	f     func()
}

func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

func (v *Virtual) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.now
}

func (v *Virtual) AfterFunc(d time.Duration, f func()) Timer {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.seq++
	t := &virtualTimer{clock: v, when: v.now.Add(d), seq: v.seq, f: f}
	v.timers = append(v.timers, t)
	return t
}

// Pending returns the number of timers that have not fired or been stopped.
func (v *Virtual) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.timers)
}

// Advance moves the clock forward by d, running every callback that falls due.
// Timers scheduled by a callback run in the same call if they are due.
func (v *Virtual) Advance(d time.Duration) {
	v.mu.Lock()
	target := v.now.Add(d)
	for {
		next := v.nextDue(target)
		if next == nil {
			break
		}
		v.remove(next)
		v.now = next.when
		v.mu.Unlock()
		next.f()
		v.mu.Lock()
	}
	v.now = target
	v.mu.Unlock()
}

func (v *Virtual) nextDue(target time.Time) *virtualTimer {
	if len(v.timers) == 0 {
		return nil
	}
	sort.SliceStable(v.timers, func(i, j int) bool {
		if v.timers[i].when.Equal(v.timers[j].when) {
			return v.timers[i].seq < v.timers[j].seq
		}
		return v.timers[i].when.Before(v.timers[j].when)
	})
	if v.timers[0].when.After(target) {
		return nil
	}
	return v.timers[0]
}

func (v *Virtual) remove(t *virtualTimer) bool {
	for i, candidate := range v.timers {
		if candidate == t {
			v.timers = append(v.timers[:i], v.timers[i+1:]...)
			return true
		}
	}
	return false
}

func (t *virtualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	return t.clock.remove(t)
}
