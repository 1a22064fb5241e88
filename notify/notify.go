// Package notify carries user-facing notifications (toasts) from the
// designer and API layers to whatever is rendering them.
package notify

import (
	"sync"
	"time"

	"tienda-web/schedule"

	"github.com/oklog/ulid/v2"
)

type Kind string

const (
	Success Kind = "success"
	Error   Kind = "error"
	Warning Kind = "warning"
)

// DefaultDuration is how long a toast stays visible.
const DefaultDuration = 3 * time.Second

type Notifier interface {
	Notify(kind Kind, message string)
}

// Func adapts a function to a Notifier.
type Func func(kind Kind, message string)

func (f Func) Notify(kind Kind, message string) { f(kind, message) }

// Discard drops every notification.
var Discard Notifier = Func(func(Kind, string) {})

type Toast struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"type"`
	Message string `json:"message"`
}

// Center keeps the visible toasts of one session and dismisses them after
// Duration. Subscribers receive the full list after every change.
type Center struct {
	clock    schedule.Clock
	duration time.Duration

	mu          sync.Mutex
	toasts      []Toast
	timers      map[string]schedule.Timer
	subscribers []func([]Toast)
	closed      bool
}

func NewCenter(clock schedule.Clock, duration time.Duration) *Center {
	if clock == nil {
		clock = schedule.Real
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Center{
		clock:    clock,
		duration: duration,
		timers:   make(map[string]schedule.Timer),
	}
}

func (c *Center) Notify(kind Kind, message string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	toast := Toast{ID: ulid.Make().String(), Kind: kind, Message: message}
	c.toasts = append(c.toasts, toast)
	c.timers[toast.ID] = c.clock.AfterFunc(c.duration, func() { c.Dismiss(toast.ID) })
	c.mu.Unlock()

	c.publish()
}

// Dismiss removes a toast. Unknown ids are ignored.
func (c *Center) Dismiss(id string) {
	c.mu.Lock()
	if timer, ok := c.timers[id]; ok {
		timer.Stop()
		delete(c.timers, id)
	}
	removed := false
	for i, toast := range c.toasts {
		if toast.ID == id {
			c.toasts = append(c.toasts[:i], c.toasts[i+1:]...)
			removed = true
			break
		}
	}
	c.mu.Unlock()

	if removed {
		c.publish()
	}
}

func (c *Center) Toasts() []Toast {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Toast(nil), c.toasts...)
}

func (c *Center) Subscribe(fn func([]Toast)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// Close cancels every pending dismissal and drops later notifications.
func (c *Center) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, timer := range c.timers {
		timer.Stop()
		delete(c.timers, id)
	}
	c.toasts = nil
	c.subscribers = nil
	c.closed = true
}

func (c *Center) publish() {
	c.mu.Lock()
	snapshot := append([]Toast(nil), c.toasts...)
	subscribers := append([]func([]Toast){}, c.subscribers...)
	c.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
}
