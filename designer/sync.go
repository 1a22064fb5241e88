package designer

import (
	"errors"
	"time"

	"tienda-web/core"
	"tienda-web/schedule"
	"tienda-web/surface"

	"github.com/sirupsen/logrus"
)

// CommitDelay is the quiet period after a gesture before the surface's
// position and text are written back into the design.
const CommitDelay = 300 * time.Millisecond

// pendingCommit holds what a gesture changed on the surface. A drag only
// owns the position and an inline edit only owns the text. The base fields
// record the design's value when the gesture ended; a later design change
// to the same field supersedes the gesture.
type pendingCommit struct {
	position     *core.Position
	basePosition core.Position
	content      *string
	baseContent  string
}

// Synchronizer keeps the scene's text objects in step with the design.
// Design changes are applied to the scene immediately; gestures on the scene
// are buffered per object and committed once the surface goes quiet.
type Synchronizer struct {
	scene    *surface.Scene
	state    *State
	debounce *schedule.Debouncer

	pending  map[string]pendingCommit
	order    []string
	handlers map[string]int
	attached bool
}

func NewSynchronizer(scene *surface.Scene, state *State, clock schedule.Clock) *Synchronizer {
	return &Synchronizer{
		scene:    scene,
		state:    state,
		debounce: schedule.NewDebouncer(clock, CommitDelay),
		pending:  make(map[string]pendingCommit),
		handlers: make(map[string]int),
	}
}

// Attach registers the scene handlers and subscribes to design changes.
func (s *Synchronizer) Attach() {
	if s.attached {
		return
	}
	s.attached = true
	s.handlers[surface.EventMoving] = s.scene.On(surface.EventMoving, s.onMoving)
	s.handlers[surface.EventModified] = s.scene.On(surface.EventModified, s.onModified)
	s.handlers[surface.EventEditingExited] = s.scene.On(surface.EventEditingExited, s.onEditingExited)
	s.state.Subscribe(func(d core.Design) {
		if s.attached {
			s.Reconcile(d)
		}
	})
	s.Reconcile(s.state.Design())
}

func (s *Synchronizer) onMoving(e surface.Event) {
	w, h := s.scene.Size()
	pos := ClampPosition(e.Target.Bounds(), float64(w), float64(h))
	e.Target.Left, e.Target.Top = pos.X, pos.Y
}

func (s *Synchronizer) onModified(e surface.Event) {
	pos := core.Position{X: e.Target.Left, Y: e.Target.Top}
	s.buffer(e.Target.Data, func(p *pendingCommit, el core.TextOverlay) {
		p.position, p.basePosition = &pos, el.Position
	})
}

func (s *Synchronizer) onEditingExited(e surface.Event) {
	content := e.Target.Text
	s.buffer(e.Target.Data, func(p *pendingCommit, el core.TextOverlay) {
		p.content, p.baseContent = &content, el.Content
	})
}

func (s *Synchronizer) buffer(id string, set func(*pendingCommit, core.TextOverlay)) {
	if id == "" {
		return
	}
	el, ok := s.state.design.Overlay(id)
	if !ok {
		return
	}
	p, ok := s.pending[id]
	if !ok {
		s.order = append(s.order, id)
	}
	set(&p, el)
	s.pending[id] = p
	s.debounce.Trigger(s.commit)
}

func (s *Synchronizer) commit() {
	order := s.order
	s.order = nil

	for _, id := range order {
		p, ok := s.pending[id]
		if !ok {
			continue
		}
		delete(s.pending, id)
		if p.position == nil && p.content == nil {
			continue
		}
		err := s.state.UpdateText(id, TextPatch{Position: p.position, Content: p.content})
		if errors.Is(err, ErrUnknownOverlay) {
			logrus.WithField("overlay_id", id).Debug("Dropping commit for deleted overlay")
		}
	}
}

// Pending reports whether gestures are waiting to be committed.
func (s *Synchronizer) Pending() bool { return s.debounce.Pending() }

// Flush commits buffered gestures now.
func (s *Synchronizer) Flush() { s.debounce.Flush() }

// Reconcile brings the scene in line with d. Objects in inline-edit mode are
// left untouched. An uncommitted drag keeps the surface position and an
// uncommitted inline edit keeps the surface text.
func (s *Synchronizer) Reconcile(d core.Design) {
	if s.scene.Disposed() {
		return
	}

	ids := make(map[string]bool, len(d.TextElements))
	for _, el := range d.TextElements {
		ids[el.ID] = true
	}
	for _, obj := range s.scene.Texts() {
		if obj.Data != "" && !ids[obj.Data] {
			s.scene.Remove(obj.Data)
			delete(s.pending, obj.Data)
		}
	}

	for _, el := range d.TextElements {
		obj := s.scene.FindByTag(el.ID)
		if obj == nil {
			s.scene.AddText(&surface.Text{
				Data:       el.ID,
				Text:       el.Content,
				Left:       el.Position.X,
				Top:        el.Position.Y,
				FontSize:   el.FontSize,
				FontFamily: el.FontFamily,
				Fill:       el.Color,
			})
			continue
		}
		if obj.Editing {
			continue
		}
		if obj.FontSize != el.FontSize {
			obj.FontSize = el.FontSize
		}
		if obj.FontFamily != el.FontFamily {
			obj.FontFamily = el.FontFamily
		}
		if obj.Fill != el.Color {
			obj.Fill = el.Color
		}
		p, buffered := s.pending[el.ID]
		if p.content != nil && el.Content != p.baseContent {
			p.content = nil
		}
		if p.position != nil && el.Position != p.basePosition {
			p.position = nil
		}
		if buffered {
			s.pending[el.ID] = p
		}
		if p.content == nil && obj.Text != el.Content {
			obj.Text = el.Content
		}
		if p.position == nil && (obj.Left != el.Position.X || obj.Top != el.Position.Y) {
			obj.Left, obj.Top = el.Position.X, el.Position.Y
		}
	}
}

// Dispose cancels buffered commits and detaches from the scene.
func (s *Synchronizer) Dispose() {
	s.debounce.Stop()
	for event, id := range s.handlers {
		s.scene.Off(event, id)
	}
	s.handlers = make(map[string]int)
	s.pending = make(map[string]pendingCommit)
	s.order = nil
	s.attached = false
}
