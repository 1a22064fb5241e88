package designer

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"sync"
	"time"

	"tienda-web/core"
	"tienda-web/notify"
	"tienda-web/schedule"
	"tienda-web/surface"

	"github.com/sirupsen/logrus"
)

const (
	CanvasWidth      = 600
	CanvasHeight     = 750
	ExportMultiplier = 2
)

const msgBackgroundFailed = "No se pudo cargar la plantilla. Podés seguir editando tu diseño."

var (
	ErrSessionClosed   = errors.New("designer: session closed")
	ErrNoDraft         = errors.New("designer: no pending draft")
	ErrUnknownTemplate = errors.New("designer: unknown template")
	ErrUnknownColor    = errors.New("designer: unknown shirt color")
)

type Options struct {
	VisitorID string
	Items     core.ItemStore
	Assets    *Assets
	Loader    surface.Loader
	Clock     schedule.Clock
	Notifier  notify.Notifier
}

// ObjectView is a text object as the client draws it.
type ObjectView struct {
	surface.Text
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Active bool    `json:"active"`
}

// Session is one customizer visit. Every entry point and every timer
// callback runs under the session lock.
type Session struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	visitorID string
	assets    *Assets
	loader    surface.Loader
	notifier  notify.Notifier

	state     *State
	scene     *surface.Scene
	sync      *Synchronizer
	autosaver *Autosaver
	drafts    *Drafts
	pending   *core.Design
}

// lockedClock runs timer callbacks under the session lock and drops them
// once the session is closed.
type lockedClock struct {
	schedule.Clock
	s *Session
}

func (c lockedClock) AfterFunc(d time.Duration, f func()) schedule.Timer {
	return c.Clock.AfterFunc(d, func() {
		c.s.mu.Lock()
		defer c.s.mu.Unlock()
		if c.s.closed {
			return
		}
		f()
	})
}

// NewSession opens a customizer visit and looks for a stored draft.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	if opts.Clock == nil {
		opts.Clock = schedule.Real
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Assets == nil {
		assets, err := LoadAssets()
		if err != nil {
			return nil, err
		}
		opts.Assets = assets
	}

	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &Session{
		ctx:       sessionCtx,
		cancel:    cancel,
		visitorID: opts.VisitorID,
		assets:    opts.Assets,
		loader:    opts.Loader,
		notifier:  opts.Notifier,
	}
	clock := lockedClock{Clock: opts.Clock, s: s}

	s.scene = surface.NewScene(CanvasWidth, CanvasHeight, color.White)
	s.state = NewState(opts.Clock, opts.Assets)
	s.drafts = NewDrafts(opts.Items, opts.VisitorID)
	s.sync = NewSynchronizer(s.scene, s.state, clock)
	s.autosaver = NewAutosaver(sessionCtx, s.drafts, clock, opts.Notifier)

	s.sync.Attach()
	s.state.Subscribe(s.autosaver.Observe)

	draft, err := s.drafts.Load(ctx)
	if err != nil {
		logrus.WithField("visitor_id", opts.VisitorID).WithError(err).Warn("Failed to load design draft")
	}
	if draft != nil && draft.TemplateID != "" {
		s.pending = draft
	}

	logrus.WithFields(logrus.Fields{
		"visitor_id":    opts.VisitorID,
		"pending_draft": s.pending != nil,
	}).Info("Designer session opened")
	return s, nil
}

func (s *Session) VisitorID() string { return s.visitorID }

// OnChange registers fn for every design change. fn runs under the session
// lock and must not call back into the session.
func (s *Session) OnChange(fn func(core.Design)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Subscribe(fn)
}

func (s *Session) Design() core.Design {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Design()
}

// PendingDraft is the stored draft awaiting a restore or discard decision.
func (s *Session) PendingDraft() *core.Design {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil
	}
	d := s.pending.Clone()
	return &d
}

func (s *Session) RestoreDraft(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.pending == nil {
		s.mu.Unlock()
		return ErrNoDraft
	}
	s.state.Restore(*s.pending)
	s.pending = nil
	tpl, ok := s.assets.Template(s.state.design.TemplateID)
	s.mu.Unlock()

	if ok {
		s.loadBackground(ctx, tpl)
	}
	return nil
}

// DiscardDraft deletes the stored draft and keeps the fresh design.
func (s *Session) DiscardDraft(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.pending = nil
	return s.drafts.Clear(ctx)
}

func (s *Session) SelectTemplate(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	tpl, ok := s.assets.Template(id)
	if !ok {
		s.mu.Unlock()
		return ErrUnknownTemplate
	}
	s.state.SelectTemplate(tpl)
	s.mu.Unlock()

	s.loadBackground(ctx, tpl)
	return nil
}

// loadBackground fetches the template image without holding the lock. A
// failure leaves the canvas blank and usable.
func (s *Session) loadBackground(ctx context.Context, tpl core.Template) {
	if s.loader == nil {
		return
	}
	img, err := surface.LoadBackground(ctx, s.loader, tpl.ImageURL)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state.design.TemplateID != tpl.ID {
		return
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{"template_id": tpl.ID, "url": tpl.ImageURL}).WithError(err).Warn("Failed to load template background")
		s.scene.SetBackground(nil)
		s.notifier.Notify(notify.Warning, msgBackgroundFailed)
		return
	}
	s.scene.SetBackground(img)
}

func (s *Session) AddText(content string) (core.TextOverlay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.TextOverlay{}, ErrSessionClosed
	}
	return s.state.AddText(content), nil
}

func (s *Session) UpdateText(id string, patch TextPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.state.UpdateText(id, patch)
}

func (s *Session) DeleteText(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	if !s.state.DeleteText(id) {
		return ErrUnknownOverlay
	}
	return nil
}

func (s *Session) ChangeShirtColor(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	c, ok := s.assets.Color(name)
	if !ok {
		return ErrUnknownColor
	}
	s.state.ChangeShirtColor(c)
	return nil
}

func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.state.Reset()
	s.scene.SetBackground(nil)
	return nil
}

// Move applies one drag frame and returns the object where it landed.
func (s *Session) Move(id string, left, top float64) (ObjectView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ObjectView{}, ErrSessionClosed
	}
	obj, err := s.scene.Move(id, left, top)
	if err != nil {
		return ObjectView{}, err
	}
	return s.view(obj), nil
}

// Select makes id the active object, the one the text controls edit.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.scene.SetActive(id)
}

func (s *Session) Release(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.scene.Release(id)
}

func (s *Session) BeginEditing(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.scene.BeginEditing(id)
}

func (s *Session) EditText(id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.scene.EditText(id, content)
}

func (s *Session) EndEditing(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	return s.scene.EndEditing(id)
}

// Objects returns the scene's text objects in stacking order.
func (s *Session) Objects() []ObjectView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	texts := s.scene.Texts()
	views := make([]ObjectView, 0, len(texts))
	for _, t := range texts {
		views = append(views, s.view(t))
	}
	return views
}

func (s *Session) view(t *surface.Text) ObjectView {
	return ObjectView{Text: *t, Width: t.Width(), Height: t.Height(), Active: s.scene.Active() == t}
}

// Export commits buffered gestures and renders the design as PNG.
func (s *Session) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	s.sync.Flush()

	var buf bytes.Buffer
	if err := s.scene.ExportPNG(&buf, ExportMultiplier); err != nil {
		logrus.WithField("visitor_id", s.visitorID).WithError(err).Error("Failed to export design")
		return nil, err
	}
	return buf.Bytes(), nil
}

// Close disposes the surface and cancels every pending timer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.sync.Dispose()
	s.autosaver.Stop()
	s.scene.Dispose()
	s.cancel()
	logrus.WithField("visitor_id", s.visitorID).Info("Designer session closed")
}
