// Package surface is a small retained-mode drawing surface: a fixed-size
// canvas holding a background image and draggable text objects, with an
// event emitter for direct-manipulation gestures.
//
// A Scene is not safe for concurrent use. Callers serialise access.
package surface

import (
	"errors"
	"image"
	"image/color"

	"golang.org/x/image/font"
)

const (
	EventMoving         = "object:moving"
	EventModified       = "object:modified"
	EventEditingEntered = "text:editing:entered"
	EventEditingExited  = "text:editing:exited"
)

var (
	ErrDisposed = errors.New("surface: scene disposed")
	ErrNoObject = errors.New("surface: no object with that tag")
)

type Event struct {
	Type   string
	Target *Text
}

type Handler func(e Event)

type Rect struct {
	Left, Top, Width, Height float64
}

type Scene struct {
	width, height   int
	backgroundColor color.Color

	background       image.Image
	backgroundOrigin image.Point

	objects  []*Text
	active   *Text
	handlers map[string]map[int]Handler
	nextID   int
	faces    map[faceKey]font.Face
	disposed bool
}

func NewScene(width, height int, backgroundColor color.Color) *Scene {
	if backgroundColor == nil {
		backgroundColor = color.White
	}
	return &Scene{
		width:           width,
		height:          height,
		backgroundColor: backgroundColor,
		handlers:        make(map[string]map[int]Handler),
		faces:           make(map[faceKey]font.Face),
	}
}

func (s *Scene) Size() (width, height int) { return s.width, s.height }

// On registers a handler and returns an id for Off.
func (s *Scene) On(event string, h Handler) int {
	s.nextID++
	if s.handlers[event] == nil {
		s.handlers[event] = make(map[int]Handler)
	}
	s.handlers[event][s.nextID] = h
	return s.nextID
}

func (s *Scene) Off(event string, id int) {
	delete(s.handlers[event], id)
}

// Emit runs the handlers for event in registration order.
func (s *Scene) Emit(event string, target *Text) {
	hs := s.handlers[event]
	for id := 1; id <= s.nextID; id++ {
		if h, ok := hs[id]; ok {
			h(Event{Type: event, Target: target})
		}
	}
}

// AddText places t on the scene and makes it the active object. Rotation is
// always locked.
func (s *Scene) AddText(t *Text) (*Text, error) {
	if s.disposed {
		return nil, ErrDisposed
	}
	if t.ScaleX == 0 {
		t.ScaleX = 1
	}
	if t.ScaleY == 0 {
		t.ScaleY = 1
	}
	t.LockRotation = true
	t.Selectable = true
	t.scene = s
	s.objects = append(s.objects, t)
	s.active = t
	return t, nil
}

func (s *Scene) Remove(tag string) bool {
	for i, obj := range s.objects {
		if obj.Data == tag {
			s.objects = append(s.objects[:i], s.objects[i+1:]...)
			if s.active == obj {
				s.active = nil
			}
			obj.scene = nil
			return true
		}
	}
	return false
}

func (s *Scene) FindByTag(tag string) *Text {
	for _, obj := range s.objects {
		if obj.Data == tag {
			return obj
		}
	}
	return nil
}

// Texts returns the text objects in stacking order.
func (s *Scene) Texts() []*Text {
	return append([]*Text(nil), s.objects...)
}

func (s *Scene) SetActive(tag string) error {
	if s.disposed {
		return ErrDisposed
	}
	obj := s.FindByTag(tag)
	if obj == nil {
		return ErrNoObject
	}
	s.active = obj
	return nil
}

func (s *Scene) Active() *Text { return s.active }

// Move applies a drag frame: the candidate position is set, then moving
// handlers run and may adjust it.
func (s *Scene) Move(tag string, left, top float64) (*Text, error) {
	if s.disposed {
		return nil, ErrDisposed
	}
	obj := s.FindByTag(tag)
	if obj == nil {
		return nil, ErrNoObject
	}
	s.active = obj
	obj.Left, obj.Top = left, top
	s.Emit(EventMoving, obj)
	return obj, nil
}

// Release ends a gesture on the object.
func (s *Scene) Release(tag string) error {
	if s.disposed {
		return ErrDisposed
	}
	obj := s.FindByTag(tag)
	if obj == nil {
		return ErrNoObject
	}
	s.Emit(EventModified, obj)
	return nil
}

func (s *Scene) BeginEditing(tag string) error {
	if s.disposed {
		return ErrDisposed
	}
	obj := s.FindByTag(tag)
	if obj == nil {
		return ErrNoObject
	}
	if obj.Editing {
		return nil
	}
	obj.Editing = true
	s.active = obj
	s.Emit(EventEditingEntered, obj)
	return nil
}

// EditText replaces the content of an object in inline-edit mode.
func (s *Scene) EditText(tag, content string) error {
	if s.disposed {
		return ErrDisposed
	}
	obj := s.FindByTag(tag)
	if obj == nil {
		return ErrNoObject
	}
	if !obj.Editing {
		return errors.New("surface: object is not being edited")
	}
	obj.Text = content
	return nil
}

// EndEditing leaves inline-edit mode. The edit counts as a modification.
func (s *Scene) EndEditing(tag string) error {
	if s.disposed {
		return ErrDisposed
	}
	obj := s.FindByTag(tag)
	if obj == nil {
		return ErrNoObject
	}
	if !obj.Editing {
		return nil
	}
	obj.Editing = false
	s.Emit(EventEditingExited, obj)
	s.Emit(EventModified, obj)
	return nil
}

// Dispose releases the scene. Every later mutation fails with ErrDisposed.
func (s *Scene) Dispose() {
	for _, face := range s.faces {
		face.Close()
	}
	for _, obj := range s.objects {
		obj.scene = nil
	}
	s.faces = nil
	s.objects = nil
	s.active = nil
	s.handlers = nil
	s.background = nil
	s.disposed = true
}

func (s *Scene) Disposed() bool { return s.disposed }
