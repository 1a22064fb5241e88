package designer

import (
	"errors"
	"html"

	"tienda-web/core"
	"tienda-web/schedule"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
)

// Overlay defaults for AddText.
const (
	DefaultText       = "Nuevo texto"
	DefaultFontSize   = 40
	DefaultTextColor  = "#000000"
	defaultTextOffset = 100
)

var ErrUnknownOverlay = errors.New("designer: unknown text overlay")

// TextPatch is a partial update of an overlay. Nil fields are left alone.
type TextPatch struct {
	Content    *string        `json:"content,omitempty"`
	Position   *core.Position `json:"position,omitempty"`
	FontSize   *float64       `json:"fontSize,omitempty"`
	FontFamily *string        `json:"fontFamily,omitempty"`
	Color      *string        `json:"color,omitempty"`
}

// State is the design-state container of one customizer visit. Every
// mutation is published to subscribers. State is not safe for concurrent
// use; Session serialises access.
type State struct {
	clock       schedule.Clock
	assets      *Assets
	design      core.Design
	subscribers []func(core.Design)
	policy      *bluemonday.Policy
}

func NewState(clock schedule.Clock, assets *Assets) *State {
	if clock == nil {
		clock = schedule.Real
	}
	s := &State{clock: clock, assets: assets, policy: bluemonday.StrictPolicy()}
	s.design = s.initial()
	return s
}

func (s *State) initial() core.Design {
	return core.Design{TextElements: []core.TextOverlay{}, ShirtColor: s.assets.DefaultShirtColor()}
}

// Design returns a copy of the current design.
func (s *State) Design() core.Design { return s.design.Clone() }

func (s *State) Subscribe(fn func(core.Design)) {
	s.subscribers = append(s.subscribers, fn)
}

func (s *State) publish() {
	for _, fn := range s.subscribers {
		fn(s.design.Clone())
	}
}

func (s *State) touch() {
	now := s.clock.Now()
	s.design.UpdatedAt = &now
	if s.design.CreatedAt == nil {
		s.design.CreatedAt = &now
	}
}

// sanitize strips markup from overlay text.
func (s *State) sanitize(content string) string {
	return html.UnescapeString(s.policy.Sanitize(content))
}

func (s *State) SelectTemplate(t core.Template) {
	s.design.TemplateID = t.ID
	s.design.TemplateName = t.Name
	s.touch()
	s.publish()
}

// AddText appends an overlay with default styling. An empty content uses
// DefaultText.
func (s *State) AddText(content string) core.TextOverlay {
	if content == "" {
		content = DefaultText
	}
	overlay := core.TextOverlay{
		ID:         ulid.Make().String(),
		Content:    s.sanitize(content),
		Position:   core.Position{X: defaultTextOffset, Y: defaultTextOffset},
		FontSize:   DefaultFontSize,
		FontFamily: s.assets.DefaultFont().Family,
		Color:      DefaultTextColor,
	}
	s.design.TextElements = append(s.design.TextElements, overlay)
	s.touch()
	s.publish()
	return overlay
}

func (s *State) UpdateText(id string, patch TextPatch) error {
	for i := range s.design.TextElements {
		el := &s.design.TextElements[i]
		if el.ID != id {
			continue
		}
		if patch.Content != nil {
			el.Content = s.sanitize(*patch.Content)
		}
		if patch.Position != nil {
			el.Position = *patch.Position
		}
		if patch.FontSize != nil {
			el.FontSize = *patch.FontSize
		}
		if patch.FontFamily != nil {
			el.FontFamily = *patch.FontFamily
		}
		if patch.Color != nil {
			el.Color = *patch.Color
		}
		s.touch()
		s.publish()
		return nil
	}
	return ErrUnknownOverlay
}

func (s *State) DeleteText(id string) bool {
	for i, el := range s.design.TextElements {
		if el.ID == id {
			s.design.TextElements = append(s.design.TextElements[:i], s.design.TextElements[i+1:]...)
			s.touch()
			s.publish()
			return true
		}
	}
	return false
}

func (s *State) ChangeShirtColor(c core.ShirtColor) {
	s.design.ShirtColor = c
	s.touch()
	s.publish()
}

// Reset returns to the empty initial design.
func (s *State) Reset() {
	s.design = s.initial()
	s.publish()
}

// Restore replaces the design wholesale with a saved draft. Overlays with a
// missing or repeated id get a fresh one so ids stay unique.
func (s *State) Restore(d core.Design) {
	s.design = d.Clone()
	seen := make(map[string]bool, len(s.design.TextElements))
	for i := range s.design.TextElements {
		el := &s.design.TextElements[i]
		if el.ID == "" || seen[el.ID] {
			el.ID = ulid.Make().String()
		}
		seen[el.ID] = true
		el.Content = s.sanitize(el.Content)
	}
	if s.design.TextElements == nil {
		s.design.TextElements = []core.TextOverlay{}
	}
	now := s.clock.Now()
	s.design.UpdatedAt = &now
	s.publish()
}
