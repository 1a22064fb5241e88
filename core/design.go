package core

import "time"

type (
	Position struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}

	// TextOverlay is one editable text item placed on a design.
	TextOverlay struct {
		ID         string   `json:"id"`
		Content    string   `json:"content"`
		Position   Position `json:"position"`
		FontSize   float64  `json:"fontSize"`
		FontFamily string   `json:"fontFamily"`
		Color      string   `json:"color"`
	}

	ShirtColor struct {
		Name      string `json:"name" yaml:"name"`
		HexValue  string `json:"hexValue" yaml:"hex"`
		MockupURL string `json:"mockupUrl,omitempty" yaml:"mockup"`
	}

	// Design is the customizer's in-progress t-shirt configuration.
	Design struct {
		TemplateID   string        `json:"templateId"`
		TemplateName string        `json:"templateName,omitempty"`
		TextElements []TextOverlay `json:"textElements"`
		ShirtColor   ShirtColor    `json:"shirtColor"`
		CreatedAt    *time.Time    `json:"createdAt,omitempty"`
		UpdatedAt    *time.Time    `json:"updatedAt,omitempty"`
	}

	Template struct {
		ID          string   `json:"id" yaml:"id"`
		Name        string   `json:"name" yaml:"name"`
		Category    string   `json:"category,omitempty" yaml:"category"`
		ImageURL    string   `json:"imageUrl" yaml:"image"`
		Description string   `json:"description,omitempty" yaml:"description"`
		Tags        []string `json:"tags,omitempty" yaml:"tags"`
	}

	Font struct {
		Name       string `json:"name" yaml:"name"`
		Family     string `json:"fontFamily" yaml:"family"`
		WebfontURL string `json:"webfontUrl,omitempty" yaml:"webfont"`
	}
)

// Clone returns a copy that shares no slices or pointers with d.
func (d Design) Clone() Design {
	out := d
	out.TextElements = append([]TextOverlay(nil), d.TextElements...)
	if d.CreatedAt != nil {
		t := *d.CreatedAt
		out.CreatedAt = &t
	}
	if d.UpdatedAt != nil {
		t := *d.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

// Overlay returns the overlay with the given id.
func (d Design) Overlay(id string) (TextOverlay, bool) {
	for _, el := range d.TextElements {
		if el.ID == id {
			return el, true
		}
	}
	return TextOverlay{}, false
}
