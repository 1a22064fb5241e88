package surface

import (
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// lineHeight is the line box height as a multiple of the font size.
const lineHeight = 1.16

// Text is an editable text object. Data tags it with the id of the overlay it
// represents.
type Text struct {
	Data         string  `json:"data"`
	Text         string  `json:"text"`
	Left         float64 `json:"left"`
	Top          float64 `json:"top"`
	FontSize     float64 `json:"fontSize"`
	FontFamily   string  `json:"fontFamily"`
	Fill         string  `json:"fill"`
	ScaleX       float64 `json:"scaleX"`
	ScaleY       float64 `json:"scaleY"`
	Editing      bool    `json:"isEditing"`
	LockRotation bool    `json:"lockRotation"`
	Selectable   bool    `json:"selectable"`

	scene *Scene
}

type faceKey struct {
	family string
	size   float64
}

// Glyph outlines for the customizer's families. Unknown families render in
// Go Regular.
var families = map[string][]byte{
	"Work Sans":          goregular.TTF,
	"Oswald":             gobold.TTF,
	"Dancing Script":     goitalic.TTF,
	"Cormorant Garamond": gomedium.TTF,
}

func (s *Scene) face(family string, size float64) (font.Face, error) {
	key := faceKey{family, size}
	if face, ok := s.faces[key]; ok {
		return face, nil
	}
	ttf, ok := families[family]
	if !ok {
		ttf = goregular.TTF
	}
	parsed, err := opentype.Parse(ttf)
	if err != nil {
		return nil, err
	}
	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, err
	}
	if s.faces != nil {
		s.faces[key] = face
	}
	return face, nil
}

// Width is the unscaled width of the widest line.
func (t *Text) Width() float64 {
	if t.scene == nil || t.FontSize <= 0 {
		return 0
	}
	face, err := t.scene.face(t.FontFamily, t.FontSize)
	if err != nil {
		return 0
	}
	var widest float64
	for _, line := range strings.Split(t.Text, "\n") {
		w := float64(font.MeasureString(face, line)) / 64
		if w > widest {
			widest = w
		}
	}
	return widest
}

// Height is the unscaled height of the text block.
func (t *Text) Height() float64 {
	lines := strings.Count(t.Text, "\n") + 1
	return float64(lines) * t.FontSize * lineHeight
}

// Bounds is the post-scale bounding box.
func (t *Text) Bounds() Rect {
	return Rect{
		Left:   t.Left,
		Top:    t.Top,
		Width:  t.Width() * t.ScaleX,
		Height: t.Height() * t.ScaleY,
	}
}
