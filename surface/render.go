package surface

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"
)

// Loader fetches and decodes an image.
type Loader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// HTTPLoader loads images over HTTP. Relative URLs are resolved against BaseURL.
type HTTPLoader struct {
	Client  *http.Client
	BaseURL string
}

func (l HTTPLoader) Load(ctx context.Context, url string) (image.Image, error) {
	if strings.HasPrefix(url, "/") && l.BaseURL != "" {
		url = strings.TrimRight(l.BaseURL, "/") + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to load image %s: status %d", url, resp.StatusCode)
	}
	return imaging.Decode(resp.Body)
}

// SetBackground scales img to fit the canvas and centres it. A nil image
// clears the background.
func (s *Scene) SetBackground(img image.Image) {
	if img == nil || s.disposed {
		s.background = nil
		return
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		s.background = nil
		return
	}
	scale := math.Min(float64(s.width)/float64(b.Dx()), float64(s.height)/float64(b.Dy()))
	fitted := imaging.Resize(img, int(math.Round(float64(b.Dx())*scale)), int(math.Round(float64(b.Dy())*scale)), imaging.Lanczos)
	fb := fitted.Bounds()
	s.background = fitted
	s.backgroundOrigin = image.Pt((s.width-fb.Dx())/2, (s.height-fb.Dy())/2)
}

func (s *Scene) Background() image.Image { return s.background }

// LoadBackground fetches the image at url for SetBackground. It touches no
// scene state, so callers may run it without holding the scene's owner lock.
func LoadBackground(ctx context.Context, loader Loader, url string) (image.Image, error) {
	if loader == nil {
		return nil, errors.New("surface: no background loader")
	}
	if url == "" {
		return nil, errors.New("surface: empty background url")
	}
	img, err := loader.Load(ctx, url)
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("surface: empty background image %q", url)
	}
	return img, nil
}

// Render draws the scene at the given resolution multiplier.
func (s *Scene) Render(multiplier float64) (*image.NRGBA, error) {
	if s.disposed {
		return nil, ErrDisposed
	}
	if multiplier <= 0 {
		multiplier = 1
	}
	w := int(math.Round(float64(s.width) * multiplier))
	h := int(math.Round(float64(s.height) * multiplier))
	dst := imaging.New(w, h, s.backgroundColor)

	if s.background != nil {
		bg := s.background
		origin := s.backgroundOrigin
		if multiplier != 1 {
			b := bg.Bounds()
			bg = imaging.Resize(bg, int(float64(b.Dx())*multiplier), int(float64(b.Dy())*multiplier), imaging.Lanczos)
			origin = image.Pt(int(float64(origin.X)*multiplier), int(float64(origin.Y)*multiplier))
		}
		dst = imaging.Overlay(dst, bg, origin, 1.0)
	}

	for _, obj := range s.objects {
		if err := s.drawText(dst, obj, multiplier); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func (s *Scene) drawText(dst *image.NRGBA, t *Text, multiplier float64) error {
	size := t.FontSize * t.ScaleY * multiplier
	if size <= 0 {
		return nil
	}
	face, err := s.face(t.FontFamily, size)
	if err != nil {
		return err
	}
	fill, err := ParseHexColor(t.Fill)
	if err != nil {
		fill = color.NRGBA{A: 0xff}
	}
	drawer := font.Drawer{Dst: dst, Src: image.NewUniform(fill), Face: face}
	ascent := face.Metrics().Ascent
	for i, line := range strings.Split(t.Text, "\n") {
		x := t.Left * multiplier
		y := t.Top*multiplier + float64(i)*size*lineHeight
		drawer.Dot = fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y*64) + ascent}
		drawer.DrawString(line)
	}
	return nil
}

// ExportPNG writes the rendered scene as PNG.
func (s *Scene) ExportPNG(w io.Writer, multiplier float64) error {
	img, err := s.Render(multiplier)
	if err != nil {
		return err
	}
	return imaging.Encode(w, img, imaging.PNG)
}

// ParseHexColor parses #RGB or #RRGGBB.
func ParseHexColor(hex string) (color.NRGBA, error) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", hex)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", hex)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
