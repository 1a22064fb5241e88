package designer

import (
	"embed"
	"fmt"

	"tienda-web/core"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Assets are the customizer's static tables.
type Assets struct {
	Templates []core.Template   `json:"templates"`
	Colors    []core.ShirtColor `json:"colors"`
	Fonts     []core.Font       `json:"fonts"`

	defaultColor string
	defaultFont  string
}

func LoadAssets() (*Assets, error) {
	var templates struct {
		Templates []core.Template `yaml:"templates"`
	}
	var colors struct {
		Default string            `yaml:"default"`
		Colors  []core.ShirtColor `yaml:"colors"`
	}
	var fonts struct {
		Default string      `yaml:"default"`
		Fonts   []core.Font `yaml:"fonts"`
	}

	for name, out := range map[string]any{
		"data/templates.yaml": &templates,
		"data/colors.yaml":    &colors,
		"data/fonts.yaml":     &fonts,
	} {
		raw, err := dataFS.ReadFile(name)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", name, err)
		}
	}

	return &Assets{
		Templates:    templates.Templates,
		Colors:       colors.Colors,
		Fonts:        fonts.Fonts,
		defaultColor: colors.Default,
		defaultFont:  fonts.Default,
	}, nil
}

// MustLoadAssets panics if the embedded tables are malformed.
func MustLoadAssets() *Assets {
	assets, err := LoadAssets()
	if err != nil {
		panic(err)
	}
	return assets
}

func (a *Assets) Template(id string) (core.Template, bool) {
	for _, t := range a.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return core.Template{}, false
}

func (a *Assets) Color(name string) (core.ShirtColor, bool) {
	for _, c := range a.Colors {
		if c.Name == name {
			return c, true
		}
	}
	return core.ShirtColor{}, false
}

func (a *Assets) DefaultShirtColor() core.ShirtColor {
	if c, ok := a.Color(a.defaultColor); ok {
		return c
	}
	return a.Colors[0]
}

func (a *Assets) DefaultFont() core.Font {
	for _, f := range a.Fonts {
		if f.Family == a.defaultFont {
			return f
		}
	}
	return a.Fonts[0]
}
