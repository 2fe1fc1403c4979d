// Package theme holds poster colour palettes.
package theme

import (
	"encoding/json"
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// DefaultName is the theme used when none is requested.
const DefaultName = "noir"

// Theme maps semantic slots to colours. Colours are "#RRGGBB" strings.
// Rail and Buildings are optional and derived from the road and text colours
// when empty.
type Theme struct {
	ID          string `json:"-"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Background string `json:"bg"`
	Text       string `json:"text"`
	Gradient   string `json:"gradient_color"`
	Water      string `json:"water"`
	Parks      string `json:"parks"`
	Rail       string `json:"rail,omitempty"`
	Buildings  string `json:"buildings,omitempty"`

	RoadMotorway    string `json:"road_motorway"`
	RoadPrimary     string `json:"road_primary"`
	RoadSecondary   string `json:"road_secondary"`
	RoadTertiary    string `json:"road_tertiary"`
	RoadResidential string `json:"road_residential"`
	RoadDefault     string `json:"road_default"`
}

// Parse decodes and validates a theme document.
func Parse(id string, data []byte) (*Theme, error) {
	var t Theme
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse theme %q: %w", id, err)
	}
	t.ID = id
	if t.Name == "" {
		t.Name = id
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks that every required slot holds a parseable colour.
func (t *Theme) Validate() error {
	required := []struct {
		slot  string
		value string
	}{
		{"bg", t.Background},
		{"text", t.Text},
		{"gradient_color", t.Gradient},
		{"water", t.Water},
		{"parks", t.Parks},
		{"road_motorway", t.RoadMotorway},
		{"road_primary", t.RoadPrimary},
		{"road_secondary", t.RoadSecondary},
		{"road_tertiary", t.RoadTertiary},
		{"road_residential", t.RoadResidential},
		{"road_default", t.RoadDefault},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("theme %q: missing colour %s", t.ID, r.slot)
		}
		if _, err := colorful.Hex(r.value); err != nil {
			return fmt.Errorf("theme %q: invalid colour %s=%q: %w", t.ID, r.slot, r.value, err)
		}
	}
	for slot, v := range map[string]string{"rail": t.Rail, "buildings": t.Buildings} {
		if v == "" {
			continue
		}
		if _, err := colorful.Hex(v); err != nil {
			return fmt.Errorf("theme %q: invalid colour %s=%q: %w", t.ID, slot, v, err)
		}
	}
	return nil
}

// RoadColor returns the colour for a highway subtype.
func (t *Theme) RoadColor(highway string) string {
	switch highway {
	case "motorway", "motorway_link":
		return t.RoadMotorway
	case "trunk", "trunk_link", "primary", "primary_link":
		return t.RoadPrimary
	case "secondary", "secondary_link":
		return t.RoadSecondary
	case "tertiary", "tertiary_link":
		return t.RoadTertiary
	case "residential", "living_street", "unclassified":
		return t.RoadResidential
	default:
		return t.RoadDefault
	}
}

// RailColor returns the rail colour, falling back to the secondary road colour.
func (t *Theme) RailColor() string {
	if t.Rail != "" {
		return t.Rail
	}
	return t.RoadSecondary
}

// BuildingColor returns the building colour. Without an explicit value it is
// the text colour pulled 60% toward the background.
func (t *Theme) BuildingColor() string {
	if t.Buildings != "" {
		return t.Buildings
	}
	return Blend(t.Text, t.Background, 0.6)
}

// Blend mixes a toward b by f in Lab space and returns a hex colour. Unparseable
// input yields a unchanged.
func Blend(a, b string, f float64) string {
	ca, err := colorful.Hex(a)
	if err != nil {
		return a
	}
	cb, err := colorful.Hex(b)
	if err != nil {
		return a
	}
	return ca.BlendLab(cb, f).Clamped().Hex()
}

// NRGBA converts a hex colour with the given opacity (0..1). Unparseable
// colours become opaque black.
func NRGBA(hex string, opacity float64) color.NRGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		c = colorful.Color{}
	}
	r, g, b := c.Clamped().RGB255()
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return color.NRGBA{R: r, G: g, B: b, A: uint8(opacity*255 + 0.5)}
}
