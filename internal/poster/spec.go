// Package poster composes rendered layers, label layout and frame into a
// complete poster ready for export.
package poster

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/poorfish/maptoposter/internal/theme"
	"github.com/poorfish/maptoposter/internal/types"
)

// DefaultShortSide is the canvas short side, in poster units, used by the CLI.
const DefaultShortSide = 600.0

// AspectRatio is a short:long side ratio.
type AspectRatio struct {
	Name  string
	Short float64
	Long  float64
}

var aspectPresets = map[string]AspectRatio{
	"1:1":  {"1:1", 1, 1},
	"2:3":  {"2:3", 2, 3},
	"3:4":  {"3:4", 3, 4},
	"4:5":  {"4:5", 4, 5},
	"5:7":  {"5:7", 5, 7},
	"9:16": {"9:16", 9, 16},
	"A":    {"A", 1, math.Sqrt2}, // ISO 216 paper sizes
}

// ParseAspect looks up a preset by name ("3:4", "A", ...).
func ParseAspect(name string) (AspectRatio, error) {
	if a, ok := aspectPresets[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return a, nil
	}
	return AspectRatio{}, fmt.Errorf("unknown aspect ratio %q (available: %s)", name, strings.Join(AspectNames(), ", "))
}

// AspectNames lists the presets.
func AspectNames() []string {
	names := make([]string, 0, len(aspectPresets))
	for n := range aspectPresets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dimensions returns width and height for a canvas with the given short side.
func (a AspectRatio) Dimensions(shortSide float64, o types.Orientation) (width, height float64) {
	long := shortSide * a.Long / a.Short
	if o == types.Landscape {
		return long, shortSide
	}
	return shortSide, long
}

// RenderSpec fully determines projection scale and typography. Nothing in it
// is defaulted silently; use NewRenderSpec to derive dimensions from a preset.
type RenderSpec struct {
	Width       float64
	Height      float64
	Theme       *theme.Theme
	FontFamily  string
	Orientation types.Orientation
	AspectRatio string
}

// NewRenderSpec builds a spec from an aspect preset and short side.
func NewRenderSpec(aspect string, orientation types.Orientation, shortSide float64, th *theme.Theme, fontFamily string) (RenderSpec, error) {
	a, err := ParseAspect(aspect)
	if err != nil {
		return RenderSpec{}, err
	}
	w, h := a.Dimensions(shortSide, orientation)
	spec := RenderSpec{
		Width:       w,
		Height:      h,
		Theme:       th,
		FontFamily:  fontFamily,
		Orientation: orientation,
		AspectRatio: a.Name,
	}
	return spec, spec.Validate()
}

// Validate rejects non-positive sizes, a missing theme or font, and an
// orientation that contradicts the dimensions.
func (s RenderSpec) Validate() error {
	var errs []error
	if !(s.Width > 0) || !(s.Height > 0) || math.IsInf(s.Width, 0) || math.IsInf(s.Height, 0) {
		errs = append(errs, fmt.Errorf("canvas must be positive, got %gx%g", s.Width, s.Height))
	}
	if s.Theme == nil {
		errs = append(errs, errors.New("theme is required"))
	} else if err := s.Theme.Validate(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(s.FontFamily) == "" {
		errs = append(errs, errors.New("font family is required"))
	}
	switch s.Orientation {
	case types.Portrait:
		if s.Width > s.Height {
			errs = append(errs, fmt.Errorf("portrait orientation with landscape canvas %gx%g", s.Width, s.Height))
		}
	case types.Landscape:
		if s.Width < s.Height {
			errs = append(errs, fmt.Errorf("landscape orientation with portrait canvas %gx%g", s.Width, s.Height))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown orientation %q", s.Orientation))
	}
	return errors.Join(errs...)
}
