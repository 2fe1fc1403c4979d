package poster

import (
	"fmt"

	"github.com/poorfish/maptoposter/internal/renderer"
	"github.com/poorfish/maptoposter/internal/types"
	"github.com/poorfish/maptoposter/internal/typography"
)

// GradientFraction is the share of the canvas height covered by each fade.
const GradientFraction = 0.25

// Location names the place a poster shows.
type Location struct {
	City    string
	Country string
	Center  types.GeoPoint
}

// Gradient is a vertical fade band. Opacity runs from FromOpacity at Y to
// ToOpacity at Y+Height.
type Gradient struct {
	Y           float64
	Height      float64
	Color       string
	FromOpacity float64
	ToOpacity   float64
}

// Poster is everything an exporter needs: canvas, layers, fades and label.
type Poster struct {
	Spec     RenderSpec
	Location Location
	Bounds   types.BoundingBox
	Features *types.FeatureCollection
	Layers   *renderer.Layers
	Fades    []Gradient
	Label    typography.Layout
	// Stage is "major" for a coarse preview, "complete" otherwise, "degraded"
	// when refinement failed.
	Stage string
}

// Background returns the canvas background colour.
func (p *Poster) Background() string {
	return p.Spec.Theme.Background
}

// Compose renders fc for spec and lays out the label. The map is framed by
// bounds, which should come from the request rather than the data.
func Compose(spec RenderSpec, loc Location, bounds types.BoundingBox, fc *types.FeatureCollection, stage string) (*Poster, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid render spec: %w", err)
	}

	layers, err := renderer.Render(fc, spec.Theme, bounds, spec.Width, spec.Height)
	if err != nil {
		return nil, err
	}

	fadeHeight := spec.Height * GradientFraction
	fades := []Gradient{
		{Y: 0, Height: fadeHeight, Color: spec.Theme.Gradient, FromOpacity: 1, ToOpacity: 0},
		{Y: spec.Height - fadeHeight, Height: fadeHeight, Color: spec.Theme.Gradient, FromOpacity: 0, ToOpacity: 1},
	}

	label := typography.ComputeLabelLayout(loc.City, loc.Country, loc.Center, spec.Width, spec.Height, spec.Orientation, spec.FontFamily)

	return &Poster{
		Spec:     spec,
		Location: loc,
		Bounds:   bounds,
		Features: fc,
		Layers:   layers,
		Fades:    fades,
		Label:    label,
		Stage:    stage,
	}, nil
}
