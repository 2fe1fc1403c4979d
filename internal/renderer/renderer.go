// Package renderer converts classified features into themed drawing
// primitives, one ordered list per layer.
package renderer

import (
	"fmt"
	"sort"

	"github.com/poorfish/maptoposter/internal/geometry"
	"github.com/poorfish/maptoposter/internal/theme"
	"github.com/poorfish/maptoposter/internal/types"
)

// Render projects fc onto a width×height canvas framed by bounds and styles
// every feature with th. Features that have too few usable points after
// projection are skipped. Output is deterministic for equal input.
func Render(fc *types.FeatureCollection, th *theme.Theme, bounds types.BoundingBox, width, height float64) (*Layers, error) {
	if th == nil {
		return nil, fmt.Errorf("render: nil theme")
	}
	proj, err := geometry.NewProjector(bounds, width, height)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	layers := &Layers{}
	if fc == nil {
		return layers, nil
	}

	buildingColor := th.BuildingColor()
	for _, f := range fc.Buildings {
		if p, ok := polygon(proj, f, buildingColor, BuildingOpacity); ok {
			layers.Buildings = append(layers.Buildings, p)
		}
	}

	for _, f := range fc.Parks {
		if p, ok := polygon(proj, f, th.Parks, 1); ok {
			layers.Parks = append(layers.Parks, p)
		}
	}

	for _, f := range fc.Water {
		if f.Category == types.CategoryWaterArea {
			if p, ok := polygon(proj, f, th.Water, 1); ok {
				layers.Water = append(layers.Water, p)
			}
			continue
		}
		if p, ok := path(proj, f, th.Water, WaterwayWidth(f.Subtype), nil); ok {
			layers.Water = append(layers.Water, p)
		}
	}

	railColor := th.RailColor()
	for _, f := range fc.Rails {
		if p, ok := path(proj, f, railColor, RailWidth, RailDash); ok {
			layers.Rails = append(layers.Rails, p)
		}
	}

	roads := make([]types.Feature, len(fc.Roads))
	copy(roads, fc.Roads)
	sort.SliceStable(roads, func(i, j int) bool {
		return RoadImportance(roads[i].Subtype) < RoadImportance(roads[j].Subtype)
	})
	for _, f := range roads {
		if p, ok := path(proj, f, th.RoadColor(f.Subtype), RoadWidth(f.Subtype), nil); ok {
			layers.Roads = append(layers.Roads, p)
		}
	}

	return layers, nil
}

func polygon(proj *geometry.Projector, f types.Feature, fill string, opacity float64) (Primitive, bool) {
	pts := project(proj, f)
	// A closed ring repeats its first point; it needs three distinct vertices.
	minPoints := 3
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		minPoints = 4
	}
	if len(pts) < minPoints {
		return Primitive{}, false
	}
	return Primitive{
		Kind:      KindPolygon,
		FeatureID: f.ID,
		Category:  f.Category,
		Subtype:   f.Subtype,
		Points:    pts,
		Fill:      fill,
		Opacity:   opacity,
	}, true
}

func path(proj *geometry.Projector, f types.Feature, stroke string, width float64, dash []float64) (Primitive, bool) {
	pts := project(proj, f)
	if len(pts) < 2 {
		return Primitive{}, false
	}
	return Primitive{
		Kind:        KindPath,
		FeatureID:   f.ID,
		Category:    f.Category,
		Subtype:     f.Subtype,
		Points:      pts,
		Stroke:      stroke,
		StrokeWidth: width,
		Opacity:     1,
		Dash:        dash,
	}, true
}

// project maps a feature's geometry, dropping non-finite points.
func project(proj *geometry.Projector, f types.Feature) []geometry.Point {
	out := make([]geometry.Point, 0, len(f.Geometry))
	for _, pt := range f.Geometry {
		p := proj.Point(pt)
		if p.Finite() {
			out = append(out, p)
		}
	}
	return out
}
