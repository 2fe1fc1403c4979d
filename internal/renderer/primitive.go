package renderer

import (
	"github.com/poorfish/maptoposter/internal/geometry"
	"github.com/poorfish/maptoposter/internal/types"
)

// Kind is the drawing mode of a primitive.
type Kind string

const (
	KindPolygon Kind = "polygon" // filled, closed
	KindPath    Kind = "path"    // stroked, open
)

// Primitive is one themed drawable in poster coordinates. Colours are
// "#RRGGBB"; an empty Fill or Stroke means none.
type Primitive struct {
	Kind        Kind
	FeatureID   string
	Category    types.Category
	Subtype     string
	Points      []geometry.Point
	Fill        string
	Stroke      string
	StrokeWidth float64
	Opacity     float64
	Dash        []float64 // on/off lengths; nil for solid strokes
}

// LayerName identifies a layer in draw order.
type LayerName string

const (
	LayerBuildings LayerName = "buildings"
	LayerParks     LayerName = "parks"
	LayerWater     LayerName = "water"
	LayerRails     LayerName = "rails"
	LayerRoads     LayerName = "roads"
)

// DrawOrder lists layers bottom to top.
var DrawOrder = []LayerName{LayerBuildings, LayerParks, LayerWater, LayerRails, LayerRoads}

// Layers holds primitives per layer, each in draw order.
type Layers struct {
	Buildings []Primitive
	Parks     []Primitive
	Water     []Primitive
	Rails     []Primitive
	Roads     []Primitive
}

// Layer returns the primitives of one layer.
func (l *Layers) Layer(name LayerName) []Primitive {
	switch name {
	case LayerBuildings:
		return l.Buildings
	case LayerParks:
		return l.Parks
	case LayerWater:
		return l.Water
	case LayerRails:
		return l.Rails
	case LayerRoads:
		return l.Roads
	}
	return nil
}

// Count returns the total number of primitives.
func (l *Layers) Count() int {
	if l == nil {
		return 0
	}
	return len(l.Buildings) + len(l.Parks) + len(l.Water) + len(l.Rails) + len(l.Roads)
}

// Each calls fn for every primitive, bottom layer first, stopping at the
// first error.
func (l *Layers) Each(fn func(layer LayerName, p Primitive) error) error {
	for _, name := range DrawOrder {
		for _, p := range l.Layer(name) {
			if err := fn(name, p); err != nil {
				return err
			}
		}
	}
	return nil
}
