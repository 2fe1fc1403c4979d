package geometry

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/poorfish/maptoposter/internal/types"
)

// ErrDegenerateProjection is returned when bounds or canvas size cannot
// produce a finite scale.
var ErrDegenerateProjection = errors.New("degenerate projection: bounds span and canvas size must be positive")

// Point is a poster-local coordinate: x grows rightward, y grows downward.
type Point struct {
	X float64
	Y float64
}

// Projector maps lon/lat onto a width×height canvas with a local
// equirectangular approximation around the bounds centre.
//
// Scale comes from the width and the longitudinal span only; height is used to
// centre the output vertically. Content outside the canvas is not clipped here.
type Projector struct {
	centerLat float64
	centerLon float64
	cosLat    float64
	scale     float64
	width     float64
	height    float64
}

// NewProjector prepares a projector for bounds onto a width×height canvas.
func NewProjector(bounds types.BoundingBox, width, height float64) (*Projector, error) {
	if width <= 0 || height <= 0 || bounds.Width() <= 0 || bounds.Height() < 0 {
		return nil, ErrDegenerateProjection
	}

	centerLat, centerLon := bounds.Center()
	cosLat := math.Cos(centerLat * math.Pi / 180)
	if cosLat <= 0 {
		return nil, ErrDegenerateProjection
	}

	return &Projector{
		centerLat: centerLat,
		centerLon: centerLon,
		cosLat:    cosLat,
		scale:     width / (bounds.Width() * cosLat),
		width:     width,
		height:    height,
	}, nil
}

// Scale returns canvas units per compressed degree.
func (p *Projector) Scale() float64 {
	return p.scale
}

// Point projects a single lon/lat point.
func (p *Projector) Point(pt orb.Point) Point {
	return Point{
		X: p.width/2 + (pt[0]-p.centerLon)*p.cosLat*p.scale,
		Y: p.height/2 - (pt[1]-p.centerLat)*p.scale,
	}
}

// LineString projects every point of ls in order.
func (p *Projector) LineString(ls orb.LineString) []Point {
	out := make([]Point, len(ls))
	for i, pt := range ls {
		out[i] = p.Point(pt)
	}
	return out
}

// Project is the one-shot form of NewProjector followed by LineString.
func Project(points orb.LineString, bounds types.BoundingBox, width, height float64) ([]Point, error) {
	p, err := NewProjector(bounds, width, height)
	if err != nil {
		return nil, err
	}
	return p.LineString(points), nil
}

// Finite reports whether both coordinates are usable for drawing.
func (pt Point) Finite() bool {
	return !math.IsNaN(pt.X) && !math.IsNaN(pt.Y) && !math.IsInf(pt.X, 0) && !math.IsInf(pt.Y, 0)
}
