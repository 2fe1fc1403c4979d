package types

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// MetersPerDegreeLat is the spherical approximation used for request framing.
const MetersPerDegreeLat = 111320.0

// GeoPoint is a WGS84 coordinate stored as orb.Point{lon, lat}.
type GeoPoint = orb.Point

// NewGeoPoint builds a GeoPoint from latitude and longitude in degrees.
func NewGeoPoint(lat, lon float64) GeoPoint {
	return orb.Point{lon, lat}
}

// BoundingBox represents a geographic bounding box in WGS84 (EPSG:4326)
type BoundingBox struct {
	MinLon float64 // Western edge (degrees)
	MinLat float64 // Southern edge (degrees)
	MaxLon float64 // Eastern edge (degrees)
	MaxLat float64 // Northern edge (degrees)
}

// RequestBounds derives the framing box for a fetch around (lat, lon).
// The box is always centred exactly on the request coordinate, whatever data
// is later returned for it.
func RequestBounds(lat, lon, radiusMeters float64) BoundingBox {
	latDelta := radiusMeters / MetersPerDegreeLat
	lonDelta := radiusMeters / (MetersPerDegreeLat * math.Cos(lat*math.Pi/180))

	return BoundingBox{
		MinLon: lon - lonDelta,
		MinLat: lat - latDelta,
		MaxLon: lon + lonDelta,
		MaxLat: lat + latDelta,
	}
}

// String returns a human-readable representation of the bounding box
func (b BoundingBox) String() string {
	return fmt.Sprintf("bbox(%.6f,%.6f,%.6f,%.6f)", b.MinLat, b.MinLon, b.MaxLat, b.MaxLon)
}

// Center returns the center point of the bounding box
func (b BoundingBox) Center() (lat, lon float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLon + b.MaxLon) / 2
}

// Width returns the width of the bounding box in degrees
func (b BoundingBox) Width() float64 {
	return b.MaxLon - b.MinLon
}

// Height returns the height of the bounding box in degrees
func (b BoundingBox) Height() float64 {
	return b.MaxLat - b.MinLat
}

// Bound converts the box to an orb.Bound.
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.MinLon, b.MinLat},
		Max: orb.Point{b.MaxLon, b.MaxLat},
	}
}

// Contains reports whether p lies inside the box (edges included).
func (b BoundingBox) Contains(p GeoPoint) bool {
	return b.Bound().Contains(p)
}
