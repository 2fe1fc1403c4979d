package types

import (
	"github.com/paulmach/orb"
)

// Category is the classified kind of a geographic feature.
type Category string

const (
	CategoryRoad      Category = "road"
	CategoryWaterArea Category = "water-area"
	CategoryWaterway  Category = "waterway"
	CategoryPark      Category = "park"
	CategoryRail      Category = "rail"
	CategoryBuilding  Category = "building"
)

// IsWater reports whether the category belongs in the water collection.
func (c Category) IsWater() bool {
	return c == CategoryWaterArea || c == CategoryWaterway
}

// Feature represents a classified geographic feature extracted from OSM.
// Geometry holds at least two points; simplification rewrites it in place.
type Feature struct {
	ID       string            // Source element ID (e.g., "way/12345")
	Category Category          // Feature category
	Subtype  string            // Category-specific class, e.g. the highway value
	Geometry orb.LineString    // Ordered points, lon/lat
	Tags     map[string]string // Source OSM tags
}

// Name returns the feature's name tag, if any.
func (f Feature) Name() string {
	return f.Tags["name"]
}

// Closed reports whether the first and last points coincide.
func (f Feature) Closed() bool {
	n := len(f.Geometry)
	return n > 2 && f.Geometry[0] == f.Geometry[n-1]
}

// FeatureCollection groups classified features by category.
type FeatureCollection struct {
	Roads     []Feature // Streets, highways
	Water     []Feature // Lakes, ponds (water-area) and rivers, canals (waterway)
	Parks     []Feature // Parks, forests, green spaces
	Rails     []Feature // Railway lines
	Buildings []Feature // Building footprints
}

// Count returns the total number of features
func (fc *FeatureCollection) Count() int {
	if fc == nil {
		return 0
	}
	return len(fc.Roads) + len(fc.Water) + len(fc.Parks) + len(fc.Rails) + len(fc.Buildings)
}

// FeatureCounts returns a map of feature counts by type
func (fc *FeatureCollection) FeatureCounts() map[string]int {
	if fc == nil {
		fc = &FeatureCollection{}
	}
	return map[string]int{
		"roads":     len(fc.Roads),
		"water":     len(fc.Water),
		"parks":     len(fc.Parks),
		"rails":     len(fc.Rails),
		"buildings": len(fc.Buildings),
		"total":     fc.Count(),
	}
}

// Clone returns a copy whose slices can be appended to without touching the
// receiver. Feature geometries are shared.
func (fc *FeatureCollection) Clone() *FeatureCollection {
	if fc == nil {
		return &FeatureCollection{}
	}
	return &FeatureCollection{
		Roads:     append([]Feature(nil), fc.Roads...),
		Water:     append([]Feature(nil), fc.Water...),
		Parks:     append([]Feature(nil), fc.Parks...),
		Rails:     append([]Feature(nil), fc.Rails...),
		Buildings: append([]Feature(nil), fc.Buildings...),
	}
}
