package classify

import (
	"github.com/poorfish/maptoposter/internal/datasource"
	"github.com/poorfish/maptoposter/internal/types"
)

// Rule maps matching elements onto a category. Rules are evaluated top-down
// and the first match wins; an element matched by a rule whose MinPoints it
// cannot meet is dropped rather than offered to later rules.
type Rule struct {
	Name      string
	Match     func(e datasource.Element) bool
	Category  func(e datasource.Element) (types.Category, string) // category and subtype
	MinPoints int
}

// DefaultRules returns the classification order: roads, water, parks, rail,
// buildings.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:  "road",
			Match: func(e datasource.Element) bool { return e.Tag("highway") != "" },
			Category: func(e datasource.Element) (types.Category, string) {
				return types.CategoryRoad, e.Tag("highway")
			},
			MinPoints: 2,
		},
		{
			Name:     "water",
			Match:    isWater,
			Category: waterCategory,
			// Relation members arrive as single open ways, so no polygon floor.
			MinPoints: 2,
		},
		{
			Name:  "park",
			Match: isPark,
			Category: func(e datasource.Element) (types.Category, string) {
				if v := e.Tag("leisure"); v == "park" {
					return types.CategoryPark, v
				}
				return types.CategoryPark, e.Tag("landuse")
			},
			MinPoints: 3,
		},
		{
			Name:  "rail",
			Match: func(e datasource.Element) bool { return railTypes[e.Tag("railway")] },
			Category: func(e datasource.Element) (types.Category, string) {
				return types.CategoryRail, e.Tag("railway")
			},
			MinPoints: 2,
		},
		{
			Name:  "building",
			Match: func(e datasource.Element) bool { return e.Tag("building") != "" },
			Category: func(e datasource.Element) (types.Category, string) {
				return types.CategoryBuilding, e.Tag("building")
			},
			MinPoints: 3,
		},
	}
}

var (
	parkLanduse = map[string]bool{"grass": true, "forest": true, "recreation_ground": true}
	railTypes   = map[string]bool{"rail": true, "light_rail": true, "subway": true, "tram": true, "narrow_gauge": true}
)

// isWater matches natural=water, any waterway or water tag, and every
// relation member: relations are only requested for water bodies.
func isWater(e datasource.Element) bool {
	return e.Tag("natural") == "water" ||
		e.Tag("waterway") != "" ||
		e.Tag("water") != "" ||
		e.Type == "relation"
}

func waterCategory(e datasource.Element) (types.Category, string) {
	if e.Tag("natural") == "water" {
		subtype := e.Tag("water")
		if subtype == "" {
			subtype = "water"
		}
		return types.CategoryWaterArea, subtype
	}
	for _, key := range []string{"waterway", "water", "natural", "landuse"} {
		if v := e.Tag(key); v != "" {
			return types.CategoryWaterway, v
		}
	}
	return types.CategoryWaterway, e.Type
}

func isPark(e datasource.Element) bool {
	return e.Tag("leisure") == "park" || parkLanduse[e.Tag("landuse")]
}
