package renderer

// Road importance, higher draws later (on top).
var roadImportance = map[string]int{
	"motorway":       10,
	"motorway_link":  10,
	"trunk":          9,
	"trunk_link":     9,
	"primary":        8,
	"primary_link":   8,
	"secondary":      7,
	"secondary_link": 7,
	"tertiary":       6,
	"tertiary_link":  6,
	"residential":    5,
	"living_street":  5,
	"service":        1,
	"unclassified":   1,
}

const defaultRoadImportance = 2

// RoadImportance ranks a highway subtype.
func RoadImportance(highway string) int {
	if v, ok := roadImportance[highway]; ok {
		return v
	}
	return defaultRoadImportance
}

// Road stroke widths in poster units, independent of theme.
var roadWidths = map[string]float64{
	"motorway":       2.2,
	"motorway_link":  1.6,
	"trunk":          2.0,
	"trunk_link":     1.4,
	"primary":        1.8,
	"primary_link":   1.2,
	"secondary":      1.4,
	"secondary_link": 1.0,
	"tertiary":       1.1,
	"tertiary_link":  0.9,
	"residential":    0.8,
	"living_street":  0.7,
	"unclassified":   0.7,
	"service":        0.5,
	"pedestrian":     0.5,
	"track":          0.4,
	"footway":        0.3,
	"path":           0.3,
	"cycleway":       0.3,
	"steps":          0.3,
}

const defaultRoadWidth = 0.6

// RoadWidth returns the stroke width for a highway subtype.
func RoadWidth(highway string) float64 {
	if w, ok := roadWidths[highway]; ok {
		return w
	}
	return defaultRoadWidth
}

var waterwayWidths = map[string]float64{
	"river":  1.6,
	"canal":  1.4,
	"stream": 0.8,
}

const defaultWaterwayWidth = 1.0

// WaterwayWidth returns the stroke width for a linear waterway subtype.
func WaterwayWidth(subtype string) float64 {
	if w, ok := waterwayWidths[subtype]; ok {
		return w
	}
	return defaultWaterwayWidth
}

const (
	// BuildingOpacity keeps buildings visually subordinate.
	BuildingOpacity = 0.15
	RailWidth       = 0.8
)

// RailDash is the on/off pattern of rail strokes.
var RailDash = []float64{4, 3}
