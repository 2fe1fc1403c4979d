// Package classify turns raw provider elements into categorised, simplified
// features.
package classify

import (
	"log/slog"

	"github.com/poorfish/maptoposter/internal/datasource"
	"github.com/poorfish/maptoposter/internal/geometry"
	"github.com/poorfish/maptoposter/internal/types"
)

// Config configures a Classifier.
type Config struct {
	// Tolerance is the simplification tolerance in degrees.
	Tolerance float64
	// DensityThreshold is the raw element count above which minor roads are
	// dropped.
	DensityThreshold int
	// MinorRoads are the highway values dropped in dense areas.
	MinorRoads []string
	// Rules overrides DefaultRules when non-empty.
	Rules  []Rule
	Logger *slog.Logger
}

// DefaultConfig returns the default classification profile.
func DefaultConfig() Config {
	return Config{
		Tolerance:        geometry.DefaultTolerance,
		DensityThreshold: 5000,
		MinorRoads:       []string{"service", "unclassified"},
		Rules:            DefaultRules(),
		Logger:           slog.Default(),
	}
}

// Stats summarises one Classify call.
type Stats struct {
	Input     int
	Retained  int
	Dropped   int  // unmatched, too few points, or removed by the density guard
	Degraded  bool // density guard was applied
	MinorDrop int  // roads removed by the density guard
}

// Classifier partitions elements into a FeatureCollection.
type Classifier struct {
	config     Config
	minorRoads map[string]bool
	logger     *slog.Logger
}

// New creates a classifier, filling unset config fields with defaults.
func New(config Config) *Classifier {
	defaults := DefaultConfig()
	if config.Tolerance < 0 {
		config.Tolerance = defaults.Tolerance
	}
	if config.DensityThreshold <= 0 {
		config.DensityThreshold = defaults.DensityThreshold
	}
	if config.MinorRoads == nil {
		config.MinorRoads = defaults.MinorRoads
	}
	if len(config.Rules) == 0 {
		config.Rules = defaults.Rules
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	minor := make(map[string]bool, len(config.MinorRoads))
	for _, r := range config.MinorRoads {
		minor[r] = true
	}

	return &Classifier{
		config:     config,
		minorRoads: minor,
		logger:     config.Logger,
	}
}

// Classify applies the ordered rules to elements. Elements with fewer than two
// points are dropped unconditionally. When the input exceeds the density
// threshold, minor road classes are dropped entirely; this is reported through
// Stats and a warning log record, not as an error. Every retained feature's
// geometry is simplified.
func (c *Classifier) Classify(elements []datasource.Element) (*types.FeatureCollection, Stats) {
	fc := &types.FeatureCollection{}
	stats := Stats{Input: len(elements)}
	dense := len(elements) > c.config.DensityThreshold

	for _, e := range elements {
		f, ok := c.classifyElement(e)
		if !ok {
			stats.Dropped++
			continue
		}

		if dense && f.Category == types.CategoryRoad && c.minorRoads[f.Subtype] {
			stats.Dropped++
			stats.MinorDrop++
			continue
		}

		f.Geometry = geometry.Simplify(f.Geometry, c.config.Tolerance)
		appendFeature(fc, f)
		stats.Retained++
	}

	if dense {
		stats.Degraded = true
		c.logger.Warn("Dense area: dropping minor roads",
			"element_count", len(elements),
			"threshold", c.config.DensityThreshold,
			"dropped_roads", stats.MinorDrop)
	}

	c.logger.Debug("Classified elements",
		"element_count", stats.Input,
		"retained", stats.Retained,
		"dropped", stats.Dropped)

	return fc, stats
}

func (c *Classifier) classifyElement(e datasource.Element) (types.Feature, bool) {
	if len(e.Geometry) < 2 {
		return types.Feature{}, false
	}

	for _, rule := range c.config.Rules {
		if !rule.Match(e) {
			continue
		}
		if len(e.Geometry) < rule.MinPoints {
			return types.Feature{}, false
		}
		category, subtype := rule.Category(e)
		return types.Feature{
			ID:       e.ID,
			Category: category,
			Subtype:  subtype,
			Geometry: e.Geometry,
			Tags:     e.Tags,
		}, true
	}
	return types.Feature{}, false
}

func appendFeature(fc *types.FeatureCollection, f types.Feature) {
	switch {
	case f.Category == types.CategoryRoad:
		fc.Roads = append(fc.Roads, f)
	case f.Category.IsWater():
		fc.Water = append(fc.Water, f)
	case f.Category == types.CategoryPark:
		fc.Parks = append(fc.Parks, f)
	case f.Category == types.CategoryRail:
		fc.Rails = append(fc.Rails, f)
	case f.Category == types.CategoryBuilding:
		fc.Buildings = append(fc.Buildings, f)
	}
}

// Classify runs the default classifier over elements.
func Classify(elements []datasource.Element) *types.FeatureCollection {
	fc, _ := New(DefaultConfig()).Classify(elements)
	return fc
}
