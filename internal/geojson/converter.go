package geojson

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/poorfish/maptoposter/internal/types"
)

// LayerType names a group of classified features.
type LayerType string

const (
	LayerRoads     LayerType = "roads"
	LayerHighways  LayerType = "highways"
	LayerWater     LayerType = "water"
	LayerParks     LayerType = "parks"
	LayerRails     LayerType = "rails"
	LayerBuildings LayerType = "buildings"
)

// AllLayers lists the layers exported by ToGeoJSON, bottom to top.
var AllLayers = []LayerType{LayerBuildings, LayerParks, LayerWater, LayerRails, LayerRoads}

// geometryOf returns a Polygon for closed area features and a LineString
// otherwise.
func geometryOf(f types.Feature) orb.Geometry {
	switch f.Category {
	case types.CategoryWaterArea, types.CategoryPark, types.CategoryBuilding:
		if f.Closed() {
			return orb.Polygon{orb.Ring(f.Geometry)}
		}
	}
	return f.Geometry
}

// ToGeoJSON converts features to a GeoJSON FeatureCollection
func ToGeoJSON(features []types.Feature) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()

	for _, f := range features {
		if len(f.Geometry) < 2 {
			continue
		}

		geoFeature := geojson.NewFeature(geometryOf(f))
		if geoFeature.Properties == nil {
			geoFeature.Properties = make(map[string]interface{})
		}

		// Source tags first so the classification cannot be overwritten.
		for key, value := range f.Tags {
			geoFeature.Properties[key] = value
		}

		geoFeature.Properties["osm_id"] = f.ID
		geoFeature.Properties["category"] = string(f.Category)
		if f.Subtype != "" {
			geoFeature.Properties["subtype"] = f.Subtype
		}

		fc.Append(geoFeature)
	}

	return fc, nil
}

// CollectionToGeoJSON converts every layer of fc into one FeatureCollection.
func CollectionToGeoJSON(fc *types.FeatureCollection) (*geojson.FeatureCollection, error) {
	var all []types.Feature
	if fc != nil {
		for _, layer := range AllLayers {
			all = append(all, GetLayerFeatures(*fc, layer)...)
		}
	}
	return ToGeoJSON(all)
}

// ToGeoJSONBytes converts every layer of collection to indented GeoJSON.
func ToGeoJSONBytes(collection *types.FeatureCollection) ([]byte, error) {
	fc, err := CollectionToGeoJSON(collection)
	if err != nil {
		return nil, fmt.Errorf("failed to convert to GeoJSON: %w", err)
	}

	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}

	return data, nil
}

// GetLayerFeatures returns features for a specific layer from FeatureCollection
func GetLayerFeatures(fc types.FeatureCollection, layer LayerType) []types.Feature {
	switch layer {
	case LayerWater:
		return fc.Water
	case LayerParks:
		return fc.Parks
	case LayerRails:
		return fc.Rails
	case LayerBuildings:
		return fc.Buildings
	case LayerRoads:
		return fc.Roads
	case LayerHighways:
		// Major roads are a view over the roads collection, the same set the
		// first fetch stage asks for.
		out := make([]types.Feature, 0, len(fc.Roads))
		for _, f := range fc.Roads {
			switch f.Subtype {
			case "motorway", "motorway_link", "trunk", "trunk_link", "primary", "primary_link":
				out = append(out, f)
			}
		}
		return out
	default:
		return nil
	}
}

// LayerCount returns the number of features in a layer
func LayerCount(fc types.FeatureCollection, layer LayerType) int {
	return len(GetLayerFeatures(fc, layer))
}

// LayerSummary returns a summary of features per layer
func LayerSummary(fc types.FeatureCollection) string {
	return fmt.Sprintf("Roads: %d (major %d), Water: %d, Parks: %d, Rails: %d, Buildings: %d (Total: %d)",
		len(fc.Roads), LayerCount(fc, LayerHighways), len(fc.Water), len(fc.Parks), len(fc.Rails), len(fc.Buildings), fc.Count())
}
