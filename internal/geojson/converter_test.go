package geojson

import (
	"encoding/json"
	"testing"

	"github.com/paulmach/orb"

	"github.com/poorfish/maptoposter/internal/types"
)

func TestToGeoJSON(t *testing.T) {
	features := []types.Feature{
		{
			ID:       "way/12345",
			Category: types.CategoryWaterArea,
			Subtype:  "lake",
			Geometry: orb.LineString{{9.73, 52.37}, {9.74, 52.37}, {9.74, 52.38}, {9.73, 52.38}, {9.73, 52.37}},
			Tags:     map[string]string{"natural": "water", "water": "lake", "name": "Test Lake"},
		},
		{
			ID:       "way/67890",
			Category: types.CategoryRoad,
			Subtype:  "primary",
			Geometry: orb.LineString{{9.73, 52.37}, {9.74, 52.37}, {9.75, 52.38}},
			Tags:     map[string]string{"highway": "primary", "name": "Main Street"},
		},
		{
			ID:       "way/1",
			Category: types.CategoryRoad,
			Geometry: orb.LineString{{9.73, 52.37}},
		},
	}

	fc, err := ToGeoJSON(features)
	if err != nil {
		t.Fatalf("ToGeoJSON failed: %v", err)
	}

	if len(fc.Features) != 2 {
		t.Fatalf("Expected 2 GeoJSON features, got %d", len(fc.Features))
	}

	lake := fc.Features[0]
	if lake.Geometry.GeoJSONType() != "Polygon" {
		t.Errorf("Expected Polygon, got %s", lake.Geometry.GeoJSONType())
	}
	if lake.Properties["natural"] != "water" {
		t.Errorf("Expected natural=water property")
	}
	if lake.Properties["osm_id"] != "way/12345" {
		t.Errorf("Expected osm_id=way/12345")
	}
	if lake.Properties["category"] != "water-area" {
		t.Errorf("Expected category=water-area, got %v", lake.Properties["category"])
	}
	if lake.Properties["subtype"] != "lake" {
		t.Errorf("Expected subtype=lake, got %v", lake.Properties["subtype"])
	}

	road := fc.Features[1]
	if road.Geometry.GeoJSONType() != "LineString" {
		t.Errorf("Expected LineString, got %s", road.Geometry.GeoJSONType())
	}
	if road.Properties["name"] != "Main Street" {
		t.Errorf("Expected name=Main Street")
	}
}

func TestOpenAreaStaysLineString(t *testing.T) {
	features := []types.Feature{{
		ID:       "way/5",
		Category: types.CategoryPark,
		Geometry: orb.LineString{{0, 0}, {1, 0}, {1, 1}},
	}}

	fc, err := ToGeoJSON(features)
	if err != nil {
		t.Fatalf("ToGeoJSON failed: %v", err)
	}
	if got := fc.Features[0].Geometry.GeoJSONType(); got != "LineString" {
		t.Errorf("Expected LineString for unclosed park, got %s", got)
	}
}

func TestToGeoJSONBytes(t *testing.T) {
	collection := &types.FeatureCollection{
		Water: []types.Feature{{
			ID:       "way/123",
			Category: types.CategoryWaterway,
			Subtype:  "river",
			Geometry: orb.LineString{{9.73, 52.37}, {9.74, 52.38}},
			Tags:     map[string]string{"waterway": "river"},
		}},
	}

	data, err := ToGeoJSONBytes(collection)
	if err != nil {
		t.Fatalf("ToGeoJSONBytes failed: %v", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if result["type"] != "FeatureCollection" {
		t.Errorf("Expected FeatureCollection type")
	}
	if n := len(result["features"].([]interface{})); n != 1 {
		t.Errorf("Expected 1 feature, got %d", n)
	}
}

func TestGetLayerFeatures(t *testing.T) {
	fc := types.FeatureCollection{
		Water: []types.Feature{
			{ID: "water1", Category: types.CategoryWaterArea},
			{ID: "water2", Category: types.CategoryWaterway},
		},
		Parks: []types.Feature{
			{ID: "park1", Category: types.CategoryPark},
		},
		Rails: []types.Feature{
			{ID: "rail1", Category: types.CategoryRail},
		},
		Buildings: []types.Feature{
			{ID: "building1", Category: types.CategoryBuilding},
			{ID: "building2", Category: types.CategoryBuilding},
		},
		Roads: []types.Feature{
			{ID: "road1", Category: types.CategoryRoad, Subtype: "motorway"},
			{ID: "road2", Category: types.CategoryRoad, Subtype: "residential"},
			{ID: "road3", Category: types.CategoryRoad, Subtype: "primary_link"},
		},
	}

	tests := []struct {
		layer LayerType
		want  int
	}{
		{LayerWater, 2},
		{LayerParks, 1},
		{LayerRails, 1},
		{LayerBuildings, 2},
		{LayerRoads, 3},
		{LayerHighways, 2},
		{LayerType("unknown"), 0},
	}
	for _, tt := range tests {
		if got := LayerCount(fc, tt.layer); got != tt.want {
			t.Errorf("LayerCount(%s) = %d, want %d", tt.layer, got, tt.want)
		}
	}
}

func TestCollectionToGeoJSON(t *testing.T) {
	line := orb.LineString{{0, 0}, {1, 1}}
	fc := &types.FeatureCollection{
		Roads:     []types.Feature{{ID: "road", Category: types.CategoryRoad, Geometry: line}},
		Buildings: []types.Feature{{ID: "building", Category: types.CategoryBuilding, Geometry: line}},
	}

	out, err := CollectionToGeoJSON(fc)
	if err != nil {
		t.Fatalf("CollectionToGeoJSON failed: %v", err)
	}
	if len(out.Features) != 2 {
		t.Fatalf("Expected 2 features, got %d", len(out.Features))
	}
	// Bottom layer first.
	if out.Features[0].Properties["osm_id"] != "building" {
		t.Errorf("Expected buildings before roads, got %v", out.Features[0].Properties["osm_id"])
	}

	empty, err := CollectionToGeoJSON(nil)
	if err != nil || len(empty.Features) != 0 {
		t.Errorf("Expected empty collection for nil input, got %v / %v", empty, err)
	}
}

func TestLayerSummary(t *testing.T) {
	fc := types.FeatureCollection{
		Water:     make([]types.Feature, 5),
		Parks:     make([]types.Feature, 3),
		Buildings: make([]types.Feature, 10),
		Rails:     make([]types.Feature, 2),
		Roads:     make([]types.Feature, 7),
	}

	summary := LayerSummary(fc)
	want := "Roads: 7 (major 0), Water: 5, Parks: 3, Rails: 2, Buildings: 10 (Total: 27)"
	if summary != want {
		t.Errorf("LayerSummary = %q, want %q", summary, want)
	}
}
