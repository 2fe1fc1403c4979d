package datasource

import (
	"testing"

	"github.com/MeKo-Christian/go-overpass"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementsFromResult_RelationMembersInheritTags(t *testing.T) {
	outer := &overpass.Way{
		Meta: overpass.Meta{ID: 1001, Tags: map[string]string{}},
		Geometry: []overpass.Point{
			{Lat: 52.0, Lon: 9.0},
			{Lat: 52.0, Lon: 9.1},
			{Lat: 52.1, Lon: 9.1},
			{Lat: 52.0, Lon: 9.0},
		},
	}
	inner := &overpass.Way{
		Meta: overpass.Meta{ID: 1002},
		Geometry: []overpass.Point{
			{Lat: 52.04, Lon: 9.04},
			{Lat: 52.04, Lon: 9.06},
			{Lat: 52.06, Lon: 9.06},
			{Lat: 52.04, Lon: 9.04},
		},
	}
	road := &overpass.Way{
		Meta:     overpass.Meta{ID: 5, Tags: map[string]string{"highway": "primary"}},
		Geometry: []overpass.Point{{Lat: 52.0, Lon: 9.0}, {Lat: 52.2, Lon: 9.2}},
	}
	relation := &overpass.Relation{
		Meta: overpass.Meta{ID: 2001, Tags: map[string]string{"type": "multipolygon", "natural": "water"}},
		Members: []overpass.RelationMember{
			{Type: "way", Way: outer, Role: "outer"},
			{Type: "way", Way: inner, Role: "inner"},
			{Type: "node", Role: "label"},
		},
	}

	result := &overpass.Result{
		Ways:      map[int64]*overpass.Way{1001: outer, 1002: inner, 5: road},
		Relations: map[int64]*overpass.Relation{2001: relation},
	}

	elements := ElementsFromResult(result)
	require.Len(t, elements, 3, "member ways are emitted once, through the relation")

	assert.Equal(t, "way/5", elements[0].ID)
	assert.Equal(t, "way", elements[0].Type)
	assert.Equal(t, orb.LineString{{9.0, 52.0}, {9.2, 52.2}}, elements[0].Geometry)

	assert.Equal(t, "relation/2001/0", elements[1].ID)
	assert.Equal(t, "relation", elements[1].Type)
	assert.Equal(t, "water", elements[1].Tag("natural"))
	assert.Len(t, elements[1].Geometry, 4)

	assert.Equal(t, "relation/2001/1", elements[2].ID)
	assert.Equal(t, "water", elements[2].Tag("natural"))
}

func TestElementsFromResult_Deterministic(t *testing.T) {
	ways := map[int64]*overpass.Way{}
	for _, id := range []int64{42, 7, 99, 3} {
		ways[id] = &overpass.Way{
			Meta:     overpass.Meta{ID: id, Tags: map[string]string{"highway": "residential"}},
			Geometry: []overpass.Point{{Lat: 1, Lon: 1}, {Lat: 2, Lon: 2}},
		}
	}
	result := &overpass.Result{Ways: ways}

	first := ElementsFromResult(result)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ElementsFromResult(result))
	}
	assert.Equal(t, "way/3", first[0].ID)
	assert.Equal(t, "way/99", first[3].ID)
}

func TestElementsFromResult_TagsAreCopied(t *testing.T) {
	tags := map[string]string{"highway": "service"}
	result := &overpass.Result{Ways: map[int64]*overpass.Way{
		1: {Meta: overpass.Meta{ID: 1, Tags: tags}, Geometry: []overpass.Point{{Lat: 1, Lon: 1}}},
	}}

	elements := ElementsFromResult(result)
	require.Len(t, elements, 1)
	elements[0].Tags["highway"] = "motorway"
	assert.Equal(t, "service", tags["highway"])
}

func TestElementsFromResult_Nil(t *testing.T) {
	assert.Nil(t, ElementsFromResult(nil))
}

func TestDecodeOverpassJSON(t *testing.T) {
	data := []byte(`{
	  "version": 0.6,
	  "elements": [
	    {"type": "node", "id": 1, "lat": 52.0, "lon": 9.0},
	    {"type": "way", "id": 20, "tags": {"highway": "residential"},
	     "geometry": [{"lat": 52.0, "lon": 9.0}, {"lat": 52.1, "lon": 9.1}]},
	    {"type": "relation", "id": 30, "tags": {"waterway": "river"},
	     "members": [
	       {"type": "way", "ref": 31, "role": "main_stream",
	        "geometry": [{"lat": 52.2, "lon": 9.2}, {"lat": 52.3, "lon": 9.3}, {"lat": 52.4, "lon": 9.3}]},
	       {"type": "node", "ref": 2, "role": "spring"}
	     ]}
	  ]
	}`)

	elements, err := DecodeOverpassJSON(data)
	require.NoError(t, err)
	require.Len(t, elements, 2)

	assert.Equal(t, "way/20", elements[0].ID)
	assert.Equal(t, "residential", elements[0].Tag("highway"))
	assert.Equal(t, orb.LineString{{9.0, 52.0}, {9.1, 52.1}}, elements[0].Geometry)

	assert.Equal(t, "relation/30/0", elements[1].ID)
	assert.Equal(t, "relation", elements[1].Type)
	assert.Equal(t, "river", elements[1].Tag("waterway"))
	assert.Len(t, elements[1].Geometry, 3)

	_, err = DecodeOverpassJSON([]byte("<html>busy</html>"))
	assert.Error(t, err)
}
