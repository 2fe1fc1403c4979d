package datasource

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/MeKo-Christian/go-overpass"
	"github.com/paulmach/orb"
)

// Element is a raw geodata element as returned by a provider: a typed, tagged
// polyline. Nodes never become elements since they carry no drawable geometry.
type Element struct {
	ID       string
	Type     string // "way" or "relation"
	Tags     map[string]string
	Geometry orb.LineString
}

// Tag returns the value of an OSM tag, or "" when absent.
func (e Element) Tag(key string) string {
	return e.Tags[key]
}

// rawResponse is the Overpass JSON wire shape for "out geom" queries.
type rawResponse struct {
	Elements []rawElement `json:"elements"`
}

type rawElement struct {
	Type     string            `json:"type"`
	ID       int64             `json:"id"`
	Tags     map[string]string `json:"tags"`
	Geometry []overpass.Point  `json:"geometry"`
	Members  []rawMember       `json:"members"`
}

type rawMember struct {
	Type     string           `json:"type"`
	Ref      int64            `json:"ref"`
	Role     string           `json:"role"`
	Geometry []overpass.Point `json:"geometry"`
}

// DecodeOverpassJSON decodes an Overpass API JSON response and normalises it
// into elements. It is used by the browser bridge, where the response is
// fetched by the page and handed to Go as bytes.
func DecodeOverpassJSON(data []byte) ([]Element, error) {
	var raw rawResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal overpass json: %w", err)
	}

	result := &overpass.Result{
		Ways:      make(map[int64]*overpass.Way),
		Relations: make(map[int64]*overpass.Relation),
	}
	way := func(id int64) *overpass.Way {
		w, ok := result.Ways[id]
		if !ok {
			w = &overpass.Way{Meta: overpass.Meta{ID: id}}
			result.Ways[id] = w
		}
		return w
	}

	for _, el := range raw.Elements {
		switch el.Type {
		case "way":
			w := way(el.ID)
			w.Tags = el.Tags
			w.Geometry = el.Geometry
		case "relation":
			rel := &overpass.Relation{Meta: overpass.Meta{ID: el.ID, Tags: el.Tags}}
			for _, m := range el.Members {
				if m.Type != "way" {
					continue
				}
				w := way(m.Ref)
				if len(w.Geometry) == 0 {
					w.Geometry = m.Geometry
				}
				rel.Members = append(rel.Members, overpass.RelationMember{
					Type: "way",
					Way:  w,
					Role: m.Role,
				})
			}
			result.Relations[el.ID] = rel
		}
	}

	return ElementsFromResult(result), nil
}

// ElementsFromResult flattens an Overpass result into elements.
//
// Ways become one element each. A relation becomes one element per member way
// that carries geometry; those elements inherit the relation's tags and are
// typed "relation". Ways that are members of a relation in the same result are
// only emitted through the relation so they are not drawn twice. Output is
// ordered by way ID, then relation ID, then member position.
func ElementsFromResult(result *overpass.Result) []Element {
	if result == nil {
		return nil
	}

	memberWayIDs := make(map[int64]bool)
	for _, rel := range result.Relations {
		if rel == nil {
			continue
		}
		for _, member := range rel.Members {
			if member.Type == "way" && member.Way != nil {
				memberWayIDs[member.Way.ID] = true
			}
		}
	}

	elements := make([]Element, 0, len(result.Ways)+len(result.Relations))

	for _, id := range sortedKeys(result.Ways) {
		way := result.Ways[id]
		if way == nil || memberWayIDs[way.ID] {
			continue
		}
		elements = append(elements, Element{
			ID:       fmt.Sprintf("way/%d", way.ID),
			Type:     "way",
			Tags:     copyTags(way.Tags),
			Geometry: wayGeometry(way),
		})
	}

	for _, id := range sortedKeys(result.Relations) {
		rel := result.Relations[id]
		if rel == nil {
			continue
		}
		n := 0
		for _, member := range rel.Members {
			if member.Type != "way" || member.Way == nil || len(member.Way.Geometry) == 0 {
				continue
			}
			elements = append(elements, Element{
				ID:       fmt.Sprintf("relation/%d/%d", rel.ID, n),
				Type:     "relation",
				Tags:     copyTags(rel.Tags),
				Geometry: wayGeometry(member.Way),
			})
			n++
		}
	}

	return elements
}

func wayGeometry(way *overpass.Way) orb.LineString {
	points := make(orb.LineString, len(way.Geometry))
	for i, p := range way.Geometry {
		points[i] = orb.Point{p.Lon, p.Lat}
	}
	return points
}

func copyTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
