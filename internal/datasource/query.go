package datasource

import (
	"fmt"
	"strconv"
	"strings"
)

// Stage tags a progressive fetch stage. The values double as cache-key tags.
type Stage string

const (
	StageMajor    Stage = "major"
	StageComplete Stage = "complete"
)

const (
	majorHeader      = "[out:json][timeout:25][maxsize:268435456];"
	refinementHeader = "[out:json][timeout:60][maxsize:536870912];"
	aggressiveHeader = "[out:json][timeout:40][maxsize:268435456];"
)

// MajorQuery builds the coarse first-stage query: major roads, water and parks.
func MajorQuery(lat, lon, radius float64) string {
	around := aroundFilter(lat, lon, radius)

	var b strings.Builder
	b.WriteString(majorHeader)
	b.WriteString("\n(\n")
	fmt.Fprintf(&b, "  way[\"highway\"~\"^(motorway|motorway_link|trunk|trunk_link|primary|primary_link)$\"]%s;\n", around)
	fmt.Fprintf(&b, "  way[\"natural\"=\"water\"]%s;\n", around)
	fmt.Fprintf(&b, "  way[\"waterway\"~\"^(river|canal|stream)$\"]%s;\n", around)
	fmt.Fprintf(&b, "  relation[\"natural\"=\"water\"]%s;\n", around)
	fmt.Fprintf(&b, "  way[\"leisure\"=\"park\"]%s;\n", around)
	fmt.Fprintf(&b, "  way[\"landuse\"~\"^(grass|forest|recreation_ground)$\"]%s;\n", around)
	b.WriteString(");\n")
	// Member ways of the relations above, so their geometry is in the result.
	b.WriteString("(._;way(r););\n")
	b.WriteString("out geom;\n")
	return b.String()
}

// RefinementQuery builds the second-stage query. In aggressive mode, used for
// very dense areas, only tertiary/residential roads and mainline rail are
// requested.
func RefinementQuery(lat, lon, radius float64, aggressive bool) string {
	around := aroundFilter(lat, lon, radius)

	var b strings.Builder
	if aggressive {
		b.WriteString(aggressiveHeader)
		b.WriteString("\n(\n")
		fmt.Fprintf(&b, "  way[\"highway\"~\"^(tertiary|residential)$\"]%s;\n", around)
		fmt.Fprintf(&b, "  way[\"railway\"=\"rail\"]%s;\n", around)
		b.WriteString(");\n")
		b.WriteString("out geom;\n")
		return b.String()
	}

	b.WriteString(refinementHeader)
	b.WriteString("\n(\n")
	fmt.Fprintf(&b, "  way[\"highway\"~\"^(secondary|secondary_link|tertiary|tertiary_link|residential|living_street|service|unclassified)$\"]%s;\n", around)
	fmt.Fprintf(&b, "  relation[\"waterway\"]%s;\n", around)
	fmt.Fprintf(&b, "  relation[\"landuse\"~\"^(grass|forest|recreation_ground)$\"]%s;\n", around)
	fmt.Fprintf(&b, "  way[\"railway\"~\"^(rail|light_rail|subway|tram)$\"]%s;\n", around)
	fmt.Fprintf(&b, "  way[\"building\"]%s;\n", around)
	b.WriteString(");\n")
	b.WriteString("(._;way(r););\n")
	b.WriteString("out geom;\n")
	return b.String()
}

func aroundFilter(lat, lon, radius float64) string {
	return fmt.Sprintf("(around:%s,%.6f,%.6f)", strconv.FormatFloat(radius, 'f', -1, 64), lat, lon)
}
