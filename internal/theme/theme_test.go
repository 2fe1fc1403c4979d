package theme

import (
	"testing"
	"testing/fstest"

	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinThemesValid(t *testing.T) {
	r, err := Builtin()
	require.NoError(t, err)
	require.NotEmpty(t, r.IDs())

	for _, th := range r.All() {
		assert.NoError(t, th.Validate(), th.ID)
		assert.NotEmpty(t, th.Name, th.ID)
	}

	def, err := Get(DefaultName)
	require.NoError(t, err)
	assert.Equal(t, "#000000", def.Background)
}

func TestGetUnknown(t *testing.T) {
	_, err := Get("does-not-exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "noir")
}

func TestRoadColor(t *testing.T) {
	th := &Theme{
		RoadMotorway:    "#000001",
		RoadPrimary:     "#000002",
		RoadSecondary:   "#000003",
		RoadTertiary:    "#000004",
		RoadResidential: "#000005",
		RoadDefault:     "#000006",
	}

	tests := map[string]string{
		"motorway":      "#000001",
		"motorway_link": "#000001",
		"trunk":         "#000002",
		"primary_link":  "#000002",
		"secondary":     "#000003",
		"tertiary_link": "#000004",
		"residential":   "#000005",
		"living_street": "#000005",
		"service":       "#000006",
		"footway":       "#000006",
	}
	for highway, want := range tests {
		assert.Equal(t, want, th.RoadColor(highway), highway)
	}
}

func TestDerivedColors(t *testing.T) {
	th := &Theme{Text: "#000000", Background: "#FFFFFF", RoadSecondary: "#123456"}

	assert.Equal(t, "#123456", th.RailColor())

	muted, err := colorful.Hex(th.BuildingColor())
	require.NoError(t, err)
	l, _, _ := muted.Lab()
	assert.Greater(t, l, 0.4, "muted colour sits closer to the background")
	assert.Less(t, l, 1.0)

	th.Buildings = "#ABCDEF"
	th.Rail = "#FEDCBA"
	assert.Equal(t, "#ABCDEF", th.BuildingColor())
	assert.Equal(t, "#FEDCBA", th.RailColor())
}

func TestParseRejectsBadColour(t *testing.T) {
	_, err := Parse("bad", []byte(`{"name":"Bad","bg":"nope"}`))
	assert.Error(t, err)
}

func TestLoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"t/mono.json": {Data: []byte(`{
			"bg": "#FFFFFF", "text": "#000000", "gradient_color": "#FFFFFF",
			"water": "#EEEEEE", "parks": "#DDDDDD",
			"road_motorway": "#000000", "road_primary": "#111111", "road_secondary": "#222222",
			"road_tertiary": "#333333", "road_residential": "#444444", "road_default": "#555555"
		}`)},
		"t/README.md": {Data: []byte("ignored")},
	}

	r, err := LoadFS(fsys, "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"mono"}, r.IDs())

	th, err := r.Get("mono")
	require.NoError(t, err)
	assert.Equal(t, "mono", th.Name, "name defaults to the ID")
}

func TestNRGBA(t *testing.T) {
	c := NRGBA("#FF8000", 0.5)
	assert.Equal(t, uint8(255), c.R)
	assert.Equal(t, uint8(128), c.G)
	assert.Equal(t, uint8(0), c.B)
	assert.Equal(t, uint8(128), c.A)
}
