package poster

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/poorfish/maptoposter/internal/theme"
	"github.com/poorfish/maptoposter/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noir(t *testing.T) *theme.Theme {
	t.Helper()
	th, err := theme.Get("noir")
	require.NoError(t, err)
	return th
}

func TestAspectDimensions(t *testing.T) {
	tests := []struct {
		aspect      string
		orientation types.Orientation
		w, h        float64
	}{
		{"3:4", types.Portrait, 600, 800},
		{"3:4", types.Landscape, 800, 600},
		{"1:1", types.Portrait, 600, 600},
		{"9:16", types.Portrait, 600, 600 * 16.0 / 9},
		{"a", types.Portrait, 600, 600 * math.Sqrt2},
	}

	for _, tt := range tests {
		a, err := ParseAspect(tt.aspect)
		require.NoError(t, err)
		w, h := a.Dimensions(600, tt.orientation)
		assert.InDelta(t, tt.w, w, 1e-9, tt.aspect)
		assert.InDelta(t, tt.h, h, 1e-9, tt.aspect)
	}

	_, err := ParseAspect("16:10")
	assert.Error(t, err)
}

func TestRenderSpecValidate(t *testing.T) {
	th := noir(t)

	valid := RenderSpec{Width: 600, Height: 800, Theme: th, FontFamily: "Roboto", Orientation: types.Portrait}
	assert.NoError(t, valid.Validate())

	tests := map[string]func(s *RenderSpec){
		"zero width":         func(s *RenderSpec) { s.Width = 0 },
		"negative height":    func(s *RenderSpec) { s.Height = -1 },
		"nil theme":          func(s *RenderSpec) { s.Theme = nil },
		"no font":            func(s *RenderSpec) { s.FontFamily = " " },
		"orientation clash":  func(s *RenderSpec) { s.Orientation = types.Landscape },
		"unknown orientaton": func(s *RenderSpec) { s.Orientation = "diagonal" },
	}
	for name, mutate := range tests {
		s := valid
		mutate(&s)
		assert.Error(t, s.Validate(), name)
	}
}

func TestNewRenderSpec(t *testing.T) {
	spec, err := NewRenderSpec("A", types.Landscape, 500, noir(t), "Playfair Display")
	require.NoError(t, err)
	assert.InDelta(t, 500*math.Sqrt2, spec.Width, 1e-9)
	assert.Equal(t, 500.0, spec.Height)
	assert.Equal(t, "A", spec.AspectRatio)
}

func TestCompose(t *testing.T) {
	spec, err := NewRenderSpec("3:4", types.Portrait, DefaultShortSide, noir(t), "Roboto")
	require.NoError(t, err)

	bounds := types.RequestBounds(51.505, -0.09, 5000)
	fc := &types.FeatureCollection{
		Roads: []types.Feature{{
			ID: "way/1", Category: types.CategoryRoad, Subtype: "primary",
			Geometry: orb.LineString{{-0.1, 51.5}, {-0.08, 51.51}},
		}},
	}
	loc := Location{City: "London", Country: "United Kingdom", Center: types.NewGeoPoint(51.505, -0.09)}

	p, err := Compose(spec, loc, bounds, fc, "complete")
	require.NoError(t, err)

	assert.Equal(t, 1, p.Layers.Count())
	assert.Equal(t, "#000000", p.Background())
	require.Len(t, p.Fades, 2)
	assert.Equal(t, 200.0, p.Fades[0].Height)
	assert.Equal(t, 600.0, p.Fades[1].Y)
	assert.Equal(t, 1.0, p.Fades[0].FromOpacity)
	assert.Equal(t, 1.0, p.Fades[1].ToOpacity)
	assert.Equal(t, []string{"LONDON"}, []string{p.Label.CityLines[0].Text})
	assert.Equal(t, "complete", p.Stage)
}

func TestComposeRejectsInvalidSpec(t *testing.T) {
	_, err := Compose(RenderSpec{}, Location{}, types.RequestBounds(0, 0, 1000), nil, "complete")
	assert.Error(t, err)
}
