package geometry

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/poorfish/maptoposter/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_CenterMapsToCanvasCenter(t *testing.T) {
	tests := []struct {
		name          string
		lat, lon      float64
		radius        float64
		width, height float64
	}{
		{"london portrait", 51.505, -0.09, 5000, 400, 800},
		{"tokyo landscape", 35.6762, 139.6503, 12000, 900, 600},
		{"quito square", -0.1807, -78.4678, 3000, 500, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bounds := types.RequestBounds(tt.lat, tt.lon, tt.radius)
			pts, err := Project(orb.LineString{types.NewGeoPoint(tt.lat, tt.lon)}, bounds, tt.width, tt.height)
			require.NoError(t, err)
			require.Len(t, pts, 1)
			assert.InDelta(t, tt.width/2, pts[0].X, 1e-9)
			assert.InDelta(t, tt.height/2, pts[0].Y, 1e-9)
		})
	}
}

func TestProject_ScalesProportionallyWithWidth(t *testing.T) {
	bounds := types.RequestBounds(51.505, -0.09, 5000)
	ls := orb.LineString{
		{-0.12, 51.49},
		{-0.05, 51.52},
		{-0.10, 51.54},
	}

	small, err := Project(ls, bounds, 400, 600)
	require.NoError(t, err)
	large, err := Project(ls, bounds, 800, 600)
	require.NoError(t, err)

	for i := range ls {
		assert.InDelta(t, 2*(small[i].X-200), large[i].X-400, 1e-9)
	}
}

func TestProject_Orientation(t *testing.T) {
	bounds := types.RequestBounds(40, 10, 5000)
	p, err := NewProjector(bounds, 400, 400)
	require.NoError(t, err)

	ne := p.Point(orb.Point{10.01, 40.01})
	assert.Greater(t, ne.X, 200.0, "east is right")
	assert.Less(t, ne.Y, 200.0, "north is up")

	// Bounds edges land on the canvas edges horizontally.
	west := p.Point(orb.Point{bounds.MinLon, 40})
	east := p.Point(orb.Point{bounds.MaxLon, 40})
	assert.InDelta(t, 0, west.X, 1e-9)
	assert.InDelta(t, 400, east.X, 1e-9)
}

func TestProject_Degenerate(t *testing.T) {
	bounds := types.RequestBounds(40, 10, 5000)

	_, err := NewProjector(bounds, 0, 100)
	assert.ErrorIs(t, err, ErrDegenerateProjection)

	_, err = NewProjector(types.BoundingBox{MinLon: 1, MaxLon: 1, MinLat: 1, MaxLat: 2}, 100, 100)
	assert.ErrorIs(t, err, ErrDegenerateProjection)
}
