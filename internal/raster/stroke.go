package raster

import (
	"math"

	"github.com/poorfish/maptoposter/internal/geometry"
	"golang.org/x/image/vector"
)

// roundSegments is the number of edges used to approximate round joins and
// caps.
const roundSegments = 12

// addPolygon adds a closed ring to the rasterizer. Rings are emitted with the
// stroke winding so overlapping shapes in one pass do not cancel.
func addPolygon(ras *vector.Rasterizer, pts []geometry.Point, scale float64) {
	if len(pts) < 3 {
		return
	}
	at := func(i int) geometry.Point { return pts[i] }
	if signedArea(pts) > 0 {
		at = func(i int) geometry.Point { return pts[len(pts)-1-i] }
	}
	first := at(0)
	ras.MoveTo(float32(first.X*scale), float32(first.Y*scale))
	for i := 1; i < len(pts); i++ {
		p := at(i)
		ras.LineTo(float32(p.X*scale), float32(p.Y*scale))
	}
	ras.ClosePath()
}

// signedArea is the shoelace sum of a ring, doubled.
func signedArea(pts []geometry.Point) float64 {
	var sum float64
	for i := range pts {
		a, b := pts[i], pts[(i+1)%len(pts)]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum
}

// addStroke adds the outline of a polyline stroked at width. Every segment
// becomes a quad and every vertex a disc (round joins and caps). All shapes
// share one winding direction so overlaps do not cancel in the accumulator.
func addStroke(ras *vector.Rasterizer, pts []geometry.Point, width, scale float64) {
	if len(pts) < 2 || width <= 0 {
		return
	}
	r := width * scale / 2

	for i := 0; i+1 < len(pts); i++ {
		x0, y0 := pts[i].X*scale, pts[i].Y*scale
		x1, y1 := pts[i+1].X*scale, pts[i+1].Y*scale

		dx, dy := x1-x0, y1-y0
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*r, dx/l*r

		ras.MoveTo(float32(x0+nx), float32(y0+ny))
		ras.LineTo(float32(x1+nx), float32(y1+ny))
		ras.LineTo(float32(x1-nx), float32(y1-ny))
		ras.LineTo(float32(x0-nx), float32(y0-ny))
		ras.ClosePath()
	}

	for _, p := range pts {
		addDisc(ras, p.X*scale, p.Y*scale, r)
	}
}

// addDisc adds a polygonal disc with the same winding as stroke quads.
func addDisc(ras *vector.Rasterizer, cx, cy, r float64) {
	ras.MoveTo(float32(cx+r), float32(cy))
	for i := 1; i < roundSegments; i++ {
		a := -2 * math.Pi * float64(i) / roundSegments
		ras.LineTo(float32(cx+r*math.Cos(a)), float32(cy+r*math.Sin(a)))
	}
	ras.ClosePath()
}

// dashes splits a polyline into the "on" runs of an on/off pattern. The
// pattern is in the same units as the points.
func dashes(pts []geometry.Point, pattern []float64) [][]geometry.Point {
	total := 0.0
	for _, v := range pattern {
		total += v
	}
	if len(pts) < 2 || len(pattern) == 0 || total <= 0 {
		return [][]geometry.Point{pts}
	}

	var (
		out     [][]geometry.Point
		current = []geometry.Point{pts[0]}
		idx     int
		left    = pattern[0]
		on      = true
	)

	for i := 0; i+1 < len(pts); i++ {
		a, b := pts[i], pts[i+1]
		segLen := math.Hypot(b.X-a.X, b.Y-a.Y)
		pos := 0.0

		for segLen-pos > left {
			pos += left
			t := pos / segLen
			p := geometry.Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
			if on {
				current = append(current, p)
				out = append(out, current)
				current = nil
			} else {
				current = []geometry.Point{p}
			}
			on = !on
			idx = (idx + 1) % len(pattern)
			left = pattern[idx]
		}

		left -= segLen - pos
		if on {
			current = append(current, b)
		}
	}

	if on && len(current) >= 2 {
		out = append(out, current)
	}
	return out
}
