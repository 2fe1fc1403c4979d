// Package geometry holds the planar algorithms of the poster pipeline:
// Douglas–Peucker simplification in degree space and the local
// equirectangular projection onto the poster canvas.
package geometry

import (
	"github.com/paulmach/orb"
)

// DefaultTolerance is roughly 2 m expressed in degrees.
const DefaultTolerance = 0.00002

// Simplify reduces a polyline with the Douglas–Peucker algorithm. Distances
// are measured in raw lon/lat degrees, so tolerance must be given in degrees.
// The first and last points are always kept and inputs of two or fewer points
// are returned unchanged. The input slice is never modified.
//
// The recursion is unrolled onto an explicit stack so very long ways cannot
// exhaust the goroutine stack.
func Simplify(points orb.LineString, tolerance float64) orb.LineString {
	n := len(points)
	if n <= 2 {
		return points
	}

	tol2 := tolerance * tolerance
	keep := make([]bool, n)
	keep[0] = true
	keep[n-1] = true
	kept := 2

	type span struct{ first, last int }
	stack := []span{{0, n - 1}}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if s.last-s.first < 2 {
			continue
		}

		maxDist := 0.0
		index := -1
		for i := s.first + 1; i < s.last; i++ {
			d := perpendicularDist2(points[i], points[s.first], points[s.last])
			if d > maxDist {
				maxDist = d
				index = i
			}
		}

		if index >= 0 && maxDist > tol2 {
			keep[index] = true
			kept++
			stack = append(stack, span{s.first, index}, span{index, s.last})
		}
	}

	out := make(orb.LineString, 0, kept)
	for i, p := range points {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// perpendicularDist2 returns the squared distance from p to the line through
// a and b. When a and b coincide (closed rings) it falls back to the squared
// distance between p and a.
func perpendicularDist2(p, a, b orb.Point) float64 {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	px := p[0] - a[0]
	py := p[1] - a[1]

	len2 := dx*dx + dy*dy
	if len2 == 0 {
		return px*px + py*py
	}

	cross := px*dy - py*dx
	return cross * cross / len2
}
