package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimplify_ShortInputsUnchanged(t *testing.T) {
	for _, ls := range []orb.LineString{
		nil,
		{{9.7, 52.3}},
		{{9.7, 52.3}, {9.8, 52.4}},
	} {
		got := Simplify(ls, DefaultTolerance)
		assert.Equal(t, ls, got)
	}
}

func TestSimplify_CollinearCollapsesToEndpoints(t *testing.T) {
	for _, n := range []int{3, 10, 1000} {
		ls := make(orb.LineString, n)
		for i := range ls {
			f := float64(i)
			ls[i] = orb.Point{-0.1 + f*0.001, 51.5 + f*0.0005}
		}

		got := Simplify(ls, DefaultTolerance)
		require.Len(t, got, 2, "n=%d", n)
		assert.Equal(t, ls[0], got[0])
		assert.Equal(t, ls[n-1], got[1])
	}
}

func TestSimplify_KeepsSignificantVertex(t *testing.T) {
	ls := orb.LineString{
		{0, 0},
		{0.5, 0.500001}, // well inside tolerance
		{1, 1},          // corner
		{1.5, 0.999999},
		{2, 1},
	}

	got := Simplify(ls, 0.001)
	assert.Equal(t, orb.LineString{{0, 0}, {1, 1}, {2, 1}}, got)
}

func TestSimplify_DoesNotMutateInput(t *testing.T) {
	ls := orb.LineString{{0, 0}, {1, 0.5}, {2, 0}, {3, 0.5}}
	orig := append(orb.LineString(nil), ls...)

	_ = Simplify(ls, 0.1)
	assert.Equal(t, orig, ls)
}

func TestSimplify_ClosedRing(t *testing.T) {
	ring := orb.LineString{{0, 0}, {0.01, 0}, {0.01, 0.01}, {0, 0.01}, {0, 0}}

	got := Simplify(ring, DefaultTolerance)
	assert.Equal(t, ring, got, "square corners are far outside tolerance")
}

func TestSimplify_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 50; trial++ {
		n := 3 + rng.Intn(400)
		ls := make(orb.LineString, n)
		for i := range ls {
			ls[i] = orb.Point{rng.Float64() * 0.01, rng.Float64() * 0.01}
		}
		tol := rng.Float64() * 0.002

		got := Simplify(ls, tol)
		require.LessOrEqual(t, len(got), n)
		require.GreaterOrEqual(t, len(got), 2)
		assert.Equal(t, ls[0], got[0])
		assert.Equal(t, ls[n-1], got[len(got)-1])
	}
}

func TestSimplify_VeryLongWay(t *testing.T) {
	// A zig-zag deep enough to have overflowed a naive recursion on a small stack.
	n := 200000
	ls := make(orb.LineString, n)
	for i := range ls {
		ls[i] = orb.Point{float64(i) * 0.0001, math.Sin(float64(i)) * 0.001}
	}

	got := Simplify(ls, DefaultTolerance)
	assert.Equal(t, ls[0], got[0])
	assert.Equal(t, ls[n-1], got[len(got)-1])
}

func TestPerpendicularDist2(t *testing.T) {
	assert.InDelta(t, 1.0, perpendicularDist2(orb.Point{0, 1}, orb.Point{-5, 0}, orb.Point{5, 0}), 1e-12)
	assert.InDelta(t, 25.0, perpendicularDist2(orb.Point{3, 4}, orb.Point{0, 0}, orb.Point{0, 0}), 1e-12)
}
