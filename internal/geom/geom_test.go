package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeRange(t *testing.T) {
	cases := []float64{0, math.Pi, -math.Pi, 3 * math.Pi, -3 * math.Pi, 0.5, -100, 100}
	for _, a := range cases {
		n := Normalize(a)
		require.Greater(t, n, -math.Pi)
		require.LessOrEqual(t, n, math.Pi)
	}
}

func TestNearestPeriodic(t *testing.T) {
	got := NearestPeriodic(Pose{X: 0, Y: 1}, Pose{X: 8, Y: 3}, 5)
	require.InDelta(t, -2, got.X, 1e-9)
	require.InDelta(t, 3, got.Y, 1e-9)

	got = NearestPeriodic(Pose{X: 1, Y: 8}, Pose{X: 9, Y: 0}, 5)
	require.InDelta(t, -1, got.X, 1e-9)
	require.InDelta(t, 10, got.Y, 1e-9)

	got = NearestPeriodic(Pose{X: 1, Y: 1}, Pose{X: 1, Y: 4}, 2.5)
	require.InDelta(t, 1, got.X, 1e-9)
	require.InDelta(t, -1, got.Y, 1e-9)
}

func TestNearestPeriodicIsUniqueMinimumAmongNineCandidates(t *testing.T) {
	a := Pose{X: 0.3, Y: -1.7}
	b := Pose{X: 4.1, Y: 3.9}
	r := 5.0

	got := NearestPeriodic(a, b, r)
	gotDist := a.Distance(got)
	require.LessOrEqual(t, gotDist, r*math.Sqrt2)

	for _, dx := range []float64{-2 * r, 0, 2 * r} {
		for _, dy := range []float64{-2 * r, 0, 2 * r} {
			cand := Pose{X: b.X + dx, Y: b.Y + dy}
			if cand == got {
				continue
			}
			require.LessOrEqual(t, gotDist, a.Distance(cand))
		}
	}
}

func TestPoseAddIdentityAndNonCommutative(t *testing.T) {
	p := Pose{X: 1, Y: 2, A: math.Pi / 4}
	require.Equal(t, p, p.Add(Pose{}))

	dp := Pose{X: 1, Y: 0, A: math.Pi / 2}
	inv := Pose{X: -dp.X, Y: -dp.Y, A: -dp.A}
	roundTrip := p.Add(dp).Add(inv)
	// Composition is non-commutative: applying dp then its naive inverse
	// does not reproduce p, because the inverse is interpreted in the new
	// heading's frame, not the pre-dp one.
	require.NotEqual(t, p, roundTrip)
}

func TestInVisionConeStrictBoundaries(t *testing.T) {
	origin := Pose{X: 0, Y: 0, A: 0}

	res := InVisionCone(origin, 0, 2*math.Pi, 5, Pose{X: 5.1, Y: 0})
	require.False(t, res.InCone, "outside range")

	res = InVisionCone(origin, 0, 2*math.Pi, 5.2, Pose{X: 5.1, Y: 0})
	require.True(t, res.InCone)

	res = InVisionCone(origin, 0, 0, 5.2, Pose{X: 5.1, Y: 0})
	require.False(t, res.InCone, "zero half-angle excludes even the dead-ahead probe")
}

func TestWrapPeriodic(t *testing.T) {
	got := WrapPeriodic(Pose{X: 5.5, Y: -5.5}, 5)
	require.InDelta(t, -4.5, got.X, 1e-9)
	require.InDelta(t, 4.5, got.Y, 1e-9)
}
