// Package geom provides the pose, angle, and vision-cone primitives shared
// by the discrete planner and the reactive controller.
package geom

import "math"

// Pose is a continuous position with heading. Z is unused by the 2D
// reactive controller but kept so Pose can stand in for discrete-grid
// positions too (SiteID.angle() composes with it).
type Pose struct {
	X, Y, Z float64
	A       float64 // heading, normalized to (-pi, pi]
}

// Normalize maps any real angle to (-pi, pi].
func Normalize(a float64) float64 {
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// Add composes a rigid-body displacement expressed in the pose's own frame:
// dp.X moves forward, dp.Y moves left, dp.Z shifts altitude, and dp.A adds
// to heading. Composition is not commutative: adding dp and then its
// componentwise negation need not give back p when dp.A != 0, since the
// frame used to interpret the second displacement has rotated.
func (p Pose) Add(dp Pose) Pose {
	cosA := math.Cos(p.A)
	sinA := math.Sin(p.A)
	return Pose{
		X: p.X + dp.X*cosA - dp.Y*sinA,
		Y: p.Y + dp.X*sinA + dp.Y*cosA,
		Z: p.Z + dp.Z,
		A: Normalize(p.A + dp.A),
	}
}

// Distance returns the planar Euclidean distance between two poses.
func (p Pose) Distance(o Pose) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// IsZero reports whether every component of p is zero (used for
// zero-velocity poses, not zero-position poses).
func (p Pose) IsZero() bool {
	return p.X == 0 && p.Y == 0 && p.Z == 0 && p.A == 0
}

// NearestPeriodic returns the representative of b, shifted by a multiple of
// 2R on each axis independently, that minimizes distance to a. In a
// periodic arena of half-size R this is the image of b an observer at a
// should actually measure against.
func NearestPeriodic(a, b Pose, r float64) Pose {
	side := 2 * r
	x, y := b.X, b.Y
	if math.Abs(x-a.X) > r {
		if x < a.X {
			x += side
		} else {
			x -= side
		}
	}
	if math.Abs(y-a.Y) > r {
		if y < a.Y {
			y += side
		} else {
			y -= side
		}
	}
	return Pose{X: x, Y: y, Z: b.Z, A: b.A}
}

// WrapPeriodic folds a position into [-r, r) on both axes, for an agent
// that stepped outside the bounds of a periodic arena.
func WrapPeriodic(p Pose, r float64) Pose {
	side := 2 * r
	x := math.Mod(p.X+r, side)
	if x < 0 {
		x += side
	}
	y := math.Mod(p.Y+r, side)
	if y < 0 {
		y += side
	}
	return Pose{X: x - r, Y: y - r, Z: p.Z, A: p.A}
}
