package geom

import "math"

// ConeResult is the outcome of InVisionCone: whether the probe point falls
// within the cone, and its distance from the cone's apex (used to order a
// breadth-first sensing search by distance).
type ConeResult struct {
	InCone   bool
	Distance float64
}

// InVisionCone reports whether probe lies within the cone apexed at from,
// oriented along heading, with the given full angular width and radial
// range. Both bounds are strict: a probe exactly at the range or exactly at
// half the full angle is outside the cone.
func InVisionCone(from Pose, heading, fullAngle, sensingRange float64, probe Pose) ConeResult {
	dist := from.Distance(probe)
	if dist >= sensingRange {
		return ConeResult{InCone: false, Distance: dist}
	}
	bearing := math.Atan2(probe.Y-from.Y, probe.X-from.X)
	delta := math.Abs(Normalize(bearing - heading))
	return ConeResult{InCone: delta < fullAngle/2, Distance: dist}
}
