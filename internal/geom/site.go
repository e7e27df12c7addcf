package geom

import "math"

// SiteID is an integer grid coordinate, used both as a discrete cell
// address and as a step-delta in the planner's successor generation; ToPose
// converts it for continuous-space geometry.
type SiteID struct {
	IDX, IDY int
}

// Add returns the componentwise sum, used both to move an agent by a
// step-delta and to express a step as a difference of two SiteIDs.
func (s SiteID) Add(o SiteID) SiteID {
	return SiteID{IDX: s.IDX + o.IDX, IDY: s.IDY + o.IDY}
}

// Sub returns the componentwise difference s - o.
func (s SiteID) Sub(o SiteID) SiteID {
	return SiteID{IDX: s.IDX - o.IDX, IDY: s.IDY - o.IDY}
}

// Angle returns atan2(idy, idx) of s treated as a step vector; used to
// orient an agent's sensing cone or its visual heading along a step.
func (s SiteID) Angle() float64 {
	return math.Atan2(float64(s.IDY), float64(s.IDX))
}

// L1 returns the Manhattan distance to o.
func (s SiteID) L1(o SiteID) int {
	return absInt(s.IDX-o.IDX) + absInt(s.IDY-o.IDY)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ToPose represents s as a Pose with zero heading, for geometry functions
// (NearestPeriodic, in-cone tests) that operate in continuous space.
func (s SiteID) ToPose() Pose {
	return Pose{X: float64(s.IDX), Y: float64(s.IDY)}
}

// SiteFromPose truncates a Pose back to a SiteID; used after
// NearestPeriodic wraps a neighbor's coordinates across a torus.
func SiteFromPose(p Pose) SiteID {
	return SiteID{IDX: int(p.X), IDY: int(p.Y)}
}
