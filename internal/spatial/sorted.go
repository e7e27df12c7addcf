package spatial

import (
	"sort"

	"go.uber.org/zap"

	"github.com/elektrokombinacija/mapf-reservation-sim/internal/geom"
)

// SortedIndex finds nearby occupants via two axis-sorted slices and an
// intersection of range queries, an alternative to CellIndex for arenas
// where a lattice partition isn't a good fit.
type SortedIndex struct {
	Range float64
	Log   *zap.Logger

	byX, byY []Occupant
	// allStopped guards the "everyone is blocked" diagnostic so it logs once
	// per blocked stretch rather than every tick.
	allStopped bool
}

// NewSortedIndex builds an empty sorted index; call Refresh before the
// first Nearby call.
func NewSortedIndex(sensingRange float64, log *zap.Logger) *SortedIndex {
	return &SortedIndex{Range: sensingRange, Log: log}
}

// Refresh re-sorts both axis slices from occupants, unless allBlocked is
// true and simJustStarted is false (this isn't the very first tick) — in which
// case nothing has moved since the slices were last sorted, so the sort
// is skipped and a one-time diagnostic is logged instead.
func (s *SortedIndex) Refresh(occupants []Occupant, allBlocked, simJustStarted bool) {
	if allBlocked && !simJustStarted {
		if s.Log != nil && !s.allStopped {
			s.Log.Debug("everyone is blocked, skipping sorted-index refresh")
		}
		s.allStopped = true
		return
	}
	s.allStopped = false

	s.byX = append(s.byX[:0], occupants...)
	s.byY = append(s.byY[:0], occupants...)
	sort.SliceStable(s.byX, func(i, j int) bool { return s.byX[i].Pose().X < s.byX[j].Pose().X })
	sort.SliceStable(s.byY, func(i, j int) bool { return s.byY[i].Pose().Y < s.byY[j].Pose().Y })
}

// Nearby returns every occupant (other than selfID) whose x is within
// [pos.X-Range, pos.X+Range] AND whose y is within [pos.Y-Range,
// pos.Y+Range] — the intersection of the x- and y-sorted bound results.
func (s *SortedIndex) Nearby(selfID int, pos geom.Pose) []Occupant {
	xlo := lowerBoundX(s.byX, pos.X-s.Range)
	xhi := upperBoundX(s.byX, pos.X+s.Range)
	ylo := lowerBoundY(s.byY, pos.Y-s.Range)
	yhi := upperBoundY(s.byY, pos.Y+s.Range)

	horiz := make(map[int]Occupant)
	for _, o := range s.byX[xlo:xhi] {
		if o.AgentID() != selfID {
			horiz[o.AgentID()] = o
		}
	}

	var out []Occupant
	vertSeen := make(map[int]bool)
	for _, o := range s.byY[ylo:yhi] {
		if o.AgentID() == selfID || vertSeen[o.AgentID()] {
			continue
		}
		vertSeen[o.AgentID()] = true
		if occ, ok := horiz[o.AgentID()]; ok {
			out = append(out, occ)
		}
	}
	return out
}

func lowerBoundX(s []Occupant, x float64) int {
	return sort.Search(len(s), func(i int) bool { return s[i].Pose().X >= x })
}

func upperBoundX(s []Occupant, x float64) int {
	return sort.Search(len(s), func(i int) bool { return s[i].Pose().X > x })
}

func lowerBoundY(s []Occupant, y float64) int {
	return sort.Search(len(s), func(i int) bool { return s[i].Pose().Y >= y })
}

func upperBoundY(s []Occupant, y float64) int {
	return sort.Search(len(s), func(i int) bool { return s[i].Pose().Y > y })
}
