package planner

import (
	"container/heap"

	"github.com/elektrokombinacija/mapf-reservation-sim/internal/geom"
)

// sensingConeOccupied breadth-first searches outward from sensingFrom along
// connectivity (not geometry) looking for any reserved cell, at time t, that
// falls within the cone facing heading a. It reuses the search's node/heap
// machinery with f repurposed as distance-from-origin, so the nearest
// candidates are checked first, exactly as the cone's own radius would
// suggest.
func (p *Planner) sensingConeOccupied(sensingFrom geom.SiteID, heading, t, sensingRange, sensingAngle float64) bool {
	origin := p.Space.PoseAt(sensingFrom)
	origin.A = heading

	open := &nodeHeap{}
	heap.Init(open)
	heap.Push(open, &node{pos: sensingFrom, t: t, f: 0, g: 0})

	visited := make(map[geom.SiteID]bool)

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if visited[cur.pos] {
			continue
		}
		visited[cur.pos] = true

		unit := p.Space.Unit(cur.pos)
		for _, test := range unit.Neighbors {
			testPose := p.Space.PoseAt(test.ID)
			if p.Space.Periodic {
				testPose = geom.NearestPeriodic(origin, testPose, p.Space.SpaceR)
			}

			result := geom.InVisionCone(origin, heading, sensingAngle, sensingRange, testPose)
			if !result.InCone {
				continue
			}

			if p.Reservations.Reserved(cur.t, test.ID) {
				return true
			}

			if !visited[test.ID] {
				heap.Push(open, &node{pos: test.ID, t: cur.t, f: result.Distance, g: result.Distance})
			}
		}
	}

	return false
}
