// Package planner implements the cooperative discrete planner: a
// space-time A* search over a grid.Discretizer that respects a shared
// reservation.Table and each agent's sensing cone, plus the replan/abort
// protocol invoked when a search comes up empty.
package planner

import (
	"container/heap"
	"math"

	"go.uber.org/zap"

	"github.com/elektrokombinacija/mapf-reservation-sim/internal/geom"
	"github.com/elektrokombinacija/mapf-reservation-sim/internal/grid"
	"github.com/elektrokombinacija/mapf-reservation-sim/internal/reservation"
)

// Blocker is the planner's view of an agent: enough to abort a held plan
// and trigger an immediate replan when this agent's search needs a cell the
// blocker is already holding.
type Blocker interface {
	AbortPlan()
	GetPlan() []geom.SiteID
}

// Planner runs space-time A* searches against a shared grid and
// reservation table on behalf of every agent in a simulation.
type Planner struct {
	Space            *grid.Discretizer
	DiagsTakeLonger  bool
	TotalTimesteps   float64
	Reservations     *reservation.Table
	Verbose          bool
	Log              *zap.Logger
	CurrentTimestep  *float64
	Agents           map[reservation.AgentID]Blocker

	replanDepth int

	// Counters surfaced through Stats for the trials/planner CSV log:
	// call-counters alongside wall-clock time since trial start.
	searchCalls int
	searchNodes int
	replanCalls int
}

// Stats is a snapshot of the planner's call-counters since the last Reset,
// for the trials/planner CSV row.
type Stats struct {
	SearchCalls int
	SearchNodes int
	ReplanCalls int
}

// Stats returns the planner's call-counters since construction or the last
// Reset.
func (p *Planner) Stats() Stats {
	return Stats{SearchCalls: p.searchCalls, SearchNodes: p.searchNodes, ReplanCalls: p.replanCalls}
}

// Reset zeroes the planner's call-counters, for a fresh trial.
func (p *Planner) Reset() {
	p.searchCalls = 0
	p.searchNodes = 0
	p.replanCalls = 0
}

// node is a space-time search node: the position reached, the position it
// was reached from (used to recover the plan), the time it was reached, and
// its A* f/g scores.
type node struct {
	pos, parent geom.SiteID
	t, f, g     float64
	index       int
}

// nodeHeap implements container/heap.Interface with this search's tie-break
// order: ascending f, then DESCENDING t (prefer nodes reached later, i.e.
// progress made), then ascending idx, then ascending idy.
type nodeHeap []*node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if a.t != b.t {
		return a.t > b.t
	}
	if a.pos.IDX != b.pos.IDX {
		return a.pos.IDX < b.pos.IDX
	}
	return a.pos.IDY < b.pos.IDY
}
func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *nodeHeap) Push(x any) {
	n := x.(*node)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// Heuristic is both the A* heuristic and the per-step edge cost, one
// function covering both roles. A wait step (a==b) always costs 1. When diagonals are enabled the cost of a diagonal step is
// 1.5, chosen so the half-unit time discretization stays rational; this is
// only a consistent heuristic when ConnectDiagonals matches between the
// grid and every call site, since it assumes diagonal motion is available.
func (p *Planner) Heuristic(a, b geom.SiteID) float64 {
	if a == b {
		return 1
	}
	if p.Space.Periodic {
		wrapped := geom.NearestPeriodic(a.ToPose(), b.ToPose(), float64(p.Space.CellsPerSide)/2.0)
		b = geom.SiteFromPose(wrapped)
	}
	if p.Space.ConnectDiagonals {
		dx := absInt(a.IDX - b.IDX)
		dy := absInt(a.IDY - b.IDY)
		m := math.Min(float64(dx), float64(dy))
		return float64(dx+dy) - 2*m + m*1.5
	}
	return float64(absInt(a.IDX-b.IDX) + absInt(a.IDY-b.IDY))
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Search runs space-time A* from start to goal for agentID, respecting the
// shared reservation table and the agent's sensing cone. On success it
// reserves every cell along the plan and returns the sequence of step
// deltas, most-recent first (the caller pops from the back, so the first
// step to take is the last element). On failure it falls back to the
// replan/abort protocol in tryReserveWait and returns whatever wait steps
// that produces (possibly empty).
func (p *Planner) Search(start, goal geom.SiteID, sensingRange, sensingAngle float64, agentID reservation.AgentID) []geom.SiteID {
	p.searchCalls++
	now := *p.CurrentTimestep

	open := &nodeHeap{}
	heap.Init(open)

	best := make(map[reservation.Key]*node)

	startNode := &node{pos: start, parent: geom.SiteID{IDX: -1, IDY: -1}, t: now, f: 0, g: 0}
	best[reservation.NewKey(now, start)] = startNode
	heap.Push(open, startNode)

	var found *node
	searchRounds := 0

	for open.Len() > 0 {
		searchRounds++
		cur := heap.Pop(open).(*node)

		// Stale heap entry: a better node for this slot has since been found.
		if b := best[reservation.NewKey(cur.t, cur.pos)]; b != cur {
			continue
		}

		if cur.pos == goal {
			found = cur
			break
		}

		if cur.t >= p.TotalTimesteps {
			continue
		}

		unit := p.Space.Unit(cur.pos)
		for _, nbr := range unit.NeighborsAndMe {
			travelTime := 1.0
			if p.DiagsTakeLonger {
				travelTime = p.Heuristic(cur.pos, nbr.ID)
			}
			newG := cur.g + p.Heuristic(cur.pos, nbr.ID)

			if p.isInvalidStep(cur.pos, nbr.ID, cur.t, sensingRange, sensingAngle) {
				continue
			}

			key := reservation.NewKey(cur.t+travelTime, nbr.ID)
			if b, ok := best[key]; !ok || newG < b.g {
				n := &node{
					pos:    nbr.ID,
					parent: cur.pos,
					t:      cur.t + travelTime,
					g:      newG,
					f:      newG + p.Heuristic(nbr.ID, goal),
				}
				best[key] = n
				heap.Push(open, n)
			}
		}
	}

	p.searchNodes += searchRounds

	if found == nil {
		if p.Log != nil {
			p.Log.Warn("planner failed to find a path",
				zap.Int("agent", int(agentID)), zap.Int("rounds", searchRounds),
				zap.Int("start_idx", start.IDX), zap.Int("start_idy", start.IDY),
				zap.Int("goal_idx", goal.IDX), zap.Int("goal_idy", goal.IDY))
		}
		return p.tryReserveWait(start, agentID)
	}

	return p.recoverPlan(start, goal, best, found.t, agentID)
}

// recoverPlan traces the search's best-node table backward from (goal,
// goalReachedTime) to (start, now), reserving every cell visited for
// agentID and emitting the step sequence. When diagonals take longer, an
// axis step pads the plan with one wait-step (half a timestep further back)
// and a diagonal step pads it with two, matching the half-unit-timestep
// discretization used by the search itself.
func (p *Planner) recoverPlan(start, goal geom.SiteID, best map[reservation.Key]*node, goalReachedTime float64, agentID reservation.AgentID) []geom.SiteID {
	var plan []geom.SiteID
	t := goalReachedTime
	s := goal
	now := *p.CurrentTimestep

	for s != start || t != now {
		p.Reservations.Make(t, s, agentID)
		n := best[reservation.NewKey(t, s)]
		step := s.Sub(n.parent)

		if p.DiagsTakeLonger {
			s = n.parent
			if absInt(step.IDX)+absInt(step.IDY) <= 1 {
				plan = append(plan, step)
				p.Reservations.Make(t-0.5, s, agentID)
				plan = append(plan, geom.SiteID{})
				t -= 1
			} else {
				plan = append(plan, step)
				p.Reservations.Make(t-0.5, s, agentID)
				plan = append(plan, geom.SiteID{})
				p.Reservations.Make(t-1.0, s, agentID)
				plan = append(plan, geom.SiteID{})
				t -= 1.5
			}
		} else {
			plan = append(plan, step)
			s = n.parent
			t -= 1
		}

		if t < 0 {
			break
		}
	}

	return plan
}

// isInvalidStep reports whether moving from cur to nbr (having arrived at
// cur at time curT) is blocked: either the destination, or an intermediate
// half-step when diagonals take longer, is already reserved, or the agent's
// sensing cone would be occupied while making the move.
func (p *Planner) isInvalidStep(cur, nbr geom.SiteID, curT, sensingRange, sensingAngle float64) bool {
	travelTime := 1.0
	if p.DiagsTakeLonger {
		travelTime = p.Heuristic(cur, nbr)
	}

	wrapped := nbr
	if p.Space.Periodic {
		w := geom.NearestPeriodic(cur.ToPose(), nbr.ToPose(), float64(p.Space.CellsPerSide)/2.0)
		wrapped = geom.SiteFromPose(w)
	}

	positionsInvalid := p.Reservations.Reserved(curT+travelTime, nbr)
	if !positionsInvalid && p.DiagsTakeLonger {
		if absInt(nbr.IDX-cur.IDX)+absInt(nbr.IDY-cur.IDY) > 1 {
			positionsInvalid = p.Reservations.Reserved(curT+0.5, cur) || p.Reservations.Reserved(curT+1.0, cur)
		} else {
			positionsInvalid = p.Reservations.Reserved(curT+0.5, cur)
		}
	}
	if positionsInvalid {
		return true
	}

	if wrapped == cur {
		return false
	}
	if !p.DiagsTakeLonger {
		return p.sensingConeOccupied(cur, wrapped.Sub(cur).Angle(), curT, sensingRange, sensingAngle)
	}
	return p.sensingConeOccupied(cur, wrapped.Sub(cur).Angle(), curT+travelTime-0.5, sensingRange, sensingAngle)
}
