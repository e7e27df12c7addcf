package planner

import (
	"go.uber.org/zap"

	"github.com/elektrokombinacija/mapf-reservation-sim/internal/geom"
	"github.com/elektrokombinacija/mapf-reservation-sim/internal/reservation"
)

// maxReplanDepth bounds the abort/replan recursion to one extra level: a
// blocked agent may force exactly one other agent to replan before giving
// up and simply waiting, rather than chasing an unbounded chain of
// cascading replans.
const maxReplanDepth = 1

// tryReserveWait is the fallback invoked when Search exhausts the open list
// without reaching the goal. For each half-unit (or full-unit, depending on
// DiagsTakeLonger) time increment ahead of now, it tries to reserve the
// agent's current cell as a wait step: if that slot is free, it simply
// reserves it; if another agent already holds it, that agent's plan is
// aborted and it is forced to replan immediately, making room for the
// current agent's wait step.
func (p *Planner) tryReserveWait(start geom.SiteID, agentID reservation.AgentID) []geom.SiteID {
	timeIncs := []float64{1.0}
	if p.DiagsTakeLonger {
		timeIncs = []float64{0.5, 1.0}
	}

	var plan []geom.SiteID
	now := *p.CurrentTimestep

	for _, dt := range timeIncs {
		t := now + dt
		blockerID, ok := p.Reservations.Owner(t, start)
		if !ok {
			p.Reservations.Make(t, start, agentID)
			plan = append(plan, geom.SiteID{})
			continue
		}

		if blockerID == agentID {
			continue
		}

		blocker, known := p.Agents[blockerID]
		if !known {
			if p.Log != nil {
				p.Log.Error("reservation held by unknown agent", zap.Int("blocker", int(blockerID)))
			}
			continue
		}

		blocker.AbortPlan()
		p.Reservations.Make(t, start, agentID)
		plan = append(plan, geom.SiteID{})

		if p.replanDepth >= maxReplanDepth {
			if p.Log != nil {
				p.Log.Warn("replan recursion depth exceeded, leaving blocker without a plan this tick",
					zap.Int("agent", int(agentID)), zap.Int("blocker", int(blockerID)))
			}
			continue
		}

		p.replanDepth++
		p.replanCalls++
		if p.Log != nil {
			p.Log.Info("forcing replan",
				zap.Int("requester", int(agentID)), zap.Int("blocker", int(blockerID)), zap.Float64("t", t))
		}
		blocker.GetPlan()
		p.replanDepth--
	}

	return plan
}
