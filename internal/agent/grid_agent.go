// Package agent implements the two simulation regimes' agents: GridAgent
// for the cooperative discrete planner, and ReactiveAgent (whose
// const-noise and conditional-noise variants are selected by its
// NoiseMode) for continuous space.
package agent

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/elektrokombinacija/mapf-reservation-sim/internal/geom"
	"github.com/elektrokombinacija/mapf-reservation-sim/internal/grid"
	"github.com/elektrokombinacija/mapf-reservation-sim/internal/planner"
	"github.com/elektrokombinacija/mapf-reservation-sim/internal/reservation"
)

// gridTrailCap bounds the footprint history kept for a grid agent.
const gridTrailCap = 6

// GridAgentConfig holds the per-agent constants drawn from the run
// configuration; every agent in a run shares one instance.
type GridAgentConfig struct {
	SensingRange     float64
	SensingAngle     float64
	DrawFootprints   bool
	RandomColors     bool
}

// GridAgent is one agent under the cooperative discrete planner: it holds a
// plan of step-deltas reserved in advance by the shared planner, and
// advances one step per tick once update_plan and update_motion are both
// called.
type GridAgent struct {
	ID            reservation.AgentID
	Goal, CurPos  geom.SiteID
	Space         *grid.Discretizer
	Planner       *planner.Planner
	Cfg           GridAgentConfig
	Color         geom.Color
	GoalsReached  int
	GoalBirthTime float64
	TravelAngle   float64
	Trail         []geom.SiteID
	Plan          []geom.SiteID
	Rng           *rand.Rand
	Log           *zap.Logger

	currentTimestep *float64
}

// NewGridAgent builds a GridAgent with a random unreserved start position
// (resampling on collision with another agent's reservation) and a random
// goal, then reserves the start cell at the current simulation time to this
// agent so no other agent can claim it from tick zero onward.
func NewGridAgent(id reservation.AgentID, space *grid.Discretizer, pl *planner.Planner, cfg GridAgentConfig, rng *rand.Rand, log *zap.Logger, currentTimestep *float64) *GridAgent {
	a := &GridAgent{
		ID:              id,
		Space:           space,
		Planner:         pl,
		Cfg:             cfg,
		Rng:             rng,
		Log:             log,
		currentTimestep: currentTimestep,
	}
	a.claimStart()
	a.Goal = a.randomPos()
	if cfg.RandomColors {
		a.Color = geom.RandomColor(rng)
	} else {
		a.Color = geom.FixedColor()
	}
	return a
}

func (a *GridAgent) randomPos() geom.SiteID {
	n := a.Space.CellsPerSide
	return geom.SiteID{IDX: a.Rng.Intn(n), IDY: a.Rng.Intn(n)}
}

// claimStart resamples a random position until it is unreserved at the
// current timestep, then reserves it to this agent.
func (a *GridAgent) claimStart() {
	now := *a.currentTimestep
	pos := a.randomPos()
	for a.Planner.Reservations.Reserved(now, pos) {
		pos = a.randomPos()
	}
	a.setPos(pos)
	a.Planner.Reservations.Make(now, pos, a.ID)
}

// GetPos returns the agent's current grid position.
func (a *GridAgent) GetPos() geom.SiteID { return a.CurPos }

// GetPosAsPose returns the continuous-space pose of the agent's current
// cell.
func (a *GridAgent) GetPosAsPose() geom.Pose { return a.Space.PoseAt(a.CurPos) }

func (a *GridAgent) setPos(pos geom.SiteID) { a.CurPos = pos }

// UpdatePlan assigns a new goal when the current one has been reached and
// ensures a plan exists, requesting one from the planner if empty. The
// simulation manager calls this for every agent before any agent moves.
func (a *GridAgent) UpdatePlan() {
	for a.CurPos == a.Goal {
		a.goalReachedUpdate()
	}
	if len(a.Plan) == 0 {
		a.GetPlan()
	}
}

// goalReachedUpdate picks a fresh unreserved goal, resampling on collision
// with another agent's reservation exactly as claimStart does for a start
// position.
func (a *GridAgent) goalReachedUpdate() {
	now := *a.currentTimestep
	goal := a.randomPos()
	for a.Planner.Reservations.Reserved(now, goal) {
		goal = a.randomPos()
	}
	a.Goal = goal
	a.GoalsReached++
	a.GoalBirthTime = *a.currentTimestep
}

// UpdateMotion consumes the next step off the plan and moves the agent,
// wrapping across the torus if the arena is periodic and the step would
// otherwise leave the grid, or simply staying put if it is not. The
// manager calls this for every agent only after every agent's UpdatePlan
// has run, so no agent moves on stale plan data from this tick.
func (a *GridAgent) UpdateMotion() {
	if len(a.Plan) == 0 {
		return
	}

	dp := a.Plan[len(a.Plan)-1]
	a.Plan = a.Plan[:len(a.Plan)-1]

	next := a.CurPos.Add(dp)
	n := a.Space.CellsPerSide
	if next.IDX < 0 || next.IDY < 0 || next.IDX >= n || next.IDY >= n {
		if a.Space.Periodic {
			a.setPos(a.Space.Wrap(next))
		}
		// else: out of bounds in a bounded arena, stay in place
	} else {
		a.setPos(next)
	}

	if a.Cfg.DrawFootprints {
		a.updateTrail()
	}
}

// UpdateTravelAngle orients the agent along the most recent non-wait step
// remaining in its plan, for display purposes; the manager calls this after
// every agent's motion has been applied.
func (a *GridAgent) UpdateTravelAngle() {
	for i := len(a.Plan) - 1; i >= 0; i-- {
		if a.Plan[i].IDX != 0 || a.Plan[i].IDY != 0 {
			a.TravelAngle = a.Plan[i].Angle()
			return
		}
	}
}

func (a *GridAgent) updateTrail() {
	a.Trail = append(a.Trail, a.CurPos)
	if len(a.Trail) > gridTrailCap {
		a.Trail = a.Trail[1:]
	}
}

// Reset clears trail and plan and picks a fresh random, newly-reserved
// start position and goal, for a new trial. The manager clears the
// reservation table before calling Reset on any agent, so claimStart sees
// an empty table exactly as NewGridAgent does.
func (a *GridAgent) Reset() {
	a.Trail = nil
	a.Plan = nil
	a.claimStart()
	a.Goal = a.randomPos()
}

// GetPlan requests a fresh plan from the shared planner. It implements
// planner.Blocker so another agent's failed search can force this one to
// replan immediately.
func (a *GridAgent) GetPlan() []geom.SiteID {
	if a.Log != nil {
		a.Log.Debug("requesting new plan", zap.Int("agent", int(a.ID)))
	}
	a.Plan = a.Planner.Search(a.CurPos, a.Goal, a.Cfg.SensingRange, a.Cfg.SensingAngle, a.ID)
	return a.Plan
}

// AbortPlan releases every reservation this agent's current plan holds,
// walking the plan from oldest-remaining to newest. Every plan entry (a
// real step or a diagonal-mode wait padding) corresponds to exactly one
// reservation recoverPlan made at that entry's arrival time, so the
// current position at the current timestep — reserved separately, not by
// this plan — is deliberately left untouched. It implements
// planner.Blocker.
func (a *GridAgent) AbortPlan() {
	dt := 1.0
	if a.Planner.DiagsTakeLonger {
		dt = 0.5
	}
	t := *a.currentTimestep
	loc := a.CurPos

	for i := len(a.Plan) - 1; i >= 0; i-- {
		dp := a.Plan[i]
		t += dt
		loc = loc.Add(dp)

		if !a.Planner.Reservations.Reserved(t, loc) {
			if a.Log != nil {
				a.Log.Error("aborting plan: reservation was never made",
					zap.Int("agent", int(a.ID)), zap.Float64("t", t),
					zap.Int("idx", loc.IDX), zap.Int("idy", loc.IDY))
			}
			continue
		}
		a.Planner.Reservations.Erase(t, loc, a.ID)
	}

	a.Plan = nil
}
