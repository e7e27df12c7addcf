package agent

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elektrokombinacija/mapf-reservation-sim/internal/geom"
	"github.com/elektrokombinacija/mapf-reservation-sim/internal/grid"
	"github.com/elektrokombinacija/mapf-reservation-sim/internal/planner"
	"github.com/elektrokombinacija/mapf-reservation-sim/internal/reservation"
)

func newTestGridAgent(t *testing.T, id reservation.AgentID, now *float64) (*GridAgent, *planner.Planner) {
	t.Helper()
	space := grid.NewDiscretizer(5, 10, false, false)
	pl := &planner.Planner{
		Space:           space,
		TotalTimesteps:  1000,
		Reservations:    reservation.New(zap.NewNop(), false),
		Log:             zap.NewNop(),
		CurrentTimestep: now,
		Agents:          make(map[reservation.AgentID]planner.Blocker),
	}
	cfg := GridAgentConfig{SensingRange: 2, SensingAngle: 2}
	rng := rand.New(rand.NewSource(1))
	a := NewGridAgent(id, space, pl, cfg, rng, zap.NewNop(), now)
	pl.Agents[id] = a
	return a, pl
}

func TestNewGridAgentReservesStartCell(t *testing.T) {
	now := 0.0
	a, pl := newTestGridAgent(t, 1, &now)

	owner, ok := pl.Reservations.Owner(0, a.GetPos())
	require.True(t, ok, "construction must reserve the start cell at the current timestep")
	require.Equal(t, reservation.AgentID(1), owner)
}

func TestClaimStartResamplesOnCollision(t *testing.T) {
	now := 0.0
	space := grid.NewDiscretizer(5, 10, false, false)
	pl := &planner.Planner{
		Space: space, TotalTimesteps: 1000,
		Reservations: reservation.New(zap.NewNop(), false), Log: zap.NewNop(),
		CurrentTimestep: &now, Agents: make(map[reservation.AgentID]planner.Blocker),
	}
	cfg := GridAgentConfig{SensingRange: 2, SensingAngle: 2}

	a1 := NewGridAgent(1, space, pl, cfg, rand.New(rand.NewSource(1)), zap.NewNop(), &now)
	a2 := NewGridAgent(2, space, pl, cfg, rand.New(rand.NewSource(1)), zap.NewNop(), &now)

	// Even with the same seed (so randomPos would draw the same first
	// candidate), the second agent must not collide with the first.
	require.NotEqual(t, a1.GetPos(), a2.GetPos())
}

func TestUpdateMotionStaysPutOutOfBoundsNonPeriodic(t *testing.T) {
	now := 0.0
	a, _ := newTestGridAgent(t, 1, &now)
	a.setPos(geom.SiteID{IDX: 0, IDY: 0})
	a.Plan = []geom.SiteID{{IDX: -1, IDY: 0}}

	a.UpdateMotion()
	require.Equal(t, geom.SiteID{IDX: 0, IDY: 0}, a.GetPos())
	require.Empty(t, a.Plan)
}

func TestUpdateMotionWrapsPeriodic(t *testing.T) {
	now := 0.0
	space := grid.NewDiscretizer(5, 10, true, false)
	pl := &planner.Planner{
		Space: space, TotalTimesteps: 1000,
		Reservations: reservation.New(zap.NewNop(), false), Log: zap.NewNop(),
		CurrentTimestep: &now, Agents: make(map[reservation.AgentID]planner.Blocker),
	}
	a := NewGridAgent(1, space, pl, GridAgentConfig{SensingRange: 2, SensingAngle: 2}, rand.New(rand.NewSource(1)), zap.NewNop(), &now)
	a.setPos(geom.SiteID{IDX: 0, IDY: 0})
	a.Plan = []geom.SiteID{{IDX: -1, IDY: 0}}

	a.UpdateMotion()
	require.Equal(t, geom.SiteID{IDX: 9, IDY: 0}, a.GetPos())
}

func TestUpdatePlanAdvancesGoalOnArrival(t *testing.T) {
	now := 0.0
	a, _ := newTestGridAgent(t, 1, &now)
	a.setPos(geom.SiteID{IDX: 4, IDY: 4})
	a.Goal = geom.SiteID{IDX: 4, IDY: 4}

	a.UpdatePlan()
	require.Equal(t, 1, a.GoalsReached)
	require.Equal(t, now, a.GoalBirthTime)
}

func TestAbortPlanReleasesFutureReservations(t *testing.T) {
	now := 0.0
	a, pl := newTestGridAgent(t, 1, &now)
	a.Goal = geom.SiteID{IDX: a.GetPos().IDX, IDY: (a.GetPos().IDY + 3) % 5}
	if a.Goal == a.GetPos() {
		a.Goal.IDY = (a.Goal.IDY + 1) % 5
	}
	a.GetPlan()
	require.NotEmpty(t, a.Plan)

	a.AbortPlan()
	require.Empty(t, a.Plan)

	// After abort, no reservation owned by this agent remains for any time
	// strictly greater than now.
	for dt := 1; dt <= 20; dt++ {
		for x := 0; x < 10; x++ {
			for y := 0; y < 10; y++ {
				owner, ok := pl.Reservations.Owner(now+float64(dt), geom.SiteID{IDX: x, IDY: y})
				if ok {
					require.NotEqual(t, a.ID, owner)
				}
			}
		}
	}
}
