package agent

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/mapf-reservation-sim/internal/geom"
)

type fakeSensor struct{ results []Sensed }

func (f fakeSensor) Sense(int, geom.Pose) []Sensed { return f.results }

func newTestReactiveAgent(t *testing.T, cfg ReactiveAgentConfig) *ReactiveAgent {
	t.Helper()
	simTime := 0.0
	if cfg.Cruisespeed == 0 {
		cfg.Cruisespeed = 1
	}
	if cfg.GoalTolerance == 0 {
		cfg.GoalTolerance = 0.1
	}
	return NewReactiveAgent(1, cfg, rand.New(rand.NewSource(1)), &simTime)
}

func TestAngleToGoalNonPeriodicDirect(t *testing.T) {
	a := newTestReactiveAgent(t, ReactiveAgentConfig{RUpper: 10})
	a.CurPos = geom.Pose{X: 0, Y: 0}
	a.GoalPos = geom.Pose{X: 1, Y: 1}
	require.InDelta(t, math.Pi/4, a.angleToGoal(), 1e-9)
}

func TestAngleToGoalPeriodicUsesShortestWrap(t *testing.T) {
	a := newTestReactiveAgent(t, ReactiveAgentConfig{RUpper: 5, Periodic: true})
	a.CurPos = geom.Pose{X: 0, Y: 0}
	a.GoalPos = geom.Pose{X: 8, Y: 0}
	// The periodic image of the goal at x=8-10=-2 is closer than 8 itself,
	// so the agent should face the negative-x direction.
	require.InDelta(t, math.Pi, a.angleToGoal(), 1e-9)
}

func TestGetTravelAngleNoiseNoneReturnsExactGoalAngle(t *testing.T) {
	a := newTestReactiveAgent(t, ReactiveAgentConfig{RUpper: 10, Noise: NoiseNone})
	a.CurPos = geom.Pose{X: 0, Y: 0}
	a.GoalPos = geom.Pose{X: 1, Y: 0}
	require.Equal(t, a.angleToGoal(), a.getTravelAngle())
}

func TestGetTravelAngleConstAlwaysPerturbs(t *testing.T) {
	a := newTestReactiveAgent(t, ReactiveAgentConfig{RUpper: 10, Noise: NoiseConst, AngleNoise: 0.3})
	a.CurPos = geom.Pose{X: 0, Y: 0}
	a.GoalPos = geom.Pose{X: 1, Y: 0}
	require.NotEqual(t, a.angleToGoal(), a.getTravelAngle())
}

func TestGetTravelAngleConditionalSkipsWhenNotStoppedAndGated(t *testing.T) {
	a := newTestReactiveAgent(t, ReactiveAgentConfig{
		RUpper: 10, Noise: NoiseConditional, AngleNoise: 0.3,
		ConditionalNoise: true, NoiseProb: 0,
	})
	a.CurPos = geom.Pose{X: 0, Y: 0}
	a.GoalPos = geom.Pose{X: 1, Y: 0}
	a.Stop = false
	// ConditionalNoise true and not stopped means the probability gate is
	// skipped entirely, so noise never applies regardless of NoiseProb.
	require.Equal(t, a.angleToGoal(), a.getTravelAngle())
}

func TestGetTravelAngleConditionalAppliesWhenStopped(t *testing.T) {
	a := newTestReactiveAgent(t, ReactiveAgentConfig{
		RUpper: 10, Noise: NoiseConditional, AngleNoise: 0.3,
		ConditionalNoise: true, NoiseProb: 1,
	})
	a.CurPos = geom.Pose{X: 0, Y: 0}
	a.GoalPos = geom.Pose{X: 1, Y: 0}
	a.Stop = true
	require.NotEqual(t, a.angleToGoal(), a.getTravelAngle())
}

func TestCruiseOrStopZeroWhenStopped(t *testing.T) {
	a := newTestReactiveAgent(t, ReactiveAgentConfig{RUpper: 10, Cruisespeed: 2})
	a.Stop = true
	require.Equal(t, 0.0, a.cruiseOrStop())
	a.Stop = false
	require.Equal(t, 2.0, a.cruiseOrStop())
}

func TestSnapOrTurnTowardInstantaneous(t *testing.T) {
	a := newTestReactiveAgent(t, ReactiveAgentConfig{RUpper: 10, Turnspeed: -1})
	a.CurPos.A = 0
	a.snapOrTurnToward(math.Pi / 2)
	require.InDelta(t, math.Pi/2, a.CurPos.A, 1e-9)
	require.Equal(t, 0.0, a.TurnSpeed)
}

func TestSnapOrTurnTowardProportional(t *testing.T) {
	a := newTestReactiveAgent(t, ReactiveAgentConfig{RUpper: 10, Turnspeed: 0.5})
	a.CurPos.A = 0
	a.snapOrTurnToward(math.Pi / 2)
	require.InDelta(t, 0.5*math.Pi/2, a.TurnSpeed, 1e-9)
	require.Equal(t, 0.0, a.CurPos.A, "proportional turning doesn't move the heading immediately")
}

func TestSensingUpdateStopsWhenNeighborsSensed(t *testing.T) {
	a := newTestReactiveAgent(t, ReactiveAgentConfig{RUpper: 10, Noise: NoiseNone})
	a.CurPos = geom.Pose{X: 0, Y: 0}
	a.GoalPos = geom.Pose{X: 5, Y: 5}

	a.SensingUpdate(fakeSensor{results: []Sensed{{ID: 9, Dist: 1.41}}})
	require.True(t, a.Stop)
	require.Equal(t, 0.0, a.FwdSpeed)

	a.SensingUpdate(fakeSensor{})
	require.False(t, a.Stop)
	require.Equal(t, a.Cfg.Cruisespeed, a.FwdSpeed)
}

func TestSensingUpdateReachesGoalAndPicksNewOne(t *testing.T) {
	a := newTestReactiveAgent(t, ReactiveAgentConfig{RUpper: 10, Noise: NoiseNone, GoalTolerance: 0.5})
	a.CurPos = geom.Pose{X: 0, Y: 0}
	a.GoalPos = geom.Pose{X: 0.1, Y: 0}

	a.SensingUpdate(fakeSensor{})
	require.Equal(t, 1, a.GoalsReached)
}

func TestDecisionUpdatePhasedHoldsHeadingForRunsteps(t *testing.T) {
	a := newTestReactiveAgent(t, ReactiveAgentConfig{
		RUpper: 10, Noise: NoiseConst, AngleNoise: 0.2,
		AvgRunsteps: 3, Turnspeed: -1,
	})
	a.CurPos = geom.Pose{X: 0, Y: 0}
	a.GoalPos = geom.Pose{X: 1, Y: 0}

	a.decisionUpdatePhased()
	heading := a.TravelAngle
	a.decisionUpdatePhased()
	require.Equal(t, heading, a.TravelAngle, "heading holds within a run phase")
	a.decisionUpdatePhased()
	require.Equal(t, heading, a.TravelAngle)

	a.decisionUpdatePhased()
	require.Equal(t, 1, a.CurrentPhaseCount, "phase count resets once Runsteps is exhausted")
}

func TestPositionUpdateWrapsPeriodic(t *testing.T) {
	a := newTestReactiveAgent(t, ReactiveAgentConfig{RUpper: 5, Periodic: true, DT: 1})
	a.CurPos = geom.Pose{X: 4.9, Y: 0, A: 0}
	a.FwdSpeed = 0.2
	a.PositionUpdate()
	require.InDelta(t, -4.9, a.CurPos.X, 1e-9)
}

func TestPositionUpdateThrottlesTrailToHalfUnit(t *testing.T) {
	simTime := 0.25
	a := NewReactiveAgent(1, ReactiveAgentConfig{
		RUpper: 10, DT: 0.1, DrawFootprints: true, Cruisespeed: 1, GoalTolerance: 0.1,
	}, rand.New(rand.NewSource(1)), &simTime)
	a.PositionUpdate()
	require.Empty(t, a.Trail, "no trail entry off a sim-time tick that isn't a half-unit boundary")

	simTime = 0.5
	a.PositionUpdate()
	require.Len(t, a.Trail, 1)
}
