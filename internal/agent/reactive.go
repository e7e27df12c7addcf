package agent

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/elektrokombinacija/mapf-reservation-sim/internal/geom"
)

// reactiveTrailCap bounds the footprint history kept for a continuous-space
// agent — much longer than a grid agent's, since its trail is throttled to
// at most one entry per half sim-time unit rather than recorded every tick.
const reactiveTrailCap = 40

// NoiseMode selects how a ReactiveAgent perturbs its heading toward the
// goal. NoiseNone heads straight for the goal; NoiseConst perturbs every
// phase unconditionally; NoiseConditional only perturbs while blocked by a
// sensed neighbor, each perturbation additionally gated by a probability
// draw made at the start of each run phase.
type NoiseMode int

const (
	NoiseNone NoiseMode = iota
	NoiseConst
	NoiseConditional
)

// Sensed is one neighbor found inside a reactive agent's vision cone: its
// id and its distance from the sensing agent.
type Sensed struct {
	ID   int
	Dist float64
}

// Sensor reports the neighbors a reactive agent can see from pos, used to
// decide whether it must stop to avoid a collision.
type Sensor interface {
	Sense(agentID int, pos geom.Pose) []Sensed
}

// ReactiveAgentConfig holds the run-wide constants every reactive agent
// shares.
type ReactiveAgentConfig struct {
	DT float64

	Periodic    bool
	CircleArena bool
	RUpper      float64
	RLower      float64

	SensingRange float64
	SensingAngle float64
	GoalTolerance float64
	Cruisespeed   float64

	// Turnspeed of -1 means instantaneous turning (snap to heading).
	Turnspeed float64

	Noise             NoiseMode
	AngleBias         float64
	AngleNoise        float64 // -1 selects a uniform(-pi,pi) draw instead of normal
	AvgRunsteps       int
	RandomizeRunsteps bool
	ConditionalNoise  bool
	NoiseProb         float64

	DrawFootprints bool
}

// ReactiveAgent is a continuous-space agent under the local reactive
// controller: it senses nearby agents through a Sensor, decides a heading
// and speed, and integrates its pose forward each tick. A single struct
// covers the const-noise and conditional-noise variants via Cfg.Noise
// rather than a subclass per variant, since the only difference between
// them is how getTravelAngle perturbs the goal-facing heading.
type ReactiveAgent struct {
	ID    int
	Cfg   ReactiveAgentConfig
	Color geom.Color

	CurPos  geom.Pose
	GoalPos geom.Pose

	FwdSpeed, TurnSpeed float64
	Stop                bool
	TravelAngle         float64
	GoalsReached        int
	GoalBirthTime       float64

	CurrentPhaseCount int
	Runsteps          int

	Trail  []geom.Pose
	Sensed []Sensed

	Rng     *rand.Rand
	simTime *float64
}

// NewReactiveAgent builds a ReactiveAgent and resets it to a random pose.
func NewReactiveAgent(id int, cfg ReactiveAgentConfig, rng *rand.Rand, simTime *float64) *ReactiveAgent {
	a := &ReactiveAgent{ID: id, Cfg: cfg, Rng: rng, simTime: simTime, Color: geom.RandomColor(rng)}
	a.Reset()
	return a
}

// randomPos rejection-samples a pose uniformly within the configured arena:
// a ring between RLower and RUpper when CircleArena is set, otherwise the
// full square of half-width RUpper.
func (a *ReactiveAgent) randomPos() geom.Pose {
	for {
		x := a.Cfg.RUpper * 2 * (a.Rng.Float64() - 0.5)
		y := a.Cfg.RUpper * 2 * (a.Rng.Float64() - 0.5)
		dist := math.Hypot(x, y)
		if !a.Cfg.CircleArena || (dist <= a.Cfg.RUpper && dist >= a.Cfg.RLower) {
			angle := 2 * math.Pi * (a.Rng.Float64() - 0.5)
			return geom.Pose{X: x, Y: y, A: angle}
		}
	}
}

// Reset zeroes speeds, picks a fresh random pose and goal, and clears
// sensing/trail/phase state.
func (a *ReactiveAgent) Reset() {
	a.FwdSpeed = 0
	a.TurnSpeed = 0
	a.CurPos = a.randomPos()
	a.Trail = nil
	a.Sensed = nil
	a.Stop = false
	a.GoalPos = a.randomPos()
	a.GoalBirthTime = *a.simTime
	a.GoalsReached = 0
	a.TravelAngle = 0
	a.CurrentPhaseCount = 0
}

func (a *ReactiveAgent) goalUpdates() {
	a.GoalPos = a.randomPos()
	a.GoalsReached++
	a.GoalBirthTime = *a.simTime
	a.CurrentPhaseCount = 0
}

// angleToGoal returns the global heading from the agent's current position
// to the nearest periodic image of its goal (or the goal itself, in a
// bounded arena).
func (a *ReactiveAgent) angleToGoal() float64 {
	goal := a.GoalPos
	if a.Cfg.Periodic {
		goal = geom.NearestPeriodic(a.CurPos, a.GoalPos, a.Cfg.RUpper)
	}
	return math.Atan2(goal.Y-a.CurPos.Y, goal.X-a.CurPos.X)
}

// getTravelAngle perturbs the goal-facing heading according to Cfg.Noise.
// NoiseNone never perturbs; NoiseConst always adds a noise draw;
// NoiseConditional adds it only when the agent is currently stopped (or
// ConditionalNoise is disabled), and then only with probability NoiseProb.
func (a *ReactiveAgent) getTravelAngle() float64 {
	withoutNoise := a.angleToGoal()
	if a.Cfg.Noise == NoiseNone {
		return withoutNoise
	}

	withNoise := withoutNoise + a.angleNoiseDraw()

	if a.Cfg.Noise == NoiseConst {
		return withNoise
	}

	// NoiseConditional
	if !a.Cfg.ConditionalNoise || a.Stop {
		if a.Rng.Float64() <= a.Cfg.NoiseProb {
			return withNoise
		}
	}
	return withoutNoise
}

func (a *ReactiveAgent) angleNoiseDraw() float64 {
	if a.Cfg.AngleNoise == -1 {
		return distuv.Uniform{Min: -math.Pi, Max: math.Pi, Src: a.Rng}.Rand()
	}
	return distuv.Normal{Mu: a.Cfg.AngleBias, Sigma: a.Cfg.AngleNoise, Src: a.Rng}.Rand()
}

// SensingUpdate checks whether the agent has reached its goal, senses
// nearby agents, and decides the agent's next heading and speed.
func (a *ReactiveAgent) SensingUpdate(sensor Sensor) {
	if a.CurPos.Distance(a.GoalPos) < a.Cfg.GoalTolerance {
		a.goalUpdates()
	}

	a.Sensed = sensor.Sense(a.ID, a.CurPos)
	a.Stop = len(a.Sensed) > 0

	a.decisionUpdate()
}

func (a *ReactiveAgent) decisionUpdate() {
	if a.Cfg.Noise == NoiseNone {
		a.decisionUpdateDirect()
		return
	}
	a.decisionUpdatePhased()
}

// decisionUpdateDirect recomputes heading toward the goal every tick, with
// no phase-holding — the behavior of a plain goal-seeking agent.
func (a *ReactiveAgent) decisionUpdateDirect() {
	a.TravelAngle = a.angleToGoal()
	a.snapOrTurnToward(a.TravelAngle)
	a.FwdSpeed = a.cruiseOrStop()
}

// decisionUpdatePhased holds a heading for Runsteps ticks before
// redrawing it, used by both noise variants: a new run phase begins when
// the previous one's step count is exhausted (or at agent construction),
// at which point Runsteps is optionally rerandomized and a fresh noisy
// heading is drawn.
func (a *ReactiveAgent) decisionUpdatePhased() {
	if a.CurrentPhaseCount >= a.Runsteps {
		a.CurrentPhaseCount = 0
	}

	if a.CurrentPhaseCount == 0 {
		if a.Cfg.RandomizeRunsteps {
			lower := int(math.Round(float64(a.Cfg.AvgRunsteps) / 2))
			higher := int(math.Round(float64(a.Cfg.AvgRunsteps) * 3 / 2))
			a.Runsteps = lower + a.Rng.Intn(higher-lower+1)
		} else {
			a.Runsteps = a.Cfg.AvgRunsteps
		}

		a.TravelAngle = a.getTravelAngle()
		if a.Cfg.Turnspeed == -1 {
			a.CurPos.A = a.TravelAngle
			a.TurnSpeed = 0
		}
	}

	a.FwdSpeed = a.cruiseOrStop()

	if a.Cfg.Turnspeed != -1 {
		a.TurnSpeed = a.Cfg.Turnspeed * geom.Normalize(a.TravelAngle-a.CurPos.A)
	}

	a.CurrentPhaseCount++
}

func (a *ReactiveAgent) cruiseOrStop() float64 {
	if a.Stop {
		return 0
	}
	return a.Cfg.Cruisespeed
}

// snapOrTurnToward either snaps the agent's heading instantly to target
// (Turnspeed == -1) or sets a turn rate proportional to the heading error.
func (a *ReactiveAgent) snapOrTurnToward(target float64) {
	if a.Cfg.Turnspeed == -1 {
		a.CurPos.A = target
		a.TurnSpeed = 0
		return
	}
	a.TurnSpeed = a.Cfg.Turnspeed * geom.Normalize(target-a.CurPos.A)
}

// PositionUpdate integrates the agent's forward and turning speed over DT,
// wraps across the torus if the arena is periodic, and throttles trail
// recording to once per half sim-time unit.
func (a *ReactiveAgent) PositionUpdate() {
	dp := geom.Pose{X: a.FwdSpeed * a.Cfg.DT, A: geom.Normalize(a.TurnSpeed * a.Cfg.DT)}
	a.CurPos = a.CurPos.Add(dp)

	if a.Cfg.Periodic {
		a.CurPos = geom.WrapPeriodic(a.CurPos, a.Cfg.RUpper)
	}

	if a.Cfg.DrawFootprints && math.Mod(*a.simTime, 0.5) <= 0.0001 {
		a.updateTrail()
	}
}

func (a *ReactiveAgent) updateTrail() {
	a.Trail = append(a.Trail, a.CurPos)
	if len(a.Trail) > reactiveTrailCap {
		a.Trail = a.Trail[1:]
	}
}
