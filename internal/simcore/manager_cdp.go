package simcore

import (
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/elektrokombinacija/mapf-reservation-sim/internal/agent"
	"github.com/elektrokombinacija/mapf-reservation-sim/internal/grid"
	"github.com/elektrokombinacija/mapf-reservation-sim/internal/planner"
	"github.com/elektrokombinacija/mapf-reservation-sim/internal/reservation"
)

// CDPManager drives a cooperative-discrete-planner trial: per tick, every
// agent's plan is refreshed, then every agent moves, then every agent's
// display heading is recomputed — three strictly ordered passes, so no
// agent ever moves on a plan another agent invalidated later in the same
// tick.
type CDPManager struct {
	cfg   Config
	log   *zap.Logger
	space *grid.Discretizer
	table *reservation.Table
	pl    *planner.Planner

	timestep float64
	agents   []*agent.GridAgent
}

// NewCDPManager builds the grid, planner, and agent population for cfg.
func NewCDPManager(cfg Config, log *zap.Logger) *CDPManager {
	m := &CDPManager{cfg: cfg, log: log}

	m.space = grid.NewDiscretizer(cfg.RUpper, cfg.CellsPerSide, cfg.Periodic, cfg.Diags)
	m.table = reservation.New(log, cfg.Verbose)
	m.pl = &planner.Planner{
		Space:           m.space,
		DiagsTakeLonger: cfg.DiagsTakeLonger,
		TotalTimesteps:  cfg.TimeSteps,
		Reservations:    m.table,
		Verbose:         cfg.Verbose,
		Log:             log,
		CurrentTimestep: &m.timestep,
		Agents:          make(map[reservation.AgentID]planner.Blocker),
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	agentCfg := agent.GridAgentConfig{
		SensingRange:   cfg.SensingRange,
		SensingAngle:   cfg.SensingAngle,
		DrawFootprints: cfg.DrawFootprints,
		RandomColors:   cfg.RandomColors,
	}
	for i := 0; i < cfg.NumAgents; i++ {
		a := agent.NewGridAgent(reservation.AgentID(i), m.space, m.pl, agentCfg, rng, log, &m.timestep)
		m.agents = append(m.agents, a)
		m.pl.Agents[a.ID] = a
	}

	return m
}

// Update advances the simulation by one tick: refresh every plan, move
// every agent, advance the shared timestep, then recompute display
// headings.
func (m *CDPManager) Update() {
	for _, a := range m.agents {
		a.UpdatePlan()
	}
	for _, a := range m.agents {
		a.UpdateMotion()
	}

	if m.cfg.DiagsTakeLonger {
		m.timestep += 0.5
	} else {
		m.timestep += 1.0
	}

	for _, a := range m.agents {
		a.UpdateTravelAngle()
	}
}

// Reset zeroes the timestep, clears the reservation table, and resets
// every agent to a fresh random position and goal.
func (m *CDPManager) Reset() {
	m.timestep = 0
	m.table.Clear()
	m.pl.Reset()
	for _, a := range m.agents {
		a.Reset()
	}
}

// PlannerStats returns the shared planner's call-counters since the last
// Reset, for the trials/planner log.
func (m *CDPManager) PlannerStats() planner.Stats { return m.pl.Stats() }

// RunTrial resets the manager and advances it until the shared timestep
// reaches trialLength, invoking record at each save-data boundary (and
// once more at the end) for the caller to persist a CSV row per agent.
func (m *CDPManager) RunTrial(trialLength float64, record func(trialID int, timestep float64, agents []*agent.GridAgent)) {
	m.Reset()

	for m.timestep < trialLength {
		if record != nil && math.Mod(m.timestep, m.cfg.SaveDataInterval) < 0.0001 {
			record(0, m.timestep, m.agents)
		}
		m.Update()
	}

	if record != nil {
		record(0, m.timestep, m.agents)
	}
}

// Agents returns the manager's agent population.
func (m *CDPManager) Agents() []*agent.GridAgent { return m.agents }

// Timestep returns the manager's current simulation time.
func (m *CDPManager) Timestep() float64 { return m.timestep }
