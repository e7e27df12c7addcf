package simcore

import (
	"math"
	"math/rand"

	"go.uber.org/zap"

	"github.com/elektrokombinacija/mapf-reservation-sim/internal/agent"
	"github.com/elektrokombinacija/mapf-reservation-sim/internal/geom"
	"github.com/elektrokombinacija/mapf-reservation-sim/internal/spatial"
)

// occupant adapts a ReactiveAgent to spatial.Occupant.
type occupant struct{ a *agent.ReactiveAgent }

func (o occupant) AgentID() int      { return o.a.ID }
func (o occupant) Pose() geom.Pose   { return o.a.CurPos }

// sensorAdapter exposes whichever spatial index the run is configured to
// use (cell list or sorted axes) as an agent.Sensor, filtering sensed
// neighbors down to the ones inside the agent's cone.
type sensorAdapter struct {
	cells  *spatial.CellIndex
	sorted *spatial.SortedIndex
	cfg    Config
}

func (s *sensorAdapter) Sense(agentID int, pos geom.Pose) []agent.Sensed {
	var candidates []spatial.Occupant
	if s.cells != nil {
		candidates = append(candidates, s.cells.Nearby(agentID, pos)...)
	}
	if s.sorted != nil {
		candidates = append(candidates, s.sorted.Nearby(agentID, pos)...)
	}

	var inCone []agent.Sensed
	seen := make(map[int]bool)
	for _, c := range candidates {
		if seen[c.AgentID()] {
			continue
		}
		seen[c.AgentID()] = true
		result := geom.InVisionCone(pos, pos.A, s.cfg.SensingAngle, s.cfg.SensingRange, c.Pose())
		if result.InCone {
			inCone = append(inCone, agent.Sensed{ID: c.AgentID(), Dist: result.Distance})
		}
	}
	return inCone
}

// LRCManager drives a local-reactive-controller trial: per tick, the
// spatial index is refreshed first (so every agent senses the same
// snapshot), then every agent senses and decides, then every agent
// integrates its motion, a strict two-pass ordering within a tick.
type LRCManager struct {
	cfg    Config
	log    *zap.Logger
	sensor *sensorAdapter

	simTime float64
	agents  []*agent.ReactiveAgent
}

// NewLRCManager builds the spatial index and agent population for cfg.
func NewLRCManager(cfg Config, log *zap.Logger) *LRCManager {
	m := &LRCManager{cfg: cfg, log: log}

	s := &sensorAdapter{cfg: cfg}
	if cfg.UseCellLists {
		s.cells = spatial.NewCellIndex(cfg.CellsPerSide, cfg.CellsRange, cfg.Periodic)
	}
	if cfg.UseSortedAgents {
		s.sorted = spatial.NewSortedIndex(cfg.SensingRange, log)
	}
	m.sensor = s

	rng := rand.New(rand.NewSource(cfg.Seed))
	noise := agent.NoiseNone
	if cfg.AvgRunsteps > 0 {
		noise = agent.NoiseConst
		if cfg.ConditionalNoise {
			noise = agent.NoiseConditional
		}
	}
	agentCfg := agent.ReactiveAgentConfig{
		DT:                cfg.DT,
		Periodic:          cfg.Periodic,
		CircleArena:       cfg.CircleArena,
		RUpper:            cfg.RUpper,
		RLower:            cfg.RLower,
		SensingRange:      cfg.SensingRange,
		SensingAngle:      cfg.SensingAngle,
		GoalTolerance:     cfg.GoalTolerance,
		Cruisespeed:       cfg.Cruisespeed,
		Turnspeed:         cfg.Turnspeed,
		Noise:             noise,
		AngleBias:         cfg.AngleBias,
		AngleNoise:        cfg.AngleNoise,
		AvgRunsteps:       cfg.AvgRunsteps,
		RandomizeRunsteps: cfg.RandomizeRunsteps,
		ConditionalNoise:  cfg.ConditionalNoise,
		NoiseProb:         cfg.NoiseProb,
		DrawFootprints:    cfg.DrawFootprints,
	}

	for i := 0; i < cfg.NumAgents; i++ {
		m.agents = append(m.agents, agent.NewReactiveAgent(i, agentCfg, rng, &m.simTime))
	}
	m.refreshIndex()

	return m
}

func (m *LRCManager) occupants() []spatial.Occupant {
	out := make([]spatial.Occupant, len(m.agents))
	for i, a := range m.agents {
		out[i] = occupant{a}
	}
	return out
}

func (m *LRCManager) refreshIndex() {
	allBlocked := true
	for _, a := range m.agents {
		if a.FwdSpeed != 0 {
			allBlocked = false
			break
		}
	}

	if m.sensor.cells != nil && (!allBlocked || m.simTime == 0) {
		m.sensor.cells.Populate(m.occupants())
	}
	if m.sensor.sorted != nil {
		m.sensor.sorted.Refresh(m.occupants(), allBlocked, m.simTime == 0)
	}
}

// Update refreshes the spatial index, then runs every agent's sensing and
// decision step, then every agent's motion step, then advances sim time.
func (m *LRCManager) Update() {
	m.refreshIndex()

	for _, a := range m.agents {
		a.SensingUpdate(m.sensor)
	}
	for _, a := range m.agents {
		a.PositionUpdate()
	}

	m.simTime += m.cfg.DT
}

// Reset zeroes sim time first (agents stamp it as their own goal birth
// time during their own reset), resets every agent, then re-populates the
// spatial index against the freshly randomized positions.
func (m *LRCManager) Reset() {
	m.simTime = 0
	for _, a := range m.agents {
		a.Reset()
	}
	m.refreshIndex()
}

// RunTrial resets the manager and advances it until sim time reaches
// trialLength, invoking record at each save-data boundary (and once more at
// the end), matching CDPManager.RunTrial's interval gating.
func (m *LRCManager) RunTrial(trialLength float64, record func(timestep float64, agents []*agent.ReactiveAgent)) {
	m.Reset()

	for m.simTime < trialLength {
		if record != nil && math.Mod(m.simTime, m.cfg.SaveDataInterval) < 0.0001 {
			record(m.simTime, m.agents)
		}
		m.Update()
	}

	if record != nil {
		record(m.simTime, m.agents)
	}
}

// Agents returns the manager's agent population.
func (m *LRCManager) Agents() []*agent.ReactiveAgent { return m.agents }

// SimTime returns the manager's current simulation time.
func (m *LRCManager) SimTime() float64 { return m.simTime }
