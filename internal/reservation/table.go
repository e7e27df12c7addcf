// Package reservation implements the space-time reservation table shared by
// every agent's planner: a record of which grid cell is claimed at which
// time, keyed so that Go's built-in map equality does the hashing instead of
// a hand-rolled XOR mix.
package reservation

import (
	"math"

	"go.uber.org/zap"

	"github.com/elektrokombinacija/mapf-reservation-sim/internal/geom"
)

// AgentID identifies the agent holding a reservation.
type AgentID int

// Key is a space-time reservation slot. T is quantized to the nearest half
// unit before storage so that two float64 values meant to represent the same
// instant compare and hash equal, relying on Go's structural map equality
// instead of a hand-rolled hash over the raw float.
type Key struct {
	T   int // 2*t, rounded, so half-unit timesteps are exact integers
	IDX int
	IDY int
}

// NewKey builds a Key from a continuous time and grid coordinate. t must be
// a multiple of 0.5.
func NewKey(t float64, id geom.SiteID) Key {
	return Key{T: int(math.Round(2 * t)), IDX: id.IDX, IDY: id.IDY}
}

func (k Key) Time() float64 {
	return float64(k.T) / 2
}

// Table is the reservation table: a single map shared by every agent's
// planner instance, since the planner itself coordinates all agents.
type Table struct {
	slots  map[Key]AgentID
	log    *zap.Logger
	verbose bool
}

// New creates an empty reservation table. log must not be nil; pass
// zap.NewNop() in tests that don't care about diagnostics.
func New(log *zap.Logger, verbose bool) *Table {
	return &Table{
		slots:   make(map[Key]AgentID),
		log:     log,
		verbose: verbose,
	}
}

// Reserved reports whether (t, id) is already claimed by anyone.
func (tbl *Table) Reserved(t float64, id geom.SiteID) bool {
	_, ok := tbl.slots[NewKey(t, id)]
	return ok
}

// Owner returns the agent holding (t, id), if any.
func (tbl *Table) Owner(t float64, id geom.SiteID) (AgentID, bool) {
	a, ok := tbl.slots[NewKey(t, id)]
	return a, ok
}

// Make claims (t, id) for agent. A conflicting reservation is logged and
// overwritten rather than rejected outright — callers are expected to have
// already checked Reserved before calling Make.
func (tbl *Table) Make(t float64, id geom.SiteID, agent AgentID) {
	key := NewKey(t, id)
	if blocker, ok := tbl.slots[key]; ok && blocker != agent {
		tbl.log.Error("reservation conflict",
			zap.Float64("t", t), zap.Int("idx", id.IDX), zap.Int("idy", id.IDY),
			zap.Int("requester", int(agent)), zap.Int("blocker", int(blocker)))
	}
	tbl.slots[key] = agent
	if tbl.verbose {
		tbl.log.Debug("reservation made",
			zap.Float64("t", t), zap.Int("idx", id.IDX), zap.Int("idy", id.IDY),
			zap.Int("agent", int(agent)))
	}
}

// Erase releases (t, id). It logs an error rather than panicking if the slot
// was never reserved, since an aborted plan may try to release a cell it
// never actually got to reserve.
func (tbl *Table) Erase(t float64, id geom.SiteID, agent AgentID) {
	key := NewKey(t, id)
	holder, ok := tbl.slots[key]
	if !ok {
		tbl.log.Error("erasing reservation that was never made",
			zap.Float64("t", t), zap.Int("idx", id.IDX), zap.Int("idy", id.IDY),
			zap.Int("agent", int(agent)))
		return
	}
	if holder != agent {
		tbl.log.Error("erasing reservation held by a different agent",
			zap.Float64("t", t), zap.Int("idx", id.IDX), zap.Int("idy", id.IDY),
			zap.Int("agent", int(agent)), zap.Int("holder", int(holder)))
	}
	delete(tbl.slots, key)
}

// Clear drops every reservation, for a fresh trial.
func (tbl *Table) Clear() {
	tbl.slots = make(map[Key]AgentID)
}
