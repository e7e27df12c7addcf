package simcore

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/elektrokombinacija/mapf-reservation-sim/internal/agent"
	"github.com/elektrokombinacija/mapf-reservation-sim/internal/planner"
)

// CSVWriter appends rows to either log stream: the agents file (one row per
// agent per recorded tick, via WriteCDPRow/WriteLRCRow) or the
// trials/planner file (one row per recorded interval, via WriteTrialsRow).
// Fractional fields are formatted to two decimal places; integer fields
// (ids, grid indices, counters) are written as plain integers.
type CSVWriter struct {
	f             *os.File
	w             *csv.Writer
	headerWritten bool
}

var (
	cdpHeader = []string{
		"trial", "periodic", "num_robots", "sim_time", "robot_id",
		"x_pos", "y_pos", "goal_birth_time", "goals_reached", "addtl_data",
	}
	lrcHeader = []string{
		"trial", "periodic", "num_robots", "noise", "noise_prob", "sim_time",
		"robot_id", "x_pos", "y_pos", "angle", "goal_x_pos", "goal_y_pos",
		"goal_birth_time", "goals_reached", "stopped", "nearby_robot", "addtl_data",
	}
	trialsHeader = []string{
		"trial", "sim_time", "search_calls", "search_nodes", "replan_calls", "wall_clock_seconds",
	}
)

// OpenCSVWriter appends to (creating if necessary) the file at path. A
// fresh (empty) file still needs its header row written on the first call
// to one of the Write*Row methods; a file that already has content is
// assumed to carry its header already, from an earlier OpenCSVWriter call
// against the same path.
func OpenCSVWriter(path string) (*CSVWriter, error) {
	info, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	headerWritten := statErr == nil && info.Size() > 0
	return &CSVWriter{f: f, w: csv.NewWriter(f), headerWritten: headerWritten}, nil
}

func (c *CSVWriter) writeHeaderOnce(header []string) error {
	if c.headerWritten {
		return nil
	}
	c.headerWritten = true
	return c.w.Write(header)
}

// Close flushes buffered rows and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return err
	}
	return c.f.Close()
}

// WriteCDPRow appends one row per agent: trial, periodic, num_agents,
// sim_time, robot_id, x_idx, y_idy, goal_birth_time, goals_reached,
// addtl_data.
func (c *CSVWriter) WriteCDPRow(cfg Config, trialID int, timestep float64, agents []*agent.GridAgent) error {
	if err := c.writeHeaderOnce(cdpHeader); err != nil {
		return err
	}
	for _, a := range agents {
		row := []string{
			fmt.Sprint(trialID),
			fmt.Sprint(cfg.Periodic),
			fmt.Sprint(cfg.NumAgents),
			fmt.Sprintf("%.2f", timestep),
			fmt.Sprint(int(a.ID)),
			fmt.Sprint(a.GetPos().IDX),
			fmt.Sprint(a.GetPos().IDY),
			fmt.Sprintf("%.2f", a.GoalBirthTime),
			fmt.Sprint(a.GoalsReached),
			cfg.AddtlData,
		}
		if err := c.w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// WriteLRCRow appends one row per agent: trial, periodic, num_robots,
// noise, noise_prob, sim_time, robot_id, x_pos, y_pos, angle, goal_x_pos,
// goal_y_pos, goal_birth_time, goals_reached, stopped, nearby_robot,
// addtl_data. When an agent is stopped, one row is emitted per entry in
// its sensed list (nearby_robot varying, every other field repeated);
// otherwise a single row is emitted with nearby_robot left blank.
func (c *CSVWriter) WriteLRCRow(cfg Config, trialID int, timestep float64, agents []*agent.ReactiveAgent) error {
	if err := c.writeHeaderOnce(lrcHeader); err != nil {
		return err
	}

	noise := "none"
	switch {
	case cfg.AvgRunsteps > 0 && cfg.ConditionalNoise:
		noise = "conditional"
	case cfg.AvgRunsteps > 0:
		noise = "const"
	}

	for _, a := range agents {
		base := []string{
			fmt.Sprint(trialID),
			fmt.Sprint(cfg.Periodic),
			fmt.Sprint(cfg.NumAgents),
			noise,
			fmt.Sprintf("%.2f", cfg.NoiseProb),
			fmt.Sprintf("%.2f", timestep),
			fmt.Sprint(a.ID),
			fmt.Sprintf("%.2f", a.CurPos.X),
			fmt.Sprintf("%.2f", a.CurPos.Y),
			fmt.Sprintf("%.2f", a.CurPos.A),
			fmt.Sprintf("%.2f", a.GoalPos.X),
			fmt.Sprintf("%.2f", a.GoalPos.Y),
			fmt.Sprintf("%.2f", a.GoalBirthTime),
			fmt.Sprint(a.GoalsReached),
			fmt.Sprint(a.Stop),
		}

		if !a.Stop || len(a.Sensed) == 0 {
			row := append(append([]string{}, base...), "", cfg.AddtlData)
			if err := c.w.Write(row); err != nil {
				return err
			}
			continue
		}

		for _, s := range a.Sensed {
			row := append(append([]string{}, base...), fmt.Sprint(s.ID), cfg.AddtlData)
			if err := c.w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteTrialsRow appends one row to the trials/planner file: trial,
// sim_time, planner search/node/replan call-counters since the trial
// started, and wall-clock time elapsed since trialStart.
func (c *CSVWriter) WriteTrialsRow(trialID int, timestep float64, stats planner.Stats, trialStart time.Time) error {
	if err := c.writeHeaderOnce(trialsHeader); err != nil {
		return err
	}
	row := []string{
		fmt.Sprint(trialID),
		fmt.Sprintf("%.2f", timestep),
		fmt.Sprint(stats.SearchCalls),
		fmt.Sprint(stats.SearchNodes),
		fmt.Sprint(stats.ReplanCalls),
		fmt.Sprintf("%.2f", time.Since(trialStart).Seconds()),
	}
	return c.w.Write(row)
}

// WriteProvenance writes cfg as a YAML sidecar next to the CSV output, so a
// run's configuration travels with its tabular data.
func WriteProvenance(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
