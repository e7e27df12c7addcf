// Package simcore wires the grid/planner/agent packages (the cooperative
// discrete planner) and the spatial/agent packages (the local reactive
// controller) into runnable simulation managers, configured from one
// sim_params-shaped record and logging to the CSV formats both regimes
// share.
package simcore

import (
	"fmt"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Regime selects which controller a run exercises.
type Regime string

const (
	RegimeCDP Regime = "cdp" // cooperative discrete planner
	RegimeLRC Regime = "lrc" // local reactive controller
)

// Config is one flat set of fields covering both regimes, loaded from YAML
// via viper with defaults set in code before any override is bound.
type Config struct {
	Regime Regime `mapstructure:"regime"`

	NumAgents int     `mapstructure:"num_agents"`
	Periodic  bool    `mapstructure:"periodic"`
	RUpper    float64 `mapstructure:"r_upper"`
	RLower    float64 `mapstructure:"r_lower"`

	// CDP-only.
	CellsPerSide    int     `mapstructure:"cells_per_side"`
	Diags           bool    `mapstructure:"diags"`
	DiagsTakeLonger bool    `mapstructure:"diags_take_longer"`
	TimeSteps       float64 `mapstructure:"time_steps"`

	// LRC-only.
	CircleArena       bool    `mapstructure:"circle_arena"`
	CellsRange        float64 `mapstructure:"cells_range"`
	UseCellLists      bool    `mapstructure:"use_cell_lists"`
	UseSortedAgents   bool    `mapstructure:"use_sorted_agents"`
	Turnspeed         float64 `mapstructure:"turnspeed"`
	AngleNoise        float64 `mapstructure:"anglenoise"`
	AngleBias         float64 `mapstructure:"anglebias"`
	AvgRunsteps       int     `mapstructure:"avg_runsteps"`
	RandomizeRunsteps bool    `mapstructure:"randomize_runsteps"`
	NoiseProb         float64 `mapstructure:"noise_prob"`
	ConditionalNoise  bool    `mapstructure:"conditional_noise"`

	DT            float64 `mapstructure:"dt"`
	Verbose       bool    `mapstructure:"verbose"`
	SensingRange  float64 `mapstructure:"sensing_range"`
	SensingAngle  float64 `mapstructure:"sensing_angle"`
	GoalTolerance float64 `mapstructure:"goal_tolerance"`
	Cruisespeed   float64 `mapstructure:"cruisespeed"`

	RandomColors   bool `mapstructure:"gui_random_colors"`
	DrawFootprints bool `mapstructure:"gui_draw_footprints"`

	SaveDataInterval float64 `mapstructure:"save_data_interval"`
	OutfileName      string  `mapstructure:"outfile_name"`
	AddtlData        string  `mapstructure:"addtl_data"`

	Seed int64 `mapstructure:"seed"`
}

// DefaultConfig returns the baseline parameters every run starts from
// before file/env overrides are applied.
func DefaultConfig() Config {
	return Config{
		Regime:          RegimeCDP,
		NumAgents:       10,
		Periodic:        false,
		RUpper:          10,
		RLower:          0,
		CellsPerSide:    10,
		Diags:           true,
		DiagsTakeLonger: true,
		TimeSteps:       1000,
		CircleArena:     false,
		CellsRange:      10,
		UseCellLists:    true,
		UseSortedAgents: false,
		Turnspeed:       -1,
		AngleNoise:      0.2,
		AngleBias:       0,
		AvgRunsteps:     10,
		NoiseProb:       1,
		DT:              0.1,
		SensingRange:    2,
		SensingAngle:    1.0,
		GoalTolerance:   0.2,
		Cruisespeed:     1.0,
		RandomColors:    true,
		SaveDataInterval: 1.0,
		Seed:             42,
	}
}

// Load reads a Config from path (YAML), falling back to DefaultConfig for
// anything the file doesn't set, and corrects cells_range for a periodic
// arena using cell lists: such an arena must size its cells to exactly
// cover the arena, or cells near the wrap boundary would silently miss
// neighbors on the other side.
func Load(path string, log *zap.Logger) (Config, error) {
	v := viper.New()
	def := DefaultConfig()
	v.SetConfigFile(path)
	setDefaults(v, def)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.Periodic && cfg.UseCellLists && cfg.CellsRange != cfg.RUpper {
		cfg.CellsRange = cfg.RUpper
		log.Warn("periodic arena with cell lists requires cells_range == r_upper; correcting",
			zap.Float64("r_upper", cfg.RUpper))
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, def Config) {
	v.SetDefault("regime", def.Regime)
	v.SetDefault("num_agents", def.NumAgents)
	v.SetDefault("periodic", def.Periodic)
	v.SetDefault("r_upper", def.RUpper)
	v.SetDefault("r_lower", def.RLower)
	v.SetDefault("cells_per_side", def.CellsPerSide)
	v.SetDefault("diags", def.Diags)
	v.SetDefault("diags_take_longer", def.DiagsTakeLonger)
	v.SetDefault("time_steps", def.TimeSteps)
	v.SetDefault("circle_arena", def.CircleArena)
	v.SetDefault("cells_range", def.CellsRange)
	v.SetDefault("use_cell_lists", def.UseCellLists)
	v.SetDefault("use_sorted_agents", def.UseSortedAgents)
	v.SetDefault("turnspeed", def.Turnspeed)
	v.SetDefault("anglenoise", def.AngleNoise)
	v.SetDefault("anglebias", def.AngleBias)
	v.SetDefault("avg_runsteps", def.AvgRunsteps)
	v.SetDefault("randomize_runsteps", def.RandomizeRunsteps)
	v.SetDefault("noise_prob", def.NoiseProb)
	v.SetDefault("conditional_noise", def.ConditionalNoise)
	v.SetDefault("dt", def.DT)
	v.SetDefault("verbose", def.Verbose)
	v.SetDefault("sensing_range", def.SensingRange)
	v.SetDefault("sensing_angle", def.SensingAngle)
	v.SetDefault("goal_tolerance", def.GoalTolerance)
	v.SetDefault("cruisespeed", def.Cruisespeed)
	v.SetDefault("gui_random_colors", def.RandomColors)
	v.SetDefault("gui_draw_footprints", def.DrawFootprints)
	v.SetDefault("save_data_interval", def.SaveDataInterval)
	v.SetDefault("outfile_name", def.OutfileName)
	v.SetDefault("addtl_data", def.AddtlData)
	v.SetDefault("seed", def.Seed)
}
