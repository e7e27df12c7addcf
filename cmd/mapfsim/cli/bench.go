package cli

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/mapf-reservation-sim/internal/simcore"
)

// newBenchCmd sweeps num_agents over a small fixed set of values and runs
// one CDP trial per value, appending a trials/planner row (search, node,
// and replan call-counters plus wall-clock time since trial start) at every
// save-data interval boundary. Large-scale parameter sweeps belong to an
// external driver script; this command exists to exercise the trials log
// format end to end with a small, fixed sweep.
func newBenchCmd() *cobra.Command {
	var trialLength float64
	var agentCounts []int

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Sweep num_agents and record planner call-counters per trial",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := buildLogger()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			cfg, err := simcore.Load(cfgPath, log)
			if err != nil {
				return err
			}
			cfg.Regime = simcore.RegimeCDP

			if cfg.OutfileName == "" {
				return fmt.Errorf("bench requires outfile_name to be set")
			}
			out, err := simcore.OpenCSVWriter(cfg.OutfileName)
			if err != nil {
				return err
			}
			defer out.Close() //nolint:errcheck

			for trialID, n := range agentCounts {
				trialCfg := cfg
				trialCfg.NumAgents = n

				mgr := simcore.NewCDPManager(trialCfg, log)
				start := time.Now()
				mgr.Reset()

				for mgr.Timestep() < trialLength {
					if math.Mod(mgr.Timestep(), trialCfg.SaveDataInterval) < 0.0001 {
						if err := out.WriteTrialsRow(trialID, mgr.Timestep(), mgr.PlannerStats(), start); err != nil {
							return err
						}
					}
					mgr.Update()
				}
				if err := out.WriteTrialsRow(trialID, mgr.Timestep(), mgr.PlannerStats(), start); err != nil {
					return err
				}
			}

			return nil
		},
	}

	cmd.Flags().Float64Var(&trialLength, "trial-length", 1000, "simulated time units per trial")
	cmd.Flags().IntSliceVar(&agentCounts, "agent-counts", []int{5, 10, 20}, "num_agents values to sweep, one trial each")

	return cmd
}
