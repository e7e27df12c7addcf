package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/mapf-reservation-sim/internal/agent"
	"github.com/elektrokombinacija/mapf-reservation-sim/internal/simcore"
)

func newRunCmd() *cobra.Command {
	var trialLength float64
	var trials int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one or more trials against the configured regime",
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

			var out *simcore.CSVWriter
			if cfg.OutfileName != "" {
				out, err = simcore.OpenCSVWriter(cfg.OutfileName)
				if err != nil {
					return err
				}
				defer out.Close() //nolint:errcheck

				if err := simcore.WriteProvenance(cfg.OutfileName+".yaml", cfg); err != nil {
					return err
				}
			}

			switch cfg.Regime {
			case simcore.RegimeCDP:
				mgr := simcore.NewCDPManager(cfg, log)
				for t := 0; t < trials; t++ {
					trialID := t
					mgr.RunTrial(trialLength, func(_ int, timestep float64, agents []*agent.GridAgent) {
						if out != nil {
							_ = out.WriteCDPRow(cfg, trialID, timestep, agents)
						}
					})
				}
			case simcore.RegimeLRC:
				mgr := simcore.NewLRCManager(cfg, log)
				for t := 0; t < trials; t++ {
					trialID := t
					mgr.RunTrial(trialLength, func(timestep float64, agents []*agent.ReactiveAgent) {
						if out != nil {
							_ = out.WriteLRCRow(cfg, trialID, timestep, agents)
						}
					})
				}
			default:
				return fmt.Errorf("unknown regime %q", cfg.Regime)
			}

			return nil
		},
	}

	cmd.Flags().Float64Var(&trialLength, "trial-length", 1000, "simulated time units per trial")
	cmd.Flags().IntVar(&trials, "trials", 1, "number of trials to run")

	return cmd
}
