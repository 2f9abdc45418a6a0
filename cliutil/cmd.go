package cliutil

import (
	"fmt"
	"os"

	"github.com/ctessum-atm/atmsim"

	"github.com/spf13/cobra"
)

// newSimulateCmd builds the `atmsim simulate` subcommand: it runs the
// full pipeline and prints a diagnostic dump, per spec.md §6's
// simulate(use_cache) operation.
func newSimulateCmd(cfg *Cfg) *cobra.Command {
	var useCache bool
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the simulation pipeline and report the derived state.",
		Long: `simulate draws a realization (or loads one from cache, with --use-cache)
and prints the resulting configuration and derived geometry.`,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sim, err := atmsim.New(cfg.SimConfig())
			if err != nil {
				return err
			}
			if err := sim.Simulate(useCache); err != nil {
				return err
			}
			sim.Print(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().BoolVar(&useCache, "use-cache", false, "use-cache attempts to load a matching realization from cachedir before rebuilding.")
	return cmd
}

// newObserveCmd builds the `atmsim observe` subcommand: a minimal
// calibration entry point that simulates once, then observes the single
// (t,az,el) sample given by its flags, per spec.md §6's observe(...)
// operation.
func newObserveCmd(cfg *Cfg) *cobra.Command {
	var az, el, t, fixedR float64
	cmd := &cobra.Command{
		Use:   "observe",
		Short: "Simulate once and observe a single (t,az,el) sample.",
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			sim, err := atmsim.New(cfg.SimConfig())
			if err != nil {
				return err
			}
			if err := sim.Simulate(true); err != nil {
				return err
			}
			tod, err := sim.Observe([]atmsim.Sample{{T: t, Az: az, El: el}}, fixedR)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.16e\n", tod[0])
			return nil
		},
	}
	cmd.Flags().Float64Var(&az, "az", 0, "az is the sample's azimuth, radians.")
	cmd.Flags().Float64Var(&el, "el", 0, "el is the sample's elevation, radians.")
	cmd.Flags().Float64Var(&t, "t", 0, "t is the sample's time, seconds.")
	cmd.Flags().Float64Var(&fixedR, "fixed-r", -1, "fixed-r, if positive, selects a single-evaluation calibration mode at that radius.")
	return cmd
}

// Execute runs the root command, exiting the process with a non-zero
// status on failure.
func Execute() {
	cfg := InitializeConfig()
	if err := cfg.Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
