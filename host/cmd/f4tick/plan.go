package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"f4tick/clockplan"
	"f4tick/core"
)

func newPlanCmd() *cobra.Command {
	opts := struct {
		chip    string
		hse     uint32
		sysclk  uint32
		vrange  string
		goConst bool
		pkg     string
	}{}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Find exact PLL factors, bus dividers and wait states for a target SYSCLK",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limits, err := clockplan.LookupLimits(opts.chip)
			if err != nil {
				return fmt.Errorf("%w (known: %s)", err, strings.Join(clockplan.All().Names(), ", "))
			}
			voltage, ok := core.ParseVoltageRange(opts.vrange)
			if !ok {
				return fmt.Errorf("unknown voltage range %q", opts.vrange)
			}
			target := core.Hz(opts.sysclk)
			if target == 0 {
				target = limits.SysclkMax
			}

			cfg, err := core.PlanClock(limits, core.Hz(opts.hse), target, voltage)
			if err != nil {
				return fmt.Errorf("no plan for %d Hz from %d Hz: %w", target, opts.hse, err)
			}
			return emit(cmd, cfg, opts.goConst, opts.pkg)
		},
	}

	cmd.Flags().StringVar(&opts.chip, "chip", "stm32f407", "Chip name or alias")
	cmd.Flags().Uint32Var(&opts.hse, "hse", 8000000, "HSE crystal frequency in Hz")
	cmd.Flags().Uint32Var(&opts.sysclk, "sysclk", 0, "Target SYSCLK in Hz (default: the chip maximum)")
	cmd.Flags().StringVar(&opts.vrange, "vrange", core.Range27to36.String(), "Supply voltage range")
	cmd.Flags().BoolVar(&opts.goConst, "go", false, "Print the plan as a Go source file")
	cmd.Flags().StringVar(&opts.pkg, "package", "main", "Package name for --go output")
	return cmd
}

func emit(cmd *cobra.Command, cfg core.ClockConfig, goConst bool, pkg string) error {
	if goConst {
		src, err := clockplan.GoConstants(cfg, pkg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(src)
		return err
	}
	printConfig(cmd.OutOrStdout(), cfg)
	return nil
}
