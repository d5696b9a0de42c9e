package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "f4tick",
		Short: "Clock planning, simulation and monitoring for the STM32F407 tick firmware",
		Long: "f4tick plans and checks STM32F4 clock trees, runs the clock bring-up " +
			"against a simulated chip, and measures a running board's tick rate " +
			"from its report stream.",
		SilenceUsage: true,
	}
	root.AddCommand(newPlanCmd(), newCheckCmd(), newSimulateCmd(), newMonitorCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
