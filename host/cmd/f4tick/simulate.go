package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"f4tick/core"
	"f4tick/sim"
)

type simulateOptions struct {
	hse       uint32
	hseFault  bool
	pllFault  bool
	bootOnPLL bool
	ms        uint32
	blinks    uint32
}

func newSimulateCmd() *cobra.Command {
	var opts simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the clock and tick bring-up against a simulated STM32F407",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return simulate(cmd.OutOrStdout(), opts)
		},
	}

	cmd.Flags().Uint32Var(&opts.hse, "hse", 8000000, "Crystal fitted to the simulated board, in Hz")
	cmd.Flags().BoolVar(&opts.hseFault, "hse-fault", false, "HSE never becomes ready")
	cmd.Flags().BoolVar(&opts.pllFault, "pll-fault", false, "PLL never locks")
	cmd.Flags().BoolVar(&opts.bootOnPLL, "boot-on-pll", false, "Start from a running PLL, as the TinyGo runtime leaves it")
	cmd.Flags().Uint32Var(&opts.ms, "ms", 1000, "Simulated milliseconds to run after bring-up")
	cmd.Flags().Uint32Var(&opts.blinks, "blinks", 0, "Run the indicator loop for this many toggles")
	return cmd
}

func simulate(w io.Writer, opts simulateOptions) error {
	simOpts := sim.DefaultOptions()
	simOpts.HSE = core.Hz(opts.hse)
	simOpts.HSEFault = opts.hseFault
	simOpts.PLLFault = opts.pllFault
	simOpts.BootOnPLL = opts.bootOnPLL
	chip := sim.New(simOpts)

	core.SetCoreClock(core.HSIFrequency)
	core.SetTicks(0)
	core.ClearBootLog()
	core.SetDebugWriter(func(s string) { fmt.Fprintln(w, s) })
	core.SetDebugEnabled(true)
	defer core.SetDebugEnabled(false)

	cfg := core.DefaultClockConfig()
	clockErr := core.InitClock(chip.RCC(), chip.Flash(), &cfg, core.DefaultTimeouts())
	if clockErr != nil {
		fmt.Fprintf(w, "clock bring-up failed: %v\n", clockErr)
		core.DumpBootLog()
	}

	chip.SetTickHandler(core.TickHandler)
	if err := core.InitSysTick(chip.SysTick(), core.TicksPerSecond); err != nil {
		return fmt.Errorf("systick: %w", err)
	}

	chip.AdvanceMillis(opts.ms)
	fmt.Fprintf(w, "core running at %s, recorded %s\n", mhz(chip.HCLK()), mhz(core.CoreClock()))
	fmt.Fprintf(w, "%d ticks in %d simulated ms\n", core.Ticks(), opts.ms)
	for _, f := range chip.Faults {
		fmt.Fprintf(w, "hardware fault: %s\n", f)
	}

	if opts.blinks > 0 {
		blink(w, chip, opts.blinks)
	}

	if clockErr != nil {
		return clockErr
	}
	if len(chip.Faults) != 0 {
		return fmt.Errorf("%d hardware rules broken", len(chip.Faults))
	}
	return nil
}

// blink runs the indicator loop with the chip free-running underneath
func blink(w io.Writer, chip *sim.STM32F4, n uint32) {
	pin := &sim.Pin{Clock: core.Ticks}
	pin.Configure()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		chip.Run(stop, 1)
	}()
	core.Blink(pin, 500, n, nil)
	close(stop)
	<-done

	for i, at := range pin.Toggles {
		fmt.Fprintf(w, "toggle %d at tick %d\n", i+1, at)
	}
}
