package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"f4tick/core"
	"f4tick/host/monitor"
	"f4tick/host/serial"
	"f4tick/protocol"
)

func newMonitorCmd() *cobra.Command {
	opts := struct {
		device   string
		baud     int
		duration time.Duration
		verbose  bool
	}{}

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Read the firmware's reports and measure its tick rate against host time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := serial.DefaultConfig(opts.device)
			cfg.Baud = opts.baud
			port, err := serial.Open(cfg)
			if err != nil {
				return err
			}
			defer port.Close()
			if err := port.Flush(); err != nil {
				return fmt.Errorf("failed to flush %s: %w", opts.device, err)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()
			if opts.duration > 0 {
				ctx, cancel = context.WithTimeout(ctx, opts.duration)
				defer cancel()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Monitoring %s for %v...\n", opts.device, opts.duration)
			return runMonitor(ctx, cmd.OutOrStdout(), port, opts.verbose)
		},
	}

	cmd.Flags().StringVar(&opts.device, "device", "/dev/ttyACM0", "Serial device path")
	cmd.Flags().IntVar(&opts.baud, "baud", 115200, "Baud rate")
	cmd.Flags().DurationVar(&opts.duration, "duration", 10*time.Second, "How long to listen (0 = until interrupted)")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Print every status report")
	return cmd
}

func printBoot(w io.Writer, r *protocol.BootReport) {
	if r.Fault {
		fmt.Fprintf(w, "boot: FAULT at %s, running %s from HSI\n",
			core.BootStage(r.FailedStage), mhz(core.Hz(r.HCLK)))
	} else {
		fmt.Fprintf(w, "boot: SYSCLK %s HCLK %s PCLK1 %s PCLK2 %s, %d wait states\n",
			mhz(core.Hz(r.Sysclk)), mhz(core.Hz(r.HCLK)), mhz(core.Hz(r.PCLK1)), mhz(core.Hz(r.PCLK2)),
			r.FlashLatency)
	}
	fmt.Fprintf(w, "boot: SysTick reload %d, %d ticks/s, protocol v%d\n",
		r.SysTickReload, r.TicksPerSecond, r.Version)
}

func runMonitor(ctx context.Context, w io.Writer, r io.Reader, verbose bool) error {
	m := monitor.New()
	m.OnBoot = func(r *protocol.BootReport) { printBoot(w, r) }
	if verbose {
		m.OnStatus = func(s monitor.Sample) {
			fmt.Fprintf(w, "%s ticks=%d toggles=%d\n", s.Host.Format("15:04:05.000"), s.Ticks, s.Toggles)
		}
	}

	if err := m.Run(ctx, r); err != nil {
		return err
	}

	fmt.Fprintf(w, "%d samples, %d lost frames, %d resyncs\n", len(m.Samples), m.Lost, m.Dropped())
	rate, err := m.Estimate()
	if err != nil {
		return fmt.Errorf("no tick rate: %w", err)
	}
	fmt.Fprintf(w, "tick rate: %s\n", rate)
	return nil
}
