package main

import (
	"fmt"
	"io"

	"f4tick/core"
)

func mhz(hz core.Hz) string {
	if hz%core.MHz == 0 {
		return fmt.Sprintf("%d MHz", hz/core.MHz)
	}
	return fmt.Sprintf("%.3f MHz", float64(hz)/float64(core.MHz))
}

func printConfig(w io.Writer, cfg core.ClockConfig) {
	tree := cfg.Tree()
	chip := "stm32f407"
	if cfg.Chip != nil {
		chip = cfg.Chip.Name
	}
	fmt.Fprintf(w, "chip      %s (%s V)\n", chip, cfg.Voltage)
	fmt.Fprintf(w, "HSE       %s\n", mhz(cfg.HSE))
	fmt.Fprintf(w, "PLL       M=%d N=%d P=%d Q=%d\n", cfg.PLL.M, cfg.PLL.N, cfg.PLL.P, cfg.PLL.Q)
	fmt.Fprintf(w, "VCO       %s in, %s out\n", mhz(tree.VCOIn), mhz(tree.VCOOut))
	fmt.Fprintf(w, "SYSCLK    %s\n", mhz(tree.Sysclk))
	fmt.Fprintf(w, "HCLK      %s (AHB /%d)\n", mhz(tree.HCLK), cfg.AHBDiv)
	fmt.Fprintf(w, "PCLK1     %s (APB1 /%d, timers %s)\n", mhz(tree.PCLK1), cfg.APB1Div, mhz(tree.TIMCLK1))
	fmt.Fprintf(w, "PCLK2     %s (APB2 /%d, timers %s)\n", mhz(tree.PCLK2), cfg.APB2Div, mhz(tree.TIMCLK2))
	fmt.Fprintf(w, "PLL48CLK  %s\n", mhz(tree.PLL48))
	fmt.Fprintf(w, "flash     %d wait states\n", cfg.Latency)
	if reload, err := core.SysTickReload(tree.HCLK, core.TicksPerSecond); err == nil {
		fmt.Fprintf(w, "SysTick   reload %d for %d ticks/s\n", reload, core.TicksPerSecond)
	}
}
