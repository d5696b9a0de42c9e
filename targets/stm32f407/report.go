//go:build stm32f407

package main

import (
	"f4tick/core"
	"f4tick/protocol"
	"machine"
)

var (
	encoder protocol.Encoder
	output  = protocol.NewScratchOutput()
)

// send frames one report and writes it to the report UART
func send(payload func(protocol.OutputBuffer)) {
	output.Reset()
	if err := encoder.Frame(output, payload); err != nil {
		return
	}
	machine.Serial.Write(output.Result())
}

// sendBoot reports the clock tree the core ended up on
func sendBoot(failed core.BootStage) {
	reload, rate := core.SysTickConfig()
	tree := core.LiveClocks(rcc, hseFrequency)
	r := protocol.BootReport{
		Version:        protocol.Version,
		Fault:          failed != core.StageNone,
		FailedStage:    uint32(failed),
		Sysclk:         uint32(tree.Sysclk),
		HCLK:           uint32(tree.HCLK),
		PCLK1:          uint32(tree.PCLK1),
		PCLK2:          uint32(tree.PCLK2),
		FlashLatency:   flash.ACR.Get() & core.STM32F407.LatencyMask(),
		SysTickReload:  reload,
		TicksPerSecond: rate,
	}
	send(func(o protocol.OutputBuffer) { protocol.EncodeBoot(o, &r) })
}

// sendStatus is the blink hook: one status report per toggle
func sendStatus(toggles uint32) {
	ts := core.Now()
	r := protocol.StatusReport{
		Ticks:   ts.Ticks,
		Micros:  uint32(ts.Micros()),
		Toggles: toggles,
	}
	send(func(o protocol.OutputBuffer) { protocol.EncodeStatus(o, &r) })
}
