//go:build stm32f407

package main

import (
	"device/arm"
	"f4tick/core"
	"machine"
)

const (
	reportBaud = 115200

	// blinkHalfPeriod is the time the LED spends in each state, in ticks
	blinkHalfPeriod = 500

	// debugOutput sends debug text over the report UART as well. The host
	// decoder skips it, but it costs resyncs.
	debugOutput = false
)

//go:export SysTick_Handler
func sysTickHandler() {
	core.TickHandler()
}

func main() {
	machine.Serial.Configure(machine.UARTConfig{BaudRate: reportBaud})
	core.SetDebugWriter(func(s string) {
		machine.Serial.Write([]byte(s))
		machine.Serial.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(debugOutput)

	led := newLEDPin(12)
	led.Configure()

	initClock()
	initTicks()
	sendBoot(core.StageNone)
	core.DebugPrintln("[MAIN] blinking PD12 every " + core.Utoa(blinkHalfPeriod) + " ticks")

	core.Blink(led, blinkHalfPeriod, 0, sendStatus)
}

// initClock brings the core up to 168 MHz. A hardware fault is reported
// and then the core halts on HSI.
func initClock() {
	cfg := clockConfig()
	cfg.Chip = &core.STM32F407
	if err := core.InitClock(rcc, flash, &cfg, core.DefaultTimeouts()); err != nil {
		fail(err)
	}
	retuneUART()
}

// initTicks starts the 1 kHz tick from the frequency initClock recorded
func initTicks() {
	if err := core.InitSysTick(sysTick, core.TicksPerSecond); err != nil {
		fail(err)
	}
}

func fail(err error) {
	stage, _ := core.LastFault()
	retuneUART()
	core.DebugPrintln("[MAIN] " + err.Error())
	core.DumpBootLog()
	if stage == core.StageNone {
		stage = core.StageSysTick
	}
	sendBoot(stage)
	for {
		arm.Asm("wfi")
	}
}

// retuneUART reprograms the report UART for the APB1 clock the RCC runs now.
// machine.Serial computes its divisor from the compile-time CPU frequency,
// which says nothing about the tree InitClock left behind, least of all
// after a fault.
func retuneUART() {
	pclk1 := core.LiveClocks(rcc, hseFrequency).PCLK1
	usart2BRR.Set(core.BaudDivisor(pclk1, reportBaud))
}
