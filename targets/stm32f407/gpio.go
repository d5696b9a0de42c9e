//go:build stm32f407

package main

import (
	"f4tick/core"
	"runtime/volatile"
)

// GPIO port register offsets
const (
	gpioMODER   = 0x00
	gpioOTYPER  = 0x04
	gpioOSPEEDR = 0x08
	gpioPUPDR   = 0x0C
	gpioODR     = 0x14
)

// ledPin drives one pin of GPIOD directly. PD12 is the green LED on the
// STM32F4-Discovery.
type ledPin struct {
	pin   uint8
	moder *volatile.Register32
	otype *volatile.Register32
	speed *volatile.Register32
	pupd  *volatile.Register32
	odr   *volatile.Register32
}

func newLEDPin(pin uint8) *ledPin {
	return &ledPin{
		pin:   pin,
		moder: reg(core.GPIODBase + gpioMODER),
		otype: reg(core.GPIODBase + gpioOTYPER),
		speed: reg(core.GPIODBase + gpioOSPEEDR),
		pupd:  reg(core.GPIODBase + gpioPUPDR),
		odr:   reg(core.GPIODBase + gpioODR),
	}
}

// Configure enables the port clock, then sets the pin up as a low-speed
// push-pull output with no pull resistor
func (p *ledPin) Configure() {
	rcc.AHB1ENR.SetBits(core.RCC_AHB1ENR_GPIODEN)
	// the enable takes two AHB cycles to reach the port
	_ = rcc.AHB1ENR.Get()

	pos := p.pin * 2
	p.moder.ReplaceBits(0x1, 0x3, pos) // general purpose output
	p.otype.ClearBits(1 << p.pin)      // push-pull
	p.speed.ReplaceBits(0x0, 0x3, pos) // low speed
	p.pupd.ReplaceBits(0x0, 0x3, pos)  // no pull
}

// Toggle inverts the output level. Only the foreground touches ODR, so the
// read-modify-write is safe.
func (p *ledPin) Toggle() {
	p.odr.Set(p.odr.Get() ^ 1<<p.pin)
}
