package sim

import "runtime"

// Pin is a simulated indicator output. It records every toggle together
// with the tick count read from Clock at that moment.
type Pin struct {
	Clock func() uint32

	configured bool
	level      bool
	Toggles    []uint32
}

// Configure marks the pin as an output
func (p *Pin) Configure() {
	p.configured = true
}

// Toggle inverts the output level
func (p *Pin) Toggle() {
	if !p.configured {
		panic("sim: toggle before configure")
	}
	p.level = !p.level
	var now uint32
	if p.Clock != nil {
		now = p.Clock()
	}
	p.Toggles = append(p.Toggles, now)
}

// Level returns the current output level
func (p *Pin) Level() bool {
	return p.level
}

// Run advances the chip by stepMs of simulated time per iteration until
// stop is closed, standing in for the free-running hardware while the
// foreground spins in a delay. Only SysTick state and the tick handler are
// touched, so the foreground must leave the chip's registers alone while
// Run is active.
func (s *STM32F4) Run(stop <-chan struct{}, stepMs uint32) {
	hclk := uint64(s.HCLK())
	step := hclk * uint64(stepMs) / 1000
	for {
		select {
		case <-stop:
			return
		default:
		}
		s.Advance(step)
		s.elapsedMs.Add(uint64(stepMs))
		runtime.Gosched()
	}
}

// ElapsedMillis returns the simulated time Run has covered
func (s *STM32F4) ElapsedMillis() uint64 {
	return s.elapsedMs.Load()
}
