package sim

import "f4tick/core"

// readCTRL clears COUNTFLAG on every read, as the hardware does
func (s *STM32F4) readCTRL(r *Register) uint32 {
	v := r.value
	r.value &^= core.SysTick_CTRL_COUNTFLAG
	return v
}

// writeVAL clears the current value whatever is written
func (s *STM32F4) writeVAL(r *Register, v uint32) {
	r.value = 0
	s.CTRL.value &^= core.SysTick_CTRL_COUNTFLAG
}

// Advance runs the simulated core for n HCLK cycles, counting SysTick
// down and taking the tick exception every time it wraps.
func (s *STM32F4) Advance(n uint64) {
	ctrl := s.CTRL.value
	if ctrl&core.SysTick_CTRL_ENABLE == 0 {
		return
	}
	if ctrl&core.SysTick_CTRL_CLKSOURCE == 0 {
		s.prescaler += n
		n = s.prescaler / 8
		s.prescaler %= 8
	}
	load := s.LOAD.value & core.SysTick_LOAD_Max
	for n > 0 {
		val := s.VAL.value
		if val == 0 {
			// reload takes one counter clock
			s.VAL.value = load
			n--
			continue
		}
		step := uint64(val)
		if n < step {
			s.VAL.value = val - uint32(n)
			return
		}
		n -= step
		s.VAL.value = 0
		s.CTRL.value |= core.SysTick_CTRL_COUNTFLAG
		if s.CTRL.value&core.SysTick_CTRL_TICKINT != 0 && s.tickHandler != nil {
			s.tickHandler()
		}
	}
}

// AdvanceMillis runs the core for ms milliseconds of wall time at the
// frequency the hardware is really running at, which need not be the one
// software recorded.
func (s *STM32F4) AdvanceMillis(ms uint32) {
	s.Advance(uint64(s.HCLK()) * uint64(ms) / 1000)
}
