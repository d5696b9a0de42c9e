package core

// PLLConfig holds the main PLL factors.
//
//	VCO input  = HSE / M
//	VCO output = VCO input * N
//	SYSCLK     = VCO output / P
//	PLL48CLK   = VCO output / Q
type PLLConfig struct {
	M uint32
	N uint32
	P uint32
	Q uint32
}

// USBFrequency is the PLL48CLK required by the OTG FS, SDIO and RNG blocks
const USBFrequency = 48 * MHz

// Validate checks every factor against the chip ranges and rejects any
// combination that would need rounding to reach its output frequency.
func (p PLLConfig) Validate(limits *ChipLimits, hse Hz) error {
	if hse < limits.HSEMin || hse > limits.HSEMax {
		return ErrHSERange
	}
	if p.M < 2 || p.M > 63 {
		return ErrPLLFactor
	}
	if p.N < limits.PLLNMin || p.N > limits.PLLNMax {
		return ErrPLLFactor
	}
	if p.P != 2 && p.P != 4 && p.P != 6 && p.P != 8 {
		return ErrPLLFactor
	}
	if p.Q < 2 || p.Q > 15 {
		return ErrPLLFactor
	}
	if uint32(hse)%p.M != 0 {
		return ErrPLLInexact
	}
	in := uint32(hse) / p.M
	if Hz(in) < limits.VCOInMin || Hz(in) > limits.VCOInMax {
		return ErrPLLInputRange
	}
	out := uint64(in) * uint64(p.N)
	if out < uint64(limits.VCOOutMin) || out > uint64(limits.VCOOutMax) {
		return ErrPLLOutputRange
	}
	if out%uint64(p.P) != 0 {
		return ErrPLLInexact
	}
	return nil
}

// VCOIn returns HSE / M. Only meaningful for a validated config.
func (p PLLConfig) VCOIn(hse Hz) Hz {
	return hse / Hz(p.M)
}

// VCOOut returns the VCO output frequency
func (p PLLConfig) VCOOut(hse Hz) Hz {
	return p.VCOIn(hse) * Hz(p.N)
}

// Sysclk returns the PLL's system clock output
func (p PLLConfig) Sysclk(hse Hz) Hz {
	return p.VCOOut(hse) / Hz(p.P)
}

// PLL48 returns the 48 MHz domain output. It need not be exact.
func (p PLLConfig) PLL48(hse Hz) Hz {
	return p.VCOOut(hse) / Hz(p.Q)
}

// Word encodes the config as a PLLCFGR value with HSE as the PLL source
func (p PLLConfig) Word() uint32 {
	return (p.M&RCC_PLLCFGR_PLLM_Mask)<<RCC_PLLCFGR_PLLM_Pos |
		(p.N&RCC_PLLCFGR_PLLN_Mask)<<RCC_PLLCFGR_PLLN_Pos |
		((p.P/2-1)&RCC_PLLCFGR_PLLP_Mask)<<RCC_PLLCFGR_PLLP_Pos |
		RCC_PLLCFGR_PLLSRC_HSE |
		(p.Q&RCC_PLLCFGR_PLLQ_Mask)<<RCC_PLLCFGR_PLLQ_Pos
}

// DecodePLLWord is the inverse of Word. The second result reports whether
// the word selects HSE as PLL source.
func DecodePLLWord(w uint32) (PLLConfig, bool) {
	return PLLConfig{
		M: field(w, RCC_PLLCFGR_PLLM_Mask, RCC_PLLCFGR_PLLM_Pos),
		N: field(w, RCC_PLLCFGR_PLLN_Mask, RCC_PLLCFGR_PLLN_Pos),
		P: (field(w, RCC_PLLCFGR_PLLP_Mask, RCC_PLLCFGR_PLLP_Pos) + 1) * 2,
		Q: field(w, RCC_PLLCFGR_PLLQ_Mask, RCC_PLLCFGR_PLLQ_Pos),
	}, w&RCC_PLLCFGR_PLLSRC_HSE != 0
}

// FindPLL searches every M/N/P combination for one that produces target
// exactly from hse. Among the exact candidates it prefers, in order:
// a PLL48CLK of exactly 48 MHz, the lowest VCO output, and a VCO input
// closest to 2 MHz.
func FindPLL(limits *ChipLimits, hse, target Hz) (PLLConfig, error) {
	if hse < limits.HSEMin || hse > limits.HSEMax {
		return PLLConfig{}, ErrHSERange
	}
	if target == 0 || target > limits.SysclkMax {
		return PLLConfig{}, ErrFrequencyTooHigh
	}

	var best PLLConfig
	found := false
	for _, p := range [...]uint32{2, 4, 6, 8} {
		vco := uint64(target) * uint64(p)
		if vco < uint64(limits.VCOOutMin) || vco > uint64(limits.VCOOutMax) {
			continue
		}
		for m := uint32(2); m <= 63; m++ {
			if uint32(hse)%m != 0 {
				continue
			}
			in := uint64(hse) / uint64(m)
			if in < uint64(limits.VCOInMin) || in > uint64(limits.VCOInMax) {
				continue
			}
			if vco%in != 0 {
				continue
			}
			n := uint32(vco / in)
			if n < limits.PLLNMin || n > limits.PLLNMax {
				continue
			}
			cand := PLLConfig{M: m, N: n, P: p, Q: bestQ(Hz(vco))}
			if !found || betterPLL(cand, best, hse) {
				best = cand
				found = true
			}
		}
	}
	if !found {
		return PLLConfig{}, ErrNoExactPLL
	}
	return best, nil
}

// bestQ returns the Q giving a PLL48CLK closest to, without exceeding, 48 MHz
func bestQ(vco Hz) uint32 {
	for q := uint32(2); q <= 15; q++ {
		if vco/Hz(q) <= USBFrequency {
			return q
		}
	}
	return 15
}

func betterPLL(a, b PLLConfig, hse Hz) bool {
	aUSB := a.VCOOut(hse)%Hz(a.Q) == 0 && a.PLL48(hse) == USBFrequency
	bUSB := b.VCOOut(hse)%Hz(b.Q) == 0 && b.PLL48(hse) == USBFrequency
	if aUSB != bUSB {
		return aUSB
	}
	if a.VCOOut(hse) != b.VCOOut(hse) {
		return a.VCOOut(hse) < b.VCOOut(hse)
	}
	return distance(a.VCOIn(hse), 2*MHz) < distance(b.VCOIn(hse), 2*MHz)
}

func distance(a, b Hz) Hz {
	if a > b {
		return a - b
	}
	return b - a
}
