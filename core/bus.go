package core

// Allowed bus prescaler values
var (
	AHBDividers = []uint32{1, 2, 4, 8, 16, 64, 128, 256, 512}
	APBDividers = []uint32{1, 2, 4, 8, 16}
)

// BusDivider returns the smallest allowed divider that keeps hz/div at or
// below ceiling. The comparison is done as hz <= ceiling*div so a
// non-integer quotient can't slip under the ceiling by truncation.
func BusDivider(hz, ceiling Hz, allowed []uint32) (uint32, error) {
	for _, div := range allowed {
		if uint64(hz) <= uint64(ceiling)*uint64(div) {
			return div, nil
		}
	}
	return 0, ErrBusDivider
}

// HPREBits encodes an AHB divider for the CFGR HPRE field
func HPREBits(div uint32) (uint32, bool) {
	switch div {
	case 1:
		return 0x0, true
	case 2:
		return 0x8, true
	case 4:
		return 0x9, true
	case 8:
		return 0xA, true
	case 16:
		return 0xB, true
	case 64:
		return 0xC, true
	case 128:
		return 0xD, true
	case 256:
		return 0xE, true
	case 512:
		return 0xF, true
	}
	return 0, false
}

// PPREBits encodes an APB divider for the CFGR PPRE1/PPRE2 fields
func PPREBits(div uint32) (uint32, bool) {
	switch div {
	case 1:
		return 0x0, true
	case 2:
		return 0x4, true
	case 4:
		return 0x5, true
	case 8:
		return 0x6, true
	case 16:
		return 0x7, true
	}
	return 0, false
}

// HPREDivider decodes a CFGR HPRE field
func HPREDivider(bits uint32) uint32 {
	if bits < 0x8 {
		return 1
	}
	return [...]uint32{2, 4, 8, 16, 64, 128, 256, 512}[bits&0x7]
}

// PPREDivider decodes a CFGR PPRE1/PPRE2 field
func PPREDivider(bits uint32) uint32 {
	if bits < 0x4 {
		return 1
	}
	return [...]uint32{2, 4, 8, 16}[bits&0x3]
}

// BaudDivisor returns the USART BRR value giving baud from a peripheral
// clock pclk with 16x oversampling, rounded to nearest. The mantissa and
// fraction fields together hold pclk/baud in 1/16 steps, so the register
// value is the plain quotient.
func BaudDivisor(pclk Hz, baud uint32) uint32 {
	if baud == 0 {
		return 0
	}
	return (uint32(pclk) + baud/2) / baud
}

// configureBuses programs the AHB and both APB prescalers
func configureBuses(rcc *RCCRegisters, ahb, apb1, apb2 uint32) {
	hpre, _ := HPREBits(ahb)
	ppre1, _ := PPREBits(apb1)
	ppre2, _ := PPREBits(apb2)
	rcc.CFGR.ReplaceBits(hpre, RCC_CFGR_HPRE_Mask, RCC_CFGR_HPRE_Pos)
	rcc.CFGR.ReplaceBits(ppre1, RCC_CFGR_PPRE1_Mask, RCC_CFGR_PPRE1_Pos)
	rcc.CFGR.ReplaceBits(ppre2, RCC_CFGR_PPRE2_Mask, RCC_CFGR_PPRE2_Pos)
}
