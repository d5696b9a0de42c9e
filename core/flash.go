package core

// FlashLatency returns the minimum number of wait states the table marks
// safe for hclk. Too few wait states corrupts instruction fetch silently,
// so frequencies beyond the table are rejected.
func FlashLatency(table LatencyTable, hclk Hz) (uint32, error) {
	for ws, max := range table {
		if hclk <= max {
			return uint32(ws), nil
		}
	}
	return 0, ErrFrequencyTooHigh
}

// FlashOptions are the ACR acceleration bits
type FlashOptions struct {
	Prefetch         bool
	InstructionCache bool
	DataCache        bool
}

// DefaultFlashOptions enables prefetch and both caches
func DefaultFlashOptions() FlashOptions {
	return FlashOptions{Prefetch: true, InstructionCache: true, DataCache: true}
}

func (o FlashOptions) bits() uint32 {
	var v uint32
	if o.Prefetch {
		v |= FLASH_ACR_PRFTEN
	}
	if o.InstructionCache {
		v |= FLASH_ACR_ICEN
	}
	if o.DataCache {
		v |= FLASH_ACR_DCEN
	}
	return v
}

// configureFlash enables the accelerator and programs the wait states into
// a LATENCY field of the given mask. The field is read back: the new value
// must be observed before the clock is raised (RM0090 3.5.1).
func configureFlash(flash *FlashRegisters, latency, mask uint32, opts FlashOptions) error {
	if latency > mask {
		return ErrFlashLatency
	}
	flash.ACR.SetBits(opts.bits())
	flash.ACR.ReplaceBits(latency, mask, FLASH_ACR_LATENCY_Pos)
	if field(flash.ACR.Get(), mask, FLASH_ACR_LATENCY_Pos) != latency {
		return ErrFlashLatency
	}
	return nil
}
