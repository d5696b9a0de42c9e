package core

import "sync/atomic"

// ClockConfig is the complete description of a clock bring-up
type ClockConfig struct {
	// Chip supplies the ceilings the config is validated against.
	// nil means STM32F407.
	Chip *ChipLimits

	HSE Hz
	PLL PLLConfig

	AHBDiv  uint32
	APB1Div uint32
	APB2Div uint32

	Voltage VoltageRange
	Latency uint32
	Flash   FlashOptions
}

// DefaultClockConfig is the STM32F4-Discovery setup: 8 MHz crystal,
// 168 MHz SYSCLK/HCLK, 42 MHz APB1, 84 MHz APB2, 5 wait states.
func DefaultClockConfig() ClockConfig {
	return ClockConfig{
		Chip:    &STM32F407,
		HSE:     8 * MHz,
		PLL:     PLLConfig{M: 8, N: 336, P: 2, Q: 7},
		AHBDiv:  1,
		APB1Div: 4,
		APB2Div: 2,
		Voltage: Range27to36,
		Latency: 5,
		Flash:   DefaultFlashOptions(),
	}
}

// ClockTree lists every frequency a ClockConfig produces
type ClockTree struct {
	VCOIn  Hz
	VCOOut Hz
	Sysclk Hz
	HCLK   Hz
	PCLK1  Hz
	PCLK2  Hz
	// APB timers run at twice PCLK whenever the APB divider is not 1
	TIMCLK1 Hz
	TIMCLK2 Hz
	PLL48   Hz
}

// Tree derives the clock tree. Only meaningful for a validated config.
func (c *ClockConfig) Tree() ClockTree {
	t := ClockTree{
		VCOIn:  c.PLL.VCOIn(c.HSE),
		VCOOut: c.PLL.VCOOut(c.HSE),
		Sysclk: c.PLL.Sysclk(c.HSE),
		PLL48:  c.PLL.PLL48(c.HSE),
	}
	t.HCLK = t.Sysclk / Hz(c.AHBDiv)
	t.PCLK1 = t.HCLK / Hz(c.APB1Div)
	t.PCLK2 = t.HCLK / Hz(c.APB2Div)
	t.TIMCLK1 = timerClock(t.PCLK1, c.APB1Div)
	t.TIMCLK2 = timerClock(t.PCLK2, c.APB2Div)
	return t
}

func timerClock(pclk Hz, div uint32) Hz {
	if div == 1 {
		return pclk
	}
	return pclk * 2
}

func (c *ClockConfig) chip() *ChipLimits {
	if c.Chip == nil {
		return &STM32F407
	}
	return c.Chip
}

// Validate rejects any config that would run a domain above its ceiling
// or fetch from flash with too few wait states.
func (c *ClockConfig) Validate() error {
	limits := c.chip()
	if err := c.PLL.Validate(limits, c.HSE); err != nil {
		return err
	}
	if _, ok := HPREBits(c.AHBDiv); !ok {
		return ErrBusDivider
	}
	if _, ok := PPREBits(c.APB1Div); !ok {
		return ErrBusDivider
	}
	if _, ok := PPREBits(c.APB2Div); !ok {
		return ErrBusDivider
	}
	sysclk := c.PLL.Sysclk(c.HSE)
	if sysclk > limits.SysclkMax {
		return ErrFrequencyTooHigh
	}
	if uint32(sysclk)%c.AHBDiv != 0 {
		return ErrPLLInexact
	}
	hclk := sysclk / Hz(c.AHBDiv)
	if hclk > limits.AHBMax {
		return ErrBusDivider
	}
	if uint64(hclk) > uint64(limits.APB1Max)*uint64(c.APB1Div) ||
		uint64(hclk) > uint64(limits.APB2Max)*uint64(c.APB2Div) {
		return ErrBusDivider
	}
	if int(c.Voltage) >= len(limits.Latency) {
		return ErrFlashLatency
	}
	need, err := FlashLatency(limits.Latency[c.Voltage], hclk)
	if err != nil {
		return err
	}
	if c.Latency < need || c.Latency > limits.LatencyMask() {
		return ErrFlashLatency
	}
	return nil
}

// PlanClock builds a validated config reaching target from hse: exact PLL
// factors, the smallest bus dividers meeting each ceiling and the minimum
// safe wait states.
func PlanClock(limits *ChipLimits, hse, target Hz, voltage VoltageRange) (ClockConfig, error) {
	pll, err := FindPLL(limits, hse, target)
	if err != nil {
		return ClockConfig{}, err
	}
	cfg := ClockConfig{
		Chip:    limits,
		HSE:     hse,
		PLL:     pll,
		Voltage: voltage,
		Flash:   DefaultFlashOptions(),
	}
	if cfg.AHBDiv, err = BusDivider(target, limits.AHBMax, AHBDividers); err != nil {
		return ClockConfig{}, err
	}
	hclk := target / Hz(cfg.AHBDiv)
	if cfg.APB1Div, err = BusDivider(hclk, limits.APB1Max, APBDividers); err != nil {
		return ClockConfig{}, err
	}
	if cfg.APB2Div, err = BusDivider(hclk, limits.APB2Max, APBDividers); err != nil {
		return ClockConfig{}, err
	}
	if int(voltage) >= len(limits.Latency) {
		return ClockConfig{}, ErrFlashLatency
	}
	if cfg.Latency, err = FlashLatency(limits.Latency[voltage], hclk); err != nil {
		return ClockConfig{}, err
	}
	return cfg, cfg.Validate()
}

var coreClock = uint32(HSIFrequency)

// CoreClock returns the recorded HCLK. Every derived timing reads this value.
func CoreClock() Hz {
	return Hz(atomic.LoadUint32(&coreClock))
}

// SetCoreClock records the HCLK the core is running at
func SetCoreClock(hz Hz) {
	atomic.StoreUint32(&coreClock, uint32(hz))
}

// Timeouts bound each ready-flag poll, counted in register reads.
// Zero waits forever.
type Timeouts struct {
	HSIStartup uint32
	HSEStartup uint32
	PLLLock    uint32
	Switch     uint32
}

// DefaultTimeouts gives each hardware flag a generous poll budget
func DefaultTimeouts() Timeouts {
	return Timeouts{
		HSIStartup: 0x0500,
		HSEStartup: 0x5000,
		PLLLock:    0x5000,
		Switch:     0x5000,
	}
}

// waitFor polls ready until it reports true or limit polls have been made
func waitFor(limit uint32, ready func() bool) (uint32, bool) {
	var polls uint32
	for {
		polls++
		if ready() {
			return polls, true
		}
		if limit != 0 && polls >= limit {
			return polls, false
		}
	}
}

func activeSource(rcc *RCCRegisters) ClockSource {
	return ClockSource(field(rcc.CFGR.Get(), RCC_CFGR_SWS_Mask, RCC_CFGR_SWS_Pos))
}

func fail(stage BootStage, polls uint32, err error) error {
	RecordBootEvent(StageFault, polls, uint32(stage))
	DebugPrintln("[CLOCK] " + stage.String() + " failed: " + err.Error())
	return &StageError{Stage: stage, Polls: polls, Err: err}
}

// InitClock brings the core from whatever state it is in onto the PLL
// described by cfg. The steps are strictly ordered: HSI fallback, HSE
// start, PLL lock, flash wait states, bus prescalers, source switch.
// CoreClock is updated only once the switch is confirmed. If a step fails
// the core is left running from HSI and CoreClock reports HSI.
func InitClock(rcc *RCCRegisters, flash *FlashRegisters, cfg *ClockConfig, t Timeouts) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	tree := cfg.Tree()

	if err := resetClocks(rcc, t); err != nil {
		return err
	}

	rcc.CR.SetBits(RCC_CR_HSEON)
	polls, ok := waitFor(t.HSEStartup, func() bool {
		return rcc.CR.HasBits(RCC_CR_HSERDY)
	})
	if !ok {
		return fail(StageHSEReady, polls, ErrHSETimeout)
	}
	RecordBootEvent(StageHSEReady, polls, uint32(cfg.HSE))

	// PLLCFGR may only be written while the PLL is off
	rcc.PLLCFGR.Set(cfg.PLL.Word())
	rcc.CR.SetBits(RCC_CR_PLLON)
	polls, ok = waitFor(t.PLLLock, func() bool {
		return rcc.CR.HasBits(RCC_CR_PLLRDY)
	})
	if !ok {
		return fail(StagePLLLocked, polls, ErrPLLTimeout)
	}
	RecordBootEvent(StagePLLLocked, polls, uint32(tree.Sysclk))

	if err := configureFlash(flash, cfg.Latency, cfg.chip().LatencyMask(), cfg.Flash); err != nil {
		return fail(StageFlash, 0, err)
	}
	RecordBootEvent(StageFlash, 0, cfg.Latency)

	configureBuses(rcc, cfg.AHBDiv, cfg.APB1Div, cfg.APB2Div)
	RecordBootEvent(StageBuses, 0, uint32(tree.PCLK1))

	rcc.CFGR.ReplaceBits(uint32(SourcePLL), RCC_CFGR_SW_Mask, RCC_CFGR_SW_Pos)
	polls, ok = waitFor(t.Switch, func() bool {
		return activeSource(rcc) == SourcePLL
	})
	if !ok {
		return fail(StageSwitched, polls, ErrSwitchTimeout)
	}
	SetCoreClock(tree.HCLK)
	RecordBootEvent(StageSwitched, polls, uint32(tree.HCLK))

	DebugPrintln("[CLOCK] sysclk=" + utoa(uint32(tree.Sysclk)) +
		" hclk=" + utoa(uint32(tree.HCLK)) +
		" pclk1=" + utoa(uint32(tree.PCLK1)) +
		" pclk2=" + utoa(uint32(tree.PCLK2)) +
		" latency=" + utoa(cfg.Latency))
	return nil
}

// resetClocks returns the clock tree to its reset configuration: running
// from HSI with HSE and the PLL stopped. The TinyGo runtime has usually
// started the PLL already, and PLLCFGR can't be changed while it runs.
func resetClocks(rcc *RCCRegisters, t Timeouts) error {
	rcc.CR.SetBits(RCC_CR_HSION)
	polls, ok := waitFor(t.HSIStartup, func() bool {
		return rcc.CR.HasBits(RCC_CR_HSIRDY)
	})
	if !ok {
		return fail(StageHSIReady, polls, ErrHSITimeout)
	}

	rcc.CFGR.ReplaceBits(uint32(SourceHSI), RCC_CFGR_SW_Mask, RCC_CFGR_SW_Pos)
	if _, ok := waitFor(t.Switch, func() bool {
		return activeSource(rcc) == SourceHSI
	}); !ok {
		return fail(StageHSIReady, polls, ErrSwitchTimeout)
	}
	SetCoreClock(HSIFrequency)
	RecordBootEvent(StageHSIReady, polls, uint32(HSIFrequency))

	// prescalers back to /1 only once nothing runs faster than HSI
	rcc.CFGR.Set(0)
	rcc.CR.ClearBits(RCC_CR_HSEON | RCC_CR_CSSON | RCC_CR_PLLON)
	if polls, ok := waitFor(t.PLLLock, func() bool {
		return !rcc.CR.HasBits(RCC_CR_PLLRDY)
	}); !ok {
		return fail(StageHSIReady, polls, ErrPLLStop)
	}
	rcc.PLLCFGR.Set(RCC_PLLCFGR_Reset)
	rcc.CR.ClearBits(RCC_CR_HSEBYP)
	rcc.CIR.Set(0)
	return nil
}

// LiveClocks reads back the tree the RCC is running now: the source SWS
// reports, the PLL word it would use, and the CFGR prescalers. hse is the
// crystal frequency, which no register records. Firmware uses it after a
// failed InitClock, when the config no longer describes the hardware.
func LiveClocks(rcc *RCCRegisters, hse Hz) ClockTree {
	var t ClockTree
	switch activeSource(rcc) {
	case SourceHSE:
		t.Sysclk = hse
	case SourcePLL:
		pll, fromHSE := DecodePLLWord(rcc.PLLCFGR.Get())
		ref := HSIFrequency
		if fromHSE {
			ref = hse
		}
		if pll.M != 0 && pll.P != 0 {
			t.VCOIn = pll.VCOIn(ref)
			t.VCOOut = pll.VCOOut(ref)
			t.Sysclk = pll.Sysclk(ref)
			if pll.Q != 0 {
				t.PLL48 = pll.PLL48(ref)
			}
		}
	default:
		t.Sysclk = HSIFrequency
	}

	cfgr := rcc.CFGR.Get()
	apb1 := PPREDivider(field(cfgr, RCC_CFGR_PPRE1_Mask, RCC_CFGR_PPRE1_Pos))
	apb2 := PPREDivider(field(cfgr, RCC_CFGR_PPRE2_Mask, RCC_CFGR_PPRE2_Pos))
	t.HCLK = t.Sysclk / Hz(HPREDivider(field(cfgr, RCC_CFGR_HPRE_Mask, RCC_CFGR_HPRE_Pos)))
	t.PCLK1 = t.HCLK / Hz(apb1)
	t.PCLK2 = t.HCLK / Hz(apb2)
	t.TIMCLK1 = timerClock(t.PCLK1, apb1)
	t.TIMCLK2 = timerClock(t.PCLK2, apb2)
	return t
}
