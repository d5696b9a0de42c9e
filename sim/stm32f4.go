package sim

import (
	"fmt"
	"sync/atomic"

	"f4tick/core"
)

// Options shape the simulated chip's timing and faults
type Options struct {
	Chip    *core.ChipLimits
	Voltage core.VoltageRange

	// HSE is the crystal frequency
	HSE core.Hz

	// Reads of CR (or CFGR for the switch) before a ready flag asserts.
	// Zero asserts on the write itself.
	HSEStartupPolls uint32
	PLLLockPolls    uint32
	SwitchPolls     uint32

	// Faulted blocks never assert their ready flag
	HSEFault    bool
	PLLFault    bool
	SwitchFault bool

	// BootOnPLL starts the model the way the TinyGo runtime leaves a real
	// part: running from a locked PLL at 168 MHz
	BootOnPLL bool
}

// DefaultOptions is a healthy STM32F4-Discovery with an 8 MHz crystal
func DefaultOptions() Options {
	return Options{
		Chip:            &core.STM32F407,
		Voltage:         core.Range27to36,
		HSE:             8 * core.MHz,
		HSEStartupPolls: 40,
		PLLLockPolls:    20,
		SwitchPolls:     3,
	}
}

// countdown tracks a ready flag that asserts after some number of reads
type countdown struct {
	active    bool
	remaining uint32
}

func (c *countdown) start(polls uint32, fault bool) {
	c.active = !fault
	c.remaining = polls
}

// tick consumes one read and reports whether the flag has just asserted
func (c *countdown) tick() bool {
	if !c.active {
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		c.active = false
		return true
	}
	return false
}

// STM32F4 is the simulated chip
type STM32F4 struct {
	opts Options

	CR      *Register
	PLLCFGR *Register
	CFGR    *Register
	CIR     *Register
	AHB1ENR *Register
	ACR     *Register

	CTRL  *Register
	LOAD  *Register
	VAL   *Register
	CALIB *Register

	hse       countdown
	pll       countdown
	swtch     countdown
	switchTo  core.ClockSource
	prescaler uint64 // HCLK/8 SysTick accumulator
	elapsedMs atomic.Uint64

	tickHandler func()

	// Writes is the ordered list of clock-relevant writes
	Writes []string
	// Faults lists every hardware rule the software broke
	Faults []string
}

// New builds a chip in its reset state (or running from the PLL with
// BootOnPLL)
func New(opts Options) *STM32F4 {
	if opts.Chip == nil {
		opts.Chip = &core.STM32F407
	}
	s := &STM32F4{opts: opts}
	s.CR = &Register{name: "RCC_CR", value: core.RCC_CR_HSION | core.RCC_CR_HSIRDY}
	s.PLLCFGR = &Register{name: "RCC_PLLCFGR", value: core.RCC_PLLCFGR_Reset}
	s.CFGR = &Register{name: "RCC_CFGR"}
	s.CIR = NewRegister("RCC_CIR", 0)
	s.AHB1ENR = NewRegister("RCC_AHB1ENR", 0x00100000)
	s.ACR = &Register{name: "FLASH_ACR"}
	s.CTRL = &Register{name: "SYST_CSR"}
	s.LOAD = NewRegister("SYST_RVR", 0)
	s.VAL = &Register{name: "SYST_CVR"}
	s.CALIB = NewRegister("SYST_CALIB", 0)

	s.CR.read = s.readCR
	s.CR.write = s.writeCR
	s.PLLCFGR.write = s.writePLLCFGR
	s.CFGR.read = s.readCFGR
	s.CFGR.write = s.writeCFGR
	s.ACR.write = s.writeACR
	s.CTRL.read = s.readCTRL
	s.VAL.write = s.writeVAL

	if opts.BootOnPLL {
		cfg := core.DefaultClockConfig()
		s.CR.value |= core.RCC_CR_HSEON | core.RCC_CR_HSERDY | core.RCC_CR_PLLON | core.RCC_CR_PLLRDY
		s.PLLCFGR.value = cfg.PLL.Word()
		s.ACR.value = core.FLASH_ACR_ICEN | core.FLASH_ACR_DCEN | core.FLASH_ACR_PRFTEN | 5
		hpre, _ := core.HPREBits(1)
		ppre1, _ := core.PPREBits(4)
		ppre2, _ := core.PPREBits(2)
		s.CFGR.value = uint32(core.SourcePLL)<<core.RCC_CFGR_SW_Pos |
			uint32(core.SourcePLL)<<core.RCC_CFGR_SWS_Pos |
			hpre<<core.RCC_CFGR_HPRE_Pos |
			ppre1<<core.RCC_CFGR_PPRE1_Pos |
			ppre2<<core.RCC_CFGR_PPRE2_Pos
	}
	return s
}

// RCC returns the reset and clock control block for the core
func (s *STM32F4) RCC() *core.RCCRegisters {
	return &core.RCCRegisters{CR: s.CR, PLLCFGR: s.PLLCFGR, CFGR: s.CFGR, CIR: s.CIR, AHB1ENR: s.AHB1ENR}
}

// Flash returns the flash interface block for the core
func (s *STM32F4) Flash() *core.FlashRegisters {
	return &core.FlashRegisters{ACR: s.ACR}
}

// SysTick returns the system timer block for the core
func (s *STM32F4) SysTick() *core.SysTickRegisters {
	return &core.SysTickRegisters{CTRL: s.CTRL, LOAD: s.LOAD, VAL: s.VAL, CALIB: s.CALIB}
}

// SetTickHandler installs the function run on every SysTick exception
func (s *STM32F4) SetTickHandler(fn func()) {
	s.tickHandler = fn
}

func (s *STM32F4) fault(format string, args ...interface{}) {
	s.Faults = append(s.Faults, fmt.Sprintf(format, args...))
}

func (s *STM32F4) logWrite(what string) {
	s.Writes = append(s.Writes, what)
}

func (s *STM32F4) readCR(r *Register) uint32 {
	if s.hse.tick() {
		r.value |= core.RCC_CR_HSERDY
	}
	if s.pll.tick() {
		r.value |= core.RCC_CR_PLLRDY
	}
	return r.value
}

const crReadyBits = core.RCC_CR_HSIRDY | core.RCC_CR_HSERDY | core.RCC_CR_PLLRDY

func (s *STM32F4) writeCR(r *Register, v uint32) {
	old := r.value
	// ready flags are read-only
	v = v&^crReadyBits | old&crReadyBits
	active := s.Active()

	if v&core.RCC_CR_PLLON == 0 && old&core.RCC_CR_PLLON != 0 {
		if active == core.SourcePLL {
			s.fault("PLL disabled while it is the system clock")
			v |= core.RCC_CR_PLLON
		} else {
			s.logWrite("PLLOFF")
			v &^= core.RCC_CR_PLLRDY
			s.pll = countdown{}
		}
	}
	if v&core.RCC_CR_HSEON == 0 && old&core.RCC_CR_HSEON != 0 {
		if active == core.SourceHSE || (active == core.SourcePLL && s.pllFromHSE()) {
			s.fault("HSE disabled while it clocks the core")
			v |= core.RCC_CR_HSEON
		} else {
			s.logWrite("HSEOFF")
			v &^= core.RCC_CR_HSERDY
			s.hse = countdown{}
		}
	}
	if v&core.RCC_CR_HSION != 0 {
		v |= core.RCC_CR_HSIRDY
	}
	if v&core.RCC_CR_HSEON != 0 && old&core.RCC_CR_HSEON == 0 {
		s.logWrite("HSEON")
		s.hse.start(s.opts.HSEStartupPolls, s.opts.HSEFault)
		if s.hse.active && s.hse.remaining == 0 {
			s.hse.active = false
			v |= core.RCC_CR_HSERDY
		}
	}
	if v&core.RCC_CR_PLLON != 0 && old&core.RCC_CR_PLLON == 0 {
		s.logWrite("PLLON")
		ok := s.pllSourceReady(v)
		if !ok {
			s.fault("PLL enabled without a ready reference")
		}
		if _, err := s.pllConfig(); err != nil {
			s.fault("PLL enabled with invalid factors: %v", err)
			ok = false
		}
		s.pll.start(s.opts.PLLLockPolls, s.opts.PLLFault || !ok)
		if s.pll.active && s.pll.remaining == 0 {
			s.pll.active = false
			v |= core.RCC_CR_PLLRDY
		}
	}
	r.value = v
}

func (s *STM32F4) pllFromHSE() bool {
	return s.PLLCFGR.value&core.RCC_PLLCFGR_PLLSRC_HSE != 0
}

func (s *STM32F4) pllSourceReady(cr uint32) bool {
	if s.pllFromHSE() {
		return cr&core.RCC_CR_HSERDY != 0
	}
	return cr&core.RCC_CR_HSIRDY != 0
}

// pllConfig decodes PLLCFGR and validates it against the chip
func (s *STM32F4) pllConfig() (core.PLLConfig, error) {
	pll, fromHSE := core.DecodePLLWord(s.PLLCFGR.value)
	ref := core.HSIFrequency
	if fromHSE {
		ref = s.opts.HSE
	}
	limits := *s.opts.Chip
	// the reference range check only applies to HSE
	if !fromHSE {
		limits.HSEMin, limits.HSEMax = ref, ref
	}
	return pll, pll.Validate(&limits, ref)
}

func (s *STM32F4) writePLLCFGR(r *Register, v uint32) {
	if s.CR.value&core.RCC_CR_PLLON != 0 {
		s.fault("PLLCFGR written while the PLL is enabled")
		return
	}
	s.logWrite("PLLCFGR")
	r.value = v
}

func (s *STM32F4) readCFGR(r *Register) uint32 {
	if s.swtch.tick() {
		r.value = r.value&^(core.RCC_CFGR_SWS_Mask<<core.RCC_CFGR_SWS_Pos) |
			uint32(s.switchTo)<<core.RCC_CFGR_SWS_Pos
		s.checkRunning()
	}
	return r.value
}

func (s *STM32F4) writeCFGR(r *Register, v uint32) {
	old := r.value
	// SWS is read-only
	v = v&^(core.RCC_CFGR_SWS_Mask<<core.RCC_CFGR_SWS_Pos) |
		old&(core.RCC_CFGR_SWS_Mask<<core.RCC_CFGR_SWS_Pos)
	r.value = v

	if diff := (old ^ v) &^ (core.RCC_CFGR_SW_Mask << core.RCC_CFGR_SW_Pos); diff != 0 {
		s.logWrite("CFGR.PRE")
	}
	sw := core.ClockSource((v >> core.RCC_CFGR_SW_Pos) & core.RCC_CFGR_SW_Mask)
	if sw != core.ClockSource((old>>core.RCC_CFGR_SW_Pos)&core.RCC_CFGR_SW_Mask) {
		s.logWrite("SW=" + sw.String())
		s.switchTo = sw
		s.swtch.start(s.opts.SwitchPolls, s.opts.SwitchFault || !s.sourceReady(sw))
		if s.swtch.active && s.swtch.remaining == 0 {
			s.swtch.active = false
			r.value = r.value&^(core.RCC_CFGR_SWS_Mask<<core.RCC_CFGR_SWS_Pos) |
				uint32(sw)<<core.RCC_CFGR_SWS_Pos
		}
	}
	s.checkRunning()
}

func (s *STM32F4) sourceReady(src core.ClockSource) bool {
	switch src {
	case core.SourceHSI:
		return s.CR.value&core.RCC_CR_HSIRDY != 0
	case core.SourceHSE:
		return s.CR.value&core.RCC_CR_HSERDY != 0
	case core.SourcePLL:
		return s.CR.value&core.RCC_CR_PLLRDY != 0
	}
	return false
}

func (s *STM32F4) writeACR(r *Register, v uint32) {
	s.logWrite("ACR")
	r.value = v
	s.checkRunning()
}

// checkRunning compares the live clock tree against the chip's rules
func (s *STM32F4) checkRunning() {
	hclk := s.HCLK()
	table := s.opts.Chip.Latency[s.opts.Voltage]
	need, err := core.FlashLatency(table, hclk)
	if err != nil {
		s.fault("HCLK %d Hz beyond flash table", hclk)
	} else if latency := s.ACR.value & s.opts.Chip.LatencyMask(); latency < need {
		s.fault("flash latency %d too low for %d Hz (need %d)", latency, hclk, need)
	}
	if hclk > s.opts.Chip.AHBMax {
		s.fault("HCLK %d Hz above ceiling", hclk)
	}
	if p := s.PCLK1(); p > s.opts.Chip.APB1Max {
		s.fault("APB1 %d Hz above ceiling %d", p, s.opts.Chip.APB1Max)
	}
	if p := s.PCLK2(); p > s.opts.Chip.APB2Max {
		s.fault("APB2 %d Hz above ceiling %d", p, s.opts.Chip.APB2Max)
	}
}

// Active returns the clock source SWS reports
func (s *STM32F4) Active() core.ClockSource {
	return core.ClockSource((s.CFGR.value >> core.RCC_CFGR_SWS_Pos) & core.RCC_CFGR_SWS_Mask)
}

// Sysclk returns the frequency the simulated core actually runs at
func (s *STM32F4) Sysclk() core.Hz {
	switch s.Active() {
	case core.SourceHSE:
		return s.opts.HSE
	case core.SourcePLL:
		pll, fromHSE := core.DecodePLLWord(s.PLLCFGR.value)
		ref := core.HSIFrequency
		if fromHSE {
			ref = s.opts.HSE
		}
		if pll.M == 0 || pll.P == 0 {
			return 0
		}
		return core.Hz(uint64(ref) / uint64(pll.M) * uint64(pll.N) / uint64(pll.P))
	default:
		return core.HSIFrequency
	}
}

// HCLK returns the AHB clock
func (s *STM32F4) HCLK() core.Hz {
	hpre := (s.CFGR.value >> core.RCC_CFGR_HPRE_Pos) & core.RCC_CFGR_HPRE_Mask
	return s.Sysclk() / core.Hz(core.HPREDivider(hpre))
}

// PCLK1 returns the APB1 clock
func (s *STM32F4) PCLK1() core.Hz {
	ppre := (s.CFGR.value >> core.RCC_CFGR_PPRE1_Pos) & core.RCC_CFGR_PPRE1_Mask
	return s.HCLK() / core.Hz(core.PPREDivider(ppre))
}

// PCLK2 returns the APB2 clock
func (s *STM32F4) PCLK2() core.Hz {
	ppre := (s.CFGR.value >> core.RCC_CFGR_PPRE2_Pos) & core.RCC_CFGR_PPRE2_Mask
	return s.HCLK() / core.Hz(core.PPREDivider(ppre))
}
