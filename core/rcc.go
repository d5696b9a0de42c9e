package core

// Register blocks touched by the clock/time core. Field layouts follow
// RM0090 (STM32F405/407/415/417/427/429/437/439).
//
// Every block's peripheral clock must already be enabled before any of its
// registers are accessed. RCC, FLASH and SysTick are always clocked.

// RCCRegisters is the subset of the reset and clock control block used here
type RCCRegisters struct {
	CR      Register // clock control
	PLLCFGR Register // main PLL configuration
	CFGR    Register // clock configuration
	CIR     Register // clock interrupt
	AHB1ENR Register // AHB1 peripheral clock enable
}

// FlashRegisters is the flash interface block
type FlashRegisters struct {
	ACR Register // access control
}

// SysTickRegisters is the Cortex-M system timer
type SysTickRegisters struct {
	CTRL  Register // control and status
	LOAD  Register // reload value
	VAL   Register // current value
	CALIB Register // calibration
}

// Fixed base addresses
const (
	RCCBase     = 0x40023800
	FlashBase   = 0x40023C00
	SysTickBase = 0xE000E010
	GPIODBase   = 0x40020C00
)

// RCC_CR bits
const (
	RCC_CR_HSION  = 1 << 0
	RCC_CR_HSIRDY = 1 << 1
	RCC_CR_HSEON  = 1 << 16
	RCC_CR_HSERDY = 1 << 17
	RCC_CR_HSEBYP = 1 << 18
	RCC_CR_CSSON  = 1 << 19
	RCC_CR_PLLON  = 1 << 24
	RCC_CR_PLLRDY = 1 << 25
)

// RCC_PLLCFGR fields
const (
	RCC_PLLCFGR_PLLM_Pos   = 0
	RCC_PLLCFGR_PLLM_Mask  = 0x3F
	RCC_PLLCFGR_PLLN_Pos   = 6
	RCC_PLLCFGR_PLLN_Mask  = 0x1FF
	RCC_PLLCFGR_PLLP_Pos   = 16
	RCC_PLLCFGR_PLLP_Mask  = 0x3
	RCC_PLLCFGR_PLLSRC_HSE = 1 << 22
	RCC_PLLCFGR_PLLQ_Pos   = 24
	RCC_PLLCFGR_PLLQ_Mask  = 0xF

	// RCC_PLLCFGR_Reset is the documented reset value (M=16, N=192, P=2, Q=4, HSI)
	RCC_PLLCFGR_Reset = 0x24003010
)

// RCC_CFGR fields
const (
	RCC_CFGR_SW_Pos     = 0
	RCC_CFGR_SW_Mask    = 0x3
	RCC_CFGR_SWS_Pos    = 2
	RCC_CFGR_SWS_Mask   = 0x3
	RCC_CFGR_HPRE_Pos   = 4
	RCC_CFGR_HPRE_Mask  = 0xF
	RCC_CFGR_PPRE1_Pos  = 10
	RCC_CFGR_PPRE1_Mask = 0x7
	RCC_CFGR_PPRE2_Pos  = 13
	RCC_CFGR_PPRE2_Mask = 0x7
)

// ClockSource is the value of the SW/SWS fields
type ClockSource uint32

const (
	SourceHSI ClockSource = 0
	SourceHSE ClockSource = 1
	SourcePLL ClockSource = 2
)

func (s ClockSource) String() string {
	switch s {
	case SourceHSI:
		return "HSI"
	case SourceHSE:
		return "HSE"
	case SourcePLL:
		return "PLL"
	default:
		return "invalid"
	}
}

// RCC_AHB1ENR bits
const (
	RCC_AHB1ENR_GPIODEN = 1 << 3
)

// FLASH_ACR fields
const (
	FLASH_ACR_LATENCY_Pos  = 0
	FLASH_ACR_LATENCY_Mask = 0x7 // 0xF on F42x/F43x, see ChipLimits.LatencyBits
	FLASH_ACR_PRFTEN       = 1 << 8
	FLASH_ACR_ICEN         = 1 << 9
	FLASH_ACR_DCEN         = 1 << 10
	FLASH_ACR_ICRST        = 1 << 11
	FLASH_ACR_DCRST        = 1 << 12
)

// SysTick CTRL bits and LOAD range
const (
	SysTick_CTRL_ENABLE    = 1 << 0
	SysTick_CTRL_TICKINT   = 1 << 1
	SysTick_CTRL_CLKSOURCE = 1 << 2
	SysTick_CTRL_COUNTFLAG = 1 << 16

	SysTick_LOAD_Max = 0x00FFFFFF
)
