package core

import "errors"

// Configuration errors. These are raised before any register is written.
var (
	ErrHSERange         = errors.New("HSE frequency outside chip range")
	ErrPLLFactor        = errors.New("PLL factor out of range")
	ErrPLLInexact       = errors.New("PLL factors do not divide exactly")
	ErrPLLInputRange    = errors.New("PLL input frequency outside VCO input range")
	ErrPLLOutputRange   = errors.New("VCO output frequency outside range")
	ErrNoExactPLL       = errors.New("no exact PLL factors for target frequency")
	ErrFrequencyTooHigh = errors.New("frequency above chip limit")
	ErrBusDivider       = errors.New("no bus divider satisfies ceiling")
	ErrFlashLatency     = errors.New("flash latency too low for frequency")
	ErrNoCoreClock      = errors.New("core clock frequency is zero")
	ErrTickRate         = errors.New("tick rate must be positive")
	ErrReloadRange      = errors.New("SysTick reload out of 24-bit range")
)

// Bring-up errors. Each one means a hardware ready flag never asserted
// within its poll budget.
var (
	ErrHSITimeout    = errors.New("HSI not ready")
	ErrHSETimeout    = errors.New("HSE not ready")
	ErrPLLTimeout    = errors.New("PLL not locked")
	ErrPLLStop       = errors.New("PLL did not stop")
	ErrSwitchTimeout = errors.New("clock switch not confirmed")
)

// StageError reports which bring-up stage failed and after how many polls
type StageError struct {
	Stage BootStage
	Polls uint32
	Err   error
}

func (e *StageError) Error() string {
	return e.Stage.String() + ": " + e.Err.Error() + " after " + utoa(e.Polls) + " polls"
}

func (e *StageError) Unwrap() error {
	return e.Err
}
