package core

// TicksPerSecond is the SysTick interrupt rate; one tick is one millisecond
const TicksPerSecond = 1000

var (
	sysTick       *SysTickRegisters
	sysTickReload uint32
	sysTickRate   uint32
)

// SysTickReload computes the LOAD value giving ticksPerSecond interrupts
// from a core clock of hz. The counter reaching zero is itself one cycle,
// hence the -1: 168 MHz at 1000 ticks/s loads 167999.
func SysTickReload(hz Hz, ticksPerSecond uint32) (uint32, error) {
	if hz == 0 {
		return 0, ErrNoCoreClock
	}
	if ticksPerSecond == 0 {
		return 0, ErrTickRate
	}
	period := uint32(hz) / ticksPerSecond
	if period < 2 || period-1 > SysTick_LOAD_Max {
		return 0, ErrReloadRange
	}
	return period - 1, nil
}

// InitSysTick starts the periodic tick from the recorded CoreClock. It must
// run after InitClock has returned, so the reload is derived from the
// frequency the core actually runs at. The processor clock (not HCLK/8)
// drives the counter.
func InitSysTick(regs *SysTickRegisters, ticksPerSecond uint32) error {
	hz := CoreClock()
	reload, err := SysTickReload(hz, ticksPerSecond)
	if err != nil {
		return err
	}

	regs.CTRL.Set(0)
	regs.LOAD.Set(reload)
	regs.VAL.Set(0)

	sysTick = regs
	sysTickReload = reload
	sysTickRate = ticksPerSecond

	regs.CTRL.Set(SysTick_CTRL_CLKSOURCE | SysTick_CTRL_TICKINT | SysTick_CTRL_ENABLE)
	RecordBootEvent(StageSysTick, 0, reload)
	DebugPrintln("[TICK] reload=" + utoa(reload) + " rate=" + utoa(ticksPerSecond))
	return nil
}

// SysTickConfig reports the reload and rate InitSysTick programmed
func SysTickConfig() (reload, ticksPerSecond uint32) {
	return sysTickReload, sysTickRate
}
