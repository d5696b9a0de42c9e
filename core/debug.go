package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// BootStage identifies one step of the clock/tick bring-up
type BootStage uint8

const (
	StageNone BootStage = iota
	StageHSIReady
	StageHSEReady
	StagePLLLocked
	StageFlash
	StageBuses
	StageSwitched
	StageSysTick
	StageFault
)

func (s BootStage) String() string {
	switch s {
	case StageHSIReady:
		return "HSI_READY"
	case StageHSEReady:
		return "HSE_READY"
	case StagePLLLocked:
		return "PLL_LOCKED"
	case StageFlash:
		return "FLASH_WS"
	case StageBuses:
		return "BUS_DIV"
	case StageSwitched:
		return "SWITCHED"
	case StageSysTick:
		return "SYSTICK"
	case StageFault:
		return "FAULT"
	default:
		return "UNKNOWN"
	}
}

// BootEvent is one entry of the boot log
type BootEvent struct {
	Stage BootStage
	Polls uint32 // ready-flag polls the stage needed
	Value uint32 // stage-dependent: a frequency, wait states, or the failed stage
}

const BootLogSize = 16

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether debug output is active
	debugEnabled bool

	bootLog     [BootLogSize]BootEvent
	bootLogHead uint8
	bootLogLen  uint8
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output.
// The boot log is recorded either way.
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordBootEvent appends to the boot log, overwriting the oldest entry
// once full. It never blocks and never allocates.
func RecordBootEvent(stage BootStage, polls, value uint32) {
	idx := bootLogHead
	bootLog[idx] = BootEvent{Stage: stage, Polls: polls, Value: value}
	bootLogHead = (idx + 1) % BootLogSize
	if bootLogLen < BootLogSize {
		bootLogLen++
	}
}

// BootEvents returns the boot log oldest first
func BootEvents() []BootEvent {
	events := make([]BootEvent, 0, bootLogLen)
	start := (bootLogHead + BootLogSize - bootLogLen) % BootLogSize
	for i := uint8(0); i < bootLogLen; i++ {
		events = append(events, bootLog[(start+i)%BootLogSize])
	}
	return events
}

// LastFault returns the stage recorded by the most recent fault, if any
func LastFault() (BootStage, bool) {
	events := BootEvents()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Stage == StageFault {
			return BootStage(events[i].Value), true
		}
	}
	return StageNone, false
}

// DumpBootLog writes the boot log through the debug writer regardless of
// the enabled flag. Meant for fault paths.
func DumpBootLog() {
	if debugPrintln == nil {
		return
	}
	debugPrintln("[BOOT] === Boot Log ===")
	for _, evt := range BootEvents() {
		line := "[BOOT] " + evt.Stage.String() + " polls=" + utoa(evt.Polls)
		if evt.Stage == StageFault {
			line += " stage=" + BootStage(evt.Value).String()
		} else {
			line += " value=" + utoa(evt.Value)
		}
		debugPrintln(line)
	}
	debugPrintln("[BOOT] === End Log ===")
}

// ClearBootLog empties the boot log
func ClearBootLog() {
	for i := range bootLog {
		bootLog[i] = BootEvent{}
	}
	bootLogHead = 0
	bootLogLen = 0
}
