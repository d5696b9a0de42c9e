package core

// IndicatorPin is a digital output driving an indicator.
// Platform-specific implementations handle the actual port registers,
// including enabling the port clock before the first register access.
type IndicatorPin interface {
	// Configure sets the pin up as a push-pull output with no pull resistor
	Configure()

	// Toggle inverts the output level
	Toggle()
}

// BlinkHook runs after every toggle with the number of toggles so far
type BlinkHook func(toggles uint32)

// Blink toggles pin every halfPeriod ticks. n limits the number of toggles;
// zero blinks forever. The half period is counted from the toggle, so time
// spent in hook does not stretch it unless hook outlasts the half period.
func Blink(pin IndicatorPin, halfPeriod uint32, n uint32, hook BlinkHook) {
	var toggles uint32
	for n == 0 || toggles < n {
		pin.Toggle()
		start := Ticks()
		toggles++
		if hook != nil {
			hook(toggles)
		}
		waitSince(start, halfPeriod)
	}
}
