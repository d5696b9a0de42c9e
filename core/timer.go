package core

import "sync/atomic"

// systemTicks is written only by TickHandler and read by everything else.
// Atomic access keeps every busy-wait iteration observing memory the
// interrupt handler changed.
var systemTicks uint32

// TickHandler advances the tick counter by one. Install it as the SysTick
// exception handler; it must stay this small since it preempts everything.
func TickHandler() {
	atomic.AddUint32(&systemTicks, 1)
}

// Ticks returns the current tick count
func Ticks() uint32 {
	return atomic.LoadUint32(&systemTicks)
}

// SetTicks overwrites the tick counter (for testing/hardware integration)
func SetTicks(ticks uint32) {
	atomic.StoreUint32(&systemTicks, ticks)
}

// Elapsed returns the ticks between start and now. Unsigned subtraction
// gives the right count across a counter wrap as long as the real
// interval is shorter than the counter's range.
func Elapsed(start, now uint32) uint32 {
	return now - start
}

// Delay busy-waits until at least d ticks have passed since the call and
// returns on the first observation of the counter at start+d. There is no
// cancellation and no timeout; the CPU spins the whole time. The loop must
// see the counter at least once per counter period (2^32 ticks), or the
// wait wraps around and starts over.
func Delay(d uint32) {
	waitSince(Ticks(), d)
}

// waitSince spins until d ticks have passed since start
func waitSince(start, d uint32) {
	for Elapsed(start, Ticks()) < d {
		spinHint()
	}
}

// Timestamp is a tick count plus the SysTick cycles already spent in the
// following tick
type Timestamp struct {
	Ticks   uint32
	SubTick uint32
}

// Now returns a consistent tick/sub-tick snapshot. The counter is read on
// both sides of the down-counter read and the pair retried if a tick
// landed between them.
func Now() Timestamp {
	if sysTick == nil {
		return Timestamp{Ticks: Ticks()}
	}
	for {
		before := Ticks()
		val := sysTick.VAL.Get()
		after := Ticks()
		if before == after {
			return Timestamp{Ticks: before, SubTick: sysTickReload - val}
		}
	}
}

// Micros converts a Timestamp to microseconds since SysTick started
func (ts Timestamp) Micros() uint64 {
	rate := uint64(sysTickRate)
	if rate == 0 {
		return 0
	}
	us := uint64(ts.Ticks) * 1000000 / rate
	if sysTickReload != 0 {
		us += uint64(ts.SubTick) * 1000000 / (rate * uint64(sysTickReload+1))
	}
	return us
}
