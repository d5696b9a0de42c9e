// Package sim models the STM32F4 reset and clock control, flash interface
// and SysTick blocks at register level, so the clock/time core can run on
// the host. Ready flags assert after a configurable number of reads, the
// clock switch echoes through SWS the same way, and SysTick counts down in
// simulated core cycles.
//
// The model is not safe for concurrent use. Drive it from one goroutine.
package sim

// Register is a simulated 32-bit register. Reads and writes may be routed
// through hooks that give the register hardware behaviour.
type Register struct {
	name  string
	value uint32
	read  func(r *Register) uint32
	write func(r *Register, v uint32)
}

// NewRegister returns a plain storage register
func NewRegister(name string, reset uint32) *Register {
	return &Register{name: name, value: reset}
}

// Name returns the register's name
func (r *Register) Name() string {
	return r.name
}

// Get reads the register through its read hook
func (r *Register) Get() uint32 {
	if r.read != nil {
		return r.read(r)
	}
	return r.value
}

// Set writes the register through its write hook
func (r *Register) Set(v uint32) {
	if r.write != nil {
		r.write(r, v)
		return
	}
	r.value = v
}

// SetBits is a read-modify-write setting bits
func (r *Register) SetBits(v uint32) {
	r.Set(r.value | v)
}

// ClearBits is a read-modify-write clearing bits
func (r *Register) ClearBits(v uint32) {
	r.Set(r.value &^ v)
}

// HasBits reads the register and reports whether any of the bits are set
func (r *Register) HasBits(v uint32) bool {
	return r.Get()&v != 0
}

// ReplaceBits replaces a field: (value & ^(mask << pos)) | value << pos
func (r *Register) ReplaceBits(value uint32, mask uint32, pos uint8) {
	r.Set(r.value&^(mask<<pos) | value<<pos)
}

// Peek returns the stored value without running hooks
func (r *Register) Peek() uint32 {
	return r.value
}

// Poke stores a value without running hooks
func (r *Register) Poke(v uint32) {
	r.value = v
}
