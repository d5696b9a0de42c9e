package core

// Register is a 32-bit memory-mapped hardware register.
// On target this is satisfied by *volatile.Register32; host code and tests
// use the register models in package sim.
type Register interface {
	Get() uint32
	Set(value uint32)
	SetBits(value uint32)
	ClearBits(value uint32)
	HasBits(value uint32) bool
	ReplaceBits(value uint32, mask uint32, pos uint8)
}

// field extracts a right-aligned field from a register value
func field(value, mask uint32, pos uint8) uint32 {
	return (value >> pos) & mask
}
