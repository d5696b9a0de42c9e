package core

// memRegister is a plain memory cell for tests that need no hardware
// behaviour
type memRegister struct {
	value uint32
}

func (r *memRegister) Get() uint32           { return r.value }
func (r *memRegister) Set(v uint32)          { r.value = v }
func (r *memRegister) SetBits(v uint32)      { r.value |= v }
func (r *memRegister) ClearBits(v uint32)    { r.value &^= v }
func (r *memRegister) HasBits(v uint32) bool { return r.value&v != 0 }

func (r *memRegister) ReplaceBits(v uint32, mask uint32, pos uint8) {
	r.value = r.value&^(mask<<pos) | v<<pos
}
