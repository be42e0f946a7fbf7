package core

import "github.com/lidavidm/rustv/isa"

// RegisterFile holds a core's 32 general-purpose registers. Register
// x0 is hardwired to zero: reads always return 0, writes are silently
// dropped.
type RegisterFile struct {
	slots [isa.NumRegisters]isa.Word
}

// Read returns the value held in r, or 0 if r is x0.
func (f *RegisterFile) Read(r isa.Register) isa.Word {
	if r == isa.R0 {
		return 0
	}
	return f.slots[r]
}

// Write stores val in r. Writes to x0 are dropped.
func (f *RegisterFile) Write(r isa.Register, val isa.Word) {
	if r == isa.R0 {
		return
	}
	f.slots[r] = val
}
