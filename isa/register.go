package isa

import "fmt"

// Register identifies one of the 32 general purpose registers. R0 is
// hardwired to zero: reads return 0 and writes are silently dropped.
type Register uint8

// NumRegisters is the number of general purpose registers in the
// register file.
const NumRegisters = 32

// R0 is the hardwired-zero register. Writes to it are no-ops.
const R0 Register = 0

// RegisterFromNum converts a 5-bit field from a decoded instruction into
// a Register. Values outside [0,31] are truncated to their low 5 bits,
// matching the fact that the decoder only ever extracts 5-bit fields.
func RegisterFromNum(n uint32) Register {
	return Register(n & 0x1F)
}

// String renders the register in the conventional xN form.
func (r Register) String() string {
	return fmt.Sprintf("x%d", uint8(r))
}
