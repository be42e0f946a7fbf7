package core

import (
	"fmt"

	"github.com/lidavidm/rustv/isa"
)

// TrapKind distinguishes the handful of conditions that halt a core.
type TrapKind int

const (
	// IllegalInstruction is raised when the decoder dispatch sees an
	// unrecognized funct3/funct7 combination.
	IllegalInstruction TrapKind = iota
	// IllegalRead is raised when a load's address resolves to
	// memory.ErrInvalidAddress.
	IllegalRead
	// IllegalWrite is raised when a store's address resolves to
	// memory.ErrInvalidAddress.
	IllegalWrite
)

func (k TrapKind) String() string {
	switch k {
	case IllegalInstruction:
		return "IllegalInstruction"
	case IllegalRead:
		return "IllegalRead"
	case IllegalWrite:
		return "IllegalWrite"
	default:
		return "UnknownTrap"
	}
}

// Trap is the precise exception a core raises. It halts the issuing
// core only; the driver logs it to the host and keeps the other
// cores running.
type Trap struct {
	Kind          TrapKind
	PC            isa.Address
	Instruction   isa.Instruction
	MemoryAddress isa.Address
	MemoryValue   isa.Word
	HasMemory     bool
}

func (t Trap) Error() string {
	if t.HasMemory {
		return fmt.Sprintf("%s at pc=%#08x instr=%#08x addr=%#08x", t.Kind, t.PC, t.Instruction.Word(), t.MemoryAddress)
	}
	return fmt.Sprintf("%s at pc=%#08x instr=%#08x", t.Kind, t.PC, t.Instruction.Word())
}
