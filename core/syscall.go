package core

import "github.com/lidavidm/rustv/memory"

// SyscallHandler is the external collaborator a core invokes for
// SYSTEM/ecall instructions. It is given mutable access to the issuing
// core's register file so it can read arguments and write a result.
type SyscallHandler interface {
	// Syscall services one ecall from coreID. A non-nil Trap halts the
	// issuing core.
	Syscall(coreID int, regs *RegisterFile, translator memory.Translator) *Trap
	// ShouldHalt reports whether the handler has requested that the
	// whole simulation stop (e.g. an exit syscall), independent of any
	// individual core's running state.
	ShouldHalt() bool
}
