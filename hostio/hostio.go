// Package hostio implements a reference syscall collaborator: the
// minimal ABI a core's SYSTEM/ecall instruction needs to print
// characters and strings to the host and to request a clean exit.
package hostio

import (
	"bufio"
	"io"

	"github.com/lidavidm/rustv/core"
	"github.com/lidavidm/rustv/isa"
	"github.com/lidavidm/rustv/memory"
)

// Ecall numbers, read from x17 (a7) by convention.
const (
	EcallWriteChar   = 1
	EcallWriteString = 2
	EcallExit        = 93
)

const (
	regA0 = isa.Register(10)
	regA7 = isa.Register(17)
)

// maxStringLen bounds how far writeString will scan for a NUL
// terminator, so a corrupt guest program cannot make the host read
// forever.
const maxStringLen = 1 << 20

// Handler is a reference SyscallHandler: it writes to out, and reads
// guest strings out of mem (the same backing memory the cores run
// against).
type Handler struct {
	out      *bufio.Writer
	mem      memory.Interface
	halted   bool
	exitCode isa.Word
}

// NewHandler constructs a handler that writes to out and resolves
// string arguments against mem.
func NewHandler(out io.Writer, mem memory.Interface) *Handler {
	return &Handler{out: bufio.NewWriter(out), mem: mem}
}

// Syscall implements core.SyscallHandler.
func (h *Handler) Syscall(coreID int, regs *core.RegisterFile, translator memory.Translator) *core.Trap {
	switch regs.Read(regA7) {
	case EcallWriteChar:
		h.out.WriteByte(byte(regs.Read(regA0)))
	case EcallWriteString:
		if err := h.writeString(regs.Read(regA0), translator); err != nil {
			return nil
		}
	case EcallExit:
		h.halted = true
		h.exitCode = regs.Read(regA0)
	}
	h.out.Flush()
	return nil
}

// ShouldHalt implements core.SyscallHandler.
func (h *Handler) ShouldHalt() bool { return h.halted }

// ExitCode returns the value passed to EcallExit, or 0 if the guest
// never exited.
func (h *Handler) ExitCode() isa.Word { return h.exitCode }

func (h *Handler) writeString(addr isa.Word, translator memory.Translator) error {
	cur := isa.Address(addr)
	for n := 0; n < maxStringLen; n++ {
		b, err := h.mem.ReadByte(translator.Translate(cur))
		if err != nil {
			return err
		}
		if b == 0 {
			return nil
		}
		h.out.WriteByte(byte(b))
		cur++
	}
	return nil
}

var _ core.SyscallHandler = (*Handler)(nil)
