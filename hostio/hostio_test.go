package hostio

import (
	"bytes"
	"testing"

	"github.com/lidavidm/rustv/core"
	"github.com/lidavidm/rustv/isa"
	"github.com/lidavidm/rustv/memory"
)

func TestWriteChar(t *testing.T) {
	var buf bytes.Buffer
	mem := memory.NewBackingMemory(16)
	h := NewHandler(&buf, mem)

	var regs core.RegisterFile
	regs.Write(regA7, EcallWriteChar)
	regs.Write(regA0, isa.Word('A'))

	if trap := h.Syscall(0, &regs, memory.IdentityTranslator{}); trap != nil {
		t.Fatalf("unexpected trap: %v", trap)
	}
	if buf.String() != "A" {
		t.Fatalf("output = %q, want %q", buf.String(), "A")
	}
}

func TestWriteString(t *testing.T) {
	var buf bytes.Buffer
	mem := memory.NewBackingMemory(16)
	if err := mem.WriteSegment(memory.IdentityTranslator{}, []byte("hi\x00"), 4); err != nil {
		t.Fatal(err)
	}
	h := NewHandler(&buf, mem)

	var regs core.RegisterFile
	regs.Write(regA7, EcallWriteString)
	regs.Write(regA0, isa.Word(4))

	if trap := h.Syscall(0, &regs, memory.IdentityTranslator{}); trap != nil {
		t.Fatalf("unexpected trap: %v", trap)
	}
	if buf.String() != "hi" {
		t.Fatalf("output = %q, want %q", buf.String(), "hi")
	}
}

func TestExitSetsHaltedAndExitCode(t *testing.T) {
	mem := memory.NewBackingMemory(16)
	h := NewHandler(&bytes.Buffer{}, mem)

	var regs core.RegisterFile
	regs.Write(regA7, EcallExit)
	regs.Write(regA0, 7)

	h.Syscall(0, &regs, memory.IdentityTranslator{})
	if !h.ShouldHalt() {
		t.Fatal("ShouldHalt() = false, want true after EcallExit")
	}
	if h.ExitCode() != 7 {
		t.Fatalf("ExitCode() = %d, want 7", h.ExitCode())
	}
}

var _ core.SyscallHandler = (*Handler)(nil)
