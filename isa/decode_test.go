package isa

import "testing"

func encode(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return (opcode & 0x7F) |
		((rd & 0x1F) << 7) |
		((funct3 & 0x7) << 12) |
		((rs1 & 0x1F) << 15) |
		((rs2 & 0x1F) << 20) |
		((funct7 & 0x7F) << 25)
}

func TestDecodeFields(t *testing.T) {
	word := encode(OpcodeOP, 5, Funct3ADDSUB, 6, 7, Funct7Default)
	inst := NewInstruction(Word(word))

	if got := inst.Opcode(); got != OpcodeOP {
		t.Errorf("Opcode() = 0x%x, want 0x%x", got, OpcodeOP)
	}
	if got := inst.Rd(); got != Register(5) {
		t.Errorf("Rd() = %v, want x5", got)
	}
	if got := inst.Rs1(); got != Register(6) {
		t.Errorf("Rs1() = %v, want x6", got)
	}
	if got := inst.Rs2(); got != Register(7) {
		t.Errorf("Rs2() = %v, want x7", got)
	}
}

func TestIImmSignExtension(t *testing.T) {
	tests := []struct {
		name string
		imm  uint32
		want int32
	}{
		{"positive small", 5, 5},
		{"zero", 0, 0},
		{"negative one", 0xFFF, -1},
		{"most negative 12-bit", 0x800, -2048},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word := (tt.imm&0xFFF)<<20 | OpcodeOPIMM
			inst := NewInstruction(Word(word))
			if got := int32(inst.IImm()); got != tt.want {
				t.Errorf("IImm() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSImmAssembly(t *testing.T) {
	// s_imm = -4: low 5 bits = 0x1C, high 7 bits = 0x7F (sign bits)
	word := uint32(OpcodeSTORE) | (0x1C << 7) | (0x7F << 25)
	inst := NewInstruction(Word(word))
	if got := int32(inst.SImm()); got != -4 {
		t.Errorf("SImm() = %d, want -4", got)
	}
}

func TestUImm(t *testing.T) {
	word := uint32(OpcodeLUI) | (0xABCDE << 12)
	inst := NewInstruction(Word(word))
	if got := inst.UImm(); got != Word(0xABCDE000) {
		t.Errorf("UImm() = 0x%x, want 0xABCDE000", got)
	}
}

func TestUJImmAndSBImmAreZeroAtBit0(t *testing.T) {
	word := uint32(OpcodeJAL) | 0xFFFFFF80 // arbitrary high bits set
	inst := NewInstruction(Word(word))
	if v := int32(inst.UJImm()); v&1 != 0 {
		t.Errorf("UJImm() low bit set: %d", v)
	}

	word = uint32(OpcodeBRANCH) | 0xFFFFFF00
	inst = NewInstruction(Word(word))
	if v := int32(inst.SBImm()); v&1 != 0 {
		t.Errorf("SBImm() low bit set: %d", v)
	}
}

// TestDecoderDeterminism pins the "decoder determinism" property from
// §8: the accessor tuple is a pure function of the encoding.
func TestDecoderDeterminism(t *testing.T) {
	word := Word(0xDEADBEEF)
	a := NewInstruction(word)
	b := NewInstruction(word)
	if a.Opcode() != b.Opcode() || a.Rd() != b.Rd() || a.Funct3() != b.Funct3() ||
		a.Rs1() != b.Rs1() || a.Rs2() != b.Rs2() || a.Funct7() != b.Funct7() ||
		a.IImm() != b.IImm() || a.SImm() != b.SImm() || a.UImm() != b.UImm() ||
		a.UJImm() != b.UJImm() || a.SBImm() != b.SBImm() {
		t.Errorf("decoding the same word twice produced different results")
	}
}

func TestWordBytesLittleEndian(t *testing.T) {
	w := Word(0x01234567)
	b := w.Bytes()
	want := [4]byte{0x67, 0x45, 0x23, 0x01}
	if b != want {
		t.Errorf("Bytes() = %x, want %x", b, want)
	}
	if got := WordFromBytes(b[:]); got != w {
		t.Errorf("WordFromBytes(Bytes()) = 0x%x, want 0x%x", got, w)
	}
}
