package isa

// Instruction is an immutable view over a 32-bit encoded instruction
// word. Every accessor is a pure function of the encoding.
type Instruction struct {
	word uint32
}

// NewInstruction wraps a raw 32-bit encoding.
func NewInstruction(word Word) Instruction {
	return Instruction{word: uint32(word)}
}

// Word returns the raw encoding.
func (i Instruction) Word() Word { return Word(i.word) }

// Opcode returns bits[6:0].
func (i Instruction) Opcode() uint32 { return i.word & 0x7F }

// Rd returns the destination register field, bits[11:7].
func (i Instruction) Rd() Register { return RegisterFromNum(i.word >> 7) }

// Funct3 returns bits[14:12].
func (i Instruction) Funct3() uint32 { return (i.word >> 12) & 0x7 }

// Rs1 returns the first source register field, bits[19:15].
func (i Instruction) Rs1() Register { return RegisterFromNum(i.word >> 15) }

// Rs2 returns the second source register field, bits[24:20].
func (i Instruction) Rs2() Register { return RegisterFromNum(i.word >> 20) }

// Funct7 returns bits[31:25].
func (i Instruction) Funct7() uint32 { return (i.word >> 25) & 0x7F }

// Shamt returns the shift amount field, bits[24:20].
func (i Instruction) Shamt() uint32 { return (i.word >> 20) & 0x1F }

// IImm returns the sign-extended 12-bit I-type immediate, bits[31:20].
func (i Instruction) IImm() SignedWord {
	return SignedWord(SignExtend32(i.word>>20, 12))
}

// SImm returns the sign-extended 12-bit S-type immediate, assembled
// from bits[31:25] (high) and bits[11:7] (low).
func (i Instruction) SImm() SignedWord {
	high := (i.word >> 25) & 0x7F
	low := (i.word >> 7) & 0x1F
	return SignedWord(SignExtend32((high<<5)|low, 12))
}

// UImm returns the 20-bit U-type immediate, left-shifted into bits
// [31:12] with the low 12 bits zero.
func (i Instruction) UImm() Word {
	return Word(i.word & 0xFFFFF000)
}

// UJImm returns the sign-extended 21-bit J-type immediate (bit 0 is
// always zero), assembled per the RV32I JAL encoding.
func (i Instruction) UJImm() SignedWord {
	bit20 := (i.word >> 31) & 0x1
	bits19_12 := (i.word >> 12) & 0xFF
	bit11 := (i.word >> 20) & 0x1
	bits10_1 := (i.word >> 21) & 0x3FF
	v := (bit20 << 20) | (bits19_12 << 12) | (bit11 << 11) | (bits10_1 << 1)
	return SignedWord(SignExtend32(v, 21))
}

// SBImm returns the sign-extended 13-bit B-type immediate (bit 0 is
// always zero), assembled per the RV32I branch encoding.
func (i Instruction) SBImm() SignedWord {
	bit12 := (i.word >> 31) & 0x1
	bit11 := (i.word >> 7) & 0x1
	bits10_5 := (i.word >> 25) & 0x3F
	bits4_1 := (i.word >> 8) & 0xF
	v := (bit12 << 12) | (bit11 << 11) | (bits10_5 << 5) | (bits4_1 << 1)
	return SignedWord(SignExtend32(v, 13))
}
