package isa

// Opcode values, matching the RV32I base integer encoding (bits[6:0] of
// the instruction word).
const (
	OpcodeLUI    = 0x37
	OpcodeAUIPC  = 0x17
	OpcodeJAL    = 0x6F
	OpcodeJALR   = 0x67
	OpcodeBRANCH = 0x63
	OpcodeLOAD   = 0x03
	OpcodeSTORE  = 0x23
	OpcodeOPIMM  = 0x13
	OpcodeOP     = 0x33
	OpcodeSYSTEM = 0x73
)

// BRANCH funct3 values.
const (
	Funct3BEQ  = 0x0
	Funct3BNE  = 0x1
	Funct3BLT  = 0x4
	Funct3BGE  = 0x5
	Funct3BLTU = 0x6
	Funct3BGEU = 0x7
)

// OP-IMM funct3 values.
const (
	Funct3ADDI     = 0x0
	Funct3SLLI     = 0x1
	Funct3SLTI     = 0x2
	Funct3SLTIU    = 0x3
	Funct3XORI     = 0x4
	Funct3SRLISRAI = 0x5
	Funct3ORI      = 0x6
	Funct3ANDI     = 0x7
)

// OP funct3 values (shared with OP-IMM where the operation overlaps).
const (
	Funct3ADDSUB = 0x0
	Funct3SLL    = 0x1
	Funct3SLT    = 0x2
	Funct3SLTU   = 0x3
	Funct3XOR    = 0x4
	Funct3SRLSRA = 0x5
	Funct3OR     = 0x6
	Funct3AND    = 0x7
)

// LOAD funct3 values.
const (
	Funct3LB  = 0x0
	Funct3LH  = 0x1
	Funct3LW  = 0x2
	Funct3LBU = 0x4
	Funct3LHU = 0x5
)

// STORE funct3 values.
const (
	Funct3SB = 0x0
	Funct3SH = 0x1
	Funct3SW = 0x2
)

// funct7 values disambiguating ADD/SUB and the logical/arithmetic
// shifts.
const (
	Funct7Default  = 0x00
	Funct7AltShift = 0x20 // SUB, SRAI, SRA
)
