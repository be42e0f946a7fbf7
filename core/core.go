// Package core implements the per-core fetch/decode/execute state
// machine: one core executes at most one instruction per tick, stalling
// on cache misses and trapping on illegal instructions or addresses.
package core

import (
	"errors"

	"github.com/lidavidm/rustv/isa"
	"github.com/lidavidm/rustv/memory"
)

// Core is a single-issue, in-order processor core. It owns its PC,
// register file, translator, and a handle to its private L1 cache.
// The cache and backing memory behind it may be shared with other
// cores; the core's own state is not.
type Core struct {
	ID          int
	PC          isa.Address
	Regs        RegisterFile
	Running     bool
	StallCycles uint32
	CycleCount  uint64
	StallCount  uint64
	LastTrap    *Trap

	cache      memory.Interface
	translator memory.Translator
}

// New constructs a core at the given initial PC, running, with zeroed
// registers.
func New(id int, pc isa.Address, cache memory.Interface, translator memory.Translator) *Core {
	return &Core{
		ID:         id,
		PC:         pc,
		Running:    true,
		cache:      cache,
		translator: translator,
	}
}

// Translator returns the core's address translator, for use by the
// driver when fetching instructions on this core's behalf.
func (c *Core) Translator() memory.Translator { return c.translator }

// FaultFetch records an IllegalInstruction trap when the driver could
// not resolve an instruction at the core's current PC.
func (c *Core) FaultFetch() {
	c.fault(Trap{Kind: IllegalInstruction, PC: c.PC})
}

// Step decodes and executes one instruction, already fetched by the
// driver, advancing PC or recording a stall/trap as appropriate. It
// must only be called while Running is true.
func (c *Core) Step(instr isa.Instruction, syscall SyscallHandler) {
	c.CycleCount++

	if c.StallCycles > 0 {
		c.StallCycles--
		c.StallCount++
		return
	}

	switch instr.Opcode() {
	case isa.OpcodeLUI:
		c.Regs.Write(instr.Rd(), instr.UImm())
		c.PC += 4

	case isa.OpcodeAUIPC:
		c.Regs.Write(instr.Rd(), isa.Word(c.PC)+instr.UImm())
		c.PC += 4

	case isa.OpcodeJAL:
		c.Regs.Write(instr.Rd(), isa.Word(c.PC+4))
		c.PC = offsetAddr(c.PC, instr.UJImm())

	case isa.OpcodeJALR:
		target := offsetAddr(isa.Address(c.Regs.Read(instr.Rs1())), instr.IImm())
		if target == 0 {
			c.Running = false
			return
		}
		c.Regs.Write(instr.Rd(), isa.Word(c.PC+4))
		c.PC = target

	case isa.OpcodeBRANCH:
		c.execBranch(instr)

	case isa.OpcodeOPIMM:
		c.execOpImm(instr)

	case isa.OpcodeOP:
		c.execOp(instr)

	case isa.OpcodeLOAD:
		c.execLoad(instr)

	case isa.OpcodeSTORE:
		c.execStore(instr)

	case isa.OpcodeSYSTEM:
		c.execSystem(instr, syscall)

	default:
		c.illegal(instr)
	}
}

func (c *Core) execBranch(instr isa.Instruction) {
	a := c.Regs.Read(instr.Rs1())
	b := c.Regs.Read(instr.Rs2())

	var take bool
	switch instr.Funct3() {
	case isa.Funct3BEQ:
		take = a == b
	case isa.Funct3BNE:
		take = a != b
	case isa.Funct3BLT:
		take = isa.SignedWord(a) < isa.SignedWord(b)
	case isa.Funct3BGE:
		take = isa.SignedWord(a) >= isa.SignedWord(b)
	case isa.Funct3BLTU:
		take = a < b
	case isa.Funct3BGEU:
		take = a >= b
	default:
		c.illegal(instr)
		return
	}

	if take {
		c.PC = offsetAddr(c.PC, instr.SBImm())
	} else {
		c.PC += 4
	}
}

func (c *Core) execOpImm(instr isa.Instruction) {
	a := c.Regs.Read(instr.Rs1())
	imm := instr.IImm()
	rd := instr.Rd()

	switch instr.Funct3() {
	case isa.Funct3ADDI:
		c.Regs.Write(rd, a+isa.Word(imm))
	case isa.Funct3SLLI:
		c.Regs.Write(rd, a<<instr.Shamt())
	case isa.Funct3SLTI:
		c.Regs.Write(rd, boolWord(isa.SignedWord(a) < imm))
	case isa.Funct3SLTIU:
		c.Regs.Write(rd, boolWord(a < isa.Word(imm)))
	case isa.Funct3XORI:
		c.Regs.Write(rd, a^isa.Word(imm))
	case isa.Funct3ORI:
		c.Regs.Write(rd, a|isa.Word(imm))
	case isa.Funct3ANDI:
		c.Regs.Write(rd, a&isa.Word(imm))
	case isa.Funct3SRLISRAI:
		switch instr.Funct7() {
		case isa.Funct7Default:
			c.Regs.Write(rd, a>>instr.Shamt())
		case isa.Funct7AltShift:
			c.Regs.Write(rd, isa.Word(isa.SignedWord(a)>>instr.Shamt()))
		default:
			c.illegal(instr)
			return
		}
	default:
		c.illegal(instr)
		return
	}
	c.PC += 4
}

func (c *Core) execOp(instr isa.Instruction) {
	a := c.Regs.Read(instr.Rs1())
	b := c.Regs.Read(instr.Rs2())
	rd := instr.Rd()
	shamt := uint32(b) & 0x1F

	switch instr.Funct3() {
	case isa.Funct3ADDSUB:
		switch instr.Funct7() {
		case isa.Funct7Default:
			c.Regs.Write(rd, a+b)
		case isa.Funct7AltShift:
			c.Regs.Write(rd, a-b)
		default:
			c.illegal(instr)
			return
		}
	case isa.Funct3SLL:
		c.Regs.Write(rd, a<<shamt)
	case isa.Funct3SLT:
		c.Regs.Write(rd, boolWord(isa.SignedWord(a) < isa.SignedWord(b)))
	case isa.Funct3SLTU:
		c.Regs.Write(rd, boolWord(a < b))
	case isa.Funct3XOR:
		c.Regs.Write(rd, a^b)
	case isa.Funct3SRLSRA:
		switch instr.Funct7() {
		case isa.Funct7Default:
			c.Regs.Write(rd, a>>shamt)
		case isa.Funct7AltShift:
			c.Regs.Write(rd, isa.Word(isa.SignedWord(a)>>shamt))
		default:
			c.illegal(instr)
			return
		}
	case isa.Funct3OR:
		c.Regs.Write(rd, a|b)
	case isa.Funct3AND:
		c.Regs.Write(rd, a&b)
	default:
		c.illegal(instr)
		return
	}
	c.PC += 4
}

func (c *Core) execLoad(instr isa.Instruction) {
	addr := offsetAddr(isa.Address(c.Regs.Read(instr.Rs1())), instr.IImm())
	translated := c.translator.Translate(addr)
	rd := instr.Rd()

	switch instr.Funct3() {
	case isa.Funct3LB:
		v, err := c.cache.ReadByte(translated)
		if c.memError(err, translated, false, 0, instr) {
			return
		}
		c.Regs.Write(rd, isa.Word(isa.SignedByte(v).SignExtend()))
	case isa.Funct3LH:
		v, err := c.cache.ReadHalfword(translated)
		if c.memError(err, translated, false, 0, instr) {
			return
		}
		c.Regs.Write(rd, isa.Word(isa.SignedHalfWord(v).SignExtend()))
	case isa.Funct3LW:
		v, err := c.cache.ReadWord(translated)
		if c.memError(err, translated, false, 0, instr) {
			return
		}
		c.Regs.Write(rd, v)
	case isa.Funct3LBU:
		v, err := c.cache.ReadByte(translated)
		if c.memError(err, translated, false, 0, instr) {
			return
		}
		c.Regs.Write(rd, v.ZeroExtend())
	case isa.Funct3LHU:
		v, err := c.cache.ReadHalfword(translated)
		if c.memError(err, translated, false, 0, instr) {
			return
		}
		c.Regs.Write(rd, v.ZeroExtend())
	default:
		c.illegal(instr)
		return
	}
	c.PC += 4
}

func (c *Core) execStore(instr isa.Instruction) {
	addr := offsetAddr(isa.Address(c.Regs.Read(instr.Rs1())), instr.SImm())
	translated := c.translator.Translate(addr)
	val := c.Regs.Read(instr.Rs2())

	var err error
	switch instr.Funct3() {
	case isa.Funct3SB:
		err = c.cache.WriteByte(translated, isa.Byte(val))
	case isa.Funct3SH:
		err = c.cache.WriteHalfword(translated, isa.HalfWord(val))
	case isa.Funct3SW:
		err = c.cache.WriteWord(translated, val)
	default:
		c.illegal(instr)
		return
	}
	if c.memError(err, translated, true, val, instr) {
		return
	}
	c.PC += 4
}

func (c *Core) execSystem(instr isa.Instruction, syscall SyscallHandler) {
	if instr.IImm() == 0 {
		if trap := syscall.Syscall(c.ID, &c.Regs, c.translator); trap != nil {
			c.fault(*trap)
			return
		}
	}
	c.PC += 4
}

// memError inspects the result of a cache access. It returns true if
// the caller must stop processing this instruction immediately,
// because either a stall was recorded or a trap was raised.
func (c *Core) memError(err error, addr isa.Address, isWrite bool, writeVal isa.Word, instr isa.Instruction) bool {
	if err == nil {
		return false
	}
	if miss, ok := memory.AsCacheMiss(err); ok {
		c.StallCycles = miss.StallCycles - 1
		if !miss.Retry {
			c.PC += 4
		}
		return true
	}
	if errors.Is(err, memory.ErrInvalidAddress) {
		kind := IllegalRead
		if isWrite {
			kind = IllegalWrite
		}
		c.fault(Trap{
			Kind:          kind,
			PC:            c.PC,
			Instruction:   instr,
			MemoryAddress: addr,
			MemoryValue:   writeVal,
			HasMemory:     true,
		})
		return true
	}
	// An unrecognized error from the memory interface is treated like
	// InvalidAddress: it halts the issuing core rather than propagating
	// past it.
	kind := IllegalRead
	if isWrite {
		kind = IllegalWrite
	}
	c.fault(Trap{Kind: kind, PC: c.PC, Instruction: instr, MemoryAddress: addr, MemoryValue: writeVal, HasMemory: true})
	return true
}

func (c *Core) illegal(instr isa.Instruction) {
	c.fault(Trap{Kind: IllegalInstruction, PC: c.PC, Instruction: instr})
}

func (c *Core) fault(t Trap) {
	c.Running = false
	c.LastTrap = &t
}

// offsetAddr adds a signed immediate to an address with two's
// complement wraparound, matching the spec's "signed add, result
// stored as word" arithmetic.
func offsetAddr(addr isa.Address, imm isa.SignedWord) isa.Address {
	return addr + isa.Address(imm)
}

func boolWord(b bool) isa.Word {
	if b {
		return 1
	}
	return 0
}
