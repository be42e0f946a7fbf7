package memory

import "github.com/lidavidm/rustv/isa"

// Interface is the capability shared by BackingMemory and the cache: a
// uniform memory surface cores and caches program against regardless of
// what backs it.
type Interface interface {
	// Latency returns the fixed number of cycles a miss against this
	// level takes to resolve.
	Latency() uint32
	// Step advances any in-flight state (fetch requests) by one cycle.
	Step()
	IsAddressAccessible(addr isa.Address) bool
	ReadWord(addr isa.Address) (isa.Word, error)
	WriteWord(addr isa.Address, val isa.Word) error
	// ReadInstruction reads and decodes the word at addr, returning
	// false if addr is out of range.
	ReadInstruction(addr isa.Address) (isa.Instruction, bool)

	ReadHalfword(addr isa.Address) (isa.HalfWord, error)
	WriteHalfword(addr isa.Address, val isa.HalfWord) error
	ReadByte(addr isa.Address) (isa.Byte, error)
	WriteByte(addr isa.Address, val isa.Byte) error
}

// wordAccessor is the minimal surface the default half/byte helpers
// below need. Both BackingMemory and the direct-mapped cache implement
// it, and delegate their ReadHalfword/WriteHalfword/ReadByte/WriteByte
// methods to these free functions, so the half/byte-over-word
// composition rule from the spec lives in exactly one place rather than
// being duplicated per concrete type.
type wordAccessor interface {
	ReadWord(addr isa.Address) (isa.Word, error)
	WriteWord(addr isa.Address, val isa.Word) error
}

// ReadHalfwordDefault reads the halfword at addr by selecting the high
// or low 16 bits of the enclosing word, per addr's bit 1. Offsets 1 and
// 3 are not representable as a halfword lane and are a caller error.
func ReadHalfwordDefault(m wordAccessor, addr isa.Address) (isa.HalfWord, error) {
	word, err := m.ReadWord(addr - (addr % 4))
	if err != nil {
		return 0, err
	}
	if addr&0b10 != 0 {
		return word.Hi(), nil
	}
	return word.Lo(), nil
}

// WriteHalfwordDefault performs a read-modify-write of the halfword lane
// selected by addr's bit 1.
func WriteHalfwordDefault(m wordAccessor, addr isa.Address, val isa.HalfWord) error {
	base := addr - (addr % 4)
	word, err := m.ReadWord(base)
	if err != nil {
		return err
	}
	if addr&0b10 != 0 {
		word = (word &^ 0xFFFF0000) | (isa.Word(val) << 16)
	} else {
		word = (word &^ 0x0000FFFF) | isa.Word(val)
	}
	return m.WriteWord(base, word)
}

// ReadByteDefault reads the byte at addr by selecting one of the four
// byte lanes of the enclosing word, per addr mod 4.
func ReadByteDefault(m wordAccessor, addr isa.Address) (isa.Byte, error) {
	word, err := m.ReadWord(addr - (addr % 4))
	if err != nil {
		return 0, err
	}
	shift := (addr % 4) * 8
	return isa.Byte(word >> shift), nil
}

// WriteByteDefault performs a read-modify-write of the byte lane
// selected by addr mod 4.
func WriteByteDefault(m wordAccessor, addr isa.Address, val isa.Byte) error {
	base := addr - (addr % 4)
	word, err := m.ReadWord(base)
	if err != nil {
		return err
	}
	shift := (addr % 4) * 8
	mask := isa.Word(0xFF) << shift
	word = (word &^ mask) | (isa.Word(val) << shift)
	return m.WriteWord(base, word)
}
