package memory

import "github.com/lidavidm/rustv/isa"

// BackingLatency is the fixed number of cycles a cache miss against the
// backing store takes to resolve.
const BackingLatency = 100

// BackingMemory is the simulator's word-indexed backing store: a flat
// vector of N words addressed by addr/4, with the low two bits of any
// word access discarded.
type BackingMemory struct {
	words []isa.Word
}

// NewBackingMemory allocates a zeroed backing store of the given size in
// 32-bit words.
func NewBackingMemory(sizeWords int) *BackingMemory {
	return &BackingMemory{words: make([]isa.Word, sizeWords)}
}

// Size returns the number of addressable words.
func (m *BackingMemory) Size() int { return len(m.words) }

// Latency implements Interface.
func (m *BackingMemory) Latency() uint32 { return BackingLatency }

// Step implements Interface; the backing store has no in-flight state.
func (m *BackingMemory) Step() {}

// IsAddressAccessible implements Interface.
func (m *BackingMemory) IsAddressAccessible(addr isa.Address) bool {
	return int(addr/4) < len(m.words)
}

// ReadWord implements Interface.
func (m *BackingMemory) ReadWord(addr isa.Address) (isa.Word, error) {
	idx := int(addr / 4)
	if idx >= len(m.words) {
		return 0, ErrInvalidAddress
	}
	return m.words[idx], nil
}

// WriteWord implements Interface. Address 0 is reserved: writes to it
// are rejected so that null-ish stores trap instead of silently
// succeeding.
func (m *BackingMemory) WriteWord(addr isa.Address, val isa.Word) error {
	if addr == 0 {
		return ErrInvalidAddress
	}
	idx := int(addr / 4)
	if idx >= len(m.words) {
		return ErrInvalidAddress
	}
	m.words[idx] = val
	return nil
}

// ReadInstruction implements Interface.
func (m *BackingMemory) ReadInstruction(addr isa.Address) (isa.Instruction, bool) {
	word, err := m.ReadWord(addr)
	if err != nil {
		return isa.Instruction{}, false
	}
	return isa.NewInstruction(word), true
}

// ReadHalfword implements Interface.
func (m *BackingMemory) ReadHalfword(addr isa.Address) (isa.HalfWord, error) {
	return ReadHalfwordDefault(m, addr)
}

// WriteHalfword implements Interface.
func (m *BackingMemory) WriteHalfword(addr isa.Address, val isa.HalfWord) error {
	return WriteHalfwordDefault(m, addr, val)
}

// ReadByte implements Interface.
func (m *BackingMemory) ReadByte(addr isa.Address) (isa.Byte, error) {
	return ReadByteDefault(m, addr)
}

// WriteByte implements Interface.
func (m *BackingMemory) WriteByte(addr isa.Address, val isa.Byte) error {
	return WriteByteDefault(m, addr, val)
}

// WriteSegment installs data beginning at translator.Translate(base),
// collapsing every 4 bytes least-significant-byte-first into a word.
// A trailing partial word (1-3 bytes) is zero-padded in its high
// lanes. Used by the hex/ELF loaders to seed memory before simulation
// starts.
func (m *BackingMemory) WriteSegment(translator Translator, data []byte, base isa.Address) error {
	for i := 0; i < len(data); i += 4 {
		end := i + 4
		if end > len(data) {
			end = len(data)
		}
		word := isa.WordFromBytes(data[i:end])
		addr := translator.Translate(base + isa.Address(i))
		if err := m.WriteWord(addr, word); err != nil {
			return err
		}
	}
	return nil
}

var _ Interface = (*BackingMemory)(nil)
