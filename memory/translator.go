package memory

import "github.com/lidavidm/rustv/isa"

// Translator is the address-translation capability every core applies
// before issuing a memory request. Implementations must be
// deterministic; the two provided here are injective.
type Translator interface {
	Translate(addr isa.Address) isa.Address
}

// IdentityTranslator returns its input unchanged.
type IdentityTranslator struct{}

// Translate implements Translator.
func (IdentityTranslator) Translate(addr isa.Address) isa.Address { return addr }

// ReverseTranslator maps addr to (Top - 4 - (addr - offset)) + offset,
// where offset is addr's intra-word byte offset. It is an involution on
// word-aligned inputs within [0, Top).
type ReverseTranslator struct {
	Top isa.Address
}

// NewReverseTranslator constructs a ReverseTranslator with the given top
// bound.
func NewReverseTranslator(top isa.Address) ReverseTranslator {
	return ReverseTranslator{Top: top}
}

// Translate implements Translator.
func (r ReverseTranslator) Translate(addr isa.Address) isa.Address {
	offset := addr % 4
	base := addr - offset
	return (r.Top - 4 - base) + offset
}
