package loader

import (
	"debug/elf"
	"fmt"
	"io"

	"github.com/lidavidm/rustv/isa"
	"github.com/lidavidm/rustv/memory"
)

// LoadELFInto reads an ELF32 image from r and installs every allocatable
// section that has file contents (.text, .data, and the like) into mem
// at their virtual addresses, through translator. It returns the
// entry point recorded in the ELF header.
func LoadELFInto(r io.ReaderAt, mem *memory.BackingMemory, translator memory.Translator) (isa.Address, error) {
	f, err := elf.NewFile(r)
	if err != nil {
		return 0, fmt.Errorf("loader: not a valid ELF image: %w", err)
	}
	defer f.Close()

	if f.Class != elf.ELFCLASS32 {
		return 0, fmt.Errorf("loader: expected ELFCLASS32, got %s", f.Class)
	}

	for _, section := range f.Sections {
		if section.Flags&elf.SHF_ALLOC == 0 || section.Type == elf.SHT_NOBITS {
			continue
		}
		data, err := section.Data()
		if err != nil {
			return 0, fmt.Errorf("loader: reading section %s: %w", section.Name, err)
		}
		if len(data) == 0 {
			continue
		}
		if err := mem.WriteSegment(translator, data, isa.Address(section.Addr)); err != nil {
			return 0, fmt.Errorf("loader: installing section %s at %#08x: %w", section.Name, section.Addr, err)
		}
	}

	return isa.Address(f.Entry), nil
}
