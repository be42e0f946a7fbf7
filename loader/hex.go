// Package loader populates a backing memory from a program image
// before simulation starts: either a plain hex text dump or an ELF32
// binary.
package loader

import (
	"bufio"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/lidavidm/rustv/isa"
	"github.com/lidavidm/rustv/memory"
)

// LoadHex parses the simulator's text hex format: each line holds one
// or more 32-bit words, eight hex nybbles apiece, packed
// most-significant word first, with lines simply concatenated to form
// the image. Blank lines and lines starting with '#' are skipped.
func LoadHex(r io.Reader) ([]isa.Word, error) {
	var words []isa.Word
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(line)%8 != 0 {
			return nil, fmt.Errorf("loader: line %d: length %d is not a multiple of 8 hex digits", lineNo, len(line))
		}
		for i := 0; i < len(line); i += 8 {
			raw, err := hex.DecodeString(line[i : i+8])
			if err != nil {
				return nil, fmt.Errorf("loader: line %d: %w", lineNo, err)
			}
			words = append(words, isa.Word(binary.BigEndian.Uint32(raw)))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}
	return words, nil
}

// LoadHexInto reads a hex image and installs it into mem starting at
// base, through translator.
func LoadHexInto(r io.Reader, mem *memory.BackingMemory, translator memory.Translator, base isa.Address) error {
	words, err := LoadHex(r)
	if err != nil {
		return err
	}
	data := make([]byte, len(words)*4)
	for i, w := range words {
		b := w.Bytes()
		copy(data[i*4:i*4+4], b[:])
	}
	return mem.WriteSegment(translator, data, base)
}
