// Package cache implements the simulator's direct-mapped, write-allocate,
// write-through cache. It fronts a next memory.Interface level and
// exposes the same interface itself, so a core cannot tell a cache hit
// from a direct backing-memory access except by timing.
package cache

import (
	"math/bits"

	"github.com/lidavidm/rustv/isa"
	"github.com/lidavidm/rustv/memory"
)

// Location identifies a cache line by its decomposed address fields.
type Location struct {
	Tag    uint32
	Index  uint32
	Offset uint32
	Way    uint32
}

// EventHandler is notified whenever a line finishes installing.
type EventHandler interface {
	BlockFetched(loc Location)
}

// NoopEventHandler discards block-fetched events; the default sink.
type NoopEventHandler struct{}

// BlockFetched implements EventHandler.
func (NoopEventHandler) BlockFetched(Location) {}

// Tag describes one set's occupancy for inspection purposes.
type Tag struct {
	Value uint32
	Valid bool
}

// Metadata reports a cache's static shape and current tag occupancy, in
// set-then-way order (way is always 0: this cache is one-way).
type Metadata struct {
	NumSets       int
	NumWays       int
	NumBlockWords int
	Tags          []Tag
}

// fetchRequest is the transient state machine tracking one set's
// outstanding line fill. At most one exists per set at a time.
type fetchRequest struct {
	base       isa.Address
	cyclesLeft uint32
	location   Location
	data       []isa.Word
	waitingOn  uint32
	err        error
}

type block struct {
	valid    bool
	tag      uint32
	contents []isa.Word
	request  *fetchRequest
}

// DirectMappedCache is a one-way direct-mapped cache with write-allocate,
// write-through semantics. Its own latency is always zero: all delay is
// incurred by the next level.
type DirectMappedCache struct {
	numSets    uint32
	blockWords uint32
	sets       []block
	next       memory.Interface
	events     EventHandler
}

// New constructs a cache with the given number of sets and block size (in
// words), both of which must be powers of two, fronting next and
// reporting block installs to events.
func New(numSets, blockWords uint32, next memory.Interface, events EventHandler) *DirectMappedCache {
	sets := make([]block, numSets)
	for i := range sets {
		sets[i].contents = make([]isa.Word, blockWords)
	}
	return &DirectMappedCache{
		numSets:    numSets,
		blockWords: blockWords,
		sets:       sets,
		next:       next,
		events:     events,
	}
}

func (c *DirectMappedCache) offsetBits() uint {
	return uint(bits.TrailingZeros32(c.blockWords * 4))
}

// parseAddress decomposes a byte address into (tag, index, offset) per
// the spec's bit layout.
func (c *DirectMappedCache) parseAddress(addr isa.Address) (tag, index, offset uint32) {
	a := uint32(addr)
	offsetBits := c.offsetBits()
	offset = a & (c.blockWords*4 - 1)
	index = (a >> offsetBits) & (c.numSets - 1)
	tagShift := offsetBits + uint(bits.TrailingZeros32(c.numSets))
	tag = a >> tagShift
	return tag, index, offset
}

func (c *DirectMappedCache) normalize(addr isa.Address) isa.Address {
	mask := isa.Address(c.blockWords*4 - 1)
	return addr &^ mask
}

// Latency implements memory.Interface. The cache itself adds no delay.
func (c *DirectMappedCache) Latency() uint32 { return 0 }

// Step advances every set's in-flight fetch request by one cycle.
func (c *DirectMappedCache) Step() {
	for i := range c.sets {
		set := &c.sets[i]
		req := set.request
		if req == nil {
			continue
		}
		if req.cyclesLeft > 1 {
			req.cyclesLeft--
			continue
		}
		c.advanceFill(set, req)
	}
}

// advanceFill attempts to read the remaining words of an in-flight line
// from the next level. It stops (without advancing waitingOn) the
// moment the next level stalls or errors, resuming from the same point
// on a later Step call. When every word has arrived, the line is
// installed and the request is cleared.
func (c *DirectMappedCache) advanceFill(set *block, req *fetchRequest) {
	for req.waitingOn < c.blockWords {
		wordAddr := req.base + isa.Address(4*req.waitingOn)
		val, err := c.next.ReadWord(wordAddr)
		if err == nil {
			req.data[req.waitingOn] = val
			req.waitingOn++
			continue
		}
		if miss, ok := memory.AsCacheMiss(err); ok {
			req.cyclesLeft = miss.StallCycles
			return
		}
		// A permanent error on this line: park the request here. It is
		// surfaced (and the request cleared) the next time a caller
		// issues a matching-base access.
		req.err = err
		return
	}

	set.valid = true
	set.tag = req.location.Tag
	set.contents = req.data
	c.events.BlockFetched(req.location)
	set.request = nil
}

// IsAddressAccessible implements memory.Interface.
func (c *DirectMappedCache) IsAddressAccessible(addr isa.Address) bool {
	tag, index, _ := c.parseAddress(addr)
	set := &c.sets[index]
	return set.valid && set.tag == tag
}

// ReadWord implements memory.Interface.
func (c *DirectMappedCache) ReadWord(addr isa.Address) (isa.Word, error) {
	tag, index, offset := c.parseAddress(addr)
	set := &c.sets[index]

	if set.valid && set.tag == tag {
		return set.contents[offset/4], nil
	}

	normalized := c.normalize(addr)
	location := Location{Tag: tag, Index: index, Offset: offset}

	if set.request == nil {
		stall := c.next.Latency()
		set.request = &fetchRequest{
			base:       normalized,
			cyclesLeft: stall,
			location:   location,
			data:       make([]isa.Word, c.blockWords),
		}
		return 0, &memory.CacheMissError{StallCycles: stall, Retry: true}
	}

	req := set.request
	if req.err != nil && req.base == normalized {
		err := req.err
		set.request = nil
		return 0, err
	}
	if req.base == normalized && req.err == nil {
		return 0, &memory.CacheMissError{StallCycles: req.cyclesLeft, Retry: true}
	}

	// Repurpose the in-flight request for the new address.
	stall := c.next.Latency()
	req.base = normalized
	req.cyclesLeft = stall
	req.waitingOn = 0
	req.err = nil
	req.location = location
	req.data = make([]isa.Word, c.blockWords)
	return 0, &memory.CacheMissError{StallCycles: stall, Retry: true}
}

// WriteWord implements memory.Interface with write-allocate,
// write-through semantics: a write first forces the line fill (via the
// same path as ReadWord), then updates the cached word and forwards the
// write to the next level.
func (c *DirectMappedCache) WriteWord(addr isa.Address, val isa.Word) error {
	if _, err := c.ReadWord(addr); err != nil {
		return err
	}
	_, index, offset := c.parseAddress(addr)
	set := &c.sets[index]
	set.contents[offset/4] = val
	return c.next.WriteWord(addr, val)
}

// ReadInstruction implements memory.Interface.
func (c *DirectMappedCache) ReadInstruction(addr isa.Address) (isa.Instruction, bool) {
	word, err := c.ReadWord(addr)
	if err != nil {
		return isa.Instruction{}, false
	}
	return isa.NewInstruction(word), true
}

// ReadHalfword implements memory.Interface.
func (c *DirectMappedCache) ReadHalfword(addr isa.Address) (isa.HalfWord, error) {
	return memory.ReadHalfwordDefault(c, addr)
}

// WriteHalfword implements memory.Interface.
func (c *DirectMappedCache) WriteHalfword(addr isa.Address, val isa.HalfWord) error {
	return memory.WriteHalfwordDefault(c, addr, val)
}

// ReadByte implements memory.Interface.
func (c *DirectMappedCache) ReadByte(addr isa.Address) (isa.Byte, error) {
	return memory.ReadByteDefault(c, addr)
}

// WriteByte implements memory.Interface.
func (c *DirectMappedCache) WriteByte(addr isa.Address, val isa.Byte) error {
	return memory.WriteByteDefault(c, addr, val)
}

// Metadata returns the cache's shape and current tag occupancy, in set
// order (this cache has exactly one way per set).
func (c *DirectMappedCache) Metadata() Metadata {
	tags := make([]Tag, len(c.sets))
	for i, set := range c.sets {
		tags[i] = Tag{Value: set.tag, Valid: set.valid}
	}
	return Metadata{
		NumSets:       int(c.numSets),
		NumWays:       1,
		NumBlockWords: int(c.blockWords),
		Tags:          tags,
	}
}

var _ memory.Interface = (*DirectMappedCache)(nil)
