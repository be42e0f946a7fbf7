package cache

import (
	"errors"
	"testing"

	"github.com/lidavidm/rustv/isa"
	"github.com/lidavidm/rustv/memory"
)

// stepUntilHit repeatedly steps the cache and retries op until it
// returns a nil error (a hit) or an unrelated error, mirroring how a
// core retries against a CacheMiss.
func stepUntilHit(t *testing.T, c *DirectMappedCache, op func() error) int {
	t.Helper()
	for cycles := 0; cycles < 10000; cycles++ {
		err := op()
		if err == nil {
			return cycles
		}
		if _, ok := memory.AsCacheMiss(err); !ok {
			t.Fatalf("unexpected error: %v", err)
		}
		c.Step()
	}
	t.Fatal("op never resolved")
	return -1
}

func TestCacheAddressParsing(t *testing.T) {
	backing := memory.NewBackingMemory(256)
	c := New(4, 2, backing, NoopEventHandler{})

	// block_words=2 -> block size 8 bytes -> offset_bits=3.
	// num_sets=4 -> index takes the next 2 bits.
	tag, index, offset := c.parseAddress(0b10110_11_100)
	if offset != 0b100 {
		t.Errorf("offset = %b, want %b", offset, 0b100)
	}
	if index != 0b11 {
		t.Errorf("index = %b, want %b", index, 0b11)
	}
	if tag != 0b10110 {
		t.Errorf("tag = %b, want %b", tag, 0b10110)
	}
}

func TestCacheFillThenHit(t *testing.T) {
	backing := memory.NewBackingMemory(256)
	if err := backing.WriteWord(16, 0xDEADBEEF); err != nil {
		t.Fatal(err)
	}
	c := New(4, 2, backing, NoopEventHandler{})

	var got isa.Word
	cycles := stepUntilHit(t, c, func() error {
		v, err := c.ReadWord(16)
		if err == nil {
			got = v
		}
		return err
	})
	if got != 0xDEADBEEF {
		t.Fatalf("got %08x, want DEADBEEF", got)
	}
	if cycles == 0 {
		t.Fatal("expected at least one miss before the fill completed")
	}

	// Now a pure hit: must resolve with zero additional Step calls and
	// without touching backing memory's latency path again (checked
	// indirectly: IsAddressAccessible must already report true).
	if !c.IsAddressAccessible(16) {
		t.Fatal("line should be resident after fill")
	}
	v, err := c.ReadWord(16)
	if err != nil || v != 0xDEADBEEF {
		t.Fatalf("ReadWord(16) post-fill = (%v, %v)", v, err)
	}

	// A different word in the same line should also hit without a miss.
	v2, err := c.ReadWord(20)
	if err != nil {
		t.Fatalf("ReadWord(20) = %v, want nil (same line)", err)
	}
	_ = v2
}

func TestCacheWriteAllocateWriteThrough(t *testing.T) {
	backing := memory.NewBackingMemory(256)
	c := New(4, 2, backing, NoopEventHandler{})

	stepUntilHit(t, c, func() error {
		return c.WriteWord(32, 0x11223344)
	})

	// The cache holds the new value...
	v, err := c.ReadWord(32)
	if err != nil || v != 0x11223344 {
		t.Fatalf("cache ReadWord(32) = (%v, %v)", v, err)
	}
	// ...and so does backing memory, since writes are write-through.
	backingVal, err := backing.ReadWord(32)
	if err != nil || backingVal != 0x11223344 {
		t.Fatalf("backing ReadWord(32) = (%v, %v)", backingVal, err)
	}
}

func TestCacheMissReportsNextLevelLatency(t *testing.T) {
	backing := memory.NewBackingMemory(16)
	c := New(2, 1, backing, NoopEventHandler{})

	_, err := c.ReadWord(4)
	miss, ok := memory.AsCacheMiss(err)
	if !ok {
		t.Fatalf("ReadWord on cold cache = %v, want CacheMissError", err)
	}
	if miss.StallCycles != memory.BackingLatency {
		t.Errorf("StallCycles = %d, want %d", miss.StallCycles, memory.BackingLatency)
	}
	if !miss.Retry {
		t.Error("Retry = false, want true")
	}
}

func TestCacheRepeatedMissReturnsSameInFlightStall(t *testing.T) {
	backing := memory.NewBackingMemory(16)
	c := New(2, 1, backing, NoopEventHandler{})

	_, err1 := c.ReadWord(4)
	miss1, _ := memory.AsCacheMiss(err1)

	c.Step()
	_, err2 := c.ReadWord(4)
	miss2, ok := memory.AsCacheMiss(err2)
	if !ok {
		t.Fatalf("second ReadWord(4) = %v, want CacheMissError", err2)
	}
	if miss2.StallCycles != miss1.StallCycles-1 {
		t.Errorf("StallCycles = %d, want %d", miss2.StallCycles, miss1.StallCycles-1)
	}
}

func TestCacheInvalidAddressSurfacedOnRetry(t *testing.T) {
	backing := memory.NewBackingMemory(1) // only word 0 is in range
	c := New(1, 2, backing, NoopEventHandler{})

	cycles := 0
	for {
		_, err := c.ReadWord(4) // second word of the line is out of range
		if err == nil {
			t.Fatal("expected an eventual error, got nil")
		}
		if errors.Is(err, memory.ErrInvalidAddress) {
			break
		}
		if _, ok := memory.AsCacheMiss(err); !ok {
			t.Fatalf("unexpected error: %v", err)
		}
		c.Step()
		cycles++
		if cycles > 10000 {
			t.Fatal("never surfaced ErrInvalidAddress")
		}
	}
}

func TestCacheMetadataTracksInstalledTags(t *testing.T) {
	backing := memory.NewBackingMemory(256)
	c := New(4, 2, backing, NoopEventHandler{})

	meta := c.Metadata()
	if meta.NumSets != 4 || meta.NumWays != 1 || meta.NumBlockWords != 2 {
		t.Fatalf("unexpected shape: %+v", meta)
	}
	for _, tag := range meta.Tags {
		if tag.Valid {
			t.Fatal("no lines should be valid on a cold cache")
		}
	}

	stepUntilHit(t, c, func() error {
		_, err := c.ReadWord(16)
		return err
	})
	_, index, _ := c.parseAddress(16)
	meta = c.Metadata()
	if !meta.Tags[index].Valid {
		t.Errorf("set %d should be valid after fill", index)
	}
}

func TestCacheBlockFetchedEventFires(t *testing.T) {
	backing := memory.NewBackingMemory(256)
	events := &recordingHandler{}
	c := New(4, 2, backing, events)

	stepUntilHit(t, c, func() error {
		_, err := c.ReadWord(16)
		return err
	})
	if len(events.fetched) != 1 {
		t.Fatalf("got %d BlockFetched events, want 1", len(events.fetched))
	}
}

type recordingHandler struct {
	fetched []Location
}

func (r *recordingHandler) BlockFetched(loc Location) {
	r.fetched = append(r.fetched, loc)
}

var _ EventHandler = (*recordingHandler)(nil)
