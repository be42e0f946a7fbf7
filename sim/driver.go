// Package sim implements the simulator driver: the cooperative,
// single-threaded scheduler that advances every core and every cache
// exactly once per cycle and reports per-core statistics.
package sim

import (
	"log"

	"github.com/lidavidm/rustv/cache"
	"github.com/lidavidm/rustv/core"
	"github.com/lidavidm/rustv/isa"
	"github.com/lidavidm/rustv/memory"
)

// HaltReason explains why Run or RunMax stopped.
type HaltReason int

const (
	// CoresHalted means every core's Running flag went false.
	CoresHalted HaltReason = iota
	// OutOfCycles means RunMax's tick budget was exhausted while at
	// least one core was still running.
	OutOfCycles
	// SystemHalt means the syscall handler requested a stop.
	SystemHalt
)

func (h HaltReason) String() string {
	switch h {
	case CoresHalted:
		return "CoresHalted"
	case OutOfCycles:
		return "OutOfCycles"
	case SystemHalt:
		return "SystemHalt"
	default:
		return "UnknownHaltReason"
	}
}

// Report is one core's cumulative statistics, as returned by Report().
type Report struct {
	CoreID      int
	StallCycles uint64
	TotalCycles uint64
}

// CoreInspection is a point-in-time snapshot of one core, for Inspect.
type CoreInspection struct {
	ID      int
	PC      isa.Address
	Stall   uint32
	Running bool
}

// Inspection is a point-in-time snapshot of the whole simulator: every
// cache's shape and tag occupancy, plus every core's PC and run state.
// It exists for tooling (debuggers, test harnesses) and is not produced
// automatically by Run or Step.
type Inspection struct {
	Caches []cache.Metadata
	Cores  []CoreInspection
}

// Driver owns every core and cache in the simulation and steps them in
// a fixed round-robin, once per cycle. It is not safe for concurrent
// use: the whole point of the design is a single-threaded, ordered
// cooperative schedule, not a parallel one.
type Driver struct {
	cores   []*core.Core
	backing memory.Interface
	caches  []*cache.DirectMappedCache
	syscall core.SyscallHandler
}

// New constructs a driver over the given cores, the backing memory
// used for instruction fetch, the caches to step each cycle, and the
// syscall collaborator shared by all cores.
func New(cores []*core.Core, backing memory.Interface, caches []*cache.DirectMappedCache, syscall core.SyscallHandler) *Driver {
	return &Driver{cores: cores, backing: backing, caches: caches, syscall: syscall}
}

// Step advances every running core by one instruction, observing cache
// state from the start of the tick, then advances every cache's
// in-flight fetch requests. It returns true iff at least one core was
// running at the start of the tick.
func (d *Driver) Step() bool {
	anyRan := false
	for _, c := range d.cores {
		if !c.Running {
			continue
		}
		anyRan = true

		// Instruction fetch bypasses the cache and goes straight to
		// backing memory: a deliberate simplification, so instruction
		// traffic never stalls.
		addr := c.Translator().Translate(c.PC)
		instr, ok := d.backing.ReadInstruction(addr)
		if !ok {
			c.FaultFetch()
		} else {
			c.Step(instr, d.syscall)
		}
		// A trap halts only this core; report it to the host.
		if !c.Running && c.LastTrap != nil {
			log.Printf("core %d: trap: %v", c.ID, c.LastTrap)
		}
	}

	for _, ch := range d.caches {
		ch.Step()
	}

	return anyRan
}

// Run steps the simulator until no core is running (CoresHalted) or
// the syscall handler requests a stop (SystemHalt).
func (d *Driver) Run() HaltReason {
	for {
		if reason, done := d.tick(); done {
			return reason
		}
	}
}

// RunMax steps the simulator for at most n ticks, additionally
// returning OutOfCycles if the budget is exhausted first.
func (d *Driver) RunMax(n int) HaltReason {
	for i := 0; i < n; i++ {
		if reason, done := d.tick(); done {
			return reason
		}
	}
	return OutOfCycles
}

func (d *Driver) tick() (HaltReason, bool) {
	anyRan := d.Step()
	if !anyRan {
		return CoresHalted, true
	}
	if d.syscall != nil && d.syscall.ShouldHalt() {
		return SystemHalt, true
	}
	return 0, false
}

// Report returns each core's cumulative stall and total cycle counts,
// in core order.
func (d *Driver) Report() []Report {
	out := make([]Report, len(d.cores))
	for i, c := range d.cores {
		out[i] = Report{CoreID: c.ID, StallCycles: c.StallCount, TotalCycles: c.CycleCount}
	}
	return out
}

// Inspect takes a point-in-time snapshot of every cache and core.
func (d *Driver) Inspect() Inspection {
	caches := make([]cache.Metadata, len(d.caches))
	for i, ch := range d.caches {
		caches[i] = ch.Metadata()
	}
	cores := make([]CoreInspection, len(d.cores))
	for i, c := range d.cores {
		cores[i] = CoreInspection{ID: c.ID, PC: c.PC, Stall: c.StallCycles, Running: c.Running}
	}
	return Inspection{Caches: caches, Cores: cores}
}
