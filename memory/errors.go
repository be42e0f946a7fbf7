package memory

import (
	"errors"
	"fmt"
)

// ErrInvalidAddress indicates the address is outside the accessible
// range of the memory or cache it was presented to.
var ErrInvalidAddress = errors.New("memory: invalid address")

// CacheMissError is a control-flow signal, not an exception: it tells
// the caller (ultimately a Core) how many cycles to wait before
// reissuing the memory operation that produced it.
//
// Retry indicates whether the caller must not advance its PC (the
// operation will be reissued once the stall elapses); Retry=false marks
// a fire-and-forget operation the caller may abandon, and a core that
// sees it advances its PC. DirectMappedCache reports Retry=true for
// every miss, including the fill a store triggers.
type CacheMissError struct {
	StallCycles uint32
	Retry       bool
}

func (e *CacheMissError) Error() string {
	return fmt.Sprintf("memory: cache miss, stall %d cycles (retry=%v)", e.StallCycles, e.Retry)
}

// AsCacheMiss reports whether err is a *CacheMissError and returns it.
func AsCacheMiss(err error) (*CacheMissError, bool) {
	var miss *CacheMissError
	if errors.As(err, &miss) {
		return miss, true
	}
	return nil, false
}
