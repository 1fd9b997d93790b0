package pmm

import (
	"github.com/imatson9119/CSCE410/kernel"
	"github.com/imatson9119/CSCE410/kfmt"
)

// maxPools bounds the process-wide pool registry. Eight pools (kernel pool,
// process pool, plus headroom) comfortably covers every configuration this
// module's address-space model supports.
const maxPools = 8

var (
	pools  [maxPools]*FramePool
	npools int

	errRegistryFull = &kernel.Error{Module: "pmm", Message: "pool registry is full"}
)

// register appends fp to the process-wide pool registry and returns its
// assigned pool ID. The registry is append-only: pools are never
// constructed and destroyed at the same rate applications allocate memory,
// so no removal path is provided. A ninth pool is a broken invariant, not a
// condition this module is designed to recover from, so it panics the same
// way every other fixed-capacity structure here does on overflow.
func register(fp *FramePool) int {
	if npools == maxPools {
		kfmt.Panic(errRegistryFull)
	}

	pools[npools] = fp
	id := npools
	npools++
	return id
}

// Release dispatches a raw frame number to whichever registered pool owns
// it and returns its run to that pool. If no registered pool owns
// firstFrame, Release does nothing: an unrecognized frame number is not an
// error, just a no-op (the frame may belong to a pool this process never
// registered, or may not describe a frame pool's head at all).
func Release(firstFrame Frame) {
	for i := 0; i < npools; i++ {
		if pools[i].Contains(firstFrame) {
			pools[i].ReleaseOnPool(firstFrame)
			return
		}
	}
}
