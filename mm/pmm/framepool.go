package pmm

import (
	"unsafe"

	"github.com/imatson9119/CSCE410/kernel"
	"github.com/imatson9119/CSCE410/kfmt"
)

var (
	errInfoFramesTooSmall = &kernel.Error{Module: "pmm", Message: "supplied info frames cannot hold bitmap for this many frames"}
	errNotFree            = &kernel.Error{Module: "pmm", Message: "mark_inaccessible: frame range is not entirely free"}
	errOutOfRange         = &kernel.Error{Module: "pmm", Message: "mark_inaccessible: frame range falls outside the pool"}
	errReleaseNonHead     = &kernel.Error{Module: "pmm", Message: "release: frame is not a run head"}

	// byteSliceAtFn resolves the (base or info) frame address a pool's
	// bitmap lives at into an addressable []byte. The default overlays
	// directly onto physical memory; other packages' tests, which have
	// no such memory, install their own via SetByteSliceAllocator.
	byteSliceAtFn = kernel.ByteSliceAt
)

// SetByteSliceAllocator overrides the function used to resolve a bitmap's
// backing address to a []byte. Exists so packages that build FramePools in
// tests (this one included) can substitute ordinary Go memory for physical
// addresses.
func SetByteSliceAllocator(fn func(addr uintptr, size int) []byte) (restore func()) {
	prev := byteSliceAtFn
	byteSliceAtFn = fn
	return func() { byteSliceAtFn = prev }
}

// FramePool owns the contiguous physical frame range [BaseFrame,
// BaseFrame+NFrames) and tracks the state of every frame in it using a
// 2-bit-per-frame bitmap. Two flavors exist, distinguished at construction:
// self-hosted (the bitmap lives in the pool's own leading frames) and
// externally-hosted (the caller supplies dedicated info frames, typically
// frames from the kernel pool used to manage the process pool).
type FramePool struct {
	baseFrame Frame
	nFrames   uint32
	freeCount uint32
	bitmap    []byte
	poolID    int
}

// New constructs a FramePool over [baseFrame, baseFrame+nFrames). If
// infoFrame is 0, the bitmap is carved out of the pool's own leading frames
// and those frames are pre-marked so a later release cannot reclaim them.
// Otherwise infoFrame names nInfoFrames frames, supplied by the caller
// (typically drawn from a separate kernel pool), that must be large enough
// to hold a 2-bit-per-frame bitmap for nFrames frames.
func New(baseFrame Frame, nFrames uint32, infoFrame Frame, nInfoFrames uint32) (*FramePool, *kernel.Error) {
	fp := &FramePool{
		baseFrame: baseFrame,
		nFrames:   nFrames,
		freeCount: nFrames,
	}

	bitmapBytes := int((nFrames + framesPerByte - 1) / framesPerByte)

	selfHosted := infoFrame == 0
	if selfHosted {
		fp.bitmap = byteSliceAtFn(baseFrame.Address(), bitmapBytes)
	} else {
		if nInfoFrames*FrameSize*framesPerByte < nFrames {
			return nil, errInfoFramesTooSmall
		}
		fp.bitmap = byteSliceAtFn(infoFrame.Address(), bitmapBytes)
	}

	// 0xFF marks all four 2-bit slots in a byte FREE, so a flat fill
	// covers the whole bitmap regardless of how many frames it actually
	// describes. fp.bitmap is itself backed by real memory (byteSliceAtFn
	// overlays it onto a physical frame in production, a plain Go array
	// in tests), so taking its address here reaches the same bytes either
	// way.
	if len(fp.bitmap) > 0 {
		kernel.Memset(uintptr(unsafe.Pointer(&fp.bitmap[0])), 0xFF, uintptr(len(fp.bitmap)))
	}

	if selfHosted {
		needed := NeededInfoFrames(nFrames)
		setStateAt(fp.bitmap, 0, stateHead)
		fp.freeCount--
		for i := uint32(1); i < needed; i++ {
			setStateAt(fp.bitmap, i, stateUsed)
			fp.freeCount--
		}
	}

	fp.poolID = register(fp)

	return fp, nil
}

// Allocate scans the bitmap for the first window of n consecutive FREE
// frames, marks the first HEAD and the remainder USED, and returns the
// absolute frame number of the first frame. It returns 0 if no such window
// exists or if n is 0.
//
// The scan skips whole bitmap bytes whose value is 0x00 (all four slots
// non-FREE), resetting the in-progress run count rather than carrying it
// across the skipped byte.
func (fp *FramePool) Allocate(n uint32) Frame {
	if n == 0 || fp.freeCount == 0 {
		return 0
	}

	var (
		count uint32
		start uint32
	)

	for i := uint32(0); i < fp.nFrames; i++ {
		byteIdx := i / framesPerByte
		if i%framesPerByte == 0 && fp.bitmap[byteIdx] == 0x00 {
			count = 0
			i += framesPerByte - 1
			continue
		}

		if stateAt(fp.bitmap, i) == stateFree {
			if count == 0 {
				start = i
			}
			count++
			if count == n {
				fp.commitRun(start, n)
				return fp.baseFrame + Frame(start)
			}
		} else {
			count = 0
		}
	}

	return 0
}

func (fp *FramePool) commitRun(start, n uint32) {
	setStateAt(fp.bitmap, start, stateHead)
	for i := start + 1; i < start+n; i++ {
		setStateAt(fp.bitmap, i, stateUsed)
	}
	fp.freeCount -= n
}

// MarkInaccessible reserves [base, base+n) as a permanent hole: the first
// frame is marked INACCESSIBLE (so the allocator's search never returns it)
// and the remainder USED. Every frame in the range must currently be FREE.
func (fp *FramePool) MarkInaccessible(base Frame, n uint32) {
	if base < fp.baseFrame || uint32(base-fp.baseFrame)+n > fp.nFrames {
		kfmt.Panic(errOutOfRange)
	}

	start := uint32(base - fp.baseFrame)
	for i := uint32(0); i < n; i++ {
		if stateAt(fp.bitmap, start+i) != stateFree {
			kfmt.Panic(errNotFree)
		}
	}

	setStateAt(fp.bitmap, start, stateInaccessible)
	for i := uint32(1); i < n; i++ {
		setStateAt(fp.bitmap, start+i, stateUsed)
	}
	fp.freeCount -= n
}

// ReleaseOnPool returns the run starting at firstFrame to the pool. It
// panics if firstFrame is not currently a run head, matching this module's
// policy of treating a broken invariant as fatal rather than a silent
// no-op.
func (fp *FramePool) ReleaseOnPool(firstFrame Frame) {
	start := uint32(firstFrame - fp.baseFrame)
	if stateAt(fp.bitmap, start) != stateHead {
		kfmt.Panic(errReleaseNonHead)
	}

	setStateAt(fp.bitmap, start, stateFree)
	fp.freeCount++

	for i := start + 1; i < fp.nFrames; i++ {
		s := stateAt(fp.bitmap, i)
		if s == stateHead || s == stateFree {
			break
		}
		setStateAt(fp.bitmap, i, stateFree)
		fp.freeCount++
	}
}

// FreeCount returns the number of frames currently available for allocation.
func (fp *FramePool) FreeCount() uint32 { return fp.freeCount }

// Contains reports whether frame falls within this pool's range.
func (fp *FramePool) Contains(frame Frame) bool {
	return frame >= fp.baseFrame && uint32(frame-fp.baseFrame) < fp.nFrames
}

// NeededInfoFrames returns the number of frames required to hold a
// 2-bit-per-frame bitmap describing n frames.
func NeededInfoFrames(n uint32) uint32 {
	if n == 0 {
		return 0
	}
	return (n-1)/(FrameSize*framesPerByte) + 1
}
