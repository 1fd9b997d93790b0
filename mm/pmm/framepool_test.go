package pmm

import (
	"testing"

	"github.com/imatson9119/CSCE410/kernel"
)

// withFakeMemory redirects byteSliceAtFn to a plain Go byte slice, standing
// in for the physical memory a real FramePool would overlay its bitmap onto,
// and resets the process-wide pool registry so tests don't interfere with
// each other's pool IDs.
func withFakeMemory(t *testing.T) {
	t.Helper()
	backing := make(map[uintptr][]byte)

	byteSliceAtFn = func(addr uintptr, size int) []byte {
		if buf, ok := backing[addr]; ok && len(buf) >= size {
			return buf[:size]
		}
		buf := make([]byte, size)
		backing[addr] = buf
		return buf
	}

	npools = 0
	for i := range pools {
		pools[i] = nil
	}

	t.Cleanup(func() {
		byteSliceAtFn = kernel.ByteSliceAt
		npools = 0
	})
}

func TestBitmapGeometry(t *testing.T) {
	withFakeMemory(t)

	fp, err := New(512, 1024, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := stateAt(fp.bitmap, 0); got != stateHead {
		t.Fatalf("expected frame 0 to be HEAD; got %v", got)
	}

	needed := NeededInfoFrames(1024)
	if needed != 1 {
		t.Fatalf("expected a single info frame for 1024 frames; got %d", needed)
	}

	for i := uint32(1); i < 1024; i++ {
		if got := stateAt(fp.bitmap, i); got != stateFree {
			t.Fatalf("expected frame %d to be FREE; got %v", i, got)
		}
	}

	if fp.FreeCount() != 1023 {
		t.Fatalf("expected free_count == 1023; got %d", fp.FreeCount())
	}
}

func TestContiguousReuse(t *testing.T) {
	withFakeMemory(t)

	fp, err := New(0, 1024, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := fp.Allocate(13)
	if a == 0 {
		t.Fatal("expected allocate(13) to succeed")
	}
	b := fp.Allocate(10)
	if b == 0 {
		t.Fatal("expected allocate(10) to succeed")
	}

	// Only 1000 frames remain (1023 usable - 23 already taken); a request
	// for one more than that must fail regardless of contiguity.
	if got := fp.Allocate(1001); got != 0 {
		t.Fatalf("expected allocate(1001) to fail with only 1000 frames left; got %d", got)
	}

	fp.ReleaseOnPool(a)
	fp.ReleaseOnPool(b)

	c := fp.Allocate(1000)
	if c == 0 {
		t.Fatal("expected allocate(1000) to succeed after releasing a and b")
	}
	if exp := Frame(1); c != exp {
		t.Fatalf("expected the lowest-numbered valid start %d; got %d", exp, c)
	}
}

func TestCheckerboard(t *testing.T) {
	withFakeMemory(t)

	fp, err := New(0, 1024, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var frames [1023]Frame
	for i := range frames {
		frames[i] = fp.Allocate(1)
		if frames[i] == 0 {
			t.Fatalf("allocate(1) failed at index %d", i)
		}
	}

	for i := 0; i < len(frames); i += 2 {
		fp.ReleaseOnPool(frames[i])
	}
	for i := 0; i < len(frames); i += 2 {
		frames[i] = fp.Allocate(1)
		if frames[i] == 0 {
			t.Fatalf("re-allocate(1) failed at even index %d", i)
		}
	}
	for _, f := range frames {
		fp.ReleaseOnPool(f)
	}

	if fp.FreeCount() != 1023 {
		t.Fatalf("expected free_count == 1023; got %d", fp.FreeCount())
	}
	for i := uint32(1); i < 1024; i++ {
		if got := stateAt(fp.bitmap, i); got != stateFree {
			t.Fatalf("expected frame %d FREE after full release; got %v", i, got)
		}
	}
}

func TestAllocateReleaseRoundTrip(t *testing.T) {
	withFakeMemory(t)

	fp, err := New(0, 256, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	before := make([]byte, len(fp.bitmap))
	copy(before, fp.bitmap)
	freeBefore := fp.FreeCount()

	r := fp.Allocate(20)
	fp.ReleaseOnPool(r)

	if freeBefore != fp.FreeCount() {
		t.Fatalf("free_count not restored: before=%d after=%d", freeBefore, fp.FreeCount())
	}
	for i := range before {
		if before[i] != fp.bitmap[i] {
			t.Fatalf("bitmap byte %d not restored: before=%#x after=%#x", i, before[i], fp.bitmap[i])
		}
	}
}

func TestMarkInaccessiblePermanentlyExcludesRange(t *testing.T) {
	withFakeMemory(t)

	fp, err := New(0, 256, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	fp.MarkInaccessible(100, 5)

	for n := uint32(1); n <= 300; n++ {
		for {
			got := fp.Allocate(n)
			if got == 0 {
				break
			}
			if got >= 100 && got < 105 {
				t.Fatalf("allocate(%d) returned frame %d inside inaccessible range", n, got)
			}
		}
	}
}

func TestNeededInfoFrames(t *testing.T) {
	const k = 3
	if got := NeededInfoFrames(4 * FrameSize * k); got != k {
		t.Fatalf("NeededInfoFrames(4*F*%d) = %d; want %d", k, got, k)
	}
	if got := NeededInfoFrames(4*FrameSize*k + 1); got != k+1 {
		t.Fatalf("NeededInfoFrames(4*F*%d+1) = %d; want %d", k, got, k+1)
	}
}

func TestAllocateZeroIsRejected(t *testing.T) {
	withFakeMemory(t)

	fp, err := New(0, 64, 0, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := fp.Allocate(0); got != 0 {
		t.Fatalf("expected allocate(0) to return 0; got %d", got)
	}
}

func TestReleaseDispatchesThroughRegistry(t *testing.T) {
	withFakeMemory(t)

	kernelPool, err := New(0, 64, 0, 0)
	if err != nil {
		t.Fatalf("New kernel pool: %v", err)
	}
	procPool, err := New(64, 64, 0, 0)
	if err != nil {
		t.Fatalf("New process pool: %v", err)
	}

	f := procPool.Allocate(4)
	if f == 0 {
		t.Fatal("allocate(4) failed")
	}

	Release(f)

	if stateAt(procPool.bitmap, uint32(f-procPool.baseFrame)) != stateFree {
		t.Fatal("expected Release to free the run on the owning pool")
	}
	if kernelPool.FreeCount() != 63 { // still short its own head frame
		t.Fatalf("unexpected kernel pool free count: %d", kernelPool.FreeCount())
	}
}
