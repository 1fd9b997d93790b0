// Package vmpool implements the per-address-space virtual memory pool: it
// tracks which ranges of a reserved virtual window are allocated, and
// cooperates with mm/vmm on release, but never touches page-table state on
// allocate. Mappings are installed lazily, by the page-table fault handler,
// the first time an allocated range is actually touched.
package vmpool

import (
	"unsafe"

	"github.com/imatson9119/CSCE410/kernel"
	"github.com/imatson9119/CSCE410/kfmt"
	"github.com/imatson9119/CSCE410/mm/pmm"
	"github.com/imatson9119/CSCE410/mm/vmm"
)

// PageTable is the slice of mm/vmm.PageTable's API a VM pool needs:
// registering itself as a legitimacy source, and tearing down a page's
// mapping on release. The indirection keeps this package testable without
// a real page directory, and mirrors vmm.LegitimacyChecker's role of
// keeping vmm from having to import vmpool.
type PageTable interface {
	RegisterPool(vmm.LegitimacyChecker)
	FreePage(p uint32)
}

// regionInfoSize is the size in bytes of one RegionInfo record.
const regionInfoSize = unsafe.Sizeof(RegionInfo{})

// maxRegions is the number of RegionInfo records that fit in the single
// frame the region-record array is self-hosted in: no dynamic growth, the
// same fixed-capacity discipline mm/pmm's pool registry and mm/vmm's
// registered-pool list both use.
const maxRegions = int(vmm.PageSize / regionInfoSize)

var (
	errBaseNotAligned = &kernel.Error{Module: "vmpool", Message: "base address is not frame-aligned"}
	errExhausted      = &kernel.Error{Module: "vmpool", Message: "no gap large enough for the requested allocation"}

	// regionsAtFn overlays a maxRegions-element RegionInfo array onto the
	// frame a pool's record list lives at. Production code just
	// reinterprets the address; tests substitute a fake backing store so
	// New can be exercised without a real virtual address behind it.
	regionsAtFn = func(addr uintptr) *[maxRegions]RegionInfo {
		return (*[maxRegions]RegionInfo)(unsafe.Pointer(addr))
	}

	// warnLog tags this package's soft-condition warnings (an unrecognized
	// release) with "[vmpool] ", the same convention mm/vmm's warnLog uses.
	warnLog = &kfmt.PrefixWriter{Prefix: []byte("[vmpool] ")}
)

// SetRegionAllocator overrides the function used to resolve a pool's
// region-array base address to an addressable array. Exists so tests can
// substitute ordinary Go memory for a virtual address.
func SetRegionAllocator(fn func(addr uintptr) *[maxRegions]RegionInfo) (restore func()) {
	prev := regionsAtFn
	regionsAtFn = fn
	return func() { regionsAtFn = prev }
}

// VMPool owns the contiguous virtual window [Base, Base+Size) and tracks
// which sub-ranges of it are currently allocated. The record array itself
// lives in the pool's own first frame; index 0 is always that frame's own
// self-descriptor.
type VMPool struct {
	base       uintptr
	size       uintptr
	framePool  *pmm.FramePool
	pageTable  PageTable
	regions    *[maxRegions]RegionInfo
	numRegions int
}

// New constructs a VMPool over [base, base+size), rounding size up to a
// frame multiple. base must already be frame-aligned. The pool registers
// itself with pageTable so faults inside its window are recognized as
// legitimate, and installs a self-descriptor covering its own first frame
// at index 0 of its region list.
//
// framePool is carried as part of the pool's identity, matching the
// original four-argument constructor this is ported from, but is not
// consulted by Allocate or Release: this pool only reserves virtual
// address ranges, never physical frames — those are handed out lazily by
// the page-table fault handler.
func New(base uintptr, size uintptr, framePool *pmm.FramePool, pageTable PageTable) *VMPool {
	if base%vmm.PageSize != 0 {
		kfmt.Panic(errBaseNotAligned)
	}

	vp := &VMPool{
		base:      base,
		size:      roundUpToPage(size),
		framePool: framePool,
		pageTable: pageTable,
		regions:   regionsAtFn(base),
	}

	pageTable.RegisterPool(vp)

	vp.regions[0] = RegionInfo{Start: uint32(base), Size: vmm.PageSize}
	vp.numRegions = 1

	return vp
}

// Allocate reserves a region of the requested size (rounded up to a frame
// multiple) inside the pool's window and returns its virtual start
// address. It scans for the first interior gap between two sorted records
// wide enough to hold the request, falling back to the gap between the
// last record and the end of the window. It panics if nothing fits: VM
// pool exhaustion is a hard failure, unlike a frame pool's sentinel-0
// return.
func (vp *VMPool) Allocate(size uintptr) uintptr {
	size = roundUpToPage(size)

	for i := 0; i < vp.numRegions-1; i++ {
		gapStart := uintptr(vp.regions[i].Start) + uintptr(vp.regions[i].Size)
		gapEnd := uintptr(vp.regions[i+1].Start)
		if gapEnd-gapStart >= size {
			vp.insertItem(RegionInfo{Start: uint32(gapStart), Size: uint32(size)}, i+1)
			return gapStart
		}
	}

	last := vp.regions[vp.numRegions-1]
	tailStart := uintptr(last.Start) + uintptr(last.Size)
	if vp.base+vp.size-tailStart >= size {
		vp.insertItem(RegionInfo{Start: uint32(tailStart), Size: uint32(size)}, vp.numRegions)
		return tailStart
	}

	kfmt.Panic(errExhausted)
	return 0
}

// Release locates the region starting at start, asks the page table to
// free every page inside it, and removes the record. If no region starts
// at start, Release logs a diagnostic and returns: an unrecognized start
// address is a caller bug, but not one this pool treats as fatal.
func (vp *VMPool) Release(start uintptr) {
	idx := -1
	for i := 1; i < vp.numRegions; i++ {
		if uintptr(vp.regions[i].Start) == start {
			idx = i
			break
		}
	}
	if idx == -1 {
		kfmt.Fprintf(warnLog, "release: no region starts at 0x%x\n", uint32(start))
		return
	}

	region := vp.regions[idx]
	firstPage := region.Start / vmm.PageSize
	endPage := (region.Start + region.Size) / vmm.PageSize
	for p := firstPage; p < endPage; p++ {
		vp.pageTable.FreePage(p)
	}

	vp.removeItem(idx)
}

// IsLegitimate reports whether addr falls inside any region currently
// recorded by the pool. Before the self-descriptor is installed (the
// window between New registering the pool and writing index 0), it
// returns true for any address inside that first frame, so the fault that
// makes the self-descriptor's own backing page present doesn't get
// rejected as illegitimate.
func (vp *VMPool) IsLegitimate(addr uintptr) bool {
	if vp.numRegions == 0 {
		return addr >= vp.base && addr < vp.base+vmm.PageSize
	}
	for i := 0; i < vp.numRegions; i++ {
		start := uintptr(vp.regions[i].Start)
		end := start + uintptr(vp.regions[i].Size)
		if addr >= start && addr < end {
			return true
		}
	}
	return false
}

// insertItem shifts records [index, numRegions) right by one slot and
// installs info at index.
func (vp *VMPool) insertItem(info RegionInfo, index int) {
	for i := vp.numRegions; i > index; i-- {
		vp.regions[i] = vp.regions[i-1]
	}
	vp.regions[index] = info
	vp.numRegions++
}

// removeItem shifts records (index, numRegions) left by one slot, clearing
// the now-unused final slot.
func (vp *VMPool) removeItem(index int) {
	for i := index; i < vp.numRegions-1; i++ {
		vp.regions[i] = vp.regions[i+1]
	}
	vp.regions[vp.numRegions-1] = RegionInfo{}
	vp.numRegions--
}

// roundUpToPage rounds size up to the nearest multiple of the page size.
func roundUpToPage(size uintptr) uintptr {
	return (size + vmm.PageSize - 1) &^ (vmm.PageSize - 1)
}
