package vmm

import (
	"unsafe"

	"github.com/imatson9119/CSCE410/cpu"
	"github.com/imatson9119/CSCE410/kernel"
	"github.com/imatson9119/CSCE410/kfmt"
	"github.com/imatson9119/CSCE410/mm/pmm"
)

// maxRegisteredPools bounds the number of VM pools a single page table can
// have registered against it.
const maxRegisteredPools = 8

var (
	// entryPtrFn resolves a recursively-mapped PDE/PTE virtual address to
	// a pointer. Production code just reinterprets the address; tests
	// substitute a fake MMU backed by a Go map so the huge constant
	// addresses above never need real memory behind them.
	entryPtrFn = func(addr uintptr) unsafe.Pointer { return unsafe.Pointer(addr) }

	// tableAtFn overlays a 1024-entry PDE/PTE table onto a frame's
	// physical address. Like entryPtrFn, tests substitute a fake backing
	// store so New() can be exercised without a real identity-mapped low
	// memory region.
	tableAtFn = func(addr uintptr) *[entriesPerTable]pageTableEntry {
		return (*[entriesPerTable]pageTableEntry)(unsafe.Pointer(addr))
	}

	// The following are swapped out by tests, mirroring this module's
	// convention of mocking every hardware primitive at its call site.
	switchPDTFn  = cpu.SwitchPDT
	readCR0Fn    = cpu.ReadCR0
	writeCR0Fn   = cpu.WriteCR0
	releaseFrame = pmm.Release

	errRegisteredPoolsFull = &kernel.Error{Module: "vmm", Message: "page table's registered-pool list is full"}
	errIllegalFault        = &kernel.Error{Module: "vmm", Message: "page fault on address outside every registered VM pool"}
	errFrameExhausted      = &kernel.Error{Module: "vmm", Message: "process pool has no frames left to service a fault"}

	// kernelPool and processPool are the two frame pools set once via
	// Init. Every frame a page table allocates (its directory, its inner
	// tables including the one identity-mapping the shared region, and
	// its data pages) comes from processPool; kernelPool is only recorded
	// and returned by KernelPool.
	kernelPool  *pmm.FramePool
	processPool *pmm.FramePool

	// sharedSize is the byte length of the low virtual region that is
	// direct-mapped at construction time and excluded from fault-driven
	// allocation.
	sharedSize uintptr

	// currentTable is the page table currently loaded into the CPU.
	currentTable *PageTable

	pagingEnabled bool

	// warnLog tags every soft-condition warning this package emits
	// (FreePage on a page with no inner table or an already-cleared PTE)
	// with "[vmm] " the way a panic dump tags a hard failure with its
	// Module field.
	warnLog = &kfmt.PrefixWriter{Prefix: []byte("[vmm] ")}
)

// LegitimacyChecker is implemented by anything a page table can consult to
// decide whether a faulting address belongs to a reserved virtual range.
// mm/vmpool.VMPool satisfies this interface; the indirection exists so this
// package never has to import vmpool, which itself depends on vmm.
type LegitimacyChecker interface {
	IsLegitimate(addr uintptr) bool
}

// PageTable is the per-address-space hardware page directory.
type PageTable struct {
	directoryFrame pmm.Frame
	pools          [maxRegisteredPools]LegitimacyChecker
	numPools       int
}

// Init sets the process-wide pools and shared-region boundary used by every
// PageTable constructed afterward. Must be called once during boot before
// the first call to New.
func Init(kp, pp *pmm.FramePool, sharedBytes uintptr) {
	kernelPool = kp
	processPool = pp
	sharedSize = sharedBytes
}

// KernelPool returns the pool backing shared/low mappings, as set by Init.
func KernelPool() *pmm.FramePool { return kernelPool }

// ProcessPool returns the pool backing per-address-space pages and inner
// tables, as set by Init.
func ProcessPool() *pmm.FramePool { return processPool }

// Current returns the page table currently loaded into the CPU, or nil if
// none has been loaded yet.
func Current() *PageTable { return currentTable }

// New constructs a page table with PDE 0 identity-mapping the shared low
// region and the last PDE self-referencing the directory, per the recursive
// mapping trick. Every other PDE is left not-present with its r/w and
// supervisor bits cleared to 0 (supervisor) and set (writable).
func New() (*PageTable, *kernel.Error) {
	directoryFrame := processPool.Allocate(1)
	if directoryFrame == 0 {
		return nil, errFrameExhausted
	}
	innerFrame := processPool.Allocate(1)
	if innerFrame == 0 {
		return nil, errFrameExhausted
	}

	pt := &PageTable{directoryFrame: directoryFrame}

	// Fill the first inner table with an identity map of the shared
	// region: frame i maps to virtual page i for i in [0, sharedSize/PageSize).
	innerTableWords := tableAtFn(innerFrame.Address())
	sharedPages := uint32(sharedSize / PageSize)
	for i := uint32(0); i < entriesPerTable; i++ {
		if i < sharedPages {
			entry := pageTableEntry(0)
			entry.SetFrame(pmm.Frame(i))
			entry.SetFlags(supervisorRW)
			innerTableWords[i] = entry
		} else {
			innerTableWords[i] = 0
		}
	}

	directoryWords := tableAtFn(directoryFrame.Address())
	for i := range directoryWords {
		directoryWords[i] = 0
	}

	pde0 := pageTableEntry(0)
	pde0.SetFrame(innerFrame)
	pde0.SetFlags(supervisorRW)
	directoryWords[0] = pde0

	pdeLast := pageTableEntry(0)
	pdeLast.SetFrame(directoryFrame)
	pdeLast.SetFlags(supervisorRW)
	directoryWords[lastDirectoryIndex] = pdeLast

	// Every other PDE is not-present but keeps its attribute bits: r/w set,
	// user bit clear (supervisor).
	for i := 1; i < lastDirectoryIndex; i++ {
		directoryWords[i] = pageTableEntry(FlagRW)
	}

	return pt, nil
}

// Load installs pt as the CPU's active page table.
func (pt *PageTable) Load() {
	switchPDTFn(pt.directoryFrame.Address())
	currentTable = pt
}

// EnableStaticPaging sets the CPU's paging-enable bit, process-wide.
func EnableStaticPaging() {
	writeCR0Fn(readCR0Fn() | 0x80000000)
	pagingEnabled = true
}

// PagingEnabled reports whether EnableStaticPaging has been called.
func PagingEnabled() bool { return pagingEnabled }

// RegisterPool appends vmp to pt's registered-pool list. Faults on
// addresses inside vmp's window are legitimate once this call returns.
func (pt *PageTable) RegisterPool(vmp LegitimacyChecker) {
	if pt.numPools == maxRegisteredPools {
		kfmt.Panic(errRegisteredPoolsFull)
	}
	pt.pools[pt.numPools] = vmp
	pt.numPools++
}

// isLegitimate reports whether addr belongs to the shared low region or to
// any pool registered with pt.
func (pt *PageTable) isLegitimate(addr uintptr) bool {
	if addr < sharedSize {
		return true
	}
	for i := 0; i < pt.numPools; i++ {
		if pt.pools[i].IsLegitimate(addr) {
			return true
		}
	}
	return false
}

// HandleFault services a page fault at faultAddr against pt, which must be
// the currently loaded table. It aborts with a diagnostic dump if faultAddr
// does not belong to any registered VM pool or the shared region; otherwise
// it installs whatever PDE/PTE are missing and returns so the faulting
// instruction can be restarted.
func (pt *PageTable) HandleFault(faultAddr uintptr) {
	if !pt.isLegitimate(faultAddr) {
		kfmt.Printf("illegal page fault at address 0x%x\n", uint32(faultAddr))
		kfmt.Panic(errIllegalFault)
	}

	d := directoryIndex(faultAddr)
	t := tableIndex(faultAddr)

	pde := (*pageTableEntry)(entryPtrFn(pdeAddress(d)))
	if !pde.Present() {
		frame := processPool.Allocate(1)
		if frame == 0 {
			kfmt.Panic(errFrameExhausted)
		}
		pde.SetFrame(frame)
		pde.SetFlags(supervisorRW)

		for i := uint32(0); i < entriesPerTable; i++ {
			entry := (*pageTableEntry)(entryPtrFn(pteAddress(d, i)))
			*entry = pageTableEntry(FlagRW)
		}
	}

	pte := (*pageTableEntry)(entryPtrFn(pteAddress(d, t)))
	if !pte.Present() {
		frame := processPool.Allocate(1)
		if frame == 0 {
			kfmt.Panic(errFrameExhausted)
		}
		pte.SetFrame(frame)
		pte.SetFlags(supervisorRW)
	}
}

// FreePage tears down the mapping for virtual page number p, returning its
// frame to the process pool. If the PDE or PTE for p is not present, this
// is a non-fatal double-free: log and return.
func (pt *PageTable) FreePage(p uint32) {
	d := p >> 10
	t := p & indexMask

	pde := (*pageTableEntry)(entryPtrFn(pdeAddress(d)))
	if !pde.Present() {
		kfmt.Fprintf(warnLog, "free_page: page %d has no backing inner table\n", p)
		return
	}

	pte := (*pageTableEntry)(entryPtrFn(pteAddress(d, t)))
	if !pte.Present() {
		kfmt.Fprintf(warnLog, "free_page: page %d is already not present\n", p)
		return
	}

	releaseFrame(pte.Frame())
	pte.ClearFlags(FlagPresent)

	switchPDTFn(currentTable.directoryFrame.Address())
}
