package vmm

import "github.com/imatson9119/CSCE410/mm/pmm"

const (
	// PageSize is the size, in bytes, of a single virtual page. Always
	// equal to the frame size: pages and frames are the same granule
	// viewed from the virtual and physical side respectively.
	PageSize = pmm.FrameSize

	// entriesPerTable is the number of PDEs in a directory, and the
	// number of PTEs in an inner table: 4 KiB of 32-bit words.
	entriesPerTable = 1024

	// directoryShift and tableShift split a 32-bit virtual address into
	// a 10-bit directory index, a 10-bit table index and a 12-bit
	// byte offset.
	directoryShift = 22
	tableShift     = 12
	indexMask      = 0x3FF

	// sharedRegionSize is the size of the low virtual region identity
	// mapped by PDE 0 at construction time: never fault-driven.
	sharedRegionSize = 4 * 1024 * 1024

	// lastDirectoryIndex is the recursive self-map slot: the final PDE
	// of every directory points at the directory itself.
	lastDirectoryIndex = entriesPerTable - 1

	// pdeRecursiveBase and pteRecursiveBase are the fixed virtual bases
	// of the recursive-mapping trick: reading the word at
	// pdeRecursiveBase|(d<<2) yields PDE d of the currently loaded
	// directory, and reading the word at pteRecursiveBase|(d<<12)|(t<<2)
	// yields PTE t of the inner table pointed to by PDE d.
	pdeRecursiveBase = uintptr(0xFFFFF000)
	pteRecursiveBase = uintptr(0xFFC00000)
)

// directoryIndex returns the 10-bit directory index (D) of a virtual
// address.
func directoryIndex(virtAddr uintptr) uint32 {
	return uint32(virtAddr>>directoryShift) & indexMask
}

// tableIndex returns the 10-bit inner-table index (T) of a virtual address.
func tableIndex(virtAddr uintptr) uint32 {
	return uint32(virtAddr>>tableShift) & indexMask
}

// pdeAddress returns the recursively-mapped virtual address of PDE d in the
// currently loaded directory.
func pdeAddress(d uint32) uintptr {
	return pdeRecursiveBase | uintptr(d<<2)
}

// pteAddress returns the recursively-mapped virtual address of PTE t of the
// inner table referenced by PDE d in the currently loaded directory.
func pteAddress(d, t uint32) uintptr {
	return pteRecursiveBase | uintptr(d)<<12 | uintptr(t<<2)
}
