// Package vmm implements the per-address-space page table: construction of
// a two-level 32-bit hardware page directory with a recursive self-mapping,
// loading it into the CPU, and servicing page faults on demand by drawing
// frames from a process-wide frame pool.
package vmm

import "github.com/imatson9119/CSCE410/mm/pmm"

// PageTableEntryFlag is a bit in the low 12 bits of a PDE or PTE word.
type PageTableEntryFlag uint32

const (
	// FlagPresent marks the entry as backed by a real frame.
	FlagPresent PageTableEntryFlag = 1 << 0

	// FlagRW marks the entry writable. Clear means read-only.
	FlagRW PageTableEntryFlag = 1 << 1

	// FlagUser marks the entry accessible from user mode. This module
	// never sets it: every mapping it installs is supervisor-only.
	FlagUser PageTableEntryFlag = 1 << 2
)

// supervisorRW is the flag combination used for every PDE and PTE this
// module installs: present, writable, supervisor-only.
const supervisorRW = FlagPresent | FlagRW

// ptePhysFrameMask isolates the upper 20 bits of a PDE/PTE word, which carry
// the physical frame number of the pointed-to table or page.
const ptePhysFrameMask = uint32(0xFFFFF000)

// pageTableEntry is a single 32-bit PDE or PTE word.
type pageTableEntry uint32

// Present reports whether the entry's present bit is set.
func (pte pageTableEntry) Present() bool {
	return pte&pageTableEntry(FlagPresent) != 0
}

// HasFlags reports whether every bit in flags is set on the entry.
func (pte pageTableEntry) HasFlags(flags PageTableEntryFlag) bool {
	return uint32(pte)&uint32(flags) == uint32(flags)
}

// SetFlags sets the given bits on the entry, leaving the frame field alone.
func (pte *pageTableEntry) SetFlags(flags PageTableEntryFlag) {
	*pte = pageTableEntry(uint32(*pte) | uint32(flags))
}

// ClearFlags clears the given bits on the entry.
func (pte *pageTableEntry) ClearFlags(flags PageTableEntryFlag) {
	*pte = pageTableEntry(uint32(*pte) &^ uint32(flags))
}

// Frame returns the physical frame this entry points to.
func (pte pageTableEntry) Frame() pmm.Frame {
	return pmm.Frame((uint32(pte) & ptePhysFrameMask) >> 12)
}

// SetFrame updates the entry's frame field without disturbing its flags.
func (pte *pageTableEntry) SetFrame(frame pmm.Frame) {
	*pte = pageTableEntry((uint32(*pte) &^ ptePhysFrameMask) | uint32(frame.Address())&ptePhysFrameMask)
}
