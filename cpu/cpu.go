// Package cpu declares the hardware primitives this module needs and cannot
// express in Go: control register access, port I/O, TLB invalidation and the
// HLT instruction. Each exported function below has no body: under the
// usual Go-asm stub convention a bodyless declaration is paired with a
// same-named TEXT symbol in an assembly file of the same package. No such
// assembly file is included in this module, so the package does not compile
// until one providing these symbols is placed beside this file. Declaring
// them here, instead of behind cgo, is what lets every other package in this
// module call them as ordinary Go funcs.
package cpu

// EnableInterrupts enables interrupt handling (STI).
func EnableInterrupts()

// DisableInterrupts disables interrupt handling (CLI).
func DisableInterrupts()

// Halt stops instruction execution (HLT). It does not return.
func Halt()

// FlushTLBEntry invalidates the TLB entry for virtAddr (INVLPG).
func FlushTLBEntry(virtAddr uintptr)

// SwitchPDT loads pdtPhysAddr into CR3, flushing the entire TLB. Used both to
// activate a freshly built page directory and to force a reload after a
// page table entry has been edited out from under the MMU.
func SwitchPDT(pdtPhysAddr uintptr)

// ActivePDT returns the physical address currently loaded in CR3.
func ActivePDT() uintptr

// ReadCR0 returns the value of CR0.
func ReadCR0() uint32

// WriteCR0 loads v into CR0. Used to set the paging-enable bit (PG, 0x80000000).
func WriteCR0(v uint32)

// ReadCR2 returns the faulting linear address recorded by the last page
// fault (CR2). Valid only while servicing a page-fault exception.
func ReadCR2() uint32

// Inb reads a single byte from the given I/O port (IN AL, DX).
func Inb(port uint16) uint8

// Outb writes a single byte to the given I/O port (OUT DX, AL).
func Outb(port uint16, val uint8)

// Inw reads a 16-bit word from the given I/O port (IN AX, DX). The disk
// driver uses this to move a sector two bytes at a time from the ATA data
// register.
func Inw(port uint16) uint16

// Outw writes a 16-bit word to the given I/O port (OUT DX, AX).
func Outw(port uint16, val uint16)
