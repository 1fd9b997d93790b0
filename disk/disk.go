// Package disk implements a blocking wrapper over a polling disk interface:
// Read and Write issue the operation, then convert what would otherwise be
// a busy-wait on the device's ready bit into a cooperative wait by yielding
// to the scheduler until the device reports ready.
package disk

import (
	"github.com/imatson9119/CSCE410/cpu"
	"github.com/imatson9119/CSCE410/sched"
)

// Operation identifies the command issued to the underlying disk.
type Operation int

const (
	// OpRead requests a 512-byte block be staged into the data port.
	OpRead Operation = iota

	// OpWrite requests a 512-byte block be written from the data port.
	OpWrite
)

const (
	// dataPort is the ATA primary-channel data register: 256 inw/outw
	// calls move one 512-byte block through it.
	dataPort = 0x1F0

	// blockBytes is the fixed sector size this driver moves per
	// operation.
	blockBytes = 512

	wordsPerBlock = blockBytes / 2
)

// Polling is the narrow interface a concrete disk driver must satisfy:
// issue an operation, then report whether the device is ready to transfer.
// Drive selection, command-register wiring, and interrupt handling belong
// to that lower layer, out of scope for this module.
type Polling interface {
	IssueOperation(op Operation, block uint32)
	IsReady() bool
}

var (
	inwFn  = cpu.Inw
	outwFn = cpu.Outw
)

// BlockingDisk adapts a Polling disk into one whose Read/Write calls never
// spin the CPU: instead of busy-waiting on the ready bit, the calling
// thread re-adds itself to the scheduler and yields.
type BlockingDisk struct {
	disk      Polling
	scheduler *sched.Scheduler
}

// New constructs a BlockingDisk over disk, cooperating with scheduler to
// block callers while the device is busy.
func New(disk Polling, scheduler *sched.Scheduler) *BlockingDisk {
	return &BlockingDisk{disk: disk, scheduler: scheduler}
}

// Read reads 512 bytes from block into buf, which must be at least
// blockBytes long. No error check is performed on the transfer itself,
// matching the polling disk layer this wraps.
func (bd *BlockingDisk) Read(block uint32, buf []byte) {
	bd.disk.IssueOperation(OpRead, block)
	bd.waitUntilReady()

	for i := 0; i < wordsPerBlock; i++ {
		word := inwFn(dataPort)
		buf[i*2] = byte(word)
		buf[i*2+1] = byte(word >> 8)
	}
}

// Write writes 512 bytes from buf to block.
func (bd *BlockingDisk) Write(block uint32, buf []byte) {
	bd.disk.IssueOperation(OpWrite, block)
	bd.waitUntilReady()

	for i := 0; i < wordsPerBlock; i++ {
		word := uint16(buf[i*2]) | uint16(buf[i*2+1])<<8
		outwFn(dataPort, word)
	}
}

// waitUntilReady converts a busy-wait on the device's ready bit into a
// cooperative one: while the device isn't ready, re-add the calling thread
// to the scheduler and yield rather than spinning.
func (bd *BlockingDisk) waitUntilReady() {
	for !bd.disk.IsReady() {
		bd.scheduler.Add(bd.scheduler.Current())
		bd.scheduler.Yield()
	}
}
