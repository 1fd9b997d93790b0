// Package irq declares the exception numbers and register-snapshot types
// used by the page-fault and general-protection-fault handlers. The actual
// IDT gate plumbing (installing a 386 interrupt gate that pushes a Frame and
// Regs pair onto the stack before transferring control to a dispatcher) is
// out of scope for this module: it is the "interrupt-descriptor plumbing"
// spec.md treats as an external collaborator. What remains here is the
// vocabulary the fault handlers are written against.
package irq

import "github.com/imatson9119/CSCE410/kfmt"

// ExceptionNum identifies a CPU exception vector.
type ExceptionNum uint8

const (
	// GPFException is raised when a general protection fault occurs, e.g.
	// a privilege violation on a page marked supervisor-only.
	GPFException = ExceptionNum(13)

	// PageFaultException is raised when a page directory or page table
	// entry is not present, or a protection check on a present entry
	// fails.
	PageFaultException = ExceptionNum(14)
)

// Regs is a snapshot of the general-purpose registers at the moment an
// exception occurred. Handlers receive a pointer to this struct; any
// modification is propagated back to the interrupted context on return.
type Regs struct {
	EAX uint32
	EBX uint32
	ECX uint32
	EDX uint32
	ESI uint32
	EDI uint32
	EBP uint32

	// ErrorCode is the CPU-pushed error code for exceptions that push
	// one (GPF and page fault both do). Bit 0 distinguishes a
	// not-present fault from a protection-violation fault; bit 1
	// distinguishes a read from a write.
	ErrorCode uint32
}

// Frame is the CPU-pushed return frame an IRET instruction consumes.
type Frame struct {
	EIP    uint32
	CS     uint32
	EFlags uint32
}

// ExceptionHandlerWithCode handles an exception that pushes an error code,
// which both GPFException and PageFaultException do.
type ExceptionHandlerWithCode func(num ExceptionNum, frame *Frame, regs *Regs)

// HandleExceptionWithCode registers an exception handler for the given
// vector. Its body, like the rest of the gate-installation machinery, is
// provided by the interrupt-descriptor plumbing outside this module; it is
// declared here purely so the fault handlers in mm/vmm can be registered
// against a concrete API during initialization.
func HandleExceptionWithCode(exceptionNum ExceptionNum, handler ExceptionHandlerWithCode)

// DumpTo writes a diagnostic dump of the register snapshot to the current
// kfmt output sink. Used by the page-fault handler when an address fails
// its legitimacy check and the kernel is about to panic.
func (r *Regs) DumpTo() {
	kfmt.Printf("EAX = %x EBX = %x ECX = %x EDX = %x\n", r.EAX, r.EBX, r.ECX, r.EDX)
	kfmt.Printf("ESI = %x EDI = %x EBP = %x\n", r.ESI, r.EDI, r.EBP)
	kfmt.Printf("error code = %x\n", r.ErrorCode)
}
