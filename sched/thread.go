// Package sched implements the cooperative thread scheduler: a strict FIFO
// ready queue with add/resume/yield/terminate semantics and no preemption.
// Every suspension point is an explicit call to Yield; the scheduler never
// interrupts a running thread on its own.
package sched

import "unsafe"

// Thread is an opaque handle to a schedulable execution context. The
// scheduler only ever compares Threads for identity and asks the currently
// running one to dispatch to another; everything a real thread needs to
// resume where it left off — a saved register file, a stack, kernel/user
// mode — belongs to the thread layer, out of scope for this module, the
// same way mm/vmm treats a context switch's PDT reload as an opaque cpu
// primitive.
type Thread struct {
	// Context is opaque storage the thread layer uses however it needs
	// to (e.g. a pointer to a saved register/stack frame). The
	// scheduler never reads it.
	Context unsafe.Pointer
}

// dispatchToFn is the hook DispatchTo calls to hand control from one thread
// to another. The context switch itself (save the current register state,
// restore next's) belongs to the thread layer outside this module; the
// default here does nothing and returns at once, so no switch happens.
// Tests substitute a recorder so ready-queue behavior can be observed.
var dispatchToFn = func(from, to *Thread) {}

// DispatchTo hands control from t, the thread currently executing, to next
// by calling dispatchToFn.
func (t *Thread) DispatchTo(next *Thread) {
	dispatchToFn(t, next)
}
