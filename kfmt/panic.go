package kfmt

import (
	"github.com/imatson9119/CSCE410/cpu"
	"github.com/imatson9119/CSCE410/kernel"
)

var (
	// cpuHaltFn is swapped out by tests.
	cpuHaltFn = cpu.Halt

	errRuntimePanic = &kernel.Error{Module: "rt", Message: "unknown cause"}
)

// SetHaltFn overrides the function Panic calls after printing its
// diagnostic. The default, cpu.Halt, never returns, so tests that need to
// observe a Panic via recover() must install a stand-in that itself calls
// Go's panic.
func SetHaltFn(fn func()) (restore func()) {
	prev := cpuHaltFn
	cpuHaltFn = fn
	return func() { cpuHaltFn = prev }
}

// Panic prints the supplied error, if any, and halts the CPU. Panic never
// returns. It is the sole "abort" primitive used by every hard failure in
// this module: frame release of a non-HEAD frame, mark_inaccessible out of
// bounds, and page faults on an address that fails the legitimacy check.
func Panic(e interface{}) {
	err := asKernelError(e)

	Printf("\n-----------------------------------\n")
	if err != nil {
		Printf("%s\n", err.Diagnostic())
	}
	Printf("*** kernel panic: system halted ***")
	Printf("\n-----------------------------------\n")

	cpuHaltFn()
}

// asKernelError normalizes whatever Panic was called with into a
// *kernel.Error so its Diagnostic method can format it. Every failure this
// module raises on purpose already constructs a *kernel.Error up front
// (see kernel.Error's doc comment); the string and error cases exist only
// because Go's own runtime panics and recovered third-party errors can
// reach here carrying neither.
func asKernelError(e interface{}) *kernel.Error {
	switch t := e.(type) {
	case *kernel.Error:
		return t
	case string:
		errRuntimePanic.Message = t
		return errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		return errRuntimePanic
	default:
		return nil
	}
}
