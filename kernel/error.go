// Package kernel provides the handful of allocation-free primitives (error
// values, memory helpers) shared by every other package in this module. None
// of its types may depend on a working heap allocator: the frame pool and
// page table are live before one exists.
package kernel

// Error describes a kernel error. All kernel errors are defined as package
// level variables that are pointers to this structure. Using a concrete
// struct rather than the stdlib errors package avoids any dependency on
// errors.New, which allocates, and on fmt.Errorf, which allocates and
// reflects.
//
// Every hard failure this module raises on purpose — a non-HEAD release, an
// out-of-range mark_inaccessible, an illegal fault, an exhausted VM pool —
// goes through one of these rather than a bare string, so the Module tag
// survives all the way to kfmt.Panic's console dump. See §7 of this
// module's design notes: an Error always marks a broken invariant; the
// handful of expected soft conditions are never constructed as one of
// these: a double-freed page and an unrecognized VM-pool release are
// logged, and a Yield on an empty ready queue simply returns.
type Error struct {
	// Module names the subsystem where the error originated, e.g. "pmm"
	// or "vmm".
	Module string

	// Message is a short, human readable description of the error.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Diagnostic formats the error the way kfmt.Panic prints it to the
// console: "[Module] unrecoverable error: Message". Kept alongside Error()
// — which satisfies the stdlib error interface for anything that just
// wants the bare message — so the bracketed subsystem tag used by every
// panic dump in this module lives in one place instead of being
// reconstructed at each print site.
func (e *Error) Diagnostic() string {
	return "[" + e.Module + "] unrecoverable error: " + e.Message
}
