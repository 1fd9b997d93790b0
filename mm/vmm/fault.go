package vmm

import (
	"github.com/imatson9119/CSCE410/cpu"
	"github.com/imatson9119/CSCE410/irq"
	"github.com/imatson9119/CSCE410/kfmt"
)

// readCR2Fn is swapped out by tests.
var readCR2Fn = cpu.ReadCR2

// InstallFaultHandler registers pageFaultHandler as the ISR for vector 14.
// Called once during boot, after Init.
func InstallFaultHandler() {
	irq.HandleExceptionWithCode(irq.PageFaultException, pageFaultHandler)
}

// pageFaultHandler is the vector-14 entrypoint: it reads the faulting
// address from CR2 and hands it to the currently loaded table.
func pageFaultHandler(_ irq.ExceptionNum, _ *irq.Frame, regs *irq.Regs) {
	faultAddr := uintptr(readCR2Fn())

	if currentTable == nil {
		kfmt.Printf("page fault at 0x%x with no page table loaded\n", uint32(faultAddr))
		regs.DumpTo()
		kfmt.Panic(errIllegalFault)
	}

	currentTable.HandleFault(faultAddr)
}
