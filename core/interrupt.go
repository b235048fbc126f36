package core

// CriticalSection keeps interrupts masked from EnterCritical until Exit.
// Sections nest: Exit restores the state saved on entry, so a section opened
// inside an interrupt handler leaves interrupts disabled when it closes.
//
//	cs := EnterCritical()
//	defer cs.Exit()
type CriticalSection struct {
	state interruptState
}

// EnterCritical saves the global interrupt state and disables interrupts
func EnterCritical() CriticalSection {
	return CriticalSection{state: disableInterrupts()}
}

// Exit restores the interrupt state saved by EnterCritical
func (cs CriticalSection) Exit() {
	restoreInterrupts(cs.state)
}
