//go:build !tinygo

package core

import "sync"

// On regular Go a software interrupt controller stands in for the CPU's
// global interrupt flag. The enable flag is owned by the goroutine running
// the poll loop; RaiseInterrupt may be called from any goroutine (simulated
// peripherals, tick sources). Pending handlers run on the poll loop
// goroutine whenever the flag goes back to enabled, one at a time and with
// the flag cleared, the way a hardware ISR would.

// interruptState records whether interrupts were enabled on entry
type interruptState bool

var (
	irqEnabled = true

	irqMu      sync.Mutex
	irqPending []func()
	irqWake    = make(chan struct{}, 1)
)

// disableInterrupts masks the emulated interrupt line
func disableInterrupts() interruptState {
	state := interruptState(irqEnabled)
	irqEnabled = false
	return state
}

// restoreInterrupts restores the saved state and services anything that
// became pending while interrupts were masked
func restoreInterrupts(state interruptState) {
	irqEnabled = bool(state)
	if irqEnabled {
		dispatchInterrupts()
	}
}

// RaiseInterrupt marks handler as a pending interrupt. It runs the next time
// the poll loop goroutine has interrupts enabled.
func RaiseInterrupt(handler func()) {
	irqMu.Lock()
	irqPending = append(irqPending, handler)
	irqMu.Unlock()

	select {
	case irqWake <- struct{}{}:
	default:
	}
}

// WaitForInterrupt is the host equivalent of "enable interrupts and halt":
// it blocks until an interrupt is pending, then services it. It may be
// called with interrupts disabled; the flag is left enabled on return.
func WaitForInterrupt() {
	for !interruptPending() {
		<-irqWake
	}
	irqEnabled = true
	dispatchInterrupts()
}

func interruptPending() bool {
	irqMu.Lock()
	defer irqMu.Unlock()
	return len(irqPending) > 0
}

func nextInterrupt() func() {
	irqMu.Lock()
	defer irqMu.Unlock()
	if len(irqPending) == 0 {
		return nil
	}
	handler := irqPending[0]
	irqPending[0] = nil
	irqPending = irqPending[1:]
	return handler
}

// dispatchInterrupts runs pending handlers in arrival order with the
// interrupt flag cleared
func dispatchInterrupts() {
	for {
		handler := nextInterrupt()
		if handler == nil {
			return
		}
		irqEnabled = false
		handler()
		irqEnabled = true
	}
}

// resetInterrupts drops pending handlers and re-enables the line (tests)
func resetInterrupts() {
	irqMu.Lock()
	irqPending = nil
	irqMu.Unlock()
	select {
	case <-irqWake:
	default:
	}
	irqEnabled = true
}
