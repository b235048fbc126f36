// Package sim runs the controller firmware on a regular Go host. Simulated
// peripherals answer the core's HAL interfaces and report completions
// through the core's emulated interrupt line.
package sim

import (
	"time"

	"github.com/jonboulle/clockwork"

	"hydroponics/core"
)

// line delivers a peripheral's completions as interrupts. With zero latency
// the interrupt is pending immediately and runs when the poll loop next
// enables interrupts; otherwise it is raised from a timer after latency.
type line struct {
	clock   clockwork.Clock
	latency time.Duration
	isr     func()
	busy    bool
}

// raise runs complete followed by the interrupt handler, in interrupt
// context on the poll loop goroutine
func (l *line) raise(complete func()) {
	l.busy = true
	deliver := func() {
		l.busy = false
		complete()
		if l.isr != nil {
			l.isr()
		}
	}
	if l.latency <= 0 || l.clock == nil {
		core.RaiseInterrupt(deliver)
		return
	}
	l.clock.AfterFunc(l.latency, func() {
		core.RaiseInterrupt(deliver)
	})
}
