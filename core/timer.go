package core

import "time"

// Scheduler tick rate. Fixed at build time; every task delay is expressed in
// these ticks.
const (
	TickFreq     = 40 // ticks per second
	TickPeriodMS = 1000 / TickFreq
	TickPeriod   = time.Second / TickFreq
)

// TaskDelayMS converts milliseconds to scheduler ticks. Delays shorter than a
// tick round up to one tick since a zero delay frees the task slot.
func TaskDelayMS(ms uint32) uint16 {
	ticks := ms / TickPeriodMS
	switch {
	case ticks == 0:
		return 1
	case ticks > 0xffff:
		return 0xffff
	}
	return uint16(ticks)
}

// TaskDelayS converts seconds to scheduler ticks
func TaskDelayS(s uint32) uint16 {
	return TaskDelayMS(s * 1000)
}

// TickClock counts timer interrupts. The monotonic counter is for
// timestamps; the delta accumulates ticks the scheduler has not seen yet.
type TickClock struct {
	ticks  uint32
	delta  uint16
	poller PollRequester
}

// Tick advances the clock by one period. Called from the timer interrupt.
func (c *TickClock) Tick() {
	cs := EnterCritical()
	c.ticks++
	if c.delta != 0xffff {
		c.delta++
	}
	cs.Exit()

	if c.poller != nil {
		c.poller.SchedulePoll()
	}
}

// Ticks returns the number of ticks since boot
func (c *TickClock) Ticks() uint32 {
	cs := EnterCritical()
	defer cs.Exit()
	return c.ticks
}

// Uptime returns the time since boot at tick resolution
func (c *TickClock) Uptime() time.Duration {
	return time.Duration(c.Ticks()) * TickPeriod
}

// drain returns the ticks accumulated since the previous drain and zeroes
// the delta
func (c *TickClock) drain() uint16 {
	cs := EnterCritical()
	defer cs.Exit()
	delta := c.delta
	c.delta = 0
	return delta
}
