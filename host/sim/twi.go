package sim

import (
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/physic"

	"hydroponics/core"
)

// Slave is a device on the simulated bus
type Slave interface {
	// Address returns the 7-bit bus address
	Address() uint8

	// Begin is called when the slave is addressed; false NACKs the address
	Begin(read bool) bool

	// Receive gets a data byte; false NACKs it
	Receive(b byte) bool

	// Transmit supplies the next byte for the master
	Transmit() byte

	// End is called on STOP or REPEATED START
	End()
}

// TWI is a simulated two-wire master controller. Every action that the
// hardware completes with an interrupt is answered through the interrupt
// line after one byte time at the bus clock.
type TWI struct {
	line   line
	slaves map[uint8]Slave

	status     core.HwStatus
	data       byte
	owned      bool
	addressing bool
	active     Slave
	failNext   core.HwStatus
	failArmed  bool

	Transfers uint32 // START conditions issued
}

var _ core.I2CController = (*TWI)(nil)

// NewTWI returns a controller clocked at busClock. A zero bus clock
// completes every action without delay.
func NewTWI(clock clockwork.Clock, busClock physic.Frequency) *TWI {
	var latency time.Duration
	if busClock > 0 {
		// 8 data bits plus ACK
		latency = 9 * busClock.Period()
	}
	return &TWI{
		line:   line{clock: clock, latency: latency},
		slaves: make(map[uint8]Slave),
		status: core.HwNoState,
	}
}

// SetInterruptHandler installs the bus interrupt service routine
func (t *TWI) SetInterruptHandler(isr func()) {
	t.line.isr = isr
}

// Attach puts s on the bus, replacing any device at the same address
func (t *TWI) Attach(s Slave) {
	t.slaves[s.Address()] = s
}

// Detach removes the device at addr
func (t *TWI) Detach(addr uint8) {
	delete(t.slaves, addr)
}

// FailNext makes the next completed action report status instead, e.g.
// core.HwArbitrationLost
func (t *TWI) FailNext(status core.HwStatus) {
	t.failNext = status
	t.failArmed = true
}

func (t *TWI) Status() core.HwStatus { return t.status }
func (t *TWI) Idle() bool            { return !t.line.busy }
func (t *TWI) Data() byte            { return t.data }

func (t *TWI) Start() {
	t.Transfers++
	t.complete(func() core.HwStatus {
		t.end()
		t.addressing = true
		if t.owned {
			return core.HwRepeatedStartSent
		}
		t.owned = true
		return core.HwStartSent
	})
}

func (t *TWI) Stop() {
	t.end()
	t.owned = false
	t.status = core.HwNoState
}

func (t *TWI) Release() {
	t.end()
	t.owned = false
	t.status = core.HwNoState
}

func (t *TWI) Write(b byte) {
	t.complete(func() core.HwStatus {
		if t.addressing {
			t.addressing = false
			read := b&1 != 0
			s := t.slaves[b>>1]
			if s != nil && s.Begin(read) {
				t.active = s
				if read {
					return core.HwSlaRAck
				}
				return core.HwSlaWAck
			}
			if read {
				return core.HwSlaRNack
			}
			return core.HwSlaWNack
		}
		if t.active != nil && t.active.Receive(b) {
			return core.HwDataSentAck
		}
		return core.HwDataSentNack
	})
}

func (t *TWI) Read(ack bool) {
	t.complete(func() core.HwStatus {
		t.data = 0xFF
		if t.active != nil {
			t.data = t.active.Transmit()
		}
		if ack {
			return core.HwDataReceivedAck
		}
		return core.HwDataReceivedNack
	})
}

func (t *TWI) complete(action func() core.HwStatus) {
	t.line.raise(func() {
		status := action()
		if t.failArmed {
			t.failArmed = false
			status = t.failNext
		}
		t.status = status
	})
}

func (t *TWI) end() {
	if t.active != nil {
		t.active.End()
		t.active = nil
	}
}
