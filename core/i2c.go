package core

// I2C master bus driver. Transfers wait in a small ring; the one at the read
// pointer owns the bus. The bus interrupt advances a protocol state machine
// and asks the transfer's handler what to do at each step, so device drivers
// never block on the bus.

// I2CQueueSize is the number of transfers that can wait for the bus
const I2CQueueSize = 4

// TransferStatus tells a TransferHandler which protocol step just completed
type TransferStatus uint8

const (
	StatusNone       TransferStatus = iota
	TransmitReady                   // address ACKed (write): call TransmitByte or the transfer closes
	ReceiveReady                    // address ACKed (read): call Nack to receive a single byte
	ByteTransmitted                 // data byte ACKed: call TransmitByte again or the transfer closes
	ByteReceived                    // data byte received and ACKed, more follow
	LastByteReceived                // data byte received after Nack; closing
	TransmitFailed                  // address phase of a write failed; closing
	ReceiveFailed                   // address phase or data of a read failed; closing
	DataNacked                      // data byte NACKed by the device; closing
)

// IsClosing reports whether the transfer ends after this status regardless
// of the handler's return value
func (s TransferStatus) IsClosing() bool {
	switch s {
	case TransmitFailed, ReceiveFailed, DataNacked, LastByteReceived:
		return true
	}
	return false
}

func (s TransferStatus) String() string {
	switch s {
	case StatusNone:
		return "NONE"
	case TransmitReady:
		return "TRANSMIT_READY"
	case ReceiveReady:
		return "RECEIVE_READY"
	case ByteTransmitted:
		return "BYTE_TRANSMITTED"
	case ByteReceived:
		return "BYTE_RECEIVED"
	case LastByteReceived:
		return "LAST_BYTE_RECEIVED"
	case TransmitFailed:
		return "TRANSMIT_FAILED"
	case ReceiveFailed:
		return "RECEIVE_FAILED"
	case DataNacked:
		return "NACK"
	}
	return "UNKNOWN"
}

// TransferHandler is called from the bus interrupt at every protocol step.
// Return true to continue the transfer, false to end it. The return value
// is ignored for closing statuses. Handlers run with interrupts disabled and
// must not block.
type TransferHandler func(status TransferStatus, data byte) bool

type busState uint8

const (
	busIdle        busState = iota
	busSlaW                 // START issued for a write
	busSlaR                 // START issued for a read
	busSlaWSent             // address+W on the wire
	busSlaRSent             // address+R on the wire
	busWrite                // data phase, transmitting
	busRead                 // data phase, receiving
	busClosingRead          // handler ended a read early; one byte still to clock with NACK
)

// transferRequest is one queue slot; a nil handler marks it free
type transferRequest struct {
	handler TransferHandler
	sla     byte // address<<1 | R
}

func (r *transferRequest) isRead() bool {
	return r.sla&1 != 0
}

func (r *transferRequest) address() uint8 {
	return r.sla >> 1
}

// I2CBus is the master-mode bus driver
type I2CBus struct {
	ctrl   I2CController
	poller PollRequester

	queue [I2CQueueSize]transferRequest
	head  uint8 // read pointer, the active request

	// Mutated by the bus interrupt and by Poll when starting from idle.
	state busState

	// Set by the active handler during its call
	instantPending bool
	nackPending    bool
	txPending      bool
	txData         byte
}

// NewI2CBus returns a driver for ctrl. poller is asked for an extra poll
// round after every bus event.
func NewI2CBus(ctrl I2CController, poller PollRequester) *I2CBus {
	return &I2CBus{
		ctrl:   ctrl,
		poller: poller,
	}
}

func slaByte(addr I2CAddress, isTransmit bool) byte {
	sla := byte(addr&0x7F) << 1
	if !isTransmit {
		sla |= 1
	}
	return sla
}

// RequestTransfer queues a transfer in the first free slot at or after the
// read pointer. Returns false when the queue is full. Safe from poll context
// and from transfer handlers.
func (b *I2CBus) RequestTransfer(addr I2CAddress, isTransmit bool, handler TransferHandler) bool {
	if handler == nil {
		return false
	}

	cs := EnterCritical()
	defer cs.Exit()

	idx := b.head
	for i := 0; i < I2CQueueSize; i++ {
		req := &b.queue[idx]
		if req.handler == nil {
			req.handler = handler
			req.sla = slaByte(addr, isTransmit)
			return true
		}
		idx = (idx + 1) % I2CQueueSize
	}

	RecordTrace(EvtI2CQueueFull, uint8(addr), 0, 0)
	return false
}

// RequestInstantTransfer replaces the active request with a new one that is
// started with REPEATED START as soon as the active transfer closes, so no
// other queued device can take the bus in between. Only valid from inside a
// transfer handler, which should then end its own transfer. Calling it twice
// in one transfer keeps only the last request.
func (b *I2CBus) RequestInstantTransfer(addr I2CAddress, isTransmit bool, handler TransferHandler) {
	cs := EnterCritical()
	defer cs.Exit()

	req := &b.queue[b.head]
	req.handler = handler
	req.sla = slaByte(addr, isTransmit)
	b.instantPending = handler != nil
}

// Nack makes the next received byte the last one. Only valid from a read
// handler.
func (b *I2CBus) Nack() {
	cs := EnterCritical()
	b.nackPending = true
	cs.Exit()
}

// TransmitByte supplies the next byte to send. Only valid from a write
// handler on TransmitReady or ByteTransmitted.
func (b *I2CBus) TransmitByte(data byte) {
	cs := EnterCritical()
	b.txPending = true
	b.txData = data
	cs.Exit()
}

// Poll starts the request at the read pointer when the bus is idle
func (b *I2CBus) Poll() {
	cs := EnterCritical()
	defer cs.Exit()

	if b.state != busIdle || !b.ctrl.Idle() {
		return
	}
	req := &b.queue[b.head]
	if req.handler == nil {
		return
	}

	b.begin(req)
	RecordTrace(EvtI2CStart, req.address(), uint32(req.sla&1), 0)
	b.ctrl.Start()
}

// Idle reports whether no transfer is active or queued
func (b *I2CBus) Idle() bool {
	cs := EnterCritical()
	defer cs.Exit()

	if b.state != busIdle {
		return false
	}
	for i := range b.queue {
		if b.queue[i].handler != nil {
			return false
		}
	}
	return true
}

// HandleInterrupt advances the state machine after a bus event. Called from
// the bus interrupt.
func (b *I2CBus) HandleInterrupt() {
	cs := EnterCritical()
	defer cs.Exit()

	b.step(b.ctrl.Status())

	if b.poller != nil {
		b.poller.SchedulePoll()
	}
}

func (b *I2CBus) step(hw HwStatus) {
	req := &b.queue[b.head]
	if b.state == busIdle || req.handler == nil {
		return
	}

	switch b.state {
	case busSlaW, busSlaR:
		if hw != HwStartSent && hw != HwRepeatedStartSent {
			b.fail(req, hw)
			return
		}
		if b.state == busSlaW {
			b.state = busSlaWSent
		} else {
			b.state = busSlaRSent
		}
		b.ctrl.Write(req.sla)

	case busSlaWSent:
		if hw != HwSlaWAck {
			b.fail(req, hw)
			return
		}
		b.state = busWrite
		b.transmit(req, TransmitReady, hw)

	case busWrite:
		switch hw {
		case HwDataSentAck:
			b.transmit(req, ByteTransmitted, hw)
		case HwDataSentNack:
			b.notify(req, DataNacked, 0)
			b.finish(req, DataNacked, hw)
		default:
			b.fail(req, hw)
		}

	case busSlaRSent:
		if hw != HwSlaRAck {
			b.fail(req, hw)
			return
		}
		b.state = busRead
		b.receive(req, ReceiveReady, 0)

	case busRead:
		switch hw {
		case HwDataReceivedAck:
			b.receive(req, ByteReceived, b.ctrl.Data())
		case HwDataReceivedNack:
			b.notify(req, LastByteReceived, b.ctrl.Data())
			b.finish(req, LastByteReceived, hw)
		default:
			b.fail(req, hw)
		}

	case busClosingRead:
		// The forced byte is discarded; the handler already said goodbye.
		b.finish(req, LastByteReceived, hw)
	}
}

// begin moves to the address phase for req
func (b *I2CBus) begin(req *transferRequest) {
	if req.isRead() {
		b.state = busSlaR
	} else {
		b.state = busSlaW
	}
}

// notify calls the active handler with fresh per-call flags
func (b *I2CBus) notify(req *transferRequest, status TransferStatus, data byte) bool {
	b.txPending = false
	b.nackPending = false
	RecordTrace(EvtI2CStatus, req.address(), uint32(status), uint32(data))
	return req.handler(status, data)
}

func (b *I2CBus) transmit(req *transferRequest, status TransferStatus, hw HwStatus) {
	if b.notify(req, status, 0) && b.txPending {
		b.ctrl.Write(b.txData)
		return
	}
	b.finish(req, status, hw)
}

func (b *I2CBus) receive(req *transferRequest, status TransferStatus, data byte) {
	if b.notify(req, status, data) {
		b.ctrl.Read(!b.nackPending)
		return
	}
	// A byte can't be aborted once the slave owns SDA; clock one more and
	// NACK it so STOP is legal afterwards.
	b.state = busClosingRead
	b.ctrl.Read(false)
}

// fail reports a protocol failure to the handler and closes the transfer
func (b *I2CBus) fail(req *transferRequest, hw HwStatus) {
	status := TransmitFailed
	if req.isRead() {
		status = ReceiveFailed
	}
	DebugPrintln("[I2C] 0x" + hex8(req.address()) + " failed, hw status 0x" + hex8(uint8(hw)))
	b.notify(req, status, 0)
	b.finish(req, status, hw)
}

// finish closes the active transfer. A pending instant transfer already
// occupies the read pointer and is started with REPEATED START; otherwise
// the slot is freed and the bus released.
func (b *I2CBus) finish(req *transferRequest, last TransferStatus, hw HwStatus) {
	chained := b.instantPending
	b.instantPending = false

	var chainFlag uint32
	if chained {
		chainFlag = 1
	}
	RecordTrace(EvtI2CClose, req.address(), uint32(last), chainFlag)

	lost := hw == HwArbitrationLost || hw == HwBusError
	if chained && !lost {
		b.begin(req)
		b.ctrl.Start()
		return
	}

	if hw == HwArbitrationLost {
		b.ctrl.Release()
	} else {
		b.ctrl.Stop()
	}
	b.state = busIdle

	// A chained request that lost the bus stays at the read pointer and is
	// restarted by Poll.
	if !chained {
		req.handler = nil
		b.head = (b.head + 1) % I2CQueueSize
	}
}
