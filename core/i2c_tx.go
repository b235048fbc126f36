package core

import (
	"errors"

	"tinygo.org/x/drivers"
)

var (
	ErrI2CAddressNack = errors.New("i2c: address not acknowledged")
	ErrI2CDataNack    = errors.New("i2c: data byte not acknowledged")
	ErrI2CReadFailed  = errors.New("i2c: read failed")
	ErrI2CBusy        = errors.New("i2c: transfer queue full")
	ErrI2CEmpty       = errors.New("i2c: nothing to transfer")
)

// I2CTx exposes the asynchronous bus as a blocking drivers.I2C so stock
// TinyGo device drivers can run their setup sequences. Tx spins on the pump
// function until the transfer closes; use it during startup, never from a
// task or transfer handler.
type I2CTx struct {
	bus  *I2CBus
	pump func()
}

var _ drivers.I2C = (*I2CTx)(nil)

// NewI2CTx returns an adapter for bus. pump is called while waiting and
// defaults to bus.Poll.
func NewI2CTx(bus *I2CBus, pump func()) *I2CTx {
	if pump == nil {
		pump = bus.Poll
	}
	return &I2CTx{bus: bus, pump: pump}
}

// Tx writes w then reads into r with a REPEATED START in between
func (t *I2CTx) Tx(addr uint16, w, r []byte) error {
	if len(w) == 0 && len(r) == 0 {
		return ErrI2CEmpty
	}

	job := &txJob{bus: t.bus, addr: I2CAddress(addr), w: w, r: r}
	var queued bool
	if len(w) > 0 {
		queued = t.bus.RequestTransfer(job.addr, true, job.write)
	} else {
		queued = t.bus.RequestTransfer(job.addr, false, job.read)
	}
	if !queued {
		return ErrI2CBusy
	}

	for !job.finished() {
		t.pump()
	}
	return job.err
}

// txJob is the state of one Tx call, updated from the bus interrupt
type txJob struct {
	bus  *I2CBus
	addr I2CAddress
	w, r []byte
	pos  int
	done bool
	err  error
}

func (j *txJob) finished() bool {
	cs := EnterCritical()
	defer cs.Exit()
	return j.done
}

func (j *txJob) write(status TransferStatus, _ byte) bool {
	switch status {
	case TransmitReady, ByteTransmitted:
		if j.pos < len(j.w) {
			j.bus.TransmitByte(j.w[j.pos])
			j.pos++
			return true
		}
		if len(j.r) > 0 {
			j.pos = 0
			j.bus.RequestInstantTransfer(j.addr, false, j.read)
			return false
		}
	case TransmitFailed:
		j.err = ErrI2CAddressNack
	case DataNacked:
		j.err = ErrI2CDataNack
	}
	j.done = true
	return false
}

func (j *txJob) read(status TransferStatus, data byte) bool {
	switch status {
	case ReceiveReady:
		if len(j.r) == 1 {
			j.bus.Nack()
		}
		return true
	case ByteReceived:
		if j.pos >= len(j.r) {
			break
		}
		j.r[j.pos] = data
		j.pos++
		if j.pos == len(j.r)-1 {
			j.bus.Nack()
		}
		return true
	case LastByteReceived:
		if j.pos < len(j.r) {
			j.r[j.pos] = data
			j.pos++
		}
	case ReceiveFailed:
		j.err = ErrI2CReadFailed
	}
	j.done = true
	return false
}
