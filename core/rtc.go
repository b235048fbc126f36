package core

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ds3231"
)

// RTCAddress is the fixed bus address of the DS3231
const RTCAddress = I2CAddress(ds3231.Address)

// rtcRegCount covers timekeeping, alarms, control, status, aging and the
// temperature registers
const rtcRegCount = ds3231.REG_TEMP + 2

var ErrRTCStopped = errors.New("rtc: oscillator could not be started")

// RTCTime is the wall clock time of day
type RTCTime struct {
	Hour, Minute, Second uint8
}

// AppendTo appends the time as HH:MM:SS
func (t RTCTime) AppendTo(buf []byte) []byte {
	buf = appendTwoDigits(buf, t.Hour)
	buf = append(buf, ':')
	buf = appendTwoDigits(buf, t.Minute)
	buf = append(buf, ':')
	return appendTwoDigits(buf, t.Second)
}

func (t RTCTime) String() string {
	var buf [8]byte
	return string(t.AppendTo(buf[:0]))
}

func (t RTCTime) packed() uint32 {
	return uint32(t.Hour)<<16 | uint32(t.Minute)<<8 | uint32(t.Second)
}

// RTC keeps a mirror of the DS3231 register file. Update schedules an
// asynchronous refresh of the whole mirror; SetTime writes back only the
// registers it changed.
type RTC struct {
	bus *I2CBus

	regs  [rtcRegCount]byte
	dirty uint32 // registers waiting to be written back

	readPending bool
	busy        bool // the RTC owns a queued or active transfer
	reg         uint8
	failed      bool
	refreshes   uint32

	onAddress, onRead, onWrite TransferHandler
}

// NewRTC returns a driver that reaches the clock through bus
func NewRTC(bus *I2CBus) *RTC {
	r := &RTC{bus: bus}
	r.onAddress = r.handleAddress
	r.onRead = r.handleRead
	r.onWrite = r.handleWrite
	return r
}

// Initialize brings the oscillator up through the blocking adapter and then
// fills the mirror. When the clock lost power it is restarted at midnight.
// lostPower reports that the time was reset.
func (r *RTC) Initialize(tx drivers.I2C) (lostPower bool, err error) {
	dev := ds3231.New(tx)
	if !dev.IsRunning() {
		if err := dev.SetRunning(true); err != nil {
			return false, err
		}
		if !dev.IsRunning() {
			return false, ErrRTCStopped
		}
	}
	if !dev.IsTimeValid() {
		lostPower = true
		if err := dev.SetTime(time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)); err != nil {
			return true, err
		}
	}

	r.Update()
	for !r.Idle() {
		r.Poll()
		r.bus.Poll()
	}
	if r.Failed() {
		return lostPower, ErrI2CReadFailed
	}
	return lostPower, nil
}

// Update requests a refresh of the register mirror
func (r *RTC) Update() {
	cs := EnterCritical()
	r.readPending = true
	cs.Exit()
}

// SetTime changes the time of day. The write is queued and happens on a
// later poll; reads in between return the new value.
func (r *RTC) SetTime(t RTCTime) {
	cs := EnterCritical()
	defer cs.Exit()

	r.regs[0] = toBCD(t.Second % 60)
	r.regs[1] = toBCD(t.Minute % 60)
	r.regs[2] = toBCD(t.Hour % 24) // 24 hour mode
	r.dirty |= 0x07
}

// Poll queues the next write-back run or refresh when the RTC has no
// transfer in flight. Write-backs go first.
func (r *RTC) Poll() {
	cs := EnterCritical()
	defer cs.Exit()

	if r.busy {
		return
	}
	if r.dirty != 0 {
		reg := uint8(0)
		for r.dirty&(1<<reg) == 0 {
			reg++
		}
		r.reg = reg
		r.busy = r.bus.RequestTransfer(RTCAddress, true, r.onWrite)
		return
	}
	if r.readPending {
		r.reg = 0
		if r.bus.RequestTransfer(RTCAddress, true, r.onAddress) {
			r.busy = true
			r.readPending = false
		}
	}
}

// Idle reports whether nothing is queued, in flight or waiting to be written
func (r *RTC) Idle() bool {
	cs := EnterCritical()
	defer cs.Exit()
	return !r.busy && !r.readPending && r.dirty == 0
}

// Failed reports whether the last transfer with the clock failed
func (r *RTC) Failed() bool {
	cs := EnterCritical()
	defer cs.Exit()
	return r.failed
}

// Refreshes counts completed mirror refreshes
func (r *RTC) Refreshes() uint32 {
	cs := EnterCritical()
	defer cs.Exit()
	return r.refreshes
}

// Time decodes the time of day from the mirror, accepting either hour mode
func (r *RTC) Time() RTCTime {
	cs := EnterCritical()
	defer cs.Exit()
	return r.timeLocked()
}

func (r *RTC) timeLocked() RTCTime {
	t := RTCTime{
		Second: fromBCD(r.regs[0] & 0x7F),
		Minute: fromBCD(r.regs[1] & 0x7F),
	}
	hour := r.regs[2]
	if hour&0x40 != 0 {
		t.Hour = fromBCD(hour & 0x1F)
		if t.Hour == 12 {
			t.Hour = 0
		}
		if hour&0x20 != 0 {
			t.Hour += 12
		}
	} else {
		t.Hour = fromBCD(hour & 0x3F)
	}
	return t
}

// Temperature returns the sensor reading in quarter degrees Celsius
func (r *RTC) Temperature() int16 {
	cs := EnterCritical()
	defer cs.Exit()
	return int16(int8(r.regs[ds3231.REG_TEMP]))*4 + int16(r.regs[ds3231.REG_TEMP+1]>>6)
}

// AppendTemperature appends a quarter degree reading as degrees with two
// decimals, e.g. "23.25"
func AppendTemperature(buf []byte, quarters int16) []byte {
	if quarters < 0 {
		buf = append(buf, '-')
		quarters = -quarters
	}
	buf = append(buf, utoa(uint32(quarters/4))...)
	buf = append(buf, '.')
	return appendTwoDigits(buf, uint8(quarters%4)*25)
}

// handleAddress sets the register pointer to 0, then chains the read
func (r *RTC) handleAddress(status TransferStatus, _ byte) bool {
	switch status {
	case TransmitReady:
		r.bus.TransmitByte(r.reg)
		return true
	case ByteTransmitted:
		r.bus.RequestInstantTransfer(RTCAddress, false, r.onRead)
		return false
	}
	r.complete(true)
	return false
}

func (r *RTC) handleRead(status TransferStatus, data byte) bool {
	switch status {
	case ReceiveReady:
		return true
	case ByteReceived, LastByteReceived:
		// Registers with a pending write keep the value we set
		if r.dirty&(1<<r.reg) == 0 {
			r.regs[r.reg] = data
		}
		if status == LastByteReceived {
			r.complete(false)
			return false
		}
		r.reg++
		if r.reg == rtcRegCount-1 {
			r.bus.Nack()
		}
		return true
	}
	r.complete(true)
	return false
}

// handleWrite sends the register pointer followed by one contiguous run of
// dirty registers
func (r *RTC) handleWrite(status TransferStatus, _ byte) bool {
	switch status {
	case TransmitReady:
		r.bus.TransmitByte(r.reg)
		return true
	case ByteTransmitted:
		if r.reg < rtcRegCount && r.dirty&(1<<r.reg) != 0 {
			r.dirty &^= 1 << r.reg
			r.bus.TransmitByte(r.regs[r.reg])
			r.reg++
			return true
		}
		r.busy = false
		r.failed = false
		return false
	}
	// Give up on the write; the next refresh shows what the clock holds
	r.dirty = 0
	r.busy = false
	r.failed = true
	return false
}

func (r *RTC) complete(failed bool) {
	r.busy = false
	r.failed = failed
	var flag uint32
	if failed {
		flag = 1
	} else {
		r.refreshes++
	}
	RecordTrace(EvtRTCRead, uint8(RTCAddress), r.timeLocked().packed(), flag)
}

func toBCD(v uint8) uint8 {
	return v/10<<4 | v%10
}

func fromBCD(v uint8) uint8 {
	return v>>4*10 + v&0x0F
}
