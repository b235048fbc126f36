package core

import "tinygo.org/x/drivers/ssd1306"

// SSD1306 128x64 OLED on the shared bus. Initialization, sleep changes and
// graphics output are all bus transfers started from Poll; nothing here
// waits for the bus.

const (
	// 0x3C with SA0 low. The driver package names it after the 128x32
	// panel but the 128x64 module strap is the same.
	DisplayAddress = I2CAddress(ssd1306.Address_128_32)
	DisplayWidth   = 128
	DisplayPages   = 8 // rows of 8 pixels

	DisplayQueueSize = 8
)

// Control bytes. Co=1 means one byte of the given kind follows; Co=0 starts
// a stream that runs to the end of the transfer.
const (
	ctrlCommand       = 0x80
	ctrlCommandStream = 0x00
	ctrlDataStream    = 0x40
)

// DisplayState is the life cycle of the panel driver
type DisplayState uint8

const (
	DisplayInitial DisplayState = iota
	DisplayInitializing
	DisplayReady
	DisplayFailure
)

func (s DisplayState) String() string {
	switch s {
	case DisplayInitial:
		return "INITIAL"
	case DisplayInitializing:
		return "INITIALIZING"
	case DisplayReady:
		return "READY"
	case DisplayFailure:
		return "FAILURE"
	}
	return "UNKNOWN"
}

// displayInit is sent one command per transfer
var displayInit = [...][]byte{
	{ssd1306.DISPLAYOFF},
	{ssd1306.SETDISPLAYCLOCKDIV, 0x80},
	{ssd1306.SETMULTIPLEX, 0x3F},
	{ssd1306.SETDISPLAYOFFSET, 0x00},
	{ssd1306.SETSTARTLINE | 0x00},
	{ssd1306.CHARGEPUMP, 0x14},
	{ssd1306.MEMORYMODE, 0x00}, // horizontal addressing
	{ssd1306.SEGREMAP | 0x01},
	{ssd1306.COMSCANDEC},
	{ssd1306.SETCOMPINS, 0x12},
	{ssd1306.SETCONTRAST, 0xCF},
	{ssd1306.SETPRECHARGE, 0xF1},
	{ssd1306.SETVCOMDETECT, 0x40},
	{ssd1306.DISPLAYALLON_RESUME},
	{ssd1306.NORMALDISPLAY},
	{ssd1306.DISPLAYON},
}

var (
	cmdDisplayOff = []byte{ssd1306.DISPLAYOFF}
	cmdDisplayOn  = []byte{ssd1306.DISPLAYON}
)

// Viewport is an inclusive rectangle of columns and pages
type Viewport struct {
	MinCol, MaxCol   uint8
	MinPage, MaxPage uint8
}

// FullScreen covers the whole panel
var FullScreen = Viewport{MaxCol: DisplayWidth - 1, MaxPage: DisplayPages - 1}

func (v Viewport) valid() bool {
	return v.MinCol <= v.MaxCol && v.MaxCol < DisplayWidth &&
		v.MinPage <= v.MaxPage && v.MaxPage < DisplayPages
}

// Bytes returns the number of data bytes that fill the viewport
func (v Viewport) Bytes() int {
	return (int(v.MaxCol-v.MinCol) + 1) * (int(v.MaxPage-v.MinPage) + 1)
}

// GraphicsProvider returns the 8 vertical pixels at col, page, LSB on top.
// It is called from the bus interrupt in column-then-page order. Returning
// false ends the output early and leaves the rest of the viewport as it was.
type GraphicsProvider func(col, page uint8) (byte, bool)

// OutputDone is told whether an output reached the panel. It runs from the
// bus interrupt.
type OutputDone func(ok bool)

type outputRequest struct {
	vp       Viewport
	provider GraphicsProvider
	done     OutputDone
}

// Display drives the panel
type Display struct {
	bus *I2CBus

	state    DisplayState
	initStep uint8
	busy     bool

	cmd    []byte
	cmdPos uint8

	sleepPending  bool
	sleepWanted   bool
	sleepSending  bool
	sleepInFlight bool
	asleep        bool

	queue     [DisplayQueueSize]outputRequest
	qHead     uint8
	qLen      uint8
	window    [7]byte
	windowPos uint8
	col, page uint8

	onCommand, onWindow, onData TransferHandler
}

// NewDisplay returns a driver in the Initial state. The first Poll starts
// initialization.
func NewDisplay(bus *I2CBus) *Display {
	d := &Display{bus: bus}
	d.onCommand = d.handleCommand
	d.onWindow = d.handleWindow
	d.onData = d.handleData
	return d
}

// State returns the current life cycle state
func (d *Display) State() DisplayState {
	cs := EnterCritical()
	defer cs.Exit()
	return d.state
}

// Asleep reports whether the panel is switched off
func (d *Display) Asleep() bool {
	cs := EnterCritical()
	defer cs.Exit()
	return d.asleep
}

// Idle reports whether the driver has nothing in flight or queued
func (d *Display) Idle() bool {
	cs := EnterCritical()
	defer cs.Exit()
	if d.busy || d.qLen != 0 || d.sleepPending {
		return false
	}
	return d.state == DisplayReady || d.state == DisplayFailure
}

// Output queues a transfer of provider's bytes into vp. Returns false when
// the queue is full, the viewport is out of range or the panel has failed.
func (d *Display) Output(vp Viewport, provider GraphicsProvider) bool {
	return d.OutputNotify(vp, provider, nil)
}

// OutputNotify is Output with a completion callback. done is called exactly
// once if the request is accepted.
func (d *Display) OutputNotify(vp Viewport, provider GraphicsProvider, done OutputDone) bool {
	if provider == nil || !vp.valid() {
		return false
	}

	cs := EnterCritical()
	defer cs.Exit()

	if d.state == DisplayFailure || d.qLen == DisplayQueueSize {
		return false
	}
	idx := (d.qHead + d.qLen) % DisplayQueueSize
	d.queue[idx] = outputRequest{vp: vp, provider: provider, done: done}
	d.qLen++
	return true
}

func blank(col, page uint8) (byte, bool) {
	return 0, true
}

// Clear blanks vp
func (d *Display) Clear(vp Viewport) bool {
	return d.Output(vp, blank)
}

// SetSleep switches the panel off or back on. The last request wins.
func (d *Display) SetSleep(sleep bool) {
	cs := EnterCritical()
	defer cs.Exit()
	current := d.asleep
	if d.sleepInFlight {
		current = d.sleepSending
	}
	d.sleepWanted = sleep
	d.sleepPending = sleep != current
}

// Reset drops a failed panel back to Initial so the next Poll initializes it
// again
func (d *Display) Reset() {
	cs := EnterCritical()
	defer cs.Exit()
	if d.state == DisplayFailure && !d.busy {
		d.setState(DisplayInitial)
	}
}

// Poll starts the next transfer: initialization commands, then sleep
// changes, then queued output
func (d *Display) Poll() {
	cs := EnterCritical()
	defer cs.Exit()

	if d.busy {
		return
	}
	switch d.state {
	case DisplayInitial:
		d.initStep = 0
		d.asleep = false
		d.sleepPending = d.sleepWanted
		d.setState(DisplayInitializing)
		fallthrough
	case DisplayInitializing:
		if int(d.initStep) == len(displayInit) {
			d.setState(DisplayReady)
			d.pollReady()
			return
		}
		d.sendCommand(displayInit[d.initStep])
	case DisplayReady:
		d.pollReady()
	}
}

func (d *Display) pollReady() {
	if d.sleepPending {
		d.sleepSending = d.sleepWanted
		cmd := cmdDisplayOn
		if d.sleepWanted {
			cmd = cmdDisplayOff
		}
		if d.sendCommand(cmd) {
			d.sleepPending = false
			d.sleepInFlight = true
		}
		return
	}
	if d.qLen == 0 {
		return
	}

	vp := d.queue[d.qHead].vp
	d.window = [7]byte{
		ctrlCommandStream,
		ssd1306.COLUMNADDR, vp.MinCol, vp.MaxCol,
		ssd1306.PAGEADDR, vp.MinPage, vp.MaxPage,
	}
	d.windowPos = 0
	d.col, d.page = vp.MinCol, vp.MinPage
	d.busy = d.bus.RequestTransfer(DisplayAddress, true, d.onWindow)
}

func (d *Display) sendCommand(cmd []byte) bool {
	d.cmd = cmd
	d.cmdPos = 0
	d.busy = d.bus.RequestTransfer(DisplayAddress, true, d.onCommand)
	return d.busy
}

func (d *Display) setState(s DisplayState) {
	d.state = s
	RecordTrace(EvtDisplayState, uint8(DisplayAddress), uint32(s), 0)
}

// handleCommand sends every command byte behind its own control byte
func (d *Display) handleCommand(status TransferStatus, _ byte) bool {
	switch status {
	case TransmitReady, ByteTransmitted:
		if int(d.cmdPos) < 2*len(d.cmd) {
			if d.cmdPos%2 == 0 {
				d.bus.TransmitByte(ctrlCommand)
			} else {
				d.bus.TransmitByte(d.cmd[d.cmdPos/2])
			}
			d.cmdPos++
			return true
		}
		d.busy = false
		if d.state == DisplayInitializing {
			d.initStep++
		} else if d.sleepInFlight {
			d.asleep = d.sleepSending
			d.sleepInFlight = false
		}
		return false
	}
	d.fail()
	return false
}

// handleWindow sets the column and page range, then chains the data stream
func (d *Display) handleWindow(status TransferStatus, _ byte) bool {
	switch status {
	case TransmitReady, ByteTransmitted:
		if int(d.windowPos) < len(d.window) {
			d.bus.TransmitByte(d.window[d.windowPos])
			d.windowPos++
			return true
		}
		d.bus.RequestInstantTransfer(DisplayAddress, true, d.onData)
		return false
	}
	d.fail()
	return false
}

func (d *Display) handleData(status TransferStatus, _ byte) bool {
	switch status {
	case TransmitReady:
		d.bus.TransmitByte(ctrlDataStream)
		return true
	case ByteTransmitted:
		req := &d.queue[d.qHead]
		if d.page <= req.vp.MaxPage {
			if data, ok := req.provider(d.col, d.page); ok {
				d.bus.TransmitByte(data)
				d.col++
				if d.col > req.vp.MaxCol {
					d.col = req.vp.MinCol
					d.page++
				}
				return true
			}
		}
		d.busy = false
		d.popOutput(true)
		return false
	}
	d.fail()
	return false
}

func (d *Display) popOutput(ok bool) {
	req := d.queue[d.qHead]
	d.queue[d.qHead] = outputRequest{}
	d.qHead = (d.qHead + 1) % DisplayQueueSize
	d.qLen--
	if req.done != nil {
		req.done(ok)
	}
}

// fail is terminal until Reset: queued output is dropped
func (d *Display) fail() {
	d.busy = false
	d.sleepPending = false
	d.sleepInFlight = false
	for d.qLen > 0 {
		d.popOutput(false)
	}
	d.setState(DisplayFailure)
}
