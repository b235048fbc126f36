// Package app assembles the controller firmware from the core drivers. The
// same assembly runs on the microcontroller and in the host simulator; only
// the Hardware bundle differs.
package app

import (
	"image/color"

	"hydroponics/core"
	"hydroponics/protocol"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	RefreshIntervalS        = 1
	DisplayRetryS           = 10
	LightOnLevel            = core.PWMMax
	PatternBeep      uint16 = 0x0001

	// status band on the top two display pages
	statusPages    = 2
	statusBaseline = 11
)

var white = color.RGBA{255, 255, 255, 255}

// Pins maps the firmware's I/O onto the board
type Pins struct {
	LED    core.GPIOPin
	Beeper core.GPIOPin
	Button core.GPIOPin

	Light       core.PWMChannel
	LightSensor core.ADCChannel
}

// DefaultPins is the controller board wiring
var DefaultPins = Pins{
	LED:         13,
	Beeper:      8,
	Button:      2,
	Light:       0,
	LightSensor: 0,
}

// TraceSink receives complete trace frames from poll context
type TraceSink func(frame []byte)

// Hardware is everything target code provides
type Hardware struct {
	I2C  core.I2CController
	ADC  core.ADCController
	GPIO core.GPIODriver
	PWM  core.PWMDriver
	Pins Pins

	// Halt is installed as the scheduler's halt primitive; nil spins
	Halt func()

	// Trace, when set, enables the event trace and receives its frames
	Trace TraceSink
}

// Firmware is the assembled controller
type Firmware struct {
	Scheduler *core.Scheduler
	Bus       *core.I2CBus
	ADC       *core.ADC
	RTC       *core.RTC
	Display   *core.Display
	Status    *core.Canvas
	LED       *core.Pattern
	Beeper    *core.Pattern
	Button    *core.Button
	Light     *core.Actuator

	pins      Pins
	gate      core.SleepGate
	readings  [core.ADCChannelCount]uint16
	line      []byte
	lostPower bool
	failures  uint8

	trace     TraceSink
	scratch   *protocol.ScratchOutput
	transport *protocol.Transport
}

// New registers hw with the core and builds every component. Nothing
// touches the bus until Start.
func New(hw Hardware) (*Firmware, error) {
	core.SetI2CController(hw.I2C)
	core.SetADCController(hw.ADC)
	core.SetGPIODriver(hw.GPIO)
	core.SetPWMDriver(hw.PWM)

	s := core.NewScheduler()
	f := &Firmware{
		Scheduler: s,
		pins:      hw.Pins,
		line:      make([]byte, 0, 24),
	}

	f.Bus = core.NewI2CBus(core.MustI2C(), s)
	f.ADC = core.NewADC(core.MustADC(), s, f.storeReading)
	f.RTC = core.NewRTC(f.Bus)
	f.Display = core.NewDisplay(f.Bus)
	f.Status = core.NewCanvas(f.Display, 0, statusPages)

	var err error
	if f.LED, err = core.NewPattern(s, hw.Pins.LED); err != nil {
		return nil, err
	}
	if f.Beeper, err = core.NewPattern(s, hw.Pins.Beeper); err != nil {
		return nil, err
	}
	if f.Button, err = core.NewButton(s, hw.Pins.Button, f.onButton); err != nil {
		return nil, err
	}
	if f.Light, err = core.NewActuator(1, hw.Pins.Light); err != nil {
		return nil, err
	}

	core.SetTraceClock(s.Clock())
	core.SetTraceEnabled(hw.Trace != nil)
	if hw.Trace != nil {
		f.trace = hw.Trace
		f.scratch = protocol.NewScratchOutput()
		f.transport = protocol.NewTransport(f.scratch)
	}

	f.gate.Register(f.ADC.SleepEnabled)
	s.SetSleepGate(&f.gate)
	s.SetHalt(hw.Halt)

	// Drivers queue their transfers before the bus starts the next one
	s.AddPoller(f.RTC.Poll)
	s.AddPoller(f.Display.Poll)
	s.AddPoller(f.Bus.Poll)
	s.AddPoller(f.ADC.Poll)
	s.AddPoller(f.flushTrace)

	if _, err := s.ScheduleTask(f.refresh, 1); err != nil {
		return nil, err
	}
	f.LED.Set(core.PatternStandby, true)
	f.Display.Clear(core.FullScreen)
	return f, nil
}

// Start runs the blocking RTC setup. Interrupts must already be live since
// it waits for bus transfers to complete.
func (f *Firmware) Start() error {
	lost, err := f.RTC.Initialize(core.NewI2CTx(f.Bus, f.Bus.Poll))
	f.lostPower = lost
	if err != nil {
		core.DebugPrintln("[RTC] init failed: " + err.Error())
		f.LED.Set(core.PatternFailure, true)
		return err
	}
	if lost {
		core.DebugPrintln("[RTC] lost power, time reset")
	}
	return nil
}

// Run hands control to the scheduler. It never returns.
func (f *Firmware) Run() {
	f.Scheduler.Run()
}

// Interrupt entry points for target code
func (f *Firmware) TimerInterrupt() { f.Scheduler.Clock().Tick() }
func (f *Firmware) BusInterrupt()   { f.Bus.HandleInterrupt() }
func (f *Firmware) ADCInterrupt()   { f.ADC.HandleInterrupt() }

// LostPower reports whether the RTC had to be reset at startup
func (f *Firmware) LostPower() bool {
	return f.lostPower
}

// Reading returns the last conversion of ch
func (f *Firmware) Reading(ch core.ADCChannel) uint16 {
	if ch >= core.ADCChannelCount {
		return 0
	}
	cs := core.EnterCritical()
	defer cs.Exit()
	return f.readings[ch]
}

// Quiet reports whether no bus transfer, conversion or display update is
// queued or in flight
func (f *Firmware) Quiet() bool {
	return f.Bus.Idle() && f.RTC.Idle() && f.Display.Idle() && !f.ADC.Busy()
}

// StatusLine returns the text last rendered on the status band
func (f *Firmware) StatusLine() string {
	return string(f.line)
}

func (f *Firmware) storeReading(ch core.ADCChannel, value uint16) {
	f.readings[ch] = value
}

func (f *Firmware) refresh() uint16 {
	f.RTC.Update()
	f.ADC.ScheduleConversion(f.pins.LightSensor)
	f.ADC.ScheduleConversion(core.ADCChannelTemperature)

	if f.Display.State() == core.DisplayFailure {
		f.failures++
		if f.failures >= DisplayRetryS/RefreshIntervalS {
			f.failures = 0
			f.Display.Reset()
		}
	}

	f.renderStatus()
	f.updateLED()
	return core.TaskDelayS(RefreshIntervalS)
}

// renderStatus draws the clock and RTC temperature into the status band.
// A frame still in flight is not overwritten.
func (f *Firmware) renderStatus() {
	if f.Display.Asleep() || f.Status.Busy() {
		return
	}

	f.line = f.RTC.Time().AppendTo(f.line[:0])
	f.line = append(f.line, ' ')
	f.line = core.AppendTemperature(f.line, f.RTC.Temperature())
	f.line = append(f.line, 'C')

	f.Status.Clear()
	tinyfont.WriteLine(f.Status, &proggy.TinySZ8pt7b, 0, statusBaseline, string(f.line), white)
	f.Status.Display()
}

func (f *Firmware) updateLED() {
	if f.RTC.Failed() || f.Display.State() == core.DisplayFailure {
		f.LED.Set(core.PatternFailure, true)
	} else {
		f.LED.Set(core.PatternStandby, true)
	}
}

func (f *Firmware) onButton(ev core.ButtonEvent) {
	switch ev {
	case core.ButtonPress:
		f.Light.Toggle(LightOnLevel)
		f.Beeper.Set(PatternBeep, false)
	case core.ButtonLongPress:
		f.Display.SetSleep(!f.Display.Asleep())
		f.Beeper.Set(PatternBeep|PatternBeep<<2, false)
	}
}

// flushTrace sends at most one frame of trace events per loop iteration
func (f *Firmware) flushTrace() {
	if f.trace == nil || core.TracePending() == 0 {
		return
	}
	f.scratch.Reset()
	f.transport.EncodeFrame(func(output protocol.OutputBuffer) {
		core.DrainTrace(output, protocol.MessageMax-protocol.MessageHeader-protocol.MessageTrailer)
	})
	f.trace(f.scratch.Result())
}
