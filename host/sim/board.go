package sim

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers/tester"

	"hydroponics/app"
	"hydroponics/core"
)

// Default simulated sensor readings
const (
	DefaultLightReading       = 512
	DefaultTemperatureReading = 352 // internal sensor, roughly 25C
	DefaultADCTime            = 104 * time.Microsecond
)

// settleLimit bounds the loop iterations Step runs per tick
const settleLimit = 1000

// Options configures a Board. The zero value is a deterministic board: real
// clock for the RTC, instantaneous bus and converter.
type Options struct {
	Clock    clockwork.Clock
	BusClock physic.Frequency
	ADCTime  time.Duration

	// Speed multiplies the tick rate in Run
	Speed float64

	// Time is the RTC's initial time of day, default the clock's now
	Time      time.Time
	LostPower bool

	NoDisplay bool
	NoRTC     bool
	Pins      *app.Pins
	Failer    tester.Failer
	Trace     app.TraceSink
}

// Board is the simulated controller: firmware plus peripherals
type Board struct {
	Clock clockwork.Clock
	TWI   *TWI
	ADC   *ADC
	GPIO  *GPIO
	PWM   *PWM
	RTC   *DS3231
	Panel *Panel

	Firmware *app.Firmware
	Pins     app.Pins

	speed float64
}

// NewBoard builds the peripherals and the firmware on top of them
func NewBoard(opts Options) (*Board, error) {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Failer == nil {
		opts.Failer = PanicFailer{}
	}
	if opts.Time.IsZero() {
		opts.Time = opts.Clock.Now()
	}
	if opts.Speed <= 0 {
		opts.Speed = 1
	}
	pins := app.DefaultPins
	if opts.Pins != nil {
		pins = *opts.Pins
	}

	b := &Board{
		Clock: opts.Clock,
		TWI:   NewTWI(opts.Clock, opts.BusClock),
		ADC:   NewADC(opts.Clock, opts.ADCTime),
		GPIO:  NewGPIO(),
		PWM:   NewPWM(),
		RTC:   NewDS3231(opts.Failer, opts.Clock, opts.Time, opts.LostPower),
		Panel: NewPanel(uint8(core.DisplayAddress)),
		Pins:  pins,
		speed: opts.Speed,
	}
	if !opts.NoRTC {
		b.TWI.Attach(b.RTC)
	}
	b.TWI.Attach(b.Panel)
	b.Panel.Absent = opts.NoDisplay
	b.ADC.SetValue(pins.LightSensor, DefaultLightReading)
	b.ADC.SetValue(core.ADCChannelTemperature, DefaultTemperatureReading)

	fw, err := app.New(app.Hardware{
		I2C:   b.TWI,
		ADC:   b.ADC,
		GPIO:  b.GPIO,
		PWM:   b.PWM,
		Pins:  pins,
		Trace: opts.Trace,
	})
	if err != nil {
		return nil, err
	}
	b.Firmware = fw
	b.TWI.SetInterruptHandler(fw.BusInterrupt)
	b.ADC.SetInterruptHandler(fw.ADCInterrupt)
	return b, nil
}

// Start runs the firmware's blocking startup
func (b *Board) Start() error {
	return b.Firmware.Start()
}

// Step delivers n ticks. After each the loop runs until the firmware has
// nothing in flight. Only for boards with an instantaneous bus and
// converter that are not running.
func (b *Board) Step(n int) {
	for i := 0; i < n; i++ {
		b.Firmware.TimerInterrupt()
		b.settle()
	}
}

func (b *Board) settle() {
	b.Firmware.Scheduler.Iterate()
	for i := 0; i < settleLimit && !b.Firmware.Quiet(); i++ {
		b.Firmware.Scheduler.Iterate()
	}
}

// PressButton holds the button down for d of simulated ticks
func (b *Board) PressButton(d time.Duration) {
	b.GPIO.Drive(b.Pins.Button, false)
	b.Step(int(d / core.TickPeriod))
	b.GPIO.Drive(b.Pins.Button, true)
	b.Step(int(core.TaskDelayMS(core.ButtonJitterMS)) + 1)
}

// Run drives the firmware in real time, ticking from the board clock, until
// ctx is done. The CPU halts between interrupts.
func (b *Board) Run(ctx context.Context) error {
	period := time.Duration(float64(core.TickPeriod) / b.speed)
	ticker := b.Clock.NewTicker(period)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				// wake the halted loop so it sees the cancellation
				core.RaiseInterrupt(func() {})
				return
			case <-ticker.Chan():
				core.RaiseInterrupt(b.Firmware.TimerInterrupt)
			}
		}
	}()

	b.Firmware.Scheduler.SetHalt(core.WaitForInterrupt)
	defer b.Firmware.Scheduler.SetHalt(nil)
	for ctx.Err() == nil {
		b.Firmware.Scheduler.Iterate()
	}
	return ctx.Err()
}

// Inspect runs fn in interrupt context on the loop goroutine and waits for
// it, so peripheral state can be read safely while Run is active.
func (b *Board) Inspect(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	core.RaiseInterrupt(func() {
		fn()
		close(done)
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
