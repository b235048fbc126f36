package core

// Button timing
const (
	ButtonJitterMS    = 100
	ButtonLongPressMS = 1000
)

// ButtonEvent is reported to the button's handler
type ButtonEvent uint8

const (
	ButtonPress     ButtonEvent = 1 // released before the long press time
	ButtonLongPress ButtonEvent = 2 // held for the long press time; no press follows
)

// Button debounces an active-low push button sampled every tick
type Button struct {
	pin     GPIOPin
	clock   *TickClock
	handler func(ButtonEvent)

	raw       bool
	since     uint32
	pressed   bool
	longFired bool
}

// NewButton configures pin with its pull-up and starts sampling on s
func NewButton(s *Scheduler, pin GPIOPin, handler func(ButtonEvent)) (*Button, error) {
	if err := MustGPIO().ConfigureInputPullUp(pin); err != nil {
		return nil, err
	}
	b := &Button{pin: pin, clock: s.Clock(), handler: handler}
	if _, err := s.ScheduleTask(b.sample, 1); err != nil {
		return nil, err
	}
	return b, nil
}

// Pressed reports the debounced state
func (b *Button) Pressed() bool {
	return b.pressed
}

func (b *Button) sample() uint16 {
	raw := !MustGPIO().ReadPin(b.pin)
	now := b.clock.Ticks()
	if raw != b.raw {
		b.raw = raw
		b.since = now
		return 1
	}

	held := now - b.since
	switch {
	case raw && !b.pressed && held >= uint32(TaskDelayMS(ButtonJitterMS)):
		b.pressed = true
		b.longFired = false
	case raw && b.pressed && !b.longFired && held >= uint32(TaskDelayMS(ButtonLongPressMS)):
		b.longFired = true
		b.emit(ButtonLongPress)
	case !raw && b.pressed && held >= uint32(TaskDelayMS(ButtonJitterMS)):
		b.pressed = false
		if !b.longFired {
			b.emit(ButtonPress)
		}
	}
	return 1
}

func (b *Button) emit(ev ButtonEvent) {
	RecordTrace(EvtButton, uint8(b.pin), uint32(ev), 0)
	if b.handler != nil {
		b.handler(ev)
	}
}
