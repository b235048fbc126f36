package core

// Status LED blink patterns. Each bit is one step of PatternStepMS, LSB
// first.
const (
	PatternOff     uint16 = 0x0000
	PatternStandby uint16 = 0x0001 // short flash every 1.6s
	PatternBusy    uint16 = 0x0505
	PatternFailure uint16 = 0x00FF // slow blink

	PatternStepMS = 100
)

// Pattern plays 16-step on/off sequences on a GPIO pin
type Pattern struct {
	pin     GPIOPin
	pattern uint16
	repeat  bool
	step    uint8
	task    TaskID
}

// NewPattern configures pin and starts the pattern task on s
func NewPattern(s *Scheduler, pin GPIOPin) (*Pattern, error) {
	if err := MustGPIO().ConfigureOutput(pin); err != nil {
		return nil, err
	}
	p := &Pattern{pin: pin}
	id, err := s.ScheduleTask(p.advance, TaskDelayMS(PatternStepMS))
	if err != nil {
		return nil, err
	}
	p.task = id
	return p, nil
}

// Set starts pattern from its first step. A pattern that does not repeat
// plays once and leaves the LED off.
func (p *Pattern) Set(pattern uint16, repeat bool) {
	if p.pattern == pattern && p.repeat == repeat {
		return
	}
	p.pattern = pattern
	p.repeat = repeat
	p.step = 0
}

// Current returns the pattern being played
func (p *Pattern) Current() uint16 {
	return p.pattern
}

func (p *Pattern) advance() uint16 {
	MustGPIO().SetPin(p.pin, p.pattern&(1<<p.step) != 0)
	p.step++
	if p.step == 16 {
		p.step = 0
		if !p.repeat {
			p.pattern = PatternOff
		}
	}
	return TaskDelayMS(PatternStepMS)
}
