package core

// Actuator is a PWM driven load such as the grow light
type Actuator struct {
	id    uint8
	ch    PWMChannel
	level uint8
}

// NewActuator configures ch and switches the load off
func NewActuator(id uint8, ch PWMChannel) (*Actuator, error) {
	if err := MustPWM().ConfigurePWM(ch); err != nil {
		return nil, err
	}
	a := &Actuator{id: id, ch: ch}
	MustPWM().SetDuty(ch, 0)
	return a, nil
}

// SetLevel sets the duty cycle, 0 is off
func (a *Actuator) SetLevel(level uint8) {
	if level == a.level {
		return
	}
	a.level = level
	MustPWM().SetDuty(a.ch, level)
	RecordTrace(EvtActuatorLevel, a.id, uint32(level), 0)
}

// Level returns the last duty cycle set
func (a *Actuator) Level() uint8 {
	return a.level
}

// Toggle switches between off and on
func (a *Actuator) Toggle(on uint8) {
	if a.level == 0 {
		a.SetLevel(on)
	} else {
		a.SetLevel(0)
	}
}
