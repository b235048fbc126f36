//go:build avr

package main

import (
	"errors"
	"machine"

	"hydroponics/core"
)

var errNoSuchChannel = errors.New("pwm: no such channel")

// pwmPeripheral is the part of TinyGo's timer PWM the driver needs
type pwmPeripheral interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

// Timer1 belongs to the scheduler tick and Timer0 to the runtime, so the
// outputs are Timer2's: channel 0 on D3, channel 1 on D11.
var pwmPins = [...]machine.Pin{machine.PD3, machine.PB3}

type pwm struct {
	timer    pwmPeripheral
	channels [len(pwmPins)]uint8
}

var _ core.PWMDriver = (*pwm)(nil)

func newPWM() *pwm {
	return &pwm{timer: machine.Timer2}
}

func (d *pwm) ConfigurePWM(ch core.PWMChannel) error {
	if int(ch) >= len(pwmPins) {
		return errNoSuchChannel
	}
	if err := d.timer.Configure(machine.PWMConfig{}); err != nil {
		return err
	}
	c, err := d.timer.Channel(pwmPins[ch])
	if err != nil {
		return err
	}
	d.channels[ch] = c
	d.timer.Set(c, 0)
	return nil
}

func (d *pwm) SetDuty(ch core.PWMChannel, duty uint8) {
	if int(ch) >= len(pwmPins) {
		return
	}
	d.timer.Set(d.channels[ch], uint32(duty)*d.timer.Top()/core.PWMMax)
}
