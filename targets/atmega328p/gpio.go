//go:build avr

package main

import (
	"errors"
	"machine"

	"hydroponics/core"
)

var errNoSuchPin = errors.New("gpio: no such pin")

// arduinoPins maps board pin numbers D0-D13 to port pins
var arduinoPins = [...]machine.Pin{
	machine.PD0, machine.PD1, machine.PD2, machine.PD3,
	machine.PD4, machine.PD5, machine.PD6, machine.PD7,
	machine.PB0, machine.PB1, machine.PB2, machine.PB3,
	machine.PB4, machine.PB5,
}

type gpio struct{}

var _ core.GPIODriver = gpio{}

func newGPIO() gpio {
	return gpio{}
}

func (gpio) ConfigureOutput(pin core.GPIOPin) error {
	if int(pin) >= len(arduinoPins) {
		return errNoSuchPin
	}
	p := arduinoPins[pin]
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Low()
	return nil
}

func (gpio) ConfigureInputPullUp(pin core.GPIOPin) error {
	if int(pin) >= len(arduinoPins) {
		return errNoSuchPin
	}
	arduinoPins[pin].Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	return nil
}

func (gpio) SetPin(pin core.GPIOPin, value bool) {
	if int(pin) < len(arduinoPins) {
		arduinoPins[pin].Set(value)
	}
}

func (gpio) ReadPin(pin core.GPIOPin) bool {
	if int(pin) >= len(arduinoPins) {
		return false
	}
	return arduinoPins[pin].Get()
}
