//go:build avr

package main

import (
	"device/avr"
	"machine"

	"hydroponics/core"
)

// TWIFrequency is the SCL rate in Hz
const TWIFrequency = 400000

// twi drives the two-wire interface one bus action at a time. Every action
// clears TWINT, which hands the bus to the hardware until the next interrupt.
type twi struct{}

var _ core.I2CController = twi{}

func newTWI() twi {
	// prescaler 1
	avr.TWSR.Set(0)
	avr.TWBR.Set(uint8((machine.CPUFrequency()/TWIFrequency - 16) / 2))
	avr.TWCR.Set(avr.TWCR_TWEN)
	return twi{}
}

func (twi) Status() core.HwStatus {
	return core.HwStatus(avr.TWSR.Get() & 0xF8)
}

func (twi) Idle() bool {
	ctrl := avr.TWCR.Get()
	if ctrl&avr.TWCR_TWSTO != 0 {
		// STOP still on the wire
		return false
	}
	return ctrl&avr.TWCR_TWINT != 0 || avr.TWSR.Get()&0xF8 == uint8(core.HwNoState)
}

func (twi) Start() {
	avr.TWCR.Set(avr.TWCR_TWINT | avr.TWCR_TWSTA | avr.TWCR_TWEN | avr.TWCR_TWIE)
}

func (twi) Stop() {
	avr.TWCR.Set(avr.TWCR_TWINT | avr.TWCR_TWSTO | avr.TWCR_TWEN)
}

func (twi) Release() {
	avr.TWCR.Set(avr.TWCR_TWINT | avr.TWCR_TWEN)
}

func (twi) Write(data byte) {
	avr.TWDR.Set(data)
	avr.TWCR.Set(avr.TWCR_TWINT | avr.TWCR_TWEN | avr.TWCR_TWIE)
}

func (twi) Read(ack bool) {
	ctrl := uint8(avr.TWCR_TWINT | avr.TWCR_TWEN | avr.TWCR_TWIE)
	if ack {
		ctrl |= avr.TWCR_TWEA
	}
	avr.TWCR.Set(ctrl)
}

func (twi) Data() byte {
	return avr.TWDR.Get()
}
