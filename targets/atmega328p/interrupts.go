//go:build avr

package main

import (
	"device/avr"
	"runtime/interrupt"
)

func initInterrupts() {
	interrupt.New(avr.IRQ_TIMER1_COMPA, handleTimer)
	interrupt.New(avr.IRQ_TWI, handleTWI)
	interrupt.New(avr.IRQ_ADC, handleADC)
}

func enableInterrupts() {
	avr.Asm("sei")
}

func handleTimer(interrupt.Interrupt) {
	fw.TimerInterrupt()
}

func handleTWI(interrupt.Interrupt) {
	fw.BusInterrupt()
	// TWINT is level triggered; a status nobody answered would re-enter
	if avr.TWCR.HasBits(avr.TWCR_TWINT) {
		avr.TWCR.ClearBits(avr.TWCR_TWIE)
	}
}

func handleADC(interrupt.Interrupt) {
	fw.ADCInterrupt()
}
