//go:build avr

package main

import (
	"device/avr"
	"machine"

	"hydroponics/core"
)

// initClock starts Timer1 in CTC mode at the scheduler tick rate:
// compare value = F_CPU / 8 / TickFreq - 1.
func initClock() {
	top := uint16(machine.CPUFrequency()/8/core.TickFreq - 1)

	avr.TCCR1A.Set(0)
	avr.TCNT1H.Set(0)
	avr.TCNT1L.Set(0)
	// high byte first for 16-bit writes
	avr.OCR1AH.Set(uint8(top >> 8))
	avr.OCR1AL.Set(uint8(top))
	avr.TCCR1B.Set(avr.TCCR1B_WGM12 | avr.TCCR1B_CS11)
	avr.TIMSK1.SetBits(avr.TIMSK1_OCIE1A)
}
