//go:build avr

package main

import "device/avr"

// initSleep selects idle mode, which keeps the timers, the TWI and the ADC
// clocked
func initSleep() {
	avr.SMCR.Set(avr.SMCR_SE)
}

// halt is entered with interrupts disabled. The instruction after sei
// always executes before a pending interrupt, so no wakeup is lost between
// the loop's checks and sleep.
func halt() {
	avr.Asm("sei")
	avr.Asm("sleep")
	avr.Asm("cli")
}
