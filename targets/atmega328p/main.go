//go:build avr

// Firmware entry point for an ATmega328P board (Arduino Uno pinout): DS3231
// and SSD1306 on the TWI bus, light sensor on A0, LED D13, beeper D8, button
// D2, light driver on D3.
package main

import (
	"hydroponics/app"
	"hydroponics/core"
)

// fw is reached from the interrupt vectors
var fw *app.Firmware

func main() {
	initUART()
	initSleep()

	var err error
	fw, err = app.New(app.Hardware{
		I2C:   newTWI(),
		ADC:   newADC(),
		GPIO:  newGPIO(),
		PWM:   newPWM(),
		Pins:  app.DefaultPins,
		Halt:  halt,
		Trace: writeTrace,
	})
	if err != nil {
		core.DebugPrintln("[BOOT] " + err.Error())
		for {
			halt()
		}
	}

	initInterrupts()
	initClock()
	enableInterrupts()

	// Start logs its own failure; a missing clock module leaves the
	// failure pattern running
	_ = fw.Start()
	fw.Run()
}
