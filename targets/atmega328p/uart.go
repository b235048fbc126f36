//go:build avr

package main

import (
	"machine"

	"hydroponics/core"
)

// TraceBaud must match the host monitor
const TraceBaud = 57600

// initUART brings up the trace link. Debug text shares the wire with the
// trace frames and stays off unless tracing is disabled.
func initUART() {
	machine.Serial.Configure(machine.UARTConfig{BaudRate: TraceBaud})
	core.SetDebugWriter(func(msg string) {
		machine.Serial.Write([]byte(msg))
		machine.Serial.Write([]byte("\r\n"))
	})
}

func writeTrace(frame []byte) {
	machine.Serial.Write(frame)
}
