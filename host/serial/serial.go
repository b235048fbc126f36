// Package serial connects host tools to the controller's trace link.
package serial

import (
	"io"
)

// DefaultBaud matches the firmware's UART setup
const DefaultBaud = 57600

// Port is an open trace link. Besides a local device it can be any byte
// stream, such as a capture file replayed through the monitor.
type Port interface {
	io.ReadWriteCloser

	// Flush drops data buffered by the driver
	Flush() error
}

// Config selects the device and line settings
type Config struct {
	Device string
	Baud   int

	// ReadTimeout in milliseconds, 0 blocks until data arrives
	ReadTimeout int
}

// DefaultConfig returns the firmware's line settings for device
func DefaultConfig(device string) *Config {
	return &Config{Device: device, Baud: DefaultBaud}
}
