package serial

import (
	"errors"
	"fmt"
	"time"

	"github.com/tarm/serial"
)

var ErrNoDevice = errors.New("serial: no device configured")

// devicePort is a Port on a local serial device. Read, Write, Close and
// Flush come straight from the driver.
type devicePort struct {
	*serial.Port
	device string
}

// Open opens the device named by cfg. A timed-out read returns io.EOF.
func Open(cfg *Config) (Port, error) {
	if cfg == nil || cfg.Device == "" {
		return nil, ErrNoDevice
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaud
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        baud,
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Device, err)
	}
	return &devicePort{Port: port, device: cfg.Device}, nil
}

func (p *devicePort) String() string {
	return p.device
}
