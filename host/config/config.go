// Package config loads the host tools' YAML configuration.
package config

import (
	_ "embed"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	"hydroponics/host/serial"
)

//go:embed default.yaml
var defaultYAML []byte

// Config is the complete host configuration
type Config struct {
	Simulation Simulation `yaml:"simulation"`
	Monitor    Monitor    `yaml:"monitor"`
}

// Simulation configures the simulated board. Durations and frequencies are
// strings like "104us" and "400kHz".
type Simulation struct {
	BusClock       string  `yaml:"bus_clock"`
	ADCConversion  string  `yaml:"adc_conversion"`
	Speed          float64 `yaml:"speed"`
	RTCTime        string  `yaml:"rtc_time"` // "now" or HH:MM:SS
	RTCLostPower   bool    `yaml:"rtc_lost_power"`
	Display        *bool   `yaml:"display"`
	LightSensor    uint16  `yaml:"light_sensor"`
	RenderInterval string  `yaml:"render_interval"`
}

// Monitor configures the trace link
type Monitor struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// Load parses YAML configuration and applies defaults
func Load(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration
func Default() *Config {
	cfg, err := Load(defaultYAML)
	if err != nil {
		panic("built-in config: " + err.Error())
	}
	return cfg
}

// applyDefaults fills in missing configuration values with sensible defaults
func applyDefaults(cfg *Config) {
	sim := &cfg.Simulation
	if sim.BusClock == "" {
		sim.BusClock = "100kHz"
	}
	if sim.ADCConversion == "" {
		sim.ADCConversion = "104us"
	}
	if sim.Speed == 0 {
		sim.Speed = 1
	}
	if sim.RTCTime == "" {
		sim.RTCTime = "now"
	}
	if sim.Display == nil {
		on := true
		sim.Display = &on
	}
	if sim.RenderInterval == "" {
		sim.RenderInterval = "1s"
	}

	if cfg.Monitor.Baud == 0 {
		cfg.Monitor.Baud = serial.DefaultBaud
	}
}

// Validate checks that every value parses
func (c *Config) Validate() error {
	if _, err := c.Simulation.BusFrequency(); err != nil {
		return err
	}
	if _, err := c.Simulation.ADCTime(); err != nil {
		return err
	}
	if _, err := c.Simulation.Render(); err != nil {
		return err
	}
	if _, err := c.Simulation.StartTime(time.Now()); err != nil {
		return err
	}
	if c.Simulation.Speed < 0 {
		return fmt.Errorf("simulation.speed must be positive, got %v", c.Simulation.Speed)
	}
	if c.Simulation.LightSensor > 0x3FF {
		return fmt.Errorf("simulation.light_sensor out of 10 bit range: %d", c.Simulation.LightSensor)
	}
	return nil
}

// BusFrequency returns the simulated bus clock. "0" makes the bus
// instantaneous.
func (s *Simulation) BusFrequency() (physic.Frequency, error) {
	if s.BusClock == "0" {
		return 0, nil
	}
	var f physic.Frequency
	if err := f.Set(s.BusClock); err != nil {
		return 0, fmt.Errorf("simulation.bus_clock %q: %w", s.BusClock, err)
	}
	return f, nil
}

// ADCTime returns the simulated conversion time
func (s *Simulation) ADCTime() (time.Duration, error) {
	d, err := time.ParseDuration(s.ADCConversion)
	if err != nil {
		return 0, fmt.Errorf("simulation.adc_conversion %q: %w", s.ADCConversion, err)
	}
	return d, nil
}

// Render returns how often the panel is drawn
func (s *Simulation) Render() (time.Duration, error) {
	d, err := time.ParseDuration(s.RenderInterval)
	if err != nil {
		return 0, fmt.Errorf("simulation.render_interval %q: %w", s.RenderInterval, err)
	}
	return d, nil
}

// StartTime resolves the RTC's initial time of day against now
func (s *Simulation) StartTime(now time.Time) (time.Time, error) {
	if s.RTCTime == "now" {
		return now, nil
	}
	t, err := time.Parse("15:04:05", s.RTCTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("simulation.rtc_time %q: %w", s.RTCTime, err)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), t.Second(), 0, now.Location()), nil
}

// SerialConfig returns the trace link settings
func (m *Monitor) SerialConfig() *serial.Config {
	cfg := serial.DefaultConfig(m.Device)
	cfg.Baud = m.Baud
	return cfg
}
