package config

import (
	"testing"
	"time"

	"periph.io/x/conn/v3/physic"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	f, err := cfg.Simulation.BusFrequency()
	if err != nil {
		t.Fatalf("BusFrequency failed: %v", err)
	}
	if f != 100*physic.KiloHertz {
		t.Errorf("Expected 100kHz, got %s", f)
	}
	if d, _ := cfg.Simulation.ADCTime(); d != 104*time.Microsecond {
		t.Errorf("Expected 104us, got %v", d)
	}
	if !*cfg.Simulation.Display {
		t.Error("Expected display enabled by default")
	}
	if cfg.Monitor.Baud != 57600 {
		t.Errorf("Expected baud 57600, got %d", cfg.Monitor.Baud)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load([]byte("simulation:\n  bus_clock: 400kHz\n  display: false\n"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if f, _ := cfg.Simulation.BusFrequency(); f != 400*physic.KiloHertz {
		t.Errorf("Expected 400kHz, got %s", f)
	}
	if *cfg.Simulation.Display {
		t.Error("Expected display disabled")
	}
	if cfg.Simulation.Speed != 1 {
		t.Errorf("Expected default speed 1, got %v", cfg.Simulation.Speed)
	}
	if cfg.Simulation.RTCTime != "now" {
		t.Errorf("Expected default rtc_time now, got %s", cfg.Simulation.RTCTime)
	}
	if cfg.Monitor.Baud != 57600 {
		t.Errorf("Expected default baud, got %d", cfg.Monitor.Baud)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"frequency", "simulation:\n  bus_clock: fast\n"},
		{"duration", "simulation:\n  adc_conversion: soon\n"},
		{"time", "simulation:\n  rtc_time: \"25:00:00\"\n"},
		{"speed", "simulation:\n  speed: -2\n"},
		{"sensor", "simulation:\n  light_sensor: 4096\n"},
		{"syntax", "simulation: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load([]byte(tt.yaml)); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}

func TestStartTime(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	sim := Simulation{RTCTime: "18:30:05"}

	got, err := sim.StartTime(now)
	if err != nil {
		t.Fatalf("StartTime failed: %v", err)
	}
	if got.Format("2006-01-02 15:04:05") != "2024-06-01 18:30:05" {
		t.Errorf("Unexpected start time %v", got)
	}

	sim.RTCTime = "now"
	if got, _ := sim.StartTime(now); !got.Equal(now) {
		t.Errorf("Expected now, got %v", got)
	}
}

func TestInstantBus(t *testing.T) {
	sim := Simulation{BusClock: "0"}
	if f, err := sim.BusFrequency(); err != nil || f != 0 {
		t.Errorf("Expected instantaneous bus, got %s (%v)", f, err)
	}
}
