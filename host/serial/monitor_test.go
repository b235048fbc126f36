package serial

import (
	"bytes"
	"testing"

	"hydroponics/protocol"
)

func traceFrames(t *testing.T, n int) []byte {
	t.Helper()
	var out []byte
	scratch := protocol.NewScratchOutput()
	tr := protocol.NewTransport(scratch)
	for i := 0; i < n; i++ {
		scratch.Reset()
		tr.EncodeFrame(func(output protocol.OutputBuffer) {
			protocol.EncodeTraceEvent(output, &protocol.TraceEvent{
				Type: 9, ID: 0x68, Clock: uint32(i * 40), Value1: 0x0C2238,
			})
		})
		out = append(out, scratch.Result()...)
	}
	return out
}

func TestMonitorDecodesStream(t *testing.T) {
	var clocks []uint32
	m := NewMonitor(func(seq uint8, evt protocol.TraceEvent) {
		clocks = append(clocks, evt.Clock)
		if evt.Value1 != 0x0C2238 {
			t.Errorf("Expected value 0x0C2238, got 0x%x", evt.Value1)
		}
	})

	if err := m.Run(bytes.NewReader(traceFrames(t, 40))); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(clocks) != 40 {
		t.Fatalf("Expected 40 events, got %d", len(clocks))
	}
	for i, c := range clocks {
		if c != uint32(i*40) {
			t.Errorf("Event %d: expected clock %d, got %d", i, i*40, c)
		}
	}
	frames, dropped, lost := m.Stats()
	if frames != 40 || dropped != 0 || lost != 0 {
		t.Errorf("Expected 40/0/0, got %d/%d/%d", frames, dropped, lost)
	}
}

func TestMonitorResyncsAfterGarbage(t *testing.T) {
	count := 0
	m := NewMonitor(func(seq uint8, evt protocol.TraceEvent) { count++ })

	stream := traceFrames(t, 3)
	m.Feed([]byte{0x42, 0x13, 0x99, protocol.MessageSync})
	// byte at a time, like a slow UART
	for _, b := range stream {
		m.Feed([]byte{b})
	}

	if count != 3 {
		t.Errorf("Expected 3 events after resync, got %d", count)
	}
	if _, dropped, _ := m.Stats(); dropped == 0 {
		t.Error("Expected garbage bytes counted as dropped")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	if cfg.Baud != DefaultBaud {
		t.Errorf("Expected baud %d, got %d", DefaultBaud, cfg.Baud)
	}
	if cfg.Device != "/dev/ttyUSB0" {
		t.Errorf("Expected device /dev/ttyUSB0, got %s", cfg.Device)
	}
}

func TestOpenWithoutDevice(t *testing.T) {
	if _, err := Open(nil); err != ErrNoDevice {
		t.Errorf("Expected ErrNoDevice for nil config, got %v", err)
	}
	if _, err := Open(DefaultConfig("")); err != ErrNoDevice {
		t.Errorf("Expected ErrNoDevice for empty device, got %v", err)
	}
}
