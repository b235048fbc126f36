package core

import (
	"testing"
)

// startRTCRead runs the register pointer write and the chained read up to
// the first data byte
func startRTCRead(t *testing.T, bus *I2CBus, ctrl *fakeI2C, rtc *RTC) {
	t.Helper()
	rtc.Update()
	rtc.Poll()
	bus.Poll()
	event(bus, ctrl, HwStartSent, 0)
	event(bus, ctrl, HwSlaWAck, 0)
	event(bus, ctrl, HwDataSentAck, 0)
	event(bus, ctrl, HwRepeatedStartSent, 0)
	event(bus, ctrl, HwSlaRAck, 0)
	if got := ctrl.takeOps(); got != "START W:d0 W:00 START W:d1 R:ACK" {
		t.Fatalf("Unexpected bus sequence: %s", got)
	}
}

// feedRegisters clocks in the whole register file
func feedRegisters(bus *I2CBus, ctrl *fakeI2C, regs [rtcRegCount]byte) {
	for i := 0; i < rtcRegCount-1; i++ {
		event(bus, ctrl, HwDataReceivedAck, regs[i])
	}
	event(bus, ctrl, HwDataReceivedNack, regs[rtcRegCount-1])
}

func TestRTCRefreshDecodesTime(t *testing.T) {
	bus, ctrl, _ := newTestBus()
	rtc := NewRTC(bus)

	var regs [rtcRegCount]byte
	regs[0], regs[1], regs[2] = 0x56, 0x34, 0x12
	regs[0x11], regs[0x12] = 0x19, 0x40

	startRTCRead(t, bus, ctrl, rtc)
	feedRegisters(bus, ctrl, regs)

	if got := ctrl.takeOps(); got[len(got)-11:] != "R:NACK STOP" {
		t.Errorf("Expected NACK then STOP at the end, got %s", got)
	}
	if got := rtc.Time().String(); got != "12:34:56" {
		t.Errorf("Expected 12:34:56, got %s", got)
	}
	if got := rtc.Temperature(); got != 101 {
		t.Errorf("Expected 101 quarter degrees, got %d", got)
	}
	if rtc.Refreshes() != 1 || rtc.Failed() {
		t.Errorf("Expected one good refresh, got %d failed=%v", rtc.Refreshes(), rtc.Failed())
	}
	if !rtc.Idle() {
		t.Error("RTC not idle after refresh")
	}
}

func TestRTCSetTimeWritesDirtyRun(t *testing.T) {
	bus, ctrl, _ := newTestBus()
	rtc := NewRTC(bus)

	rtc.SetTime(RTCTime{Hour: 12, Minute: 34, Second: 56})
	rtc.Poll()
	bus.Poll()
	event(bus, ctrl, HwStartSent, 0)
	event(bus, ctrl, HwSlaWAck, 0)
	for i := 0; i < 4; i++ {
		event(bus, ctrl, HwDataSentAck, 0)
	}

	if got := ctrl.takeOps(); got != "START W:d0 W:00 W:56 W:34 W:12 STOP" {
		t.Errorf("Unexpected bus sequence: %s", got)
	}
	if !rtc.Idle() {
		t.Error("RTC not idle after write-back")
	}
}

func TestRTCReadKeepsPendingWrite(t *testing.T) {
	bus, ctrl, _ := newTestBus()
	rtc := NewRTC(bus)

	startRTCRead(t, bus, ctrl, rtc)
	rtc.SetTime(RTCTime{Hour: 1, Minute: 2, Second: 3})

	var regs [rtcRegCount]byte
	regs[0], regs[1], regs[2] = 0x59, 0x59, 0x23
	feedRegisters(bus, ctrl, regs)

	if got := rtc.Time().String(); got != "01:02:03" {
		t.Errorf("Expected pending 01:02:03 to survive the refresh, got %s", got)
	}
	if rtc.Idle() {
		t.Error("Write-back should still be pending")
	}
}

func TestRTCAddressNackMarksFailure(t *testing.T) {
	bus, ctrl, _ := newTestBus()
	rtc := NewRTC(bus)

	rtc.Update()
	rtc.Poll()
	bus.Poll()
	event(bus, ctrl, HwStartSent, 0)
	event(bus, ctrl, HwSlaWNack, 0)

	if !rtc.Failed() {
		t.Error("Expected failure after address NACK")
	}
	if !rtc.Idle() || !bus.Idle() {
		t.Error("Expected RTC and bus idle after failure")
	}
}

func TestRTCTwelveHourMode(t *testing.T) {
	tests := []struct {
		reg  byte
		hour uint8
	}{
		{0x40 | 0x12, 0},         // 12 AM
		{0x40 | 0x01, 1},         // 1 AM
		{0x40 | 0x20 | 0x12, 12}, // 12 PM
		{0x40 | 0x20 | 0x11, 23}, // 11 PM
		{0x23, 23},
	}

	rtc := NewRTC(nil)
	for _, tt := range tests {
		rtc.regs[2] = tt.reg
		if got := rtc.Time().Hour; got != tt.hour {
			t.Errorf("Register 0x%02x: expected hour %d, got %d", tt.reg, tt.hour, got)
		}
	}
}

func TestAppendTemperature(t *testing.T) {
	tests := []struct {
		quarters int16
		want     string
	}{
		{0, "0.00"},
		{101, "25.25"},
		{-5, "-1.25"},
		{-2, "-0.50"},
		{503, "125.75"},
	}

	for _, tt := range tests {
		if got := string(AppendTemperature(nil, tt.quarters)); got != tt.want {
			t.Errorf("AppendTemperature(%d): expected %s, got %s", tt.quarters, tt.want, got)
		}
	}
}
