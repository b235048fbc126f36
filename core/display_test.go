package core

import (
	"fmt"
	"image/color"
	"testing"
)

// runWrites plays an always-ACKing bus until nothing more is started and
// returns the bytes of every addressed transfer, address byte first. poll
// is the device driver's poll function.
func runWrites(bus *I2CBus, f *fakeI2C, poll func()) [][]byte {
	var transfers [][]byte
	for i := 0; i < 100000; i++ {
		poll()
		bus.Poll()
		if len(f.ops) == 0 {
			return transfers
		}
		for len(f.ops) > 0 {
			op := f.ops[0]
			f.ops = f.ops[1:]
			switch {
			case op == "START":
				transfers = append(transfers, nil)
				event(bus, f, HwStartSent, 0)
			case op[:2] == "W:":
				var b byte
				fmt.Sscanf(op, "W:%02x", &b)
				cur := &transfers[len(transfers)-1]
				status := HwDataSentAck
				if len(*cur) == 0 {
					status = HwSlaWAck
				}
				*cur = append(*cur, b)
				event(bus, f, status, 0)
			}
		}
	}
	return transfers
}

func initDisplay(t *testing.T) (*Display, *I2CBus, *fakeI2C) {
	t.Helper()
	bus, ctrl, _ := newTestBus()
	d := NewDisplay(bus)
	transfers := runWrites(bus, ctrl, d.Poll)
	if len(transfers) != len(displayInit) {
		t.Fatalf("Expected %d init transfers, got %d", len(displayInit), len(transfers))
	}
	if d.State() != DisplayReady {
		t.Fatalf("Expected READY after init, got %v", d.State())
	}
	return d, bus, ctrl
}

func TestDisplayInitSequence(t *testing.T) {
	bus, ctrl, _ := newTestBus()
	d := NewDisplay(bus)
	transfers := runWrites(bus, ctrl, d.Poll)

	if len(transfers) == 0 || transfers[0][0] != 0x78 {
		t.Fatalf("Expected the panel at 0x3C (address byte 0x78), got %v", transfers)
	}
	for i, cmd := range displayInit {
		want := []byte{byte(DisplayAddress) << 1}
		for _, b := range cmd {
			want = append(want, ctrlCommand, b)
		}
		if fmt.Sprint(transfers[i]) != fmt.Sprint(want) {
			t.Errorf("Init step %d: expected % x, got % x", i, want, transfers[i])
		}
	}
	if !d.Idle() {
		t.Error("Display not idle after init")
	}
}

func TestDisplayOutputStreamsViewport(t *testing.T) {
	d, bus, ctrl := initDisplay(t)

	vp := Viewport{MinCol: 10, MaxCol: 12, MinPage: 2, MaxPage: 3}
	calls := 0
	ok := d.Output(vp, func(col, page uint8) (byte, bool) {
		calls++
		return col + page, true
	})
	if !ok {
		t.Fatal("Output rejected on an empty queue")
	}

	transfers := runWrites(bus, ctrl, d.Poll)
	if len(transfers) != 2 {
		t.Fatalf("Expected window and data transfers, got %d", len(transfers))
	}
	window := []byte{0x78, ctrlCommandStream, 0x21, 10, 12, 0x22, 2, 3}
	if fmt.Sprint(transfers[0]) != fmt.Sprint(window) {
		t.Errorf("Expected window % x, got % x", window, transfers[0])
	}
	data := []byte{0x78, ctrlDataStream, 12, 13, 14, 13, 14, 15}
	if fmt.Sprint(transfers[1]) != fmt.Sprint(data) {
		t.Errorf("Expected data % x, got % x", data, transfers[1])
	}
	if calls != vp.Bytes() {
		t.Errorf("Expected %d provider calls, got %d", vp.Bytes(), calls)
	}
}

func TestDisplayProviderEndsEarly(t *testing.T) {
	d, bus, ctrl := initDisplay(t)

	n := 0
	d.Output(FullScreen, func(col, page uint8) (byte, bool) {
		n++
		return 0xFF, n <= 3
	})
	transfers := runWrites(bus, ctrl, d.Poll)
	if got := len(transfers[1]); got != 2+3 {
		t.Errorf("Expected 3 data bytes, got %d", got-2)
	}
	if !d.Idle() {
		t.Error("Display not idle after short output")
	}
}

func TestDisplayQueueLimit(t *testing.T) {
	bus, _, _ := newTestBus()
	d := NewDisplay(bus)

	for i := 0; i < DisplayQueueSize; i++ {
		if !d.Clear(FullScreen) {
			t.Fatalf("Output %d rejected", i)
		}
	}
	if d.Clear(FullScreen) {
		t.Error("Expected queue full")
	}
	if d.Output(Viewport{MaxCol: DisplayWidth, MaxPage: 0}, blank) {
		t.Error("Expected out of range viewport rejected")
	}
}

func TestDisplaySleepToggle(t *testing.T) {
	d, bus, ctrl := initDisplay(t)

	d.SetSleep(true)
	transfers := runWrites(bus, ctrl, d.Poll)
	if len(transfers) != 1 || fmt.Sprint(transfers[0]) != fmt.Sprint([]byte{0x78, 0x80, 0xAE}) {
		t.Errorf("Expected DISPLAYOFF, got % x", transfers)
	}
	if !d.Asleep() {
		t.Error("Expected display asleep")
	}

	d.SetSleep(true)
	if transfers := runWrites(bus, ctrl, d.Poll); len(transfers) != 0 {
		t.Errorf("Repeated sleep request sent %d transfers", len(transfers))
	}

	d.SetSleep(false)
	transfers = runWrites(bus, ctrl, d.Poll)
	if len(transfers) != 1 || fmt.Sprint(transfers[0]) != fmt.Sprint([]byte{0x78, 0x80, 0xAF}) {
		t.Errorf("Expected DISPLAYON, got % x", transfers)
	}
	if d.Asleep() {
		t.Error("Expected display awake")
	}
}

func TestDisplayFailureOnNack(t *testing.T) {
	bus, ctrl, _ := newTestBus()
	d := NewDisplay(bus)

	var dropped []bool
	d.OutputNotify(FullScreen, blank, func(ok bool) { dropped = append(dropped, ok) })

	d.Poll()
	bus.Poll()
	event(bus, ctrl, HwStartSent, 0)
	event(bus, ctrl, HwSlaWNack, 0)

	if d.State() != DisplayFailure {
		t.Fatalf("Expected FAILURE, got %v", d.State())
	}
	if len(dropped) != 1 || dropped[0] {
		t.Errorf("Expected queued output dropped once, got %v", dropped)
	}
	if d.Clear(FullScreen) {
		t.Error("Failed display accepted output")
	}

	d.Reset()
	if d.State() != DisplayInitial {
		t.Errorf("Expected INITIAL after reset, got %v", d.State())
	}
}

func TestCanvasFlush(t *testing.T) {
	d, bus, ctrl := initDisplay(t)
	c := NewCanvas(d, 0, 2)

	if w, h := c.Size(); w != 128 || h != 16 {
		t.Fatalf("Expected 128x16, got %dx%d", w, h)
	}

	white := color.RGBA{255, 255, 255, 255}
	c.SetPixel(0, 0, white)
	c.SetPixel(1, 9, white)
	c.SetPixel(200, 0, white)
	if !c.Pixel(1, 9) || c.Pixel(1, 8) {
		t.Error("Pixel readback mismatch")
	}

	if err := c.Display(); err != nil {
		t.Fatalf("Display failed: %v", err)
	}
	if err := c.Display(); err != ErrDisplayBusy {
		t.Errorf("Expected ErrDisplayBusy while flushing, got %v", err)
	}

	transfers := runWrites(bus, ctrl, d.Poll)
	data := transfers[1][2:]
	if len(data) != 2*DisplayWidth {
		t.Fatalf("Expected %d data bytes, got %d", 2*DisplayWidth, len(data))
	}
	if data[0] != 0x01 || data[DisplayWidth+1] != 0x02 {
		t.Errorf("Unexpected pixel bytes %02x %02x", data[0], data[DisplayWidth+1])
	}
	if c.Busy() || c.Failed() {
		t.Error("Canvas should be idle after a good flush")
	}
}
