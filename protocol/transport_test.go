package protocol

import (
	"testing"
)

func encodeEvents(t *testing.T, tr *Transport, events ...TraceEvent) {
	t.Helper()
	tr.EncodeFrame(func(output OutputBuffer) {
		for i := range events {
			EncodeTraceEvent(output, &events[i])
		}
	})
}

func TestFrameRoundTrip(t *testing.T) {
	out := NewScratchOutput()
	tr := NewTransport(out)

	want := []TraceEvent{
		{Type: 4, ID: 0x68, Clock: 1234, Value1: 1, Value2: 0},
		{Type: 8, ID: 3, Clock: 70000, Value1: 1023, Value2: 0},
	}
	encodeEvents(t, tr, want...)

	frame := out.Result()
	if int(frame[MessagePositionLen]) != len(frame) {
		t.Errorf("Length byte %d does not match frame size %d", frame[0], len(frame))
	}
	if frame[MessagePositionSeq] != MessageDest {
		t.Errorf("Expected first sequence byte 0x10, got 0x%02X", frame[1])
	}
	if frame[len(frame)-1] != MessageSync {
		t.Errorf("Frame does not end with sync byte: %v", frame)
	}

	var got []TraceEvent
	rx := NewReceiver(func(seq uint8, payload []byte) {
		events, err := DecodeTracePayload(payload)
		if err != nil {
			t.Fatalf("DecodeTracePayload failed: %v", err)
		}
		got = append(got, events...)
	})
	input := NewSliceInputBuffer(frame)
	rx.Receive(input)

	if input.Available() != 0 {
		t.Errorf("Receiver left %d bytes unconsumed", input.Available())
	}
	if len(got) != len(want) {
		t.Fatalf("Expected %d events, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestReceiverPartialFrame(t *testing.T) {
	out := NewScratchOutput()
	encodeEvents(t, NewTransport(out), TraceEvent{Type: 1, ID: 2, Clock: 3})
	frame := append([]byte(nil), out.Result()...)

	frames := 0
	rx := NewReceiver(func(uint8, []byte) { frames++ })

	fifo := NewFifoBuffer(128)
	fifo.Write(frame[:4])
	rx.Receive(fifo)
	if frames != 0 {
		t.Fatalf("Frame delivered before it was complete")
	}
	if fifo.Available() != 4 {
		t.Errorf("Partial frame should stay buffered, %d bytes left", fifo.Available())
	}

	fifo.Write(frame[4:])
	rx.Receive(fifo)
	if frames != 1 {
		t.Errorf("Expected 1 frame after completion, got %d", frames)
	}
}

func TestReceiverResync(t *testing.T) {
	out := NewScratchOutput()
	tr := NewTransport(out)
	encodeEvents(t, tr, TraceEvent{Type: 1, ID: 1})
	good := append([]byte(nil), out.Result()...)

	corrupt := append([]byte(nil), good...)
	corrupt[3] ^= 0xFF // payload byte, CRC no longer matches

	stream := []byte{0x42, 0x13}
	stream = append(stream, MessageSync)
	stream = append(stream, corrupt...)
	stream = append(stream, good...)

	frames := 0
	rx := NewReceiver(func(uint8, []byte) { frames++ })
	rx.Receive(NewSliceInputBuffer(stream))

	if frames != 1 {
		t.Errorf("Expected only the intact frame to be delivered, got %d", frames)
	}
	if rx.Dropped == 0 {
		t.Error("Expected dropped bytes to be counted")
	}
}

func TestReceiverCountsLostFrames(t *testing.T) {
	out := NewScratchOutput()
	tr := NewTransport(out)

	var stream []byte
	for i := 0; i < 4; i++ {
		out.Reset()
		encodeEvents(t, tr, TraceEvent{Type: 1, Clock: uint32(i)})
		if i == 2 {
			continue // frame lost in transit
		}
		stream = append(stream, out.Result()...)
	}

	rx := NewReceiver(nil)
	rx.Receive(NewSliceInputBuffer(stream))

	if rx.Frames != 3 {
		t.Errorf("Expected 3 frames, got %d", rx.Frames)
	}
	if rx.Lost != 1 {
		t.Errorf("Expected 1 lost frame, got %d", rx.Lost)
	}
}
