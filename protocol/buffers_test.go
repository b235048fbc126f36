package protocol

import (
	"bytes"
	"testing"
)

func TestSliceInputBuffer(t *testing.T) {
	buf := NewSliceInputBuffer([]byte{1, 2, 3, 4, 5})

	if buf.Available() != 5 {
		t.Errorf("Expected 5 bytes available, got %d", buf.Available())
	}

	buf.Pop(2)
	if !bytes.Equal(buf.Data(), []byte{3, 4, 5}) {
		t.Errorf("After Pop(2), expected [3 4 5], got %v", buf.Data())
	}

	buf.Pop(10)
	if buf.Available() != 0 {
		t.Errorf("Pop past the end should empty the buffer, got %d bytes", buf.Available())
	}
}

func TestScratchOutput(t *testing.T) {
	out := NewScratchOutput()
	out.Output([]byte{1, 2, 3})
	pos := out.CurPosition()
	out.Output([]byte{4, 5})

	if pos != 3 {
		t.Errorf("Expected position 3, got %d", pos)
	}
	if !bytes.Equal(out.DataSince(pos), []byte{4, 5}) {
		t.Errorf("DataSince mismatch: got %v", out.DataSince(pos))
	}

	out.Update(0, 9)
	if out.Result()[0] != 9 {
		t.Errorf("Update did not patch byte 0: got %v", out.Result())
	}

	out.Reset()
	if len(out.Result()) != 0 || out.Overflowed() {
		t.Errorf("Reset should clear data and overflow flag")
	}
}

func TestScratchOutputOverflow(t *testing.T) {
	out := NewScratchOutput()
	out.Output(make([]byte, MessageMax-1))
	out.Output([]byte{1, 2})

	if !out.Overflowed() {
		t.Error("Expected overflow to be reported")
	}
	if out.CurPosition() != MessageMax {
		t.Errorf("Expected position %d, got %d", MessageMax, out.CurPosition())
	}
	if out.Free() != 0 {
		t.Errorf("Expected no free space, got %d", out.Free())
	}
}

func TestFifoBuffer(t *testing.T) {
	fifo := NewFifoBuffer(10)

	if !fifo.IsEmpty() {
		t.Error("New FIFO should be empty")
	}

	written := fifo.Write([]byte{1, 2, 3, 4, 5})
	if written != 5 {
		t.Errorf("Expected to write 5 bytes, wrote %d", written)
	}
	if fifo.Free() != 4 {
		t.Errorf("Expected 4 bytes free, got %d", fifo.Free())
	}

	fifo.Pop(3)
	if !bytes.Equal(fifo.Data(), []byte{4, 5}) {
		t.Errorf("Expected [4 5] after Pop(3), got %v", fifo.Data())
	}

	fifo.Reset()
	written = fifo.Write(make([]byte, 12))
	if written != 9 { // one slot stays empty
		t.Errorf("Expected to write 9 bytes to size-10 FIFO, wrote %d", written)
	}
}

func TestFifoBufferWrapAround(t *testing.T) {
	fifo := NewFifoBuffer(5)

	fifo.Write([]byte{1, 2, 3, 4})
	fifo.Pop(2)

	written := fifo.Write([]byte{5, 6})
	if written != 2 {
		t.Errorf("Expected to write 2 bytes, wrote %d", written)
	}

	if !bytes.Equal(fifo.Data(), []byte{3, 4, 5, 6}) {
		t.Errorf("Wrap-around data mismatch: got %v", fifo.Data())
	}
}
