package serial

import (
	"errors"
	"fmt"
	"io"

	"hydroponics/protocol"
)

// fifoSize holds a few frames of unparsed input
const fifoSize = 4 * protocol.MessageMax

// EventHandler receives each decoded trace event with the frame's sequence
// number
type EventHandler func(seq uint8, evt protocol.TraceEvent)

// Monitor reassembles trace frames from a byte stream
type Monitor struct {
	fifo    *protocol.FifoBuffer
	rx      *protocol.Receiver
	handler EventHandler

	// BadPayloads counts frames whose payload did not decode
	BadPayloads uint32
}

// NewMonitor returns a monitor delivering events to handler
func NewMonitor(handler EventHandler) *Monitor {
	m := &Monitor{
		fifo:    protocol.NewFifoBuffer(fifoSize),
		handler: handler,
	}
	m.rx = protocol.NewReceiver(m.frame)
	return m
}

// Feed consumes raw link bytes
func (m *Monitor) Feed(data []byte) {
	for len(data) > 0 {
		n := m.fifo.Write(data)
		data = data[n:]
		m.rx.Receive(m.fifo)
		if n == 0 && len(data) > 0 {
			// a full fifo without a frame in it is garbage
			m.fifo.Pop(m.fifo.Available())
		}
	}
}

// Run reads r until it fails. A clean end of input returns nil.
func (m *Monitor) Run(r io.Reader) error {
	buf := make([]byte, 256)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			m.Feed(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("trace link read: %w", err)
		}
	}
}

// Stats returns the link counters: good frames, bytes dropped while
// resynchronising and frames lost according to sequence numbers
func (m *Monitor) Stats() (frames, dropped, lost uint32) {
	return m.rx.Frames, m.rx.Dropped, m.rx.Lost
}

func (m *Monitor) frame(seq uint8, payload []byte) {
	events, err := protocol.DecodeTracePayload(payload)
	if err != nil {
		m.BadPayloads++
	}
	if m.handler == nil {
		return
	}
	for _, evt := range events {
		m.handler(seq, evt)
	}
}
