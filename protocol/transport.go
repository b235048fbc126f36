package protocol

// Transport frames outgoing payloads:
//
//	[len][0x10|seq][payload...][crc hi][crc lo][0x7E]
//
// len counts the whole frame. The CRC covers len, seq and payload.
type Transport struct {
	output OutputBuffer
	seq    uint8
}

// NewTransport returns a Transport appending frames to output
func NewTransport(output OutputBuffer) *Transport {
	return &Transport{output: output}
}

// EncodeFrame appends one frame whose payload is written by body, then
// advances the sequence number
func (t *Transport) EncodeFrame(body func(output OutputBuffer)) {
	EncodeFrame(t.output, t.seq, body)
	t.seq = (t.seq + 1) & MessageSeqMask
}

// EncodeFrame writes a single frame with the given sequence number
func EncodeFrame(output OutputBuffer, seq uint8, body func(output OutputBuffer)) {
	cursor := output.CurPosition()
	output.Output([]byte{0, MessageDest | seq&MessageSeqMask})

	body(output)

	length := len(output.DataSince(cursor)) + MessageTrailer
	output.Update(cursor+MessagePositionLen, uint8(length))

	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{
		uint8(crc >> 8),
		uint8(crc),
		MessageSync,
	})
}

// FrameHandler receives the sequence number and payload of a valid frame.
// The payload aliases the input buffer and is only valid during the call.
type FrameHandler func(seq uint8, payload []byte)

// Receiver splits a byte stream into frames, dropping anything that fails
// the length, destination or CRC checks and resynchronising on the next
// sync byte.
type Receiver struct {
	handler      FrameHandler
	synchronized bool
	expectSeq    uint8
	started      bool

	// Counters for the monitor's status line
	Frames  uint32
	Dropped uint32 // bytes discarded while out of sync
	Lost    uint32 // frames missing according to the sequence numbers
}

// NewReceiver returns a Receiver delivering frames to handler
func NewReceiver(handler FrameHandler) *Receiver {
	return &Receiver{handler: handler, synchronized: true}
}

// Receive consumes as many complete frames from input as possible. A
// trailing partial frame stays in input for the next call.
func (r *Receiver) Receive(input InputBuffer) {
	data := input.Data()

	for len(data) > 0 {
		if !r.synchronized {
			pos := -1
			for i, b := range data {
				if b == MessageSync {
					pos = i
					break
				}
			}
			if pos < 0 {
				r.Dropped += uint32(len(data))
				data = nil
				break
			}
			r.Dropped += uint32(pos)
			data = data[pos+1:]
			r.synchronized = true
			continue
		}

		if data[0] == MessageSync {
			data = data[1:]
			continue
		}
		if len(data) < MessageMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageMin || msgLen > MessageMax {
			r.desync()
			continue
		}
		seq := data[MessagePositionSeq]
		if seq&^MessageSeqMask != MessageDest {
			r.desync()
			continue
		}
		if len(data) < msgLen {
			break
		}
		if data[msgLen-1] != MessageSync {
			r.desync()
			continue
		}
		frameCRC := uint16(data[msgLen-MessageTrailer])<<8 | uint16(data[msgLen-MessageTrailer+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailer]) {
			r.desync()
			continue
		}

		payload := data[MessageHeader : msgLen-MessageTrailer]
		data = data[msgLen:]
		r.account(seq & MessageSeqMask)
		if r.handler != nil {
			r.handler(seq&MessageSeqMask, payload)
		}
	}

	if consumed := input.Available() - len(data); consumed > 0 {
		input.Pop(consumed)
	}
}

// desync drops the current byte and hunts for the next sync marker
func (r *Receiver) desync() {
	r.synchronized = false
}

func (r *Receiver) account(seq uint8) {
	if r.started && seq != r.expectSeq {
		r.Lost += uint32((seq - r.expectSeq) & MessageSeqMask)
	}
	r.started = true
	r.expectSeq = (seq + 1) & MessageSeqMask
	r.Frames++
}
