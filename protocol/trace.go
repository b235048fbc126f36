package protocol

// TraceEvent is one entry of the controller's event trace
type TraceEvent struct {
	Type   uint8  // event code
	ID     uint8  // task slot, bus address, channel ...
	Clock  uint32 // scheduler ticks at the event
	Value1 uint32 // context-dependent value
	Value2 uint32 // context-dependent value
}

// TraceEventMaxSize is the worst-case encoded size of one event
const TraceEventMaxSize = 5 * 5

// EncodeTraceEvent appends evt as five VLQ integers
func EncodeTraceEvent(output OutputBuffer, evt *TraceEvent) {
	EncodeVLQUint(output, uint32(evt.Type))
	EncodeVLQUint(output, uint32(evt.ID))
	EncodeVLQUint(output, evt.Clock)
	EncodeVLQUint(output, evt.Value1)
	EncodeVLQUint(output, evt.Value2)
}

// DecodeTraceEvent reads one event and advances data past it
func DecodeTraceEvent(data *[]byte) (TraceEvent, error) {
	var fields [5]uint32
	for i := range fields {
		v, err := DecodeVLQUint(data)
		if err != nil {
			return TraceEvent{}, err
		}
		fields[i] = v
	}
	if fields[0] > 0xff || fields[1] > 0xff {
		return TraceEvent{}, ErrInvalidVLQ
	}
	return TraceEvent{
		Type:   uint8(fields[0]),
		ID:     uint8(fields[1]),
		Clock:  fields[2],
		Value1: fields[3],
		Value2: fields[4],
	}, nil
}

// DecodeTracePayload decodes every event in a frame payload
func DecodeTracePayload(payload []byte) ([]TraceEvent, error) {
	var events []TraceEvent
	for len(payload) > 0 {
		evt, err := DecodeTraceEvent(&payload)
		if err != nil {
			return events, err
		}
		events = append(events, evt)
	}
	return events, nil
}
