package core

import "hydroponics/protocol"

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures a scheduler, bus or peripheral event for post-mortem
// analysis and for the host monitor
type TraceEvent = protocol.TraceEvent

// Event type codes
const (
	EvtTaskRun       = 1  // handler returned (id=slot, v1=next delay)
	EvtTaskRejected  = 2  // ScheduleTask found no free slot (v1=delay)
	EvtSleep         = 3  // CPU halted (v1=tick count)
	EvtI2CStart      = 4  // transfer started from idle (id=address, v1=1 for read)
	EvtI2CStatus     = 5  // handler invoked (id=address, v1=status, v2=data)
	EvtI2CClose      = 6  // transfer closed (id=address, v1=last status, v2=1 if chained)
	EvtI2CQueueFull  = 7  // RequestTransfer rejected (id=address)
	EvtADCResult     = 8  // conversion complete (id=channel, v1=value)
	EvtRTCRead       = 9  // register mirror refreshed (v1=hh<<16|mm<<8|ss, v2=1 on failure)
	EvtDisplayState  = 10 // display state change (v1=new state)
	EvtButton        = 11 // button event (v1=1 press, 2 long press)
	EvtActuatorLevel = 12 // actuator level change (id=actuator, v1=level)
)

const (
	TraceRingSize = 32 // Keep last 32 events
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {}

	debugEnabled bool

	// Trace ring, oldest entry at traceHead. When full the oldest entry is
	// overwritten and counted in traceDropped.
	traceRing    [TraceRingSize]TraceEvent
	traceHead    uint8
	traceCount   uint8
	traceDropped uint32
	traceEnabled = true

	traceClock *TickClock
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// SetTraceClock selects the clock used to timestamp trace events
func SetTraceClock(clock *TickClock) {
	traceClock = clock
}

// SetTraceEnabled turns event capture on or off
func SetTraceEnabled(enabled bool) {
	traceEnabled = enabled
}

// RecordTrace captures an event in the ring buffer. Safe from interrupt
// context.
func RecordTrace(eventType, id uint8, value1, value2 uint32) {
	if !traceEnabled {
		return
	}

	cs := EnterCritical()
	defer cs.Exit()

	var clock uint32
	if traceClock != nil {
		clock = traceClock.ticks
	}

	idx := (traceHead + traceCount) % TraceRingSize
	traceRing[idx] = TraceEvent{
		Type:   eventType,
		ID:     id,
		Clock:  clock,
		Value1: value1,
		Value2: value2,
	}
	if traceCount < TraceRingSize {
		traceCount++
	} else {
		traceHead = (traceHead + 1) % TraceRingSize
		traceDropped++
	}
}

// popTrace removes the oldest event
func popTrace() (TraceEvent, bool) {
	cs := EnterCritical()
	defer cs.Exit()

	if traceCount == 0 {
		return TraceEvent{}, false
	}
	evt := traceRing[traceHead]
	traceHead = (traceHead + 1) % TraceRingSize
	traceCount--
	return evt, true
}

// DrainTrace encodes the oldest events into output until limit bytes have
// been written or the ring is empty. Returns the number of events encoded.
func DrainTrace(output protocol.OutputBuffer, limit int) int {
	start := output.CurPosition()
	n := 0
	for output.CurPosition()-start+protocol.TraceEventMaxSize <= limit {
		evt, ok := popTrace()
		if !ok {
			break
		}
		protocol.EncodeTraceEvent(output, &evt)
		n++
	}
	return n
}

// TracePending returns the number of buffered events
func TracePending() int {
	cs := EnterCritical()
	defer cs.Exit()
	return int(traceCount)
}

// TraceDropped returns how many events were overwritten before being drained
func TraceDropped() uint32 {
	cs := EnterCritical()
	defer cs.Exit()
	return traceDropped
}

// TraceEventName returns a short name for an event code
func TraceEventName(eventType uint8) string {
	switch eventType {
	case EvtTaskRun:
		return "TASK_RUN"
	case EvtTaskRejected:
		return "TASK_FULL!"
	case EvtSleep:
		return "SLEEP"
	case EvtI2CStart:
		return "I2C_START"
	case EvtI2CStatus:
		return "I2C_STATUS"
	case EvtI2CClose:
		return "I2C_CLOSE"
	case EvtI2CQueueFull:
		return "I2C_FULL!"
	case EvtADCResult:
		return "ADC"
	case EvtRTCRead:
		return "RTC"
	case EvtDisplayState:
		return "DISPLAY"
	case EvtButton:
		return "BUTTON"
	case EvtActuatorLevel:
		return "LEVEL"
	default:
		return "UNKNOWN"
	}
}

// DumpTrace drains the ring through the debug writer, oldest first
func DumpTrace() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Trace Dump ===")
	for {
		evt, ok := popTrace()
		if !ok {
			break
		}
		debugPrintln("[TRACE] " + TraceEventName(evt.Type) +
			" id=" + utoa(uint32(evt.ID)) +
			" clock=" + utoa(evt.Clock) +
			" v1=" + utoa(evt.Value1) +
			" v2=" + utoa(evt.Value2))
	}
	debugPrintln("[TRACE] dropped=" + utoa(TraceDropped()))
}

// ClearTrace empties the ring and resets the drop counter
func ClearTrace() {
	cs := EnterCritical()
	defer cs.Exit()
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceHead = 0
	traceCount = 0
	traceDropped = 0
}
