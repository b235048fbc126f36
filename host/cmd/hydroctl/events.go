package main

import (
	"fmt"
	"io"

	"hydroponics/core"
	"hydroponics/protocol"
)

// printEvent writes one decoded trace event as a log line
func printEvent(w io.Writer, seq uint8, evt protocol.TraceEvent) {
	fmt.Fprintf(w, "[%02d] %8d %-12s id=%-3d %d %d\n",
		seq, evt.Clock, core.TraceEventName(evt.Type), evt.ID, evt.Value1, evt.Value2)
}
