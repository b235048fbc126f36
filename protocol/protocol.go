// Package protocol implements the framed trace link between the controller
// and host tools: CRC16-checked frames carrying VLQ-encoded event records.
package protocol

// Version of the trace link format
const Version = "1.0.0"

// Frame layout constants
const (
	MessageMax     = 64 // largest frame on the wire, header and trailer included
	MessageHeader  = 2  // length, sequence
	MessageTrailer = 3  // crc hi, crc lo, sync
	MessageMin     = MessageHeader + MessageTrailer

	MessagePositionLen = 0
	MessagePositionSeq = 1

	MessageSeqMask = 0x0F
	MessageDest    = 0x10
	MessageSync    = 0x7E
)
