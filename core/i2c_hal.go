package core

// I2CAddress is a 7-bit I2C device address.
type I2CAddress uint8

// HwStatus is the bus controller's status code after a bus event, with the
// prescaler bits masked off. Values follow the two-wire interface master
// status table.
type HwStatus uint8

const (
	HwBusError          HwStatus = 0x00 // illegal START/STOP on the bus
	HwStartSent         HwStatus = 0x08
	HwRepeatedStartSent HwStatus = 0x10
	HwSlaWAck           HwStatus = 0x18
	HwSlaWNack          HwStatus = 0x20
	HwDataSentAck       HwStatus = 0x28
	HwDataSentNack      HwStatus = 0x30
	HwArbitrationLost   HwStatus = 0x38
	HwSlaRAck           HwStatus = 0x40
	HwSlaRNack          HwStatus = 0x48
	HwDataReceivedAck   HwStatus = 0x50
	HwDataReceivedNack  HwStatus = 0x58
	HwNoState           HwStatus = 0xF8 // no event pending
)

// I2CController is the bus master peripheral the bus driver steers. Every
// method except Status, Idle and Data hands the bus back to the hardware,
// which raises the bus interrupt when the requested action completes (Stop
// and Release complete silently).
type I2CController interface {
	// Status returns the code describing the last bus event
	Status() HwStatus

	// Idle reports whether software may issue a new START: the controller is
	// either waiting for software or has no state.
	Idle() bool

	// Start issues START, or REPEATED START while the bus is owned
	Start()

	// Stop issues STOP and releases the bus
	Stop()

	// Release gives up the bus without STOP (after arbitration loss)
	Release()

	// Write clocks out one byte (address+direction or data)
	Write(data byte)

	// Read clocks in one byte, answering ACK or NACK
	Read(ack bool)

	// Data returns the last received byte
	Data() byte
}

// Global singleton used by core code.
var i2cController I2CController

// SetI2CController is called by target-specific code to register its driver.
func SetI2CController(c I2CController) {
	i2cController = c
}

// MustI2C returns the configured controller or panics if missing.
func MustI2C() I2CController {
	if i2cController == nil {
		panic("I2C controller not configured")
	}
	return i2cController
}
