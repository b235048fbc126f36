package core

// ADCChannel selects an input of the converter's multiplexer
type ADCChannel uint8

const (
	// ADCChannelCount covers the eight external inputs and the internal
	// temperature sensor
	ADCChannelCount = 9

	ADCChannelTemperature ADCChannel = 8
)

// ADCController is the analog converter peripheral. Start begins a single
// conversion; the ADC interrupt fires when the result is ready.
type ADCController interface {
	Start(ch ADCChannel)

	// Result returns the last conversion, right aligned
	Result() uint16
}

// Global singleton used by core code.
var adcController ADCController

// SetADCController is called by target-specific code to register its driver.
func SetADCController(c ADCController) {
	adcController = c
}

// MustADC returns the configured controller or panics if missing.
func MustADC() ADCController {
	if adcController == nil {
		panic("ADC controller not configured")
	}
	return adcController
}
