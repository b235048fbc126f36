package core

// PWMChannel identifies a hardware PWM output
type PWMChannel uint8

// PWMMax is the duty value for a fully-on output
const PWMMax = 255

// PWMDriver is the abstract PWM interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type PWMDriver interface {
	// ConfigurePWM routes the channel's timer to its pin, duty 0
	ConfigurePWM(ch PWMChannel) error

	// SetDuty sets the duty cycle, 0 (off) to PWMMax (fully on)
	SetDuty(ch PWMChannel, duty uint8)
}

// Global singleton used by core code.
var pwmDriver PWMDriver

// SetPWMDriver is called by target-specific code to register its driver.
func SetPWMDriver(d PWMDriver) {
	pwmDriver = d
}

// MustPWM returns the configured driver or panics if missing.
func MustPWM() PWMDriver {
	if pwmDriver == nil {
		panic("PWM driver not configured")
	}
	return pwmDriver
}
