package core

import (
	"testing"
)

// MockGPIODriver is a test implementation of GPIODriver
type MockGPIODriver struct {
	pins    map[GPIOPin]bool
	outputs map[GPIOPin]bool
	history map[GPIOPin][]bool
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		pins:    make(map[GPIOPin]bool),
		outputs: make(map[GPIOPin]bool),
		history: make(map[GPIOPin][]bool),
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	m.pins[pin] = false
	m.outputs[pin] = true
	return nil
}

func (m *MockGPIODriver) ConfigureInputPullUp(pin GPIOPin) error {
	m.pins[pin] = true
	m.outputs[pin] = false
	return nil
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) {
	m.pins[pin] = value
	m.history[pin] = append(m.history[pin], value)
}

func (m *MockGPIODriver) ReadPin(pin GPIOPin) bool {
	return m.pins[pin]
}

// MockPWMDriver is a test implementation of PWMDriver
type MockPWMDriver struct {
	duty       map[PWMChannel]uint8
	configured map[PWMChannel]bool
}

func NewMockPWMDriver() *MockPWMDriver {
	return &MockPWMDriver{
		duty:       make(map[PWMChannel]uint8),
		configured: make(map[PWMChannel]bool),
	}
}

func (m *MockPWMDriver) ConfigurePWM(ch PWMChannel) error {
	m.configured[ch] = true
	return nil
}

func (m *MockPWMDriver) SetDuty(ch PWMChannel, duty uint8) {
	m.duty[ch] = duty
}

// advance delivers n ticks, running the loop after each
func advance(s *Scheduler, n int) {
	for i := 0; i < n; i++ {
		s.Clock().Tick()
		s.Iterate()
	}
}

func TestPatternPlaysBitsLSBFirst(t *testing.T) {
	mock := NewMockGPIODriver()
	SetGPIODriver(mock)
	s := NewScheduler()

	led := GPIOPin(13)
	p, err := NewPattern(s, led)
	if err != nil {
		t.Fatalf("NewPattern failed: %v", err)
	}
	if !mock.outputs[led] {
		t.Fatal("LED pin not configured as output")
	}

	p.Set(0x0005, true)
	step := int(TaskDelayMS(PatternStepMS))
	expected := []bool{true, false, true, false}
	for i, want := range expected {
		advance(s, step)
		if got := mock.pins[led]; got != want {
			t.Errorf("Step %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestPatternOneShotEndsDark(t *testing.T) {
	mock := NewMockGPIODriver()
	SetGPIODriver(mock)
	s := NewScheduler()

	led := GPIOPin(13)
	p, err := NewPattern(s, led)
	if err != nil {
		t.Fatalf("NewPattern failed: %v", err)
	}

	p.Set(0xFFFF, false)
	advance(s, 16*int(TaskDelayMS(PatternStepMS)))
	if p.Current() != PatternOff {
		t.Errorf("Expected pattern off after one pass, got 0x%04x", p.Current())
	}

	advance(s, int(TaskDelayMS(PatternStepMS)))
	if mock.pins[led] {
		t.Error("Expected LED off after one-shot pattern")
	}
}

func TestPatternRepeats(t *testing.T) {
	mock := NewMockGPIODriver()
	SetGPIODriver(mock)
	s := NewScheduler()

	p, err := NewPattern(s, 13)
	if err != nil {
		t.Fatalf("NewPattern failed: %v", err)
	}

	p.Set(PatternStandby, true)
	advance(s, 32*int(TaskDelayMS(PatternStepMS)))

	flashes := 0
	for _, on := range mock.history[13] {
		if on {
			flashes++
		}
	}
	if flashes != 2 {
		t.Errorf("Expected 2 flashes over two passes, got %d", flashes)
	}
}

func TestButtonShortPress(t *testing.T) {
	mock := NewMockGPIODriver()
	SetGPIODriver(mock)
	s := NewScheduler()

	var events []ButtonEvent
	pin := GPIOPin(2)
	if _, err := NewButton(s, pin, func(ev ButtonEvent) { events = append(events, ev) }); err != nil {
		t.Fatalf("NewButton failed: %v", err)
	}

	mock.pins[pin] = false // pressed, active low
	advance(s, 10)
	mock.pins[pin] = true
	advance(s, 10)

	if len(events) != 1 || events[0] != ButtonPress {
		t.Errorf("Expected one press, got %v", events)
	}
}

func TestButtonIgnoresJitter(t *testing.T) {
	mock := NewMockGPIODriver()
	SetGPIODriver(mock)
	s := NewScheduler()

	var events []ButtonEvent
	pin := GPIOPin(2)
	b, err := NewButton(s, pin, func(ev ButtonEvent) { events = append(events, ev) })
	if err != nil {
		t.Fatalf("NewButton failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		mock.pins[pin] = false
		advance(s, 2)
		mock.pins[pin] = true
		advance(s, 2)
	}
	advance(s, 10)

	if len(events) != 0 {
		t.Errorf("Expected no events from bouncing contact, got %v", events)
	}
	if b.Pressed() {
		t.Error("Button reported pressed after bouncing")
	}
}

func TestButtonLongPress(t *testing.T) {
	mock := NewMockGPIODriver()
	SetGPIODriver(mock)
	s := NewScheduler()

	var events []ButtonEvent
	pin := GPIOPin(2)
	if _, err := NewButton(s, pin, func(ev ButtonEvent) { events = append(events, ev) }); err != nil {
		t.Fatalf("NewButton failed: %v", err)
	}

	mock.pins[pin] = false
	advance(s, int(TaskDelayMS(ButtonLongPressMS))+10)
	if len(events) != 1 || events[0] != ButtonLongPress {
		t.Fatalf("Expected long press while held, got %v", events)
	}

	mock.pins[pin] = true
	advance(s, 10)
	if len(events) != 1 {
		t.Errorf("Release after long press must not report a press, got %v", events)
	}
}

func TestActuatorLevels(t *testing.T) {
	mock := NewMockPWMDriver()
	SetPWMDriver(mock)

	light, err := NewActuator(1, 3)
	if err != nil {
		t.Fatalf("NewActuator failed: %v", err)
	}
	if !mock.configured[3] || mock.duty[3] != 0 {
		t.Fatal("Expected channel configured and off")
	}

	light.Toggle(PWMMax)
	if light.Level() != PWMMax || mock.duty[3] != PWMMax {
		t.Errorf("Expected full level, got %d (duty %d)", light.Level(), mock.duty[3])
	}

	light.Toggle(PWMMax)
	if light.Level() != 0 || mock.duty[3] != 0 {
		t.Errorf("Expected off, got %d (duty %d)", light.Level(), mock.duty[3])
	}

	light.SetLevel(128)
	if mock.duty[3] != 128 {
		t.Errorf("Expected duty 128, got %d", mock.duty[3])
	}
}
