package sim

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"hydroponics/core"
)

// ADC converts the values set with SetValue. The values may be changed from
// any goroutine.
type ADC struct {
	line   line
	result uint16

	mu     sync.Mutex
	values [core.ADCChannelCount]uint16

	Conversions uint32
}

var _ core.ADCController = (*ADC)(nil)

// NewADC returns a converter taking conversion per sample
func NewADC(clock clockwork.Clock, conversion time.Duration) *ADC {
	return &ADC{line: line{clock: clock, latency: conversion}}
}

// SetInterruptHandler installs the conversion complete routine
func (a *ADC) SetInterruptHandler(isr func()) {
	a.line.isr = isr
}

// SetValue sets what the next conversion of ch returns
func (a *ADC) SetValue(ch core.ADCChannel, value uint16) {
	if ch >= core.ADCChannelCount {
		return
	}
	a.mu.Lock()
	a.values[ch] = value & 0x3FF
	a.mu.Unlock()
}

func (a *ADC) Start(ch core.ADCChannel) {
	a.Conversions++
	a.line.raise(func() {
		a.mu.Lock()
		a.result = a.values[ch]
		a.mu.Unlock()
	})
}

func (a *ADC) Result() uint16 {
	return a.result
}

// GPIO holds pin levels. Inputs float high as with their pull-ups enabled.
type GPIO struct {
	mu      sync.Mutex
	levels  map[core.GPIOPin]bool
	outputs map[core.GPIOPin]bool
}

var _ core.GPIODriver = (*GPIO)(nil)

func NewGPIO() *GPIO {
	return &GPIO{
		levels:  make(map[core.GPIOPin]bool),
		outputs: make(map[core.GPIOPin]bool),
	}
}

func (g *GPIO) ConfigureOutput(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outputs[pin] = true
	g.levels[pin] = false
	return nil
}

func (g *GPIO) ConfigureInputPullUp(pin core.GPIOPin) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outputs[pin] = false
	g.levels[pin] = true
	return nil
}

func (g *GPIO) SetPin(pin core.GPIOPin, value bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.outputs[pin] {
		g.levels[pin] = value
	}
}

func (g *GPIO) ReadPin(pin core.GPIOPin) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.levels[pin]
}

// Drive forces an input pin's level, e.g. low for a pressed button
func (g *GPIO) Drive(pin core.GPIOPin, level bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.outputs[pin] {
		g.levels[pin] = level
	}
}

// PWM records duty cycles
type PWM struct {
	mu   sync.Mutex
	duty map[core.PWMChannel]uint8
}

var _ core.PWMDriver = (*PWM)(nil)

func NewPWM() *PWM {
	return &PWM{duty: make(map[core.PWMChannel]uint8)}
}

func (p *PWM) ConfigurePWM(ch core.PWMChannel) error {
	p.SetDuty(ch, 0)
	return nil
}

func (p *PWM) SetDuty(ch core.PWMChannel, duty uint8) {
	p.mu.Lock()
	p.duty[ch] = duty
	p.mu.Unlock()
}

// Duty returns the duty cycle of ch
func (p *PWM) Duty(ch core.PWMChannel) uint8 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duty[ch]
}
