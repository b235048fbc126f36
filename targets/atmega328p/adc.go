//go:build avr

package main

import (
	"device/avr"

	"hydroponics/core"
)

// adc runs single conversions with the completion interrupt. Channels 0-7
// use AVcc as reference; the temperature sensor needs the internal 1.1V.
type adc struct{}

var _ core.ADCController = adc{}

func newADC() adc {
	avr.ADMUX.Set(avr.ADMUX_REFS0)
	// 16MHz / 128 = 125kHz conversion clock
	avr.ADCSRA.Set(avr.ADCSRA_ADEN | avr.ADCSRA_ADPS2 | avr.ADCSRA_ADPS1 | avr.ADCSRA_ADPS0)
	return adc{}
}

func (adc) Start(ch core.ADCChannel) {
	ref := uint8(avr.ADMUX_REFS0)
	if ch == core.ADCChannelTemperature {
		ref |= avr.ADMUX_REFS1
	}
	avr.ADMUX.Set(ref | uint8(ch)&0x0F)
	avr.ADCSRA.SetBits(avr.ADCSRA_ADSC | avr.ADCSRA_ADIE)
}

func (adc) Result() uint16 {
	// ADCL first, it latches ADCH
	low := avr.ADCL.Get()
	high := avr.ADCH.Get()
	return uint16(high)<<8 | uint16(low)
}
