package core

// ADCResultFunc receives a finished conversion. It runs from the ADC
// interrupt with interrupts disabled.
type ADCResultFunc func(ch ADCChannel, value uint16)

// ADC serializes conversion requests onto the single converter. Requests
// are a bitmask, so asking twice for the same channel before it is serviced
// yields one conversion.
type ADC struct {
	ctrl     ADCController
	poller   PollRequester
	onResult ADCResultFunc

	pending    uint16
	current    ADCChannel
	converting bool
}

// NewADC returns a scheduler for ctrl. onResult may be nil.
func NewADC(ctrl ADCController, poller PollRequester, onResult ADCResultFunc) *ADC {
	return &ADC{
		ctrl:     ctrl,
		poller:   poller,
		onResult: onResult,
		current:  ADCChannelCount - 1,
	}
}

// ScheduleConversion marks ch for conversion. Out of range channels are
// ignored.
func (a *ADC) ScheduleConversion(ch ADCChannel) {
	if ch >= ADCChannelCount {
		return
	}
	cs := EnterCritical()
	a.pending |= 1 << ch
	cs.Exit()
}

// Poll starts the next pending conversion. Channels are serviced round-robin
// starting after the last converted one.
func (a *ADC) Poll() {
	cs := EnterCritical()
	defer cs.Exit()

	if a.converting || a.pending == 0 {
		return
	}
	ch := a.current
	for i := 0; i < ADCChannelCount; i++ {
		ch = (ch + 1) % ADCChannelCount
		if a.pending&(1<<ch) != 0 {
			a.pending &^= 1 << ch
			a.current = ch
			a.converting = true
			a.ctrl.Start(ch)
			return
		}
	}
}

// HandleInterrupt collects a finished conversion. Called from the ADC
// interrupt.
func (a *ADC) HandleInterrupt() {
	cs := EnterCritical()
	defer cs.Exit()

	if !a.converting {
		return
	}
	value := a.ctrl.Result()
	a.converting = false
	RecordTrace(EvtADCResult, uint8(a.current), uint32(value), 0)
	if a.onResult != nil {
		a.onResult(a.current, value)
	}
	if a.poller != nil {
		a.poller.SchedulePoll()
	}
}

// Busy reports whether a conversion is running or waiting
func (a *ADC) Busy() bool {
	cs := EnterCritical()
	defer cs.Exit()
	return a.converting || a.pending != 0
}

// SleepEnabled vetoes deep sleep while a conversion runs; the converter's
// clock stops in the deeper sleep modes.
func (a *ADC) SleepEnabled() bool {
	cs := EnterCritical()
	defer cs.Exit()
	return !a.converting
}
