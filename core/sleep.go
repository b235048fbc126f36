package core

// SleepGate decides whether the poll loop may halt the CPU. Peripherals that
// need the I/O clock running (an ADC conversion in flight) register a
// predicate that reports false while busy.
type SleepGate struct {
	checks []func() bool
}

// Register adds a predicate. Registration happens during startup only.
func (g *SleepGate) Register(check func() bool) {
	g.checks = append(g.checks, check)
}

// SleepEnabled reports whether every registered peripheral allows sleep
func (g *SleepGate) SleepEnabled() bool {
	if g == nil {
		return true
	}
	for _, check := range g.checks {
		if !check() {
			return false
		}
	}
	return true
}
