package core

import "errors"

// Task table limits
const (
	MaxTasks    = 10
	InvalidTask = TaskID(0xff)
)

var (
	ErrSchedulerFull = errors.New("scheduler: no free task slot")
	ErrInvalidDelay  = errors.New("scheduler: task delay must be non-zero")
	ErrNilHandler    = errors.New("scheduler: nil task handler")
)

// TaskID is the slot index of a scheduled task
type TaskID uint8

// TaskHandler runs when a task's delay expires. The returned value becomes
// the new delay in ticks; zero frees the slot.
type TaskHandler func() uint16

// PollRequester is anything an interrupt handler can ask for an extra poll
// round without waiting for the next tick
type PollRequester interface {
	SchedulePoll()
}

// task is one scheduler slot. delay == 0 marks the slot free. fresh marks
// a task created during the current pass; the pass's ticks predate it.
type task struct {
	delay   uint16
	handler TaskHandler
	fresh   bool
}

// Scheduler multiplexes deferred and periodic work onto the poll loop.
// Tasks run in slot order; there is no preemption between tasks.
type Scheduler struct {
	tasks [MaxTasks]task
	clock TickClock

	pollPending bool

	// running is the slot whose handler is executing, cancelled is set when
	// that slot is unscheduled from inside its own call
	running   TaskID
	cancelled bool

	// inRound is set while runTasks walks the table; late collects the
	// ticks drained after handlers in the current pass
	inRound bool
	late    uint32

	pollers []func()
	gate    *SleepGate
	halt    func()
}

// NewScheduler returns a scheduler with an empty task table. Its tick clock
// must be driven from the timer interrupt via Clock().Tick().
func NewScheduler() *Scheduler {
	s := &Scheduler{running: InvalidTask}
	s.clock.poller = s
	return s
}

// Clock returns the tick clock feeding this scheduler
func (s *Scheduler) Clock() *TickClock {
	return &s.clock
}

// ScheduleTask claims the first free slot for handler, to run after delay
// ticks. Use a delay of 1 for "as soon as possible". Ticks that elapsed
// before the call but are not yet processed never count against the new
// task.
func (s *Scheduler) ScheduleTask(handler TaskHandler, delay uint16) (TaskID, error) {
	if handler == nil {
		return InvalidTask, ErrNilHandler
	}
	if delay == 0 {
		return InvalidTask, ErrInvalidDelay
	}

	cs := EnterCritical()
	defer cs.Exit()

	for i := range s.tasks {
		t := &s.tasks[i]
		if t.delay == 0 {
			owed := uint32(s.clock.delta)
			if s.inRound {
				owed += s.late
			}
			t.delay = addTicks(delay, owed)
			t.handler = handler
			t.fresh = s.inRound
			return TaskID(i), nil
		}
	}

	RecordTrace(EvtTaskRejected, 0, uint32(delay), 0)
	return InvalidTask, ErrSchedulerFull
}

// UnscheduleTask frees the slot. The caller must own id. Unscheduling a task
// from inside its own handler discards the handler's return value.
func (s *Scheduler) UnscheduleTask(id TaskID) {
	if id >= MaxTasks {
		return
	}

	cs := EnterCritical()
	defer cs.Exit()

	if id == s.running {
		s.cancelled = true
		return
	}
	s.tasks[id].delay = 0
	s.tasks[id].handler = nil
	s.tasks[id].fresh = false
}

// SchedulePoll requests an extra poll round. Safe from interrupt context.
func (s *Scheduler) SchedulePoll() {
	cs := EnterCritical()
	s.pollPending = true
	cs.Exit()
}

// AddPoller appends fn to the functions called once per loop iteration.
// Pollers are registered during startup only.
func (s *Scheduler) AddPoller(fn func()) {
	s.pollers = append(s.pollers, fn)
}

// SetSleepGate installs the predicate consulted before halting
func (s *Scheduler) SetSleepGate(gate *SleepGate) {
	s.gate = gate
}

// SetHalt installs the halt primitive. It is called with interrupts
// disabled, must enable them atomically with entering the wait state and
// returns after an interrupt has been serviced. Without one the loop spins.
func (s *Scheduler) SetHalt(halt func()) {
	s.halt = halt
}

// Run is the firmware's only control loop. It never returns.
func (s *Scheduler) Run() {
	for {
		s.Iterate()
	}
}

// Iterate runs one loop iteration: due tasks, pollers, then the sleep
// decision
func (s *Scheduler) Iterate() {
	cs := EnterCritical()
	s.pollPending = false
	cs.Exit()

	s.runTasks()

	for _, poll := range s.pollers {
		poll()
	}

	cs = EnterCritical()
	if s.halt != nil && !s.pollPending && s.clock.delta == 0 && s.gate.SleepEnabled() {
		RecordTrace(EvtSleep, 0, s.clock.ticks, 0)
		s.halt()
	}
	cs.Exit()
}

// runTasks advances every task by the ticks elapsed since the last round.
// Ticks arriving while handlers execute are folded into further rounds
// before returning, so none are lost. A task scheduled by a handler only
// sees ticks that arrive after it was scheduled.
func (s *Scheduler) runTasks() {
	ticks := uint32(s.clock.drain())
	if ticks == 0 {
		return
	}

	cs := EnterCritical()
	s.inRound = true
	cs.Exit()

	for ticks != 0 {
		s.setLate(0)
		for i := range s.tasks {
			handler := s.expire(i, ticks)
			if handler == nil {
				continue
			}
			s.release(i, handler())
			s.setLate(s.late + uint32(s.clock.drain()))
		}
		ticks = s.endPass()
	}
}

func (s *Scheduler) setLate(late uint32) {
	cs := EnterCritical()
	s.late = late
	cs.Exit()
}

// endPass clears the fresh marks and returns the ticks for the next pass
func (s *Scheduler) endPass() uint32 {
	cs := EnterCritical()
	defer cs.Exit()

	for i := range s.tasks {
		s.tasks[i].fresh = false
	}
	if s.late == 0 {
		s.inRound = false
	}
	return s.late
}

// addTicks adds owed ticks to delay, saturating
func addTicks(delay uint16, owed uint32) uint16 {
	if sum := uint32(delay) + owed; sum < 0xffff {
		return uint16(sum)
	}
	return 0xffff
}

// expire subtracts ticks from slot i and returns its handler when due. A due
// slot is held with a placeholder delay so nothing else can claim it while
// the handler runs.
func (s *Scheduler) expire(i int, ticks uint32) TaskHandler {
	cs := EnterCritical()
	defer cs.Exit()

	t := &s.tasks[i]
	if t.delay == 0 || t.fresh {
		return nil
	}
	if uint32(t.delay) > ticks {
		t.delay -= uint16(ticks)
		return nil
	}
	t.delay = 1
	s.running = TaskID(i)
	s.cancelled = false
	return t.handler
}

// release stores the handler's returned delay in slot i
func (s *Scheduler) release(i int, next uint16) {
	cs := EnterCritical()
	defer cs.Exit()

	if s.cancelled {
		next = 0
	}
	t := &s.tasks[i]
	t.delay = next
	if next == 0 {
		t.handler = nil
	}
	s.running = InvalidTask
	s.cancelled = false

	RecordTrace(EvtTaskRun, uint8(i), uint32(next), 0)
}

// pending reports the occupied slot count (tests, diagnostics)
func (s *Scheduler) pending() int {
	cs := EnterCritical()
	defer cs.Exit()
	n := 0
	for i := range s.tasks {
		if s.tasks[i].delay != 0 {
			n++
		}
	}
	return n
}
