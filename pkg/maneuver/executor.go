package maneuver

// DoneStep is the step name reported for the terminal state.
const DoneStep = "DONE"

// Transition describes one step advance.
type Transition struct {
	Maneuver string
	From     int
	To       int
	FromStep string
	ToStep   string // DoneStep when To equals the step count
	Tick     uint64
}

// Stall reports a step that has been active for Ticks ticks.
type Stall struct {
	Maneuver string
	Index    int
	Step     string
	Ticks    int
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger receives the active step's message on every tick and the
// maneuver's done message once, on the first terminal tick.
func WithLogger(fn func(msg string)) Option {
	return func(e *Executor) { e.logf = fn }
}

// WithTransitionHook is called after every step advance.
func WithTransitionHook(fn func(Transition)) Option {
	return func(e *Executor) { e.onTransition = fn }
}

// WithStallWatch calls fn once per step when that step has been active for
// limit ticks. The step keeps running unchanged.
func WithStallWatch(limit int, fn func(Stall)) Option {
	return func(e *Executor) {
		e.stallLimit = limit
		e.onStall = fn
	}
}

// Executor plays a Maneuver one tick at a time.
//
// An Executor is owned by a single caller and is not safe for concurrent use.
type Executor struct {
	m        *Maneuver
	resetter Resetter

	index     int
	stopped   bool
	ticks     uint64
	stepTicks int

	logf         func(string)
	onTransition func(Transition)
	stallLimit   int
	onStall      func(Stall)
}

// NewExecutor creates an executor positioned on the first step of m.
// Exit effects are applied to r.
func NewExecutor(m *Maneuver, r Resetter, opts ...Option) *Executor {
	e := &Executor{m: m, resetter: r}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Tick runs one control cycle against pose and returns the command to apply.
//
// The step that completes on this tick still emits its own command; the next
// step's command is first emitted on the following tick. Once every step has
// completed, Tick returns the zero command and the executor is stopped.
func (e *Executor) Tick(pose Pose) Command {
	e.ticks++

	if e.index >= e.m.Len() {
		if !e.stopped && e.logf != nil && e.m.doneMessage != "" {
			e.logf(e.m.doneMessage)
		}
		e.stopped = true
		return Command{}
	}

	step := e.m.steps[e.index]
	if e.logf != nil && step.Message != "" {
		e.logf(step.Message)
	}

	cmd := step.Command(pose)
	if !step.Done(pose) {
		e.stepTicks++
		if e.stallLimit > 0 && e.stepTicks == e.stallLimit && e.onStall != nil {
			e.onStall(Stall{Maneuver: e.m.name, Index: e.index, Step: step.Name, Ticks: e.stepTicks})
		}
		return cmd
	}

	step.Exit.apply(e.resetter)
	from := e.index
	e.index++
	e.stepTicks = 0

	if e.onTransition != nil {
		to := DoneStep
		if next, ok := e.m.Step(e.index); ok {
			to = next.Name
		}
		e.onTransition(Transition{
			Maneuver: e.m.name,
			From:     from,
			To:       e.index,
			FromStep: step.Name,
			ToStep:   to,
			Tick:     e.ticks,
		})
	}
	return cmd
}

// Stopped reports whether the maneuver has finished.
func (e *Executor) Stopped() bool { return e.stopped }

// Index returns the active step index; Len() means every step has completed.
func (e *Executor) Index() int { return e.index }

// Current returns the active step, or false once every step has completed.
func (e *Executor) Current() (Step, bool) { return e.m.Step(e.index) }

// Maneuver returns the maneuver being executed.
func (e *Executor) Maneuver() *Maneuver { return e.m }

// Ticks returns the number of ticks run so far.
func (e *Executor) Ticks() uint64 { return e.ticks }
