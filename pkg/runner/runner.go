// Package runner plays a plan of maneuvers against a robot platform.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/dturobocup/raubot/pkg/maneuver"
	"github.com/dturobocup/raubot/pkg/robot"
)

var (
	// ErrEmptyPlan is returned by NewController for a plan without maneuvers.
	ErrEmptyPlan = errors.New("plan has no maneuvers")
	// ErrUnsupported is returned when the platform lacks a capability a
	// maneuver requires.
	ErrUnsupported = errors.New("platform does not support maneuver")
)

// Run outcomes passed to Recorder.EndRun.
const (
	OutcomeCompleted = "completed"
	OutcomeCanceled  = "canceled"
	OutcomeFailed    = "failed"
)

// State represents the current state of a run.
type State struct {
	Maneuver      string
	ManeuverIndex int
	Step          string
	StepIndex     int
	Steps         int
	Pose          maneuver.Pose
	Command       maneuver.Command
	Done          bool
	Timestamp     time.Time
	Error         error
}

// Recorder receives the run history. Recorder failures are logged and never
// interrupt a run.
type Recorder interface {
	BeginRun(plan []string) (string, error)
	RecordTransition(runID string, t maneuver.Transition) error
	RecordStall(runID string, s maneuver.Stall) error
	EndRun(runID, outcome string) error
}

// Config holds configuration for the controller.
type Config struct {
	Hz          int
	LogInterval time.Duration // 0 uses DefaultLogInterval, negative disables throttling
	StallTicks  int           // 0 disables stall reports
	Recorder    Recorder
	Now         func() time.Time
}

// Controller manages the maneuver control loop.
type Controller struct {
	platform   robot.Platform
	plan       []*maneuver.Maneuver
	hz         int
	stallTicks int
	recorder   Recorder
	throttle   *Throttle
	now        func() time.Time

	mu      sync.RWMutex
	running bool
	stateCh chan State
	logCh   chan string

	// owned by the loop goroutine
	runID   string
	current int
	exec    *maneuver.Executor
}

// NewController creates a controller for plan. Every maneuver's requirements
// must be covered by the platform's capabilities, and no turn may step over
// its heading window in one control period.
func NewController(p robot.Platform, plan []*maneuver.Maneuver, cfg Config) (*Controller, error) {
	if len(plan) == 0 {
		return nil, ErrEmptyPlan
	}

	caps := p.Capabilities()
	for _, m := range plan {
		if !caps.Has(m.Requirements()) {
			return nil, fmt.Errorf("%w: %s needs %s, platform has %s",
				ErrUnsupported, m.Name(), m.Requirements(), caps)
		}
	}

	if cfg.Hz <= 0 {
		cfg.Hz = 20
	}
	period := time.Second / time.Duration(cfg.Hz)
	for _, m := range plan {
		if err := m.CheckPeriod(period); err != nil {
			return nil, fmt.Errorf("%w at %d Hz", err, cfg.Hz)
		}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	interval := cfg.LogInterval
	if interval == 0 {
		interval = DefaultLogInterval
	}

	return &Controller{
		platform:   p,
		plan:       append([]*maneuver.Maneuver(nil), plan...),
		hz:         cfg.Hz,
		stallTicks: cfg.StallTicks,
		recorder:   cfg.Recorder,
		throttle:   NewThrottle(interval, cfg.Now),
		now:        cfg.Now,
		stateCh:    make(chan State, 1),
		logCh:      make(chan string, 64),
	}, nil
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan State {
	return c.stateCh
}

// Logs returns a channel that receives log messages.
func (c *Controller) Logs() <-chan string {
	return c.logCh
}

// Hz returns the control frequency.
func (c *Controller) Hz() int {
	return c.hz
}

// Plan returns the maneuvers in execution order.
func (c *Controller) Plan() []*maneuver.Maneuver {
	return append([]*maneuver.Maneuver(nil), c.plan...)
}

// RunID returns the recorder's ID for the current run, if any.
func (c *Controller) RunID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runID
}

func (c *Controller) log(format string, args ...any) {
	text := fmt.Sprintf(format, args...)
	if !c.throttle.Allow(text) {
		return
	}
	msg := fmt.Sprintf("[%s] %s", c.now().Format("15:04:05"), text)
	select {
	case c.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Start runs the plan until every maneuver has stopped or ctx is canceled.
// The platform is stopped on every exit path.
func (c *Controller) Start(ctx context.Context) (err error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()

	c.begin()
	defer func() { err = c.finish(err) }()

	c.log("Running %d maneuver(s) at %d Hz", len(c.plan), c.hz)

	// Control loop
	ticker := time.NewTicker(time.Second / time.Duration(c.hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if c.step(ctx) {
				return nil
			}
		}
	}
}

func (c *Controller) begin() {
	c.current = 0
	c.exec = c.newExecutor(c.plan[0])

	if c.recorder == nil {
		return
	}
	names := make([]string, len(c.plan))
	for i, m := range c.plan {
		names[i] = m.Name()
	}
	id, err := c.recorder.BeginRun(names)
	if err != nil {
		c.log("Journal error: %v", err)
		return
	}
	c.mu.Lock()
	c.runID = id
	c.mu.Unlock()
}

func (c *Controller) newExecutor(m *maneuver.Maneuver) *maneuver.Executor {
	c.log("Starting %s", m.Name())
	return maneuver.NewExecutor(m, c.platform,
		maneuver.WithLogger(func(msg string) { c.log("%s", msg) }),
		maneuver.WithTransitionHook(c.onTransition),
		maneuver.WithStallWatch(c.stallTicks, c.onStall),
	)
}

func (c *Controller) onTransition(t maneuver.Transition) {
	c.log("%s: %s -> %s", t.Maneuver, t.FromStep, t.ToStep)
	if c.recorder == nil || c.runID == "" {
		return
	}
	if err := c.recorder.RecordTransition(c.runID, t); err != nil {
		c.log("Journal error: %v", err)
	}
}

func (c *Controller) onStall(s maneuver.Stall) {
	c.log("Warning: %s stuck in %s for %d ticks", s.Maneuver, s.Step, s.Ticks)
	if c.recorder == nil || c.runID == "" {
		return
	}
	if err := c.recorder.RecordStall(c.runID, s); err != nil {
		c.log("Journal error: %v", err)
	}
}

// step runs one control cycle and reports whether the plan has finished.
func (c *Controller) step(ctx context.Context) bool {
	pose, err := c.platform.Pose(ctx)
	if err != nil {
		c.log("Read error: %v", err)
		c.sendState(State{Error: err, Timestamp: c.now()})
		return false
	}

	exec := c.exec
	index := c.current
	cmd := exec.Tick(pose)

	finished := false
	if exec.Stopped() {
		c.log("%s complete", exec.Maneuver().Name())
		c.current++
		if c.current < len(c.plan) {
			// The next maneuver gets its first tick on the following cycle.
			c.exec = c.newExecutor(c.plan[c.current])
		} else {
			finished = true
		}
	}

	if err := c.platform.Drive(ctx, cmd); err != nil {
		c.log("Write error: %v", err)
	}

	st := State{
		Maneuver:      exec.Maneuver().Name(),
		ManeuverIndex: index,
		Step:          maneuver.DoneStep,
		StepIndex:     exec.Index(),
		Steps:         exec.Maneuver().Len(),
		Pose:          pose,
		Command:       cmd,
		Done:          finished,
		Timestamp:     c.now(),
	}
	if s, ok := exec.Current(); ok {
		st.Step = s.Name
	}
	c.sendState(st)

	return finished
}

func (c *Controller) sendState(s State) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		select {
		case c.stateCh <- s:
		default:
		}
	}
}

func (c *Controller) finish(runErr error) error {
	outcome := OutcomeCompleted
	switch {
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		outcome = OutcomeCanceled
	case runErr != nil:
		outcome = OutcomeFailed
	}

	// The loop context may already be canceled.
	stopErr := c.platform.Stop(context.Background())
	if stopErr != nil {
		c.log("Warning: failed to stop platform: %v", stopErr)
	}

	if c.recorder != nil && c.runID != "" {
		if err := c.recorder.EndRun(c.runID, outcome); err != nil {
			c.log("Journal error: %v", err)
		}
	}

	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	c.log("Run %s", outcome)
	return multierr.Combine(runErr, stopErr)
}
