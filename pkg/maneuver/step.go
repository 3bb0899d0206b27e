package maneuver

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrTurnTooFast is returned by CheckPeriod when one control period turns
// further than the step's completion window.
var ErrTurnTooFast = errors.New("turn rate too high for control period")

// Exit is the set of odometry resets performed when a step completes.
type Exit uint8

const (
	ResetDistance Exit = 1 << iota
	ResetTime

	ExitNone Exit = 0
)

func (e Exit) String() string {
	switch e {
	case ExitNone:
		return "none"
	case ResetDistance:
		return "reset_distance"
	case ResetTime:
		return "reset_time"
	case ResetDistance | ResetTime:
		return "reset_distance|reset_time"
	default:
		return fmt.Sprintf("Exit(%d)", uint8(e))
	}
}

// ParseExit converts an exit effect name such as "reset_distance".
func ParseExit(name string) (Exit, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return ExitNone, nil
	case "reset_distance":
		return ResetDistance, nil
	case "reset_time":
		return ResetTime, nil
	default:
		return ExitNone, fmt.Errorf("unknown exit effect %q", name)
	}
}

// apply runs the resets against r, distance first.
func (e Exit) apply(r Resetter) {
	if r == nil {
		return
	}
	if e&ResetDistance != 0 {
		r.ResetDistance()
	}
	if e&ResetTime != 0 {
		r.ResetTime()
	}
}

// Step is one motion phase of a maneuver.
type Step struct {
	// Name identifies the step in logs. Control flow is positional.
	Name string
	// Message is the log line emitted while the step is active.
	Message string
	// Command computes the velocity command from the latest pose.
	Command func(Pose) Command
	// Done reports whether the step is complete for the latest pose.
	Done func(Pose) bool
	// Exit is applied once, on the tick where Done first returns true.
	Exit Exit
	// Summary describes the command and completion test for listings.
	Summary string

	// TurnRate and Tolerance are set by Turn; zero for other steps.
	TurnRate  float64
	Tolerance float64
}

// CheckPeriod reports whether a turn step can land inside its heading window
// when ticked once per period. The heading moves |TurnRate|*period per tick
// and the window is 2*Tolerance wide.
func (s Step) CheckPeriod(period time.Duration) error {
	if s.TurnRate == 0 {
		return nil
	}
	perTick := math.Abs(s.TurnRate) * period.Seconds()
	if perTick >= 2*s.Tolerance {
		return fmt.Errorf("%w: %s turns %.3g rad per tick, window is %.3g rad",
			ErrTurnTooFast, s.Name, perTick, 2*s.Tolerance)
	}
	return nil
}

// Constant returns a command law that ignores the pose.
func Constant(cmd Command) func(Pose) Command {
	return func(Pose) Command { return cmd }
}

// HeadingWithin is satisfied once the heading is within tol of target.
func HeadingWithin(target, tol float64) func(Pose) bool {
	return func(p Pose) bool { return CloseTo(p.Heading, target, tol) }
}

// ElapsedAtLeast is satisfied once d has passed since the last time reset.
func ElapsedAtLeast(d time.Duration) func(Pose) bool {
	return func(p Pose) bool { return p.Elapsed >= d }
}

// Threshold is a distance completion test.
type Threshold struct {
	Distance  float64
	Inclusive bool
}

// Above completes when the distance is strictly greater than d.
func Above(d float64) Threshold { return Threshold{Distance: d} }

// AtLeast completes when the distance is greater than or equal to d.
func AtLeast(d float64) Threshold { return Threshold{Distance: d, Inclusive: true} }

// Reached reports whether distance satisfies the threshold.
func (t Threshold) Reached(distance float64) bool {
	if t.Inclusive {
		return distance >= t.Distance
	}
	return distance > t.Distance
}

func (t Threshold) String() string {
	if t.Inclusive {
		return fmt.Sprintf(">= %g m", t.Distance)
	}
	return fmt.Sprintf("> %g m", t.Distance)
}

// Turn builds a step that rotates in place at rate until the heading is
// within tol of target.
func Turn(name, msg string, target, rate, tol float64, exit Exit) Step {
	return Step{
		Name:    name,
		Message: msg,
		Command: Constant(Command{Angular: rate}),
		Done:    HeadingWithin(target, tol),
		Exit:    exit,
		Summary: fmt.Sprintf("turn %+.4g rad/s until heading %.4g ±%g", rate, target, tol),

		TurnRate:  rate,
		Tolerance: tol,
	}
}

// Drive builds a step that drives straight at speed until the threshold is reached.
func Drive(name, msg string, speed float64, until Threshold, exit Exit) Step {
	return Step{
		Name:    name,
		Message: msg,
		Command: Constant(Command{Linear: speed}),
		Done:    func(p Pose) bool { return until.Reached(p.Distance) },
		Exit:    exit,
		Summary: fmt.Sprintf("drive %.4g m/s until distance %s", speed, until),
	}
}

// Wait builds a step that holds still until d has passed since the last time
// reset. Precede it with a step that exits with ResetTime.
func Wait(name, msg string, d time.Duration, exit Exit) Step {
	return Step{
		Name:    name,
		Message: msg,
		Command: Constant(Command{}),
		Done:    ElapsedAtLeast(d),
		Exit:    exit,
		Summary: fmt.Sprintf("wait until %s elapsed", d),
	}
}
