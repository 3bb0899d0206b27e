package maneuver

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors returned by New.
var (
	ErrNoSteps        = errors.New("maneuver has no steps")
	ErrDuplicateStep  = errors.New("duplicate step name")
	ErrIncompleteStep = errors.New("incomplete step")
)

// Maneuver is a named, ordered, immutable table of steps.
type Maneuver struct {
	name         string
	requirements Requirement
	steps        []Step
	doneMessage  string
}

// New validates and copies steps into a Maneuver.
//
// A maneuver needs at least one step; every step needs a unique name, a
// command law and a completion predicate.
func New(name string, req Requirement, steps ...Step) (*Maneuver, error) {
	if len(steps) == 0 {
		return nil, fmt.Errorf("maneuver %q: %w", name, ErrNoSteps)
	}
	seen := make(map[string]bool, len(steps))
	for i, s := range steps {
		if s.Name == "" {
			return nil, fmt.Errorf("maneuver %q step %d: missing name: %w", name, i, ErrIncompleteStep)
		}
		if s.Command == nil || s.Done == nil {
			return nil, fmt.Errorf("maneuver %q step %s: missing command or predicate: %w", name, s.Name, ErrIncompleteStep)
		}
		if seen[s.Name] {
			return nil, fmt.Errorf("maneuver %q step %s: %w", name, s.Name, ErrDuplicateStep)
		}
		seen[s.Name] = true
	}
	return &Maneuver{
		name:         name,
		requirements: req,
		steps:        append([]Step(nil), steps...),
	}, nil
}

// MustNew is like New but panics on error. Use it for tables defined in code.
func MustNew(name string, req Requirement, steps ...Step) *Maneuver {
	m, err := New(name, req, steps...)
	if err != nil {
		panic(err)
	}
	return m
}

// WithDoneMessage returns a copy of m that logs msg when it completes.
func (m *Maneuver) WithDoneMessage(msg string) *Maneuver {
	cp := *m
	cp.doneMessage = msg
	return &cp
}

// Name returns the maneuver name.
func (m *Maneuver) Name() string { return m.name }

// Requirements returns the capabilities the maneuver needs.
func (m *Maneuver) Requirements() Requirement { return m.requirements }

// DoneMessage returns the line logged on the terminal tick, if any.
func (m *Maneuver) DoneMessage() string { return m.doneMessage }

// Len returns the number of steps.
func (m *Maneuver) Len() int { return len(m.steps) }

// Step returns the step at index i.
func (m *Maneuver) Step(i int) (Step, bool) {
	if i < 0 || i >= len(m.steps) {
		return Step{}, false
	}
	return m.steps[i], true
}

// Steps returns a copy of the step table.
func (m *Maneuver) Steps() []Step {
	return append([]Step(nil), m.steps...)
}

// CheckPeriod checks every step against the control period.
func (m *Maneuver) CheckPeriod(period time.Duration) error {
	for _, s := range m.steps {
		if err := s.CheckPeriod(period); err != nil {
			return fmt.Errorf("maneuver %q: %w", m.name, err)
		}
	}
	return nil
}
