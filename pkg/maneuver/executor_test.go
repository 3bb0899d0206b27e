package maneuver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockResetter records odometry resets in call order.
type MockResetter struct {
	Calls []string
}

func (m *MockResetter) ResetDistance() { m.Calls = append(m.Calls, "distance") }
func (m *MockResetter) ResetTime()     { m.Calls = append(m.Calls, "time") }

func threeStep(t *testing.T) *Maneuver {
	t.Helper()
	m, err := New("three", Move|Odometry,
		Turn("TURN", "turning", 1, 0.5, 0.05, ResetDistance),
		Drive("DRIVE", "driving", 0.2, AtLeast(1), ResetDistance|ResetTime),
		Drive("CREEP", "creeping", 0.1, Above(0.5), ExitNone),
	)
	require.NoError(t, err)
	return m
}

func TestExecutor_EmitsCompletingStepCommand(t *testing.T) {
	r := &MockResetter{}
	e := NewExecutor(threeStep(t), r)

	// Not yet at heading.
	assert.Equal(t, Command{Angular: 0.5}, e.Tick(Pose{Heading: 0}))
	assert.Equal(t, 0, e.Index())

	// Completing tick still emits the turn command.
	assert.Equal(t, Command{Angular: 0.5}, e.Tick(Pose{Heading: 1}))
	assert.Equal(t, 1, e.Index())
	assert.Equal(t, []string{"distance"}, r.Calls)

	// First tick of the next step uses the drive command.
	assert.Equal(t, Command{Linear: 0.2}, e.Tick(Pose{Heading: 1, Distance: 0}))
	assert.Equal(t, 1, e.Index())
}

func TestExecutor_FullRunAndTerminalIdempotence(t *testing.T) {
	r := &MockResetter{}
	e := NewExecutor(threeStep(t), r)

	e.Tick(Pose{Heading: 1})
	e.Tick(Pose{Distance: 1})
	assert.Equal(t, []string{"distance", "distance", "time"}, r.Calls)

	assert.Equal(t, Command{Linear: 0.1}, e.Tick(Pose{Distance: 0.6}))
	assert.Equal(t, 3, e.Index())
	assert.False(t, e.Stopped(), "stop is raised on the terminal tick")

	for _, p := range []Pose{{}, {Heading: 3, Distance: 100}, {Distance: -1}} {
		assert.Equal(t, Command{}, e.Tick(p))
		assert.True(t, e.Stopped())
		assert.Equal(t, 3, e.Index())
	}
	assert.Len(t, r.Calls, 3, "no exit effect fires after completion")

	_, ok := e.Current()
	assert.False(t, ok)
}

func TestExecutor_MonotonicProgress(t *testing.T) {
	e := NewExecutor(threeStep(t), nil)
	poses := []Pose{
		{Heading: 1, Distance: 5}, // completes TURN only
		{Heading: 1, Distance: 5}, // completes DRIVE only
		{Heading: 1, Distance: 5}, // completes CREEP only
		{}, {},
	}

	prev := e.Index()
	for _, p := range poses {
		e.Tick(p)
		assert.LessOrEqual(t, e.Index()-prev, 1)
		assert.GreaterOrEqual(t, e.Index(), prev)
		prev = e.Index()
	}
	assert.Equal(t, 3, e.Index())
	assert.True(t, e.Stopped())
}

func TestExecutor_ExitEffectExactlyOnce(t *testing.T) {
	r := &MockResetter{}
	m := MustNew("once", Move,
		Drive("A", "", 0.2, AtLeast(1), ResetDistance),
		Drive("B", "", 0.2, AtLeast(100), ExitNone),
	)
	e := NewExecutor(m, r)

	for i := 0; i < 20; i++ {
		e.Tick(Pose{Distance: 2})
	}
	assert.Equal(t, []string{"distance"}, r.Calls)
	assert.Equal(t, 1, e.Index())
}

func TestExecutor_NeverSatisfiedPredicateStalls(t *testing.T) {
	var stalls []Stall
	e := NewExecutor(threeStep(t), nil, WithStallWatch(50, func(s Stall) {
		stalls = append(stalls, s)
	}))

	for i := 0; i < 500; i++ {
		cmd := e.Tick(Pose{Heading: -2})
		require.Equal(t, Command{Angular: 0.5}, cmd)
	}
	assert.Equal(t, 0, e.Index())
	assert.False(t, e.Stopped())
	require.Len(t, stalls, 1, "stall is reported once per step")
	assert.Equal(t, Stall{Maneuver: "three", Index: 0, Step: "TURN", Ticks: 50}, stalls[0])
}

func TestExecutor_TransitionHook(t *testing.T) {
	var got []Transition
	e := NewExecutor(threeStep(t), nil, WithTransitionHook(func(tr Transition) {
		got = append(got, tr)
	}))

	e.Tick(Pose{})
	e.Tick(Pose{Heading: 1})
	e.Tick(Pose{Distance: 1})
	e.Tick(Pose{Distance: 1})

	require.Len(t, got, 3)
	assert.Equal(t, Transition{Maneuver: "three", From: 0, To: 1, FromStep: "TURN", ToStep: "DRIVE", Tick: 2}, got[0])
	assert.Equal(t, "CREEP", got[1].ToStep)
	assert.Equal(t, DoneStep, got[2].ToStep)
	assert.Equal(t, 3, got[2].To)
}

func TestExecutor_Logger(t *testing.T) {
	var lines []string
	m := MustNew("log", Move,
		Drive("A", "going", 0.2, AtLeast(1), ExitNone),
	).WithDoneMessage("finished")
	e := NewExecutor(m, nil, WithLogger(func(msg string) { lines = append(lines, msg) }))

	e.Tick(Pose{})
	e.Tick(Pose{Distance: 1})
	e.Tick(Pose{})
	e.Tick(Pose{})

	assert.Equal(t, []string{"going", "going", "finished"}, lines)
}
