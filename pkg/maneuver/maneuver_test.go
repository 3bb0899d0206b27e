package maneuver

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Validation(t *testing.T) {
	drive := Drive("GO", "", 0.2, AtLeast(1), ResetDistance)

	tests := []struct {
		name    string
		steps   []Step
		wantErr error
	}{
		{name: "no steps", steps: nil, wantErr: ErrNoSteps},
		{name: "duplicate names", steps: []Step{drive, drive}, wantErr: ErrDuplicateStep},
		{name: "missing name", steps: []Step{{Command: drive.Command, Done: drive.Done}}, wantErr: ErrIncompleteStep},
		{name: "missing predicate", steps: []Step{{Name: "X", Command: drive.Command}}, wantErr: ErrIncompleteStep},
		{name: "valid", steps: []Step{drive}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New("test", Move, tt.steps...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, m.Len())
		})
	}
}

func TestNew_CopiesSteps(t *testing.T) {
	steps := []Step{
		Drive("A", "", 0.2, AtLeast(1), ExitNone),
		Drive("B", "", 0.2, AtLeast(2), ExitNone),
	}
	m := MustNew("copy", Move, steps...)

	steps[0].Name = "CHANGED"
	first, ok := m.Step(0)
	require.True(t, ok)
	assert.Equal(t, "A", first.Name)

	out := m.Steps()
	out[1].Name = "CHANGED"
	second, _ := m.Step(1)
	assert.Equal(t, "B", second.Name)

	_, ok = m.Step(2)
	assert.False(t, ok)
}

func TestMustNew_Panics(t *testing.T) {
	assert.Panics(t, func() { MustNew("empty", Move) })
}

func TestWithDoneMessage(t *testing.T) {
	m := MustNew("m", Move, Drive("A", "", 0.2, AtLeast(1), ExitNone))
	withMsg := m.WithDoneMessage("bye")

	assert.Equal(t, "", m.DoneMessage())
	assert.Equal(t, "bye", withMsg.DoneMessage())
	assert.Equal(t, m.Len(), withMsg.Len())
}

func TestThreshold(t *testing.T) {
	assert.False(t, Above(0.87).Reached(0.87))
	assert.True(t, Above(0.87).Reached(0.8701))
	assert.True(t, AtLeast(3.17).Reached(3.17))
	assert.False(t, AtLeast(3.17).Reached(3.1699))
	assert.Equal(t, "> 0.87 m", Above(0.87).String())
	assert.Equal(t, ">= 3.17 m", AtLeast(3.17).String())
}

func TestTurnAndDriveCommands(t *testing.T) {
	turn := Turn("T", "turning", -1.5, -0.7, 0.05, ResetTime)
	assert.Equal(t, Command{Angular: -0.7}, turn.Command(Pose{Heading: 2}))
	assert.True(t, turn.Done(Pose{Heading: -1.52}))
	assert.False(t, turn.Done(Pose{Heading: -1.6}))

	drive := Drive("D", "driving", 0.2, Above(1), ResetDistance)
	assert.Equal(t, Command{Linear: 0.2}, drive.Command(Pose{}))
	assert.False(t, drive.Done(Pose{Distance: 1}))
	assert.True(t, drive.Done(Pose{Distance: 1.01}))

	assert.Equal(t, "turn -0.7 rad/s until heading -1.5 ±0.05", turn.Summary)
	assert.Equal(t, "drive 0.2 m/s until distance > 1 m", drive.Summary)
}

func TestWait(t *testing.T) {
	wait := Wait("PAUSE", "waiting", 500*time.Millisecond, ResetDistance)
	assert.True(t, wait.Command(Pose{Heading: 1, Distance: 2}).IsZero())
	assert.False(t, wait.Done(Pose{Elapsed: 499 * time.Millisecond}))
	assert.True(t, wait.Done(Pose{Elapsed: 500 * time.Millisecond}))
	assert.Equal(t, ResetDistance, wait.Exit)
	assert.Equal(t, "wait until 500ms elapsed", wait.Summary)
	assert.NoError(t, wait.CheckPeriod(time.Second))
}

func TestCheckPeriod(t *testing.T) {
	turn := Turn("SPIN", "spinning", 1, math.Pi/2, 0.05, ExitNone)

	assert.NoError(t, turn.CheckPeriod(50*time.Millisecond)) // 0.079 rad per tick

	err := turn.CheckPeriod(100 * time.Millisecond) // 0.157 rad per tick
	require.ErrorIs(t, err, ErrTurnTooFast)
	assert.Contains(t, err.Error(), "SPIN")

	m := MustNew("spin", Move, Drive("GO", "going", 0.2, AtLeast(1), ExitNone), turn)
	assert.NoError(t, m.CheckPeriod(50*time.Millisecond))
	err = m.CheckPeriod(time.Second)
	require.ErrorIs(t, err, ErrTurnTooFast)
	assert.Contains(t, err.Error(), `maneuver "spin"`)
}
