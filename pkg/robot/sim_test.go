package robot

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dturobocup/raubot/pkg/maneuver"
)

func TestSimDriveStraight(t *testing.T) {
	ctx := context.Background()
	sim := NewSim(SimConfig{TrackWidth: 0.2, Period: 100 * time.Millisecond})

	for range 10 {
		require.NoError(t, sim.Drive(ctx, maneuver.Command{Linear: 0.5}))
	}

	p, err := sim.Pose(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p.Distance, 1e-9)
	assert.InDelta(t, 0, p.Heading, 1e-9)
	assert.Equal(t, time.Second, p.Elapsed)

	cmd, n := sim.LastCommand()
	assert.Equal(t, maneuver.Command{Linear: 0.5}, cmd)
	assert.Equal(t, 10, n)
}

func TestSimTurn(t *testing.T) {
	ctx := context.Background()
	sim := NewSim(SimConfig{Period: 50 * time.Millisecond})

	for range 20 {
		require.NoError(t, sim.Drive(ctx, maneuver.Command{Angular: -math.Pi / 2}))
	}

	p, err := sim.Pose(ctx)
	require.NoError(t, err)
	assert.InDelta(t, -math.Pi/2, p.Heading, 1e-9)
	assert.InDelta(t, 0, p.Distance, 1e-9)
}

func TestSimInitialHeadingAndDefaults(t *testing.T) {
	sim := NewSim(SimConfig{Heading: 1})
	p, err := sim.Pose(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 1, p.Heading, 1e-9)
	assert.Equal(t, maneuver.Move|maneuver.Odometry|maneuver.MoveLine, sim.Capabilities())
}

func TestSimResets(t *testing.T) {
	ctx := context.Background()
	sim := NewSim(SimConfig{Period: time.Second})

	require.NoError(t, sim.Drive(ctx, maneuver.Command{Linear: 1}))
	sim.ResetDistance()
	p, _ := sim.Pose(ctx)
	assert.Zero(t, p.Distance)
	assert.Equal(t, time.Second, p.Elapsed)

	sim.ResetTime()
	p, _ = sim.Pose(ctx)
	assert.Zero(t, p.Elapsed)
}

func TestSimStop(t *testing.T) {
	ctx := context.Background()
	sim := NewSim(SimConfig{})
	require.NoError(t, sim.Drive(ctx, maneuver.Command{Linear: 1}))
	require.NoError(t, sim.Stop(ctx))

	cmd, n := sim.LastCommand()
	assert.True(t, cmd.IsZero())
	assert.Equal(t, 1, n)
}

func TestSimCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sim := NewSim(SimConfig{})

	_, err := sim.Pose(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, sim.Drive(ctx, maneuver.Command{}), context.Canceled)
}

func TestWheelSpeeds(t *testing.T) {
	l, r := wheelSpeeds(maneuver.Command{Linear: 1, Angular: 2}, 0.5)
	assert.InDelta(t, 0.5, l, 1e-9)
	assert.InDelta(t, 1.5, r, 1e-9)
}
