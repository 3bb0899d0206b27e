// Package maneuver runs obstacle maneuvers as ordered tables of motion steps.
//
// A [Maneuver] is pure data: an ordered list of [Step] values, each with a
// command law, a completion predicate and an optional exit effect. An
// [Executor] plays one maneuver, one [Executor.Tick] per control cycle, and
// reports completion through [Executor.Stopped].
package maneuver

import "time"

// Pose is the odometry snapshot read by a step on every tick.
type Pose struct {
	Heading  float64       // radians, wraps at ±π
	Distance float64       // metres since the last distance reset
	Elapsed  time.Duration // time since the last time reset
}

// Command is a velocity command for the drive base.
// The zero value stops the robot.
type Command struct {
	Linear  float64 // m/s
	Angular float64 // rad/s
}

// IsZero reports whether c is the stop command.
func (c Command) IsZero() bool {
	return c.Linear == 0 && c.Angular == 0
}

// Resetter resets the odometry accumulators owned by the platform.
type Resetter interface {
	ResetDistance()
	ResetTime()
}
