package robot

import (
	"context"

	"github.com/dturobocup/raubot/pkg/maneuver"
)

// Platform is the robot as seen by the maneuver runner.
type Platform interface {
	maneuver.Resetter

	// Pose reads the latest odometry snapshot.
	Pose(ctx context.Context) (maneuver.Pose, error)
	// Drive applies a velocity command until the next call.
	Drive(ctx context.Context, cmd maneuver.Command) error
	// Stop halts the base.
	Stop(ctx context.Context) error
	// Capabilities reports what the platform can do.
	Capabilities() maneuver.Requirement
}
