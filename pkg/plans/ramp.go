package plans

import (
	"math"

	"github.com/dturobocup/raubot/pkg/maneuver"
)

// Ramp heading and leg lengths.
const (
	rampHeading     = -math.Pi / 2
	rampClimb       = 3.045
	rampToStairs    = 0.6
	rampStairsCross = 2.965
)

// Ramp climbs the ramp and drives through the stairs.
func Ramp(cfg Config) *maneuver.Maneuver {
	cfg = cfg.withDefaults()
	tol := cfg.HeadingTolerance
	rate := cfg.rateToward(rampHeading)

	return maneuver.MustNew("ramp", maneuver.Move|maneuver.Odometry|maneuver.MoveLine,
		maneuver.Turn("TURN_DIR_RAMP", "Turning for the ramp ...",
			rampHeading, rate, tol, maneuver.ResetDistance),
		maneuver.Drive("GO_FOR_RAMP", "Climbing the ramp ...",
			cfg.Speed, maneuver.AtLeast(rampClimb), maneuver.ResetDistance),
		maneuver.Turn("TURN_TO_STAIRS", "Turn to the stairs...",
			rampHeading, rate, tol, maneuver.ResetTime),
		maneuver.Drive("GO_TO_STAIRS", "Going to the stairs...",
			cfg.Speed, maneuver.AtLeast(rampToStairs), maneuver.ResetDistance),
		maneuver.Turn("TURN_AGAIN", "Turn again for stairs...",
			rampHeading, rate, tol, maneuver.ResetTime),
		maneuver.Drive("GO_THROUGH_STAIRS", "Going through the stairs ...",
			cfg.Speed, maneuver.AtLeast(rampStairsCross), maneuver.ResetDistance),
	)
}
