package plans

import "github.com/dturobocup/raubot/pkg/maneuver"

// seesawHeading is the board direction, slightly past a right angle.
const seesawHeading = 1.65806

// SeeSaw crosses the see-saw and heads back towards the ramp.
//
// Comparison operators and exit effects differ between legs on purpose:
// they are kept exactly as tuned on the course.
func SeeSaw(cfg Config) *maneuver.Maneuver {
	cfg = cfg.withDefaults()
	tol := cfg.HeadingTolerance
	left, right := cfg.rateToward(-seesawHeading), cfg.rateToward(seesawHeading)

	m := maneuver.MustNew("seesaw", maneuver.Move|maneuver.Odometry,
		maneuver.Turn("SEESAW_TURN_LEFT", "Turn left 90 degree...",
			-seesawHeading, left, tol, maneuver.ResetDistance),
		maneuver.Drive("SEESAW_BEFORE_RAMP", "Move forward 87cm...",
			cfg.Speed, maneuver.Above(0.87), maneuver.ResetDistance),
		maneuver.Drive("SEESAW_RAMP", "Climbing ramp 310cm...",
			cfg.Speed, maneuver.Above(3.10), maneuver.ResetDistance),
		maneuver.Turn("FALL_ONTO", "Going on the see-saw ...",
			-seesawHeading, left, tol, maneuver.ResetDistance),
		maneuver.Drive("BOARD_FORWARD", "Going forward 317cm...",
			cfg.Speed, maneuver.AtLeast(3.17), maneuver.ExitNone),
		maneuver.Turn("SEESAW_TURN_RIGHT", "Turn right 90 degree...",
			seesawHeading, right, tol, maneuver.ResetDistance),
		maneuver.Drive("SEESAW_TO_RAMP", "Going forward 165cm...",
			cfg.Speed, maneuver.AtLeast(1.65), maneuver.ExitNone),
	)
	return m.WithDoneMessage("Exiting see-saw and find the ramp")
}
