// Package robot provides the drive base, odometry and simulator the
// maneuver runner plays against.
package robot

// WheelName identifies a drive wheel.
type WheelName string

// Wheel names for the differential-drive base.
const (
	LeftWheel  WheelName = "left"
	RightWheel WheelName = "right"
)

// AllWheels returns all wheel names in order (matching servo IDs 1-2).
func AllWheels() []WheelName {
	return []WheelName{
		LeftWheel,
		RightWheel,
	}
}
