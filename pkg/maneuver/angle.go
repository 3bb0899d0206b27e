package maneuver

import "math"

// DefaultHeadingTolerance is the heading window used by the built-in turns.
const DefaultHeadingTolerance = 0.05

// NormalizeAngle maps a to (-π, π].
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// AngleDiff returns the shortest signed arc from b to a.
func AngleDiff(a, b float64) float64 {
	return NormalizeAngle(a - b)
}

// CloseTo reports whether actual is within tol of target along the shortest arc.
func CloseTo(actual, target, tol float64) bool {
	return math.Abs(AngleDiff(actual, target)) <= tol
}
