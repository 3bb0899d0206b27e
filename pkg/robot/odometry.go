package robot

import (
	"math"
	"sync"
	"time"

	"github.com/dturobocup/raubot/pkg/maneuver"
)

// Odometry integrates wheel travel into a heading and the distance and time
// accumulated since their last reset.
type Odometry struct {
	mu         sync.Mutex
	trackWidth float64
	now        func() time.Time

	heading   float64
	distance  float64
	timeStart time.Time
}

// NewOdometry creates an odometry estimator for a base with the given
// distance between the wheels (metres).
func NewOdometry(trackWidth float64) *Odometry {
	return NewOdometryWithClock(trackWidth, time.Now)
}

// NewOdometryWithClock is like NewOdometry with an explicit time source.
func NewOdometryWithClock(trackWidth float64, now func() time.Time) *Odometry {
	return &Odometry{
		trackWidth: trackWidth,
		now:        now,
		timeStart:  now(),
	}
}

// Update adds one interval of wheel travel (metres, forward positive).
func (o *Odometry) Update(dLeft, dRight float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.distance += math.Abs((dLeft + dRight) / 2)
	if o.trackWidth > 0 {
		o.heading = maneuver.NormalizeAngle(o.heading + (dRight-dLeft)/o.trackWidth)
	}
}

// SetHeading overrides the heading estimate.
func (o *Odometry) SetHeading(h float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.heading = maneuver.NormalizeAngle(h)
}

// Snapshot returns the current pose.
func (o *Odometry) Snapshot() maneuver.Pose {
	o.mu.Lock()
	defer o.mu.Unlock()
	return maneuver.Pose{
		Heading:  o.heading,
		Distance: o.distance,
		Elapsed:  o.now().Sub(o.timeStart),
	}
}

// ResetDistance zeroes the distance accumulator.
func (o *Odometry) ResetDistance() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.distance = 0
}

// ResetTime restarts the elapsed time accumulator.
func (o *Odometry) ResetTime() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.timeStart = o.now()
}
