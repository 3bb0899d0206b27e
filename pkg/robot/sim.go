package robot

import (
	"context"
	"sync"
	"time"

	"github.com/dturobocup/raubot/pkg/maneuver"
)

// SimConfig configures the kinematic simulator.
type SimConfig struct {
	TrackWidth float64       // metres between the wheels
	Period     time.Duration // simulated time per Drive call
	Heading    float64       // initial heading
}

// Sim is a kinematic differential-drive simulator. Every Drive call applies
// the command for one Period of simulated time; the wheels track commands
// exactly.
type Sim struct {
	mu     sync.Mutex
	cfg    SimConfig
	clock  time.Time
	odo    *Odometry
	last   maneuver.Command
	drives int
}

var _ Platform = (*Sim)(nil)

// NewSim creates a simulator at rest.
func NewSim(cfg SimConfig) *Sim {
	if cfg.Period <= 0 {
		cfg.Period = 50 * time.Millisecond
	}
	if cfg.TrackWidth <= 0 {
		cfg.TrackWidth = DefaultConfig().Base.TrackWidth
	}
	s := &Sim{cfg: cfg, clock: time.Unix(0, 0)}
	s.odo = NewOdometryWithClock(cfg.TrackWidth, s.now)
	s.odo.SetHeading(cfg.Heading)
	return s
}

func (s *Sim) now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clock
}

// Pose returns the simulated odometry.
func (s *Sim) Pose(ctx context.Context) (maneuver.Pose, error) {
	if err := ctx.Err(); err != nil {
		return maneuver.Pose{}, err
	}
	return s.odo.Snapshot(), nil
}

// Drive integrates cmd over one period.
func (s *Sim) Drive(ctx context.Context, cmd maneuver.Command) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dt := s.cfg.Period.Seconds()
	vl, vr := wheelSpeeds(cmd, s.cfg.TrackWidth)
	s.odo.Update(vl*dt, vr*dt)

	s.mu.Lock()
	s.clock = s.clock.Add(s.cfg.Period)
	s.last = cmd
	s.drives++
	s.mu.Unlock()
	return nil
}

// Stop records a zero command without advancing time.
func (s *Sim) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = maneuver.Command{}
	return nil
}

// LastCommand returns the most recent command and the number of Drive calls.
func (s *Sim) LastCommand() (maneuver.Command, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.drives
}

func (s *Sim) ResetDistance() { s.odo.ResetDistance() }
func (s *Sim) ResetTime()     { s.odo.ResetTime() }

// Capabilities reports every capability; the simulator follows lines perfectly.
func (s *Sim) Capabilities() maneuver.Requirement {
	return maneuver.Move | maneuver.Odometry | maneuver.MoveLine
}
