package robot

import (
	"context"
	"fmt"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.uber.org/multierr"

	"github.com/dturobocup/raubot/pkg/maneuver"
)

// Base represents the differential-drive base: two wheel servos on one bus.
//
// The wheel servos run in velocity (wheel) mode, so they turn without the
// one-revolution limit of position mode. Positions are only read back for
// odometry.
type Base struct {
	bus         *feetech.Bus
	group       *feetech.ServoGroup
	calibration Calibration
}

// maxWheelSpeed is the largest goal velocity magnitude, in steps/s, that the
// sign-magnitude goal velocity register can hold.
const maxWheelSpeed = 1<<15 - 1

// NewBase opens the serial bus and creates the wheel servo group.
func NewBase(cfg BaseConfig) (*Base, error) {
	if err := cfg.Calibration.Validate(); err != nil {
		return nil, err
	}

	baud := cfg.BaudRate
	if baud == 0 {
		baud = 1_000_000
	}

	// Open serial bus
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: baud,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}
	return newBase(bus, cfg.Calibration), nil
}

func newBase(bus *feetech.Bus, cal Calibration) *Base {
	return &Base{
		bus:         bus,
		group:       feetech.NewServoGroupByIDs(bus, cal.WheelIDs()...),
		calibration: cal,
	}
}

// Close closes the base's bus connection.
func (b *Base) Close() error {
	return b.bus.Close()
}

// Enable switches both wheels to velocity mode and enables torque.
// The operating mode can only be changed with torque off.
func (b *Base) Enable(ctx context.Context) error {
	if err := b.group.DisableAll(ctx); err != nil {
		return fmt.Errorf("disable torque: %w", err)
	}
	modes := make(map[int][]byte, len(b.calibration))
	for _, id := range b.group.IDs() {
		modes[id] = []byte{feetech.ModeVelocity}
	}
	if err := b.bus.SyncWrite(ctx, feetech.RegOperatingMode.Address, feetech.RegOperatingMode.Size, modes); err != nil {
		return fmt.Errorf("set wheel mode: %w", err)
	}
	if err := b.WriteSpeeds(ctx, map[WheelName]int{LeftWheel: 0, RightWheel: 0}); err != nil {
		return err
	}
	return b.group.EnableAll(ctx)
}

// Disable disables torque on both wheels.
func (b *Base) Disable(ctx context.Context) error {
	return b.group.DisableAll(ctx)
}

// Calibration returns the wheel calibration.
func (b *Base) Calibration() Calibration {
	return b.calibration
}

// ReadTicks reads the raw encoder position of both wheels.
func (b *Base) ReadTicks(ctx context.Context) (map[WheelName]int, error) {
	raw, err := b.group.Positions(ctx)
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	ticks := make(map[WheelName]int, len(raw))
	for id, pos := range raw {
		name, _, ok := b.calibration.ByID(id)
		if !ok {
			continue
		}
		ticks[name] = pos
	}
	if len(ticks) != len(AllWheels()) {
		return nil, fmt.Errorf("read positions: got %d of %d wheels", len(ticks), len(AllWheels()))
	}
	return ticks, nil
}

// WriteSpeeds writes goal velocities in encoder steps per second. Values
// beyond the register range are clamped.
func (b *Base) WriteSpeeds(ctx context.Context, speeds map[WheelName]int) error {
	proto := b.bus.Protocol()
	raw := make(map[int][]byte, len(speeds))
	for name, v := range speeds {
		wc, ok := b.calibration[name]
		if !ok {
			continue
		}
		raw[wc.ID] = proto.EncodeWord(encodeSpeed(v))
	}

	// Write using sync write
	if err := b.bus.SyncWrite(ctx, feetech.RegGoalVelocity.Address, feetech.RegGoalVelocity.Size, raw); err != nil {
		return fmt.Errorf("write speeds: %w", err)
	}
	return nil
}

// encodeSpeed converts a signed speed to the register's sign-magnitude form.
func encodeSpeed(v int) uint16 {
	mag := min(abs(v), maxWheelSpeed)
	if v < 0 {
		return uint16(mag) | 1<<feetech.RegGoalVelocity.SignBit
	}
	return uint16(mag)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// HardwarePlatform drives a Base and estimates its pose from the wheel encoders.
type HardwarePlatform struct {
	base       *Base
	odo        *Odometry
	trackWidth float64
	caps       maneuver.Requirement

	last map[WheelName]int // encoder reading of the previous Pose
}

var _ Platform = (*HardwarePlatform)(nil)

// NewHardwarePlatform couples base and odometry.
func NewHardwarePlatform(base *Base, odo *Odometry, cfg BaseConfig) *HardwarePlatform {
	caps := maneuver.Move | maneuver.Odometry
	if cfg.LineSensor {
		caps |= maneuver.MoveLine
	}
	return &HardwarePlatform{
		base:       base,
		odo:        odo,
		trackWidth: cfg.TrackWidth,
		caps:       caps,
	}
}

// Pose reads the encoders, integrates the wheel travel and returns the pose.
func (p *HardwarePlatform) Pose(ctx context.Context) (maneuver.Pose, error) {
	ticks, err := p.base.ReadTicks(ctx)
	if err != nil {
		return maneuver.Pose{}, err
	}

	if p.last != nil {
		cal := p.base.Calibration()
		left, right := cal[LeftWheel], cal[RightWheel]
		dl := left.TicksToMeters(left.Delta(p.last[LeftWheel], ticks[LeftWheel]))
		dr := right.TicksToMeters(right.Delta(p.last[RightWheel], ticks[RightWheel]))
		p.odo.Update(dl, dr)
	}
	p.last = ticks

	return p.odo.Snapshot(), nil
}

// Drive sets the wheel velocities for cmd. The wheels keep turning until the
// next Drive or Stop.
func (p *HardwarePlatform) Drive(ctx context.Context, cmd maneuver.Command) error {
	vl, vr := wheelSpeeds(cmd, p.trackWidth)
	cal := p.base.Calibration()

	return p.base.WriteSpeeds(ctx, map[WheelName]int{
		LeftWheel:  cal[LeftWheel].MetersToTicks(vl),
		RightWheel: cal[RightWheel].MetersToTicks(vr),
	})
}

// Stop sets both wheel velocities to zero.
func (p *HardwarePlatform) Stop(ctx context.Context) error {
	return p.base.WriteSpeeds(ctx, map[WheelName]int{LeftWheel: 0, RightWheel: 0})
}

// Close stops the base, disables torque and closes the bus.
func (p *HardwarePlatform) Close(ctx context.Context) error {
	return multierr.Combine(p.Stop(ctx), p.base.Disable(ctx), p.base.Close())
}

func (p *HardwarePlatform) ResetDistance()                     { p.odo.ResetDistance() }
func (p *HardwarePlatform) ResetTime()                         { p.odo.ResetTime() }
func (p *HardwarePlatform) Capabilities() maneuver.Requirement { return p.caps }

// wheelSpeeds converts a body command to left and right wheel speeds.
func wheelSpeeds(cmd maneuver.Command, trackWidth float64) (left, right float64) {
	half := cmd.Angular * trackWidth / 2
	return cmd.Linear - half, cmd.Linear + half
}
