package robot

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// WheelCalibration holds calibration data for a single wheel servo.
type WheelCalibration struct {
	ID          int     `json:"id" mapstructure:"id"`
	DriveMode   int     `json:"drive_mode" mapstructure:"drive_mode"` // 1 reverses the wheel
	TicksPerRev int     `json:"ticks_per_rev" mapstructure:"ticks_per_rev"`
	RadiusM     float64 `json:"radius_m" mapstructure:"radius_m"`
}

// Calibration holds calibration data for both wheels, keyed by wheel name.
type Calibration map[WheelName]WheelCalibration

// DefaultCalibration returns the calibration of the stock base: STS servos
// with IDs 1 and 2, the right one mounted mirrored.
func DefaultCalibration() Calibration {
	return Calibration{
		LeftWheel:  {ID: 1, TicksPerRev: 4096, RadiusM: 0.035},
		RightWheel: {ID: 2, DriveMode: 1, TicksPerRev: 4096, RadiusM: 0.035},
	}
}

// LoadCalibration loads calibration data from a JSON file.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}

	// Parse into a map with string keys first
	var raw map[string]WheelCalibration
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse calibration JSON: %w", err)
	}

	cal := make(Calibration, len(raw))
	for name, wc := range raw {
		cal[WheelName(name)] = wc
	}

	return cal, nil
}

func (c WheelCalibration) sign() float64 {
	if c.DriveMode == 1 {
		return -1
	}
	return 1
}

func (c WheelCalibration) metersPerTick() float64 {
	if c.TicksPerRev == 0 {
		return 0
	}
	return 2 * math.Pi * c.RadiusM / float64(c.TicksPerRev)
}

// Delta returns the shortest signed tick difference from prev to cur,
// accounting for the encoder wrapping at TicksPerRev.
func (c WheelCalibration) Delta(prev, cur int) int {
	d := cur - prev
	if c.TicksPerRev <= 0 {
		return d
	}
	half := c.TicksPerRev / 2
	for d > half {
		d -= c.TicksPerRev
	}
	for d < -half {
		d += c.TicksPerRev
	}
	return d
}

// TicksToMeters converts an encoder delta to forward wheel travel.
func (c WheelCalibration) TicksToMeters(ticks int) float64 {
	return c.sign() * float64(ticks) * c.metersPerTick()
}

// MetersToTicks converts forward wheel travel to an encoder delta.
func (c WheelCalibration) MetersToTicks(m float64) int {
	mpt := c.metersPerTick()
	if mpt == 0 {
		return 0
	}
	return int(math.Round(c.sign() * m / mpt))
}

// WheelIDs returns the servo IDs for all wheels in the calibration.
func (c Calibration) WheelIDs() []int {
	ids := make([]int, 0, len(c))
	// Use AllWheels() to ensure consistent ordering
	for _, name := range AllWheels() {
		if wc, ok := c[name]; ok {
			ids = append(ids, wc.ID)
		}
	}
	return ids
}

// ByID returns wheel name and calibration for a given servo ID.
func (c Calibration) ByID(id int) (WheelName, WheelCalibration, bool) {
	for name, wc := range c {
		if wc.ID == id {
			return name, wc, true
		}
	}
	return "", WheelCalibration{}, false
}

// Validate checks that both wheels are calibrated with distinct IDs.
func (c Calibration) Validate() error {
	seen := make(map[int]WheelName, len(c))
	for _, name := range AllWheels() {
		wc, ok := c[name]
		if !ok {
			return fmt.Errorf("calibration: missing %s wheel", name)
		}
		if wc.TicksPerRev <= 0 || wc.RadiusM <= 0 {
			return fmt.Errorf("calibration: %s wheel needs ticks_per_rev and radius_m", name)
		}
		if other, dup := seen[wc.ID]; dup {
			return fmt.Errorf("calibration: %s and %s share servo ID %d", other, name, wc.ID)
		}
		seen[wc.ID] = name
	}
	return nil
}
