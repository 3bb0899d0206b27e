// Package plans defines the obstacle maneuvers of the course.
//
// The built-in tables reproduce the competition tasks step for step,
// including their per-step comparison operators and exit effects. Custom
// maneuvers can be loaded from YAML with [Load] or [Parse].
package plans

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dturobocup/raubot/pkg/maneuver"
)

// ErrUnknownPlan is returned by Lookup for names that are not registered.
var ErrUnknownPlan = errors.New("unknown plan")

// Config carries the maneuver-level constants used to build the tables.
type Config struct {
	Speed            float64 `json:"speed" mapstructure:"speed"`
	HeadingTolerance float64 `json:"heading_tolerance" mapstructure:"heading_tolerance"`
	TurnRate         float64 `json:"turn_rate" mapstructure:"turn_rate"` // rad/s, magnitude
}

// DefaultConfig returns the constants used on the competition robot.
func DefaultConfig() Config {
	return Config{
		Speed:            0.2,
		HeadingTolerance: maneuver.DefaultHeadingTolerance,
		TurnRate:         math.Pi / 2,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Speed <= 0 {
		c.Speed = def.Speed
	}
	if c.HeadingTolerance <= 0 {
		c.HeadingTolerance = def.HeadingTolerance
	}
	if c.TurnRate <= 0 {
		c.TurnRate = def.TurnRate
	}
	return c
}

// rateToward returns the turn rate signed like target.
func (c Config) rateToward(target float64) float64 {
	return math.Copysign(c.TurnRate, target)
}

var registry = map[string]func(Config) *maneuver.Maneuver{
	"ramp":   Ramp,
	"seesaw": SeeSaw,
}

// Names returns the registered plan names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup builds the named plan.
func Lookup(name string, cfg Config) (*maneuver.Maneuver, error) {
	build, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %s)", ErrUnknownPlan, name, strings.Join(Names(), ", "))
	}
	return build(cfg), nil
}
