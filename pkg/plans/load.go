package plans

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dturobocup/raubot/pkg/maneuver"
)

// Definition is the YAML form of a maneuver.
type Definition struct {
	Name             string    `yaml:"name"`
	Speed            float64   `yaml:"speed"`
	HeadingTolerance float64   `yaml:"heading_tolerance"`
	TurnRate         float64   `yaml:"turn_rate"`
	Requirements     []string  `yaml:"requirements"`
	DoneMessage      string    `yaml:"done_message"`
	Steps            []StepDef `yaml:"steps"`
}

// StepDef is one step of a Definition. Exactly one of Turn, Drive and Wait
// is set.
type StepDef struct {
	Name    string    `yaml:"name"`
	Message string    `yaml:"message"`
	Turn    *TurnDef  `yaml:"turn,omitempty"`
	Drive   *DriveDef `yaml:"drive,omitempty"`
	Wait    *WaitDef  `yaml:"wait,omitempty"`
	Exit    []string  `yaml:"exit"`
}

// TurnDef rotates in place at Rate rad/s until Heading is reached. A zero
// Rate uses the maneuver turn rate, signed toward Heading.
type TurnDef struct {
	Heading float64 `yaml:"heading"`
	Rate    float64 `yaml:"rate"`
}

// DriveDef drives straight until Distance is passed.
// Compare is ">" or ">="; Speed overrides the maneuver speed when set.
type DriveDef struct {
	Distance float64 `yaml:"distance"`
	Compare  string  `yaml:"compare"`
	Speed    float64 `yaml:"speed,omitempty"`
}

// WaitDef holds still until Seconds have passed since the last reset_time.
type WaitDef struct {
	Seconds float64 `yaml:"seconds"`
}

// Load reads a maneuver definition from a YAML file.
func Load(path string) (*maneuver.Maneuver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse builds a maneuver from YAML.
func Parse(data []byte) (*maneuver.Maneuver, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse plan YAML: %w", err)
	}
	return def.Build()
}

// Build validates the definition and converts it to a maneuver.
func (d Definition) Build() (*maneuver.Maneuver, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("plan definition: missing name")
	}
	cfg := Config{Speed: d.Speed, HeadingTolerance: d.HeadingTolerance, TurnRate: d.TurnRate}.withDefaults()

	var req maneuver.Requirement
	for _, name := range d.Requirements {
		r, err := maneuver.ParseRequirement(name)
		if err != nil {
			return nil, fmt.Errorf("plan %q: %w", d.Name, err)
		}
		req |= r
	}

	steps := make([]maneuver.Step, 0, len(d.Steps))
	for i, sd := range d.Steps {
		step, err := sd.build(cfg)
		if err != nil {
			return nil, fmt.Errorf("plan %q step %d (%s): %w", d.Name, i, sd.Name, err)
		}
		steps = append(steps, step)
	}

	m, err := maneuver.New(d.Name, req, steps...)
	if err != nil {
		return nil, err
	}
	if d.DoneMessage != "" {
		m = m.WithDoneMessage(d.DoneMessage)
	}
	return m, nil
}

func (sd StepDef) build(cfg Config) (maneuver.Step, error) {
	var exit maneuver.Exit
	for _, name := range sd.Exit {
		e, err := maneuver.ParseExit(name)
		if err != nil {
			return maneuver.Step{}, err
		}
		exit |= e
	}

	kinds := 0
	for _, set := range []bool{sd.Turn != nil, sd.Drive != nil, sd.Wait != nil} {
		if set {
			kinds++
		}
	}
	if kinds > 1 {
		return maneuver.Step{}, fmt.Errorf("only one of turn, drive and wait may be set")
	}

	switch {
	case sd.Turn != nil:
		rate := sd.Turn.Rate
		if rate == 0 {
			rate = cfg.rateToward(sd.Turn.Heading)
		}
		return maneuver.Turn(sd.Name, sd.Message, sd.Turn.Heading, rate, cfg.HeadingTolerance, exit), nil
	case sd.Drive != nil:
		until, err := threshold(sd.Drive.Compare, sd.Drive.Distance)
		if err != nil {
			return maneuver.Step{}, err
		}
		speed := cfg.Speed
		if sd.Drive.Speed != 0 {
			speed = sd.Drive.Speed
		}
		return maneuver.Drive(sd.Name, sd.Message, speed, until, exit), nil
	case sd.Wait != nil:
		if sd.Wait.Seconds <= 0 {
			return maneuver.Step{}, fmt.Errorf("wait needs positive seconds")
		}
		d := time.Duration(sd.Wait.Seconds * float64(time.Second))
		return maneuver.Wait(sd.Name, sd.Message, d, exit), nil
	default:
		return maneuver.Step{}, fmt.Errorf("one of turn, drive or wait is required")
	}
}

func threshold(compare string, distance float64) (maneuver.Threshold, error) {
	switch compare {
	case ">":
		return maneuver.Above(distance), nil
	case ">=", "":
		return maneuver.AtLeast(distance), nil
	default:
		return maneuver.Threshold{}, fmt.Errorf("unknown comparison %q", compare)
	}
}
