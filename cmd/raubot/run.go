package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dturobocup/raubot/pkg/journal"
	"github.com/dturobocup/raubot/pkg/maneuver"
	"github.com/dturobocup/raubot/pkg/plans"
	"github.com/dturobocup/raubot/pkg/robot"
	"github.com/dturobocup/raubot/pkg/runner"
)

// defaultPlan is the full course.
var defaultPlan = []string{"ramp", "seesaw"}

// PlanOptions are shared by the commands that execute maneuvers.
type PlanOptions struct {
	Config    string   `long:"config" default:"raubot.json" description:"Configuration file"`
	Plan      []string `short:"p" long:"plan" description:"Built-in maneuver to run, repeat for several (default: ramp, seesaw)"`
	File      []string `short:"f" long:"file" description:"YAML maneuver definition to run after the built-in ones"`
	Hz        int      `long:"hz" description:"Control loop frequency (overrides config)"`
	Plain     bool     `long:"plain" description:"Print log lines instead of the dashboard"`
	NoJournal bool     `long:"no-journal" description:"Do not record the run"`
}

type RunCommand struct {
	PlanOptions
	Calibration string `long:"calibration" description:"JSON wheel calibration file, overrides base.calibration"`
}

type SimulateCommand struct {
	PlanOptions
	Heading float64 `long:"heading" description:"Initial heading in radians"`
}

func (o *PlanOptions) load() (*robot.Config, []*maneuver.Maneuver) {
	cfg, err := robot.LoadConfigOrDefault(o.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", o.Config, err)
		os.Exit(1)
	}
	if o.Hz > 0 {
		cfg.Loop.Hz = o.Hz
	}

	plan, err := buildPlan(cfg.Plans, o.Plan, o.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg, plan
}

func buildPlan(cfg plans.Config, names, files []string) ([]*maneuver.Maneuver, error) {
	if len(names) == 0 && len(files) == 0 {
		names = defaultPlan
	}

	var plan []*maneuver.Maneuver
	for _, name := range names {
		m, err := plans.Lookup(name, cfg)
		if err != nil {
			return nil, err
		}
		plan = append(plan, m)
	}
	for _, path := range files {
		m, err := plans.Load(path)
		if err != nil {
			return nil, err
		}
		plan = append(plan, m)
	}
	return plan, nil
}

func (c *RunCommand) Execute(args []string) error {
	cfg, plan := c.load()
	if err := overrideCalibration(&cfg.Base, c.Calibration); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading calibration: %v\n", err)
		os.Exit(1)
	}

	if !cfg.Base.IsConfigured() {
		fmt.Fprintln(os.Stderr, "Base not configured. Run 'raubot setup' first.")
		os.Exit(1)
	}

	base, err := robot.NewBase(cfg.Base)
	if err != nil {
		log.Fatalf("Failed to open base: %v", err)
	}
	if err := base.Enable(context.Background()); err != nil {
		base.Close()
		log.Fatalf("Failed to enable wheels: %v", err)
	}

	odo := robot.NewOdometry(cfg.Base.TrackWidth)
	platform := robot.NewHardwarePlatform(base, odo, cfg.Base)
	defer func() {
		if err := platform.Close(context.Background()); err != nil {
			log.Printf("Shutdown: %v", err)
		}
	}()

	fmt.Printf("Base on %s\n", cfg.Base.Port)
	return execute(platform, plan, cfg, c.PlanOptions, "raubot run")
}

// overrideCalibration replaces the configured wheel calibration with the one
// in path, if set.
func overrideCalibration(base *robot.BaseConfig, path string) error {
	if path == "" {
		return nil
	}
	cal, err := robot.LoadCalibration(path)
	if err != nil {
		return err
	}
	if err := cal.Validate(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	base.Calibration = cal
	return nil
}

func (c *SimulateCommand) Execute(args []string) error {
	cfg, plan := c.load()

	sim := robot.NewSim(robot.SimConfig{
		TrackWidth: cfg.Base.TrackWidth,
		Period:     cfg.Loop.Period(),
		Heading:    c.Heading,
	})
	return execute(sim, plan, cfg, c.PlanOptions, "raubot simulate")
}

func execute(p robot.Platform, plan []*maneuver.Maneuver, cfg *robot.Config, o PlanOptions, title string) error {
	var rec runner.Recorder
	if cfg.Journal.Enabled && !o.NoJournal {
		store, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer store.Close()
		rec = store
	}

	ctrl, err := runner.NewController(p, plan, runner.Config{
		Hz:          cfg.Loop.Hz,
		LogInterval: time.Duration(cfg.Loop.LogInterval * float64(time.Second)),
		StallTicks:  cfg.Loop.StallTicks,
		Recorder:    rec,
	})
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- ctrl.Start(ctx) }()

	if o.Plain {
		return runPlain(ctrl, done)
	}

	// Run TUI
	prog := tea.NewProgram(newRunModel(ctrl, title), tea.WithAltScreen())
	if _, err := prog.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}

	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if id := ctrl.RunID(); id != "" {
		fmt.Printf("Recorded run %s\n", id)
	}
	return nil
}

func runPlain(ctrl *runner.Controller, done <-chan error) error {
	for {
		select {
		case line := <-ctrl.Logs():
			fmt.Println(line)
		case err := <-done:
			printPending(ctrl)
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			if id := ctrl.RunID(); id != "" {
				fmt.Printf("Recorded run %s\n", id)
			}
			return nil
		}
	}
}

func printPending(ctrl *runner.Controller) {
	for {
		select {
		case line := <-ctrl.Logs():
			fmt.Println(line)
		default:
			return
		}
	}
}
