package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Setup    SetupCommand    `command:"setup" description:"Find the wheel bus and calibrate the drive base"`
	Run      RunCommand      `command:"run" description:"Run maneuvers on the robot"`
	Simulate SimulateCommand `command:"simulate" alias:"sim" description:"Run maneuvers against the kinematic simulator"`
	Plans    PlansCommand    `command:"plans" description:"List maneuver step tables"`
	Runs     RunsCommand     `command:"runs" description:"Show recorded runs"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "raubot - obstacle course maneuvers for a differential-drive robot"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
