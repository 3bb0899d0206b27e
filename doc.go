// Package raubot runs the obstacle course maneuvers of a differential-drive
// robot: climbing the ramp and crossing the see-saw.
//
// Each maneuver is a fixed table of turn and drive steps played one control
// tick at a time against the robot's odometry.
//
// # Installation
//
//	go install github.com/dturobocup/raubot/cmd/raubot@latest
//
// # Usage
//
// First, run setup to find the wheel servos and calibrate the drive base:
//
//	raubot setup
//
// Try the course against the simulator, then on the robot:
//
//	raubot simulate
//	raubot run --plan ramp --plan seesaw
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/raubot: CLI with setup, run, simulate, plans and runs commands
//   - pkg/maneuver: Step tables and the tick executor
//   - pkg/plans: Built-in ramp and see-saw maneuvers, YAML definitions
//   - pkg/robot: Drive base, odometry, simulator and configuration
//   - pkg/runner: Control loop playing a plan against a platform
//   - pkg/journal: SQLite record of runs
package raubot
