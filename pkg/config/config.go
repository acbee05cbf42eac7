package config

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lumisync/lumi/pkg/calibration"
	"github.com/lumisync/lumi/pkg/display"
	"github.com/lumisync/lumi/pkg/levels"
)

// DefaultPath is where the daemon looks for its config file unless told
// otherwise.
const DefaultPath = "/etc/lumi.json"

// Transition tunes the smooth brightness ramp.
type Transition struct {
	// Duration bounds the total ramp time.
	Duration time.Duration
	// Steps is the preferred number of intermediate writes. It is raised
	// automatically when a step would exceed MaxStepDelta percent.
	Steps int
	// MaxStepDelta caps the brightness change of a single step.
	MaxStepDelta int
}

type Config interface {
	ListenAddress() string
	Driver() string
	DriverOptions() display.Options
	Profile() calibration.Profile
	LevelTable() levels.Table
	Windows() []levels.Window
	LuxRange() levels.LuxRange
	DefaultLevel() levels.Level
	SmoothTransition() bool
	Transition() Transition
	MinPercent() int
	MaxPercent() int
	AutoSchedule() string

	// Validate checks the loaded values against the model invariants.
	Validate() error
	// Load reads the configuration from the source.
	Load() error
	// Save saves the configuration to the source.
	Save() error

	LogrusFields() logrus.Fields
}
