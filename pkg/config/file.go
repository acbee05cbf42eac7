package config

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/lumisync/lumi/pkg/calibration"
	"github.com/lumisync/lumi/pkg/display"
	"github.com/lumisync/lumi/pkg/levels"
	"github.com/lumisync/lumi/pkg/utils/ptr"
)

var (
	defaultFileConfig = &RawFileConfig{
		ListenAddress:        ptr.To("0.0.0.0:5000"),
		Driver:               ptr.To(display.DriverSysfs),
		Device:               ptr.To(""),
		PWMFreqHz:            ptr.To(0),
		InitialPercent:       ptr.To(50),
		Calibration:          ptr.To(calibration.DefaultProfile()),
		Levels:               ptr.To(levels.DefaultTable()),
		Windows:              ptr.To(levels.DefaultWindows()),
		Lux:                  ptr.To(levels.DefaultLuxRange()),
		DefaultLevel:         ptr.To(string(levels.LevelNormal)),
		SmoothTransition:     ptr.To(true),
		TransitionDurationMS: ptr.To(1000),
		TransitionSteps:      ptr.To(10),
		MaxStepDelta:         ptr.To(10),
		// Keep a little backlight even for a zero target so the screen
		// never goes fully dark from a sensor reading.
		MinPercent:   ptr.To(1),
		MaxPercent:   ptr.To(100),
		AutoSchedule: ptr.To(""),
	}
)

var _ Config = &File{}

type File struct {
	c        *RawFileConfig
	mu       *sync.RWMutex
	filepath string
}

func NewFile(configPath string) (*File, error) {
	f := &File{
		filepath: configPath,
		mu:       &sync.RWMutex{},
	}
	err := f.Load()
	if err != nil {
		return nil, err
	}

	return f, nil
}

func NewFileFromConfig(c *RawFileConfig, configPath string) *File {
	if c == nil {
		c = defaultFileConfig
	}

	f := &File{
		c:        c,
		mu:       &sync.RWMutex{},
		filepath: configPath,
	}

	return f
}

// RawFileConfig is the on-disk shape. Every field is optional; absent fields
// fall back to defaults, so an empty file is a valid config.
type RawFileConfig struct {
	ListenAddress        *string              `json:"listenAddress,omitempty"`
	Driver               *string              `json:"driver,omitempty"`
	Device               *string              `json:"device,omitempty"`
	PWMFreqHz            *int                 `json:"pwmFreqHz,omitempty"`
	InitialPercent       *int                 `json:"initialPercent,omitempty"`
	Calibration          *calibration.Profile `json:"calibration,omitempty"`
	Levels               *levels.Table        `json:"levels,omitempty"`
	Windows              *[]levels.Window     `json:"windows,omitempty"`
	Lux                  *levels.LuxRange     `json:"lux,omitempty"`
	DefaultLevel         *string              `json:"defaultLevel,omitempty"`
	SmoothTransition     *bool                `json:"smoothTransition,omitempty"`
	TransitionDurationMS *int                 `json:"transitionDurationMs,omitempty"`
	TransitionSteps      *int                 `json:"transitionSteps,omitempty"`
	MaxStepDelta         *int                 `json:"maxStepDelta,omitempty"`
	MinPercent           *int                 `json:"minPercent,omitempty"`
	MaxPercent           *int                 `json:"maxPercent,omitempty"`
	AutoSchedule         *string              `json:"autoSchedule,omitempty"`
}

// DefaultRawFileConfig returns a copy of the stock config, e.g. for writing
// an initial config file.
func DefaultRawFileConfig() *RawFileConfig {
	c := *defaultFileConfig
	return &c
}

func NewRawFileConfigFromConfig(c Config) (*RawFileConfig, error) {
	if c == nil {
		return nil, pkgerrors.New("config is nil")
	}

	tr := c.Transition()
	rawConfig := &RawFileConfig{
		ListenAddress:        ptr.To(c.ListenAddress()),
		Driver:               ptr.To(c.Driver()),
		Device:               ptr.To(c.DriverOptions().Device),
		PWMFreqHz:            ptr.To(c.DriverOptions().PWMFreqHz),
		InitialPercent:       ptr.To(c.DriverOptions().Initial),
		Calibration:          ptr.To(c.Profile()),
		Levels:               ptr.To(c.LevelTable()),
		Windows:              ptr.To(c.Windows()),
		Lux:                  ptr.To(c.LuxRange()),
		DefaultLevel:         ptr.To(string(c.DefaultLevel())),
		SmoothTransition:     ptr.To(c.SmoothTransition()),
		TransitionDurationMS: ptr.To(int(tr.Duration / time.Millisecond)),
		TransitionSteps:      ptr.To(tr.Steps),
		MaxStepDelta:         ptr.To(tr.MaxStepDelta),
		MinPercent:           ptr.To(c.MinPercent()),
		MaxPercent:           ptr.To(c.MaxPercent()),
		AutoSchedule:         ptr.To(c.AutoSchedule()),
	}

	return rawConfig, nil
}

func (f *File) ListenAddress() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.ListenAddress != nil {
		return *f.c.ListenAddress
	}
	return *defaultFileConfig.ListenAddress
}

func (f *File) Driver() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.Driver != nil {
		return *f.c.Driver
	}
	return *defaultFileConfig.Driver
}

func (f *File) DriverOptions() display.Options {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	opts := display.Options{
		Device:    *defaultFileConfig.Device,
		PWMFreqHz: *defaultFileConfig.PWMFreqHz,
		Initial:   *defaultFileConfig.InitialPercent,
	}
	if f.c.Device != nil {
		opts.Device = *f.c.Device
	}
	if f.c.PWMFreqHz != nil {
		opts.PWMFreqHz = *f.c.PWMFreqHz
	}
	if f.c.InitialPercent != nil {
		opts.Initial = *f.c.InitialPercent
	}
	return opts
}

// Profile merges the configured calibration fields over the defaults, so a
// config file can set just `"method": "perceptual"` and inherit the rest.
func (f *File) Profile() calibration.Profile {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	p := calibration.DefaultProfile()
	if f.c.Calibration == nil {
		return p
	}

	c := *f.c.Calibration
	if c.SourcePeakNits != 0 {
		p.SourcePeakNits = c.SourcePeakNits
	}
	if c.TargetPeakNits != 0 {
		p.TargetPeakNits = c.TargetPeakNits
	}
	if c.SourceGamma != 0 {
		p.SourceGamma = c.SourceGamma
	}
	if c.TargetGamma != 0 {
		p.TargetGamma = c.TargetGamma
	}
	if c.LogSteepness != 0 {
		p.LogSteepness = c.LogSteepness
	}
	if c.Method != "" {
		p.Method = c.Method
	}
	if len(c.LUT) != 0 {
		p.LUT = c.LUT
	}
	return p
}

func (f *File) LevelTable() levels.Table {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.Levels != nil {
		return *f.c.Levels
	}
	return *defaultFileConfig.Levels
}

func (f *File) Windows() []levels.Window {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.Windows != nil {
		return *f.c.Windows
	}
	return *defaultFileConfig.Windows
}

func (f *File) LuxRange() levels.LuxRange {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	r := *defaultFileConfig.Lux
	if f.c.Lux == nil {
		return r
	}
	if f.c.Lux.Dim != 0 {
		r.Dim = f.c.Lux.Dim
	}
	if f.c.Lux.Bright != 0 {
		r.Bright = f.c.Lux.Bright
	}
	return r
}

func (f *File) DefaultLevel() levels.Level {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.DefaultLevel != nil {
		return levels.Level(*f.c.DefaultLevel)
	}
	return levels.Level(*defaultFileConfig.DefaultLevel)
}

func (f *File) SmoothTransition() bool {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.SmoothTransition != nil {
		return *f.c.SmoothTransition
	}
	return *defaultFileConfig.SmoothTransition
}

func (f *File) Transition() Transition {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	t := Transition{
		Duration:     time.Duration(*defaultFileConfig.TransitionDurationMS) * time.Millisecond,
		Steps:        *defaultFileConfig.TransitionSteps,
		MaxStepDelta: *defaultFileConfig.MaxStepDelta,
	}
	if f.c.TransitionDurationMS != nil {
		t.Duration = time.Duration(*f.c.TransitionDurationMS) * time.Millisecond
	}
	if f.c.TransitionSteps != nil {
		t.Steps = *f.c.TransitionSteps
	}
	if f.c.MaxStepDelta != nil {
		t.MaxStepDelta = *f.c.MaxStepDelta
	}
	return t
}

func (f *File) MinPercent() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.MinPercent != nil {
		return *f.c.MinPercent
	}
	return *defaultFileConfig.MinPercent
}

func (f *File) MaxPercent() int {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.MaxPercent != nil {
		return *f.c.MaxPercent
	}
	return *defaultFileConfig.MaxPercent
}

func (f *File) AutoSchedule() string {
	if f.c == nil {
		panic("config is nil")
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c.AutoSchedule != nil {
		return *f.c.AutoSchedule
	}
	return *defaultFileConfig.AutoSchedule
}

// Validate checks the resolved config as a whole. It runs once at startup;
// the daemon refuses to start on a config that cannot work.
func (f *File) Validate() error {
	if _, err := display.New(f.Driver(), display.Options{}); err != nil {
		return err
	}

	if err := f.Profile().Validate(); err != nil {
		return pkgerrors.Wrap(err, "invalid calibration profile")
	}

	table := f.LevelTable()
	if err := table.Validate(); err != nil {
		return pkgerrors.Wrap(err, "invalid level table")
	}
	if err := levels.ValidateWindows(f.Windows(), table); err != nil {
		return pkgerrors.Wrap(err, "invalid time windows")
	}
	if err := f.LuxRange().Validate(); err != nil {
		return pkgerrors.Wrap(err, "invalid lux range")
	}
	if _, err := table.Resolve(f.DefaultLevel()); err != nil {
		return pkgerrors.Wrap(err, "invalid default level")
	}

	t := f.Transition()
	if t.Duration <= 0 || t.Steps <= 0 || t.MaxStepDelta <= 0 {
		return pkgerrors.Errorf("transition tuning must be positive, got duration=%s steps=%d maxStepDelta=%d",
			t.Duration, t.Steps, t.MaxStepDelta)
	}

	lo, hi := f.MinPercent(), f.MaxPercent()
	if lo < 0 || hi > 100 || lo >= hi {
		return pkgerrors.Errorf("percent bounds must satisfy 0 <= min < max <= 100, got %d/%d", lo, hi)
	}

	if spec := f.AutoSchedule(); spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return pkgerrors.Wrapf(err, "invalid auto schedule %q", spec)
		}
	}

	return nil
}

func (f *File) Load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	fp, err := os.Open(f.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			// If the file does not exist, return the empty config.
			// Do not make f.c a nil.
			f.c = &RawFileConfig{}
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	// Since we want to tell if the file is empty, using json.Decoder will
	// not work.
	b, err := io.ReadAll(fp)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read file %s", f.filepath)
	}
	configString := string(b)

	if strings.TrimSpace(configString) == "" {
		// If the file is empty, return the empty config.
		// Do not make f.c a nil.
		f.c = &RawFileConfig{}
		return nil
	}

	conf := RawFileConfig{}
	err = json.Unmarshal(b, &conf)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to unmarshal config from file %s", f.filepath)
	}
	f.c = &conf

	return nil
}

func (f *File) Save() error {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.c == nil {
		return pkgerrors.New("config is nil")
	}

	fp, err := os.OpenFile(f.filepath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open file %s", f.filepath)
	}
	defer func(fp *os.File) {
		err := fp.Close()
		if err != nil {
			logrus.Warnf("failed to close file %s", f.filepath)
		}
	}(fp)

	enc := json.NewEncoder(fp)
	enc.SetIndent("", "  ")
	err = enc.Encode(f.c)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to encode config to file %s", f.filepath)
	}

	return nil
}

func (f *File) LogrusFields() logrus.Fields {
	if f.c == nil {
		panic("config is nil")
	}

	return logrus.Fields{
		"listenAddress":    f.ListenAddress(),
		"driver":           f.Driver(),
		"method":           f.Profile().Method,
		"windows":          len(f.Windows()),
		"defaultLevel":     f.DefaultLevel(),
		"smoothTransition": f.SmoothTransition(),
		"minPercent":       f.MinPercent(),
		"maxPercent":       f.MaxPercent(),
		"autoSchedule":     f.AutoSchedule(),
	}
}
