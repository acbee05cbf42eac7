package daemon

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/lumisync/lumi/pkg/calibration"
	"github.com/lumisync/lumi/pkg/config"
	"github.com/lumisync/lumi/pkg/levels"
	"github.com/lumisync/lumi/pkg/types"
	"github.com/lumisync/lumi/pkg/utils/ptr"
)

// Source labels reported in write responses.
const (
	SourceBrightness = "brightness"
	SourceLevel      = "level"
	SourceTimeBased  = "time_based"
	SourceLux        = "lux"
	SourcePercent    = "percent"
)

// DispatchResult describes an applied brightness change.
type DispatchResult struct {
	Percent  int          // value the display is being driven to
	Previous int          // brightness before the first write, -1 if unreadable
	Source   string       // request field that produced the target
	Level    levels.Level // resolved level, when one was involved
	Smooth   bool         // whether the change ramps
}

// Controller turns brightness requests into display targets: it resolves
// the request source, runs it through the calibration profile and hands
// the target to the transitioner.
type Controller struct {
	conf  config.Config
	trans *Transitioner

	now func() time.Time
}

func NewController(conf config.Config, trans *Transitioner) *Controller {
	return &Controller{
		conf:  conf,
		trans: trans,
		now:   time.Now,
	}
}

// Dispatch applies a brightness request.
func (c *Controller) Dispatch(req types.BrightnessRequest) (DispatchResult, error) {
	res := DispatchResult{Previous: -1}

	normalized, source, level, err := c.resolve(req)
	if err != nil {
		return res, err
	}

	percent := calibration.Calibrate(normalized, c.conf.Profile())
	smooth := c.effectiveSmooth(req.Smooth)

	logrus.WithFields(logrus.Fields{
		"source":     source,
		"normalized": normalized,
		"percent":    percent,
		"smooth":     smooth,
	}).Debug("dispatching brightness request")

	applied, previous, err := c.trans.Apply(percent, smooth)
	if err != nil {
		return res, err
	}

	res.Percent = applied
	res.Previous = previous
	res.Source = source
	res.Level = level
	res.Smooth = smooth
	return res, nil
}

// SetPercent drives the display to a raw percent, bypassing calibration.
func (c *Controller) SetPercent(percent int, smooth *bool) (DispatchResult, error) {
	res := DispatchResult{Previous: -1}
	if percent < 0 || percent > 100 {
		return res, fmt.Errorf("%w: percent %d out of range [0, 100]", ErrInvalidInput, percent)
	}

	sm := c.effectiveSmooth(smooth)
	applied, previous, err := c.trans.Apply(percent, sm)
	if err != nil {
		return res, err
	}

	res.Percent = applied
	res.Previous = previous
	res.Source = SourcePercent
	res.Smooth = sm
	return res, nil
}

// Auto applies the time-based level for the current wall clock. It is the
// shared path behind POST /auto and the cron schedule.
func (c *Controller) Auto() (DispatchResult, error) {
	return c.Dispatch(types.BrightnessRequest{TimeBased: ptr.To(true)})
}

// Current reads the display brightness.
func (c *Controller) Current() (int, error) {
	return c.trans.Current()
}

// resolve picks the request source by the fixed precedence
// brightness > level > time_based > lux and returns its normalized value.
// Out-of-range normalized values are not an error, calibration clamps them.
func (c *Controller) resolve(req types.BrightnessRequest) (float64, string, levels.Level, error) {
	switch {
	case req.Brightness != nil:
		return *req.Brightness, SourceBrightness, "", nil

	case req.Level != nil:
		lvl := levels.Level(*req.Level)
		normalized, err := c.conf.LevelTable().Resolve(lvl)
		if err != nil {
			return 0, "", "", err
		}
		return normalized, SourceLevel, lvl, nil

	case req.TimeBased != nil && *req.TimeBased:
		now := levels.TimeOfDayFrom(c.now())
		lvl, err := levels.ResolveTimeBased(now, c.conf.Windows())
		if err != nil {
			// Outside every window: fall back to the configured default.
			lvl = c.conf.DefaultLevel()
			logrus.Debugf("no time window covers %s, falling back to level %q", now, lvl)
		}
		normalized, err := c.conf.LevelTable().Resolve(lvl)
		if err != nil {
			return 0, "", "", err
		}
		return normalized, SourceTimeBased, lvl, nil

	case req.Lux != nil:
		return c.conf.LuxRange().Resolve(*req.Lux), SourceLux, "", nil
	}

	return 0, "", "", fmt.Errorf("%w: no brightness, level, time_based or lux field", ErrInvalidInput)
}

// effectiveSmooth combines the per-request smooth flag with the
// daemon-wide setting. A request can opt out of smoothing but cannot
// force it on when the configuration disables it.
func (c *Controller) effectiveSmooth(req *bool) bool {
	smooth := c.conf.SmoothTransition()
	if req != nil {
		smooth = smooth && *req
	}
	return smooth
}
