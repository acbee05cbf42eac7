package daemon

import (
	"errors"
	"sync"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/lumisync/lumi/pkg/config"
	"github.com/lumisync/lumi/pkg/display"
	"github.com/lumisync/lumi/pkg/events"
)

// Transitioner owns every write to the display driver. Targets arrive
// through Apply, either as a single write or as a smooth ramp run on a
// background goroutine.
//
// Supersession works on a generation counter: Apply bumps the generation
// before anything else, and every driver write re-checks the generation
// under the same mutex. A superseded ramp therefore stops before the newer
// request's first write, so an older transition can never write a stale
// value over a newer one.
type Transitioner struct {
	driver  display.Driver
	hub     *events.EventHub
	tuning  config.Transition
	floor   int
	ceiling int

	mu        sync.Mutex
	gen       uint64
	running   bool
	target    int
	startedAt time.Time
	lastErr   error
}

func NewTransitioner(driver display.Driver, tuning config.Transition, floor, ceiling int, hub *events.EventHub) *Transitioner {
	return &Transitioner{
		driver:  driver,
		hub:     hub,
		tuning:  tuning,
		floor:   floor,
		ceiling: ceiling,
	}
}

// Clamp bounds a target percent to the configured floor and ceiling.
func (t *Transitioner) Clamp(percent int) int {
	if percent < t.floor {
		return t.floor
	}
	if percent > t.ceiling {
		return t.ceiling
	}
	return percent
}

// Apply drives the display to target, clamped to the configured bounds.
// It returns the clamped target and the brightness read before the first
// write, or -1 when the display could not be read.
//
// With smooth set the ramp runs in the background and Apply returns as
// soon as it is planned; errors past that point are published on the
// event hub and kept for Status.
func (t *Transitioner) Apply(target int, smooth bool) (applied, previous int, err error) {
	applied = t.Clamp(target)
	gen := t.begin(applied)

	previous, rerr := t.driver.Current()
	if rerr != nil {
		previous = -1
		if smooth {
			t.finish(gen, rerr)
			return applied, previous, pkgerrors.Wrap(rerr, "failed to read current brightness")
		}
		logrus.WithError(rerr).Warn("cannot read current brightness, writing target directly")
	}

	if !smooth {
		werr := t.write(gen, applied)
		switch {
		case errors.Is(werr, errSuperseded):
			logrus.Debugf("skipped write to %d%%: a newer request took over", applied)
		case werr != nil:
			t.finish(gen, werr)
			return applied, previous, werr
		default:
			t.publishBrightness(applied)
			t.finish(gen, nil)
		}
		return applied, previous, nil
	}

	if previous == applied {
		// Already there. Finish without touching the display.
		t.finish(gen, nil)
		return applied, previous, nil
	}

	steps := t.planSteps(applied - previous)
	delay := t.tuning.Duration / time.Duration(steps)

	logrus.WithFields(logrus.Fields{
		"from":  previous,
		"to":    applied,
		"steps": steps,
		"delay": delay,
	}).Debug("starting brightness transition")

	t.hub.Publish(events.TransitionStarted, events.TransitionEvent{
		From:  previous,
		To:    applied,
		Steps: steps,
		Ts:    time.Now().UnixMilli(),
	})

	go t.run(gen, previous, applied, steps, delay)

	return applied, previous, nil
}

// Current reads the display brightness.
func (t *Transitioner) Current() (int, error) {
	return t.driver.Current()
}

// Cancel aborts any in-flight transition without a replacement write.
func (t *Transitioner) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.running = false
}

// Status reports whether a transition is in flight, its target, and the
// last transition failure if the most recent one did not complete.
func (t *Transitioner) Status() (running bool, target int, lastErr error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running, t.target, t.lastErr
}

func (t *Transitioner) begin(target int) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.running = true
	t.target = target
	t.startedAt = time.Now()
	return t.gen
}

// finish clears the in-flight state, but only if gen still owns it.
func (t *Transitioner) finish(gen uint64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen {
		return
	}
	t.running = false
	t.lastErr = err
}

// write performs one driver write, guarded by the generation check. The
// mutex spans both so a stale generation can never reach the driver.
func (t *Transitioner) write(gen uint64, percent int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen {
		return errSuperseded
	}
	if err := t.driver.Set(percent); err != nil {
		return pkgerrors.Wrapf(err, "failed to set brightness to %d%%", percent)
	}
	return nil
}

func (t *Transitioner) run(gen uint64, from, to, steps int, delay time.Duration) {
	delta := to - from
	for i := 1; i <= steps; i++ {
		value := from + delta*i/steps
		if err := t.write(gen, value); err != nil {
			if errors.Is(err, errSuperseded) {
				logrus.Debugf("transition to %d%% superseded at %d%%", to, value)
				t.hub.Publish(events.TransitionSuperseded, events.TransitionEvent{
					From: from,
					To:   to,
					Ts:   time.Now().UnixMilli(),
				})
				return
			}
			logrus.WithError(err).Errorf("transition to %d%% aborted", to)
			t.finish(gen, err)
			t.hub.Publish(events.TransitionFailed, events.TransitionEvent{
				From:    from,
				To:      to,
				Message: err.Error(),
				Ts:      time.Now().UnixMilli(),
			})
			return
		}
		t.publishBrightness(value)
		if i < steps {
			time.Sleep(delay)
		}
	}

	t.finish(gen, nil)
	t.hub.Publish(events.TransitionCompleted, events.TransitionEvent{
		From:  from,
		To:    to,
		Steps: steps,
		Ts:    time.Now().UnixMilli(),
	})
}

// planSteps returns the step count for a ramp over delta percent, raising
// the configured count until no single step moves more than MaxStepDelta.
func (t *Transitioner) planSteps(delta int) int {
	if delta < 0 {
		delta = -delta
	}
	steps := t.tuning.Steps
	if steps < 1 {
		steps = 1
	}
	maxDelta := t.tuning.MaxStepDelta
	if maxDelta < 1 {
		maxDelta = 1
	}
	if (delta+steps-1)/steps > maxDelta {
		steps = (delta + maxDelta - 1) / maxDelta
	}
	return steps
}

func (t *Transitioner) publishBrightness(percent int) {
	t.hub.Publish(events.BrightnessChanged, events.BrightnessChangedEvent{
		Percent: percent,
		Ts:      time.Now().UnixMilli(),
	})
}
