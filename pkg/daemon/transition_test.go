package daemon

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lumisync/lumi/pkg/config"
	"github.com/lumisync/lumi/pkg/events"
)

// fakeDriver records every write in order and serves reads from the last
// written value.
type fakeDriver struct {
	mu        sync.Mutex
	current   int
	writes    []int
	readErr   error
	writeErr  error
	failAfter int // fail writes once this many succeeded, 0 means never
}

func (d *fakeDriver) Open() error  { return nil }
func (d *fakeDriver) Close() error { return nil }

func (d *fakeDriver) Current() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.readErr != nil {
		return 0, d.readErr
	}
	return d.current, nil
}

func (d *fakeDriver) Set(percent int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.writeErr != nil && (d.failAfter == 0 || len(d.writes) >= d.failAfter) {
		return d.writeErr
	}
	d.current = percent
	d.writes = append(d.writes, percent)
	return nil
}

func (d *fakeDriver) recorded() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]int, len(d.writes))
	copy(out, d.writes)
	return out
}

func fastTuning() config.Transition {
	return config.Transition{
		Duration:     50 * time.Millisecond,
		Steps:        5,
		MaxStepDelta: 10,
	}
}

func waitSettled(t *testing.T, tr *Transitioner) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if running, _, _ := tr.Status(); !running {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("transition did not settle in time")
}

func TestApplyInstantWritesOnce(t *testing.T) {
	d := &fakeDriver{current: 50}
	tr := NewTransitioner(d, fastTuning(), 1, 100, events.NewEventHub())

	applied, previous, err := tr.Apply(68, false)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if applied != 68 || previous != 50 {
		t.Fatalf("expected applied=68 previous=50, got %d/%d", applied, previous)
	}

	writes := d.recorded()
	if len(writes) != 1 || writes[0] != 68 {
		t.Fatalf("expected exactly one write of 68, got %v", writes)
	}
}

func TestApplyInstantWritesEvenAtTarget(t *testing.T) {
	d := &fakeDriver{current: 68}
	tr := NewTransitioner(d, fastTuning(), 1, 100, events.NewEventHub())

	if _, _, err := tr.Apply(68, false); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if writes := d.recorded(); len(writes) != 1 {
		t.Fatalf("expected one write, got %v", writes)
	}
}

func TestApplySmoothRampsToTarget(t *testing.T) {
	d := &fakeDriver{current: 20}
	tr := NewTransitioner(d, fastTuning(), 1, 100, events.NewEventHub())

	applied, previous, err := tr.Apply(70, true)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if applied != 70 || previous != 20 {
		t.Fatalf("expected applied=70 previous=20, got %d/%d", applied, previous)
	}

	waitSettled(t, tr)

	want := []int{30, 40, 50, 60, 70}
	writes := d.recorded()
	if len(writes) != len(want) {
		t.Fatalf("expected %d writes, got %v", len(want), writes)
	}
	for i, w := range want {
		if writes[i] != w {
			t.Fatalf("expected writes %v, got %v", want, writes)
		}
	}
}

func TestApplySmoothRaisesStepCount(t *testing.T) {
	d := &fakeDriver{current: 1}
	tr := NewTransitioner(d, fastTuning(), 1, 100, events.NewEventHub())

	if _, _, err := tr.Apply(96, true); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	waitSettled(t, tr)

	writes := d.recorded()
	if len(writes) != 10 {
		t.Fatalf("expected 10 writes for a 95%% ramp with max step 10, got %d: %v", len(writes), writes)
	}

	last := 1
	for _, w := range writes {
		if w-last > 10 {
			t.Fatalf("step from %d to %d exceeds max step delta, writes: %v", last, w, writes)
		}
		if w < last {
			t.Fatalf("ramp moved backwards at %d -> %d, writes: %v", last, w, writes)
		}
		last = w
	}
	if last != 96 {
		t.Fatalf("expected final value 96, got %d", last)
	}
}

func TestApplySmoothNoWriteWhenAtTarget(t *testing.T) {
	d := &fakeDriver{current: 42}
	tr := NewTransitioner(d, fastTuning(), 1, 100, events.NewEventHub())

	applied, previous, err := tr.Apply(42, true)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if applied != 42 || previous != 42 {
		t.Fatalf("expected applied=42 previous=42, got %d/%d", applied, previous)
	}

	waitSettled(t, tr)
	if writes := d.recorded(); len(writes) != 0 {
		t.Fatalf("expected no writes, got %v", writes)
	}
}

func TestApplyClampsTarget(t *testing.T) {
	d := &fakeDriver{current: 50}
	tr := NewTransitioner(d, fastTuning(), 5, 90, events.NewEventHub())

	applied, _, err := tr.Apply(0, false)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if applied != 5 {
		t.Fatalf("expected target clamped to 5, got %d", applied)
	}

	applied, _, err = tr.Apply(150, false)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if applied != 90 {
		t.Fatalf("expected target clamped to 90, got %d", applied)
	}

	writes := d.recorded()
	if len(writes) != 2 || writes[0] != 5 || writes[1] != 90 {
		t.Fatalf("expected writes [5 90], got %v", writes)
	}
}

// A new request must stop the running ramp before its own first write:
// once values start moving toward the new target, nothing from the old
// ramp may land afterwards.
func TestApplySupersession(t *testing.T) {
	d := &fakeDriver{current: 1}
	tuning := config.Transition{
		Duration:     2 * time.Second,
		Steps:        20,
		MaxStepDelta: 10,
	}
	tr := NewTransitioner(d, tuning, 1, 100, events.NewEventHub())

	if _, _, err := tr.Apply(81, true); err != nil {
		t.Fatalf("first Apply returned error: %v", err)
	}

	// Let the first ramp make some progress.
	time.Sleep(250 * time.Millisecond)

	if _, _, err := tr.Apply(20, false); err != nil {
		t.Fatalf("second Apply returned error: %v", err)
	}

	// Give any straggler step a chance to (incorrectly) land.
	time.Sleep(300 * time.Millisecond)

	writes := d.recorded()
	if len(writes) == 0 {
		t.Fatalf("expected at least the final write")
	}
	if writes[len(writes)-1] != 20 {
		t.Fatalf("expected final write 20, got %v", writes)
	}
	for i, w := range writes[:len(writes)-1] {
		if w > writes[i+1] && writes[i+1] != 20 {
			t.Fatalf("unexpected write order: %v", writes)
		}
		if w == 20 {
			t.Fatalf("a ramp write landed after the superseding write: %v", writes)
		}
	}

	// The counter must be stable: nothing else may arrive.
	before := len(writes)
	time.Sleep(300 * time.Millisecond)
	if after := len(d.recorded()); after != before {
		t.Fatalf("writes kept arriving after supersession: %d -> %d", before, after)
	}
}

func TestApplyReadErrorFailsSmooth(t *testing.T) {
	d := &fakeDriver{readErr: errors.New("no backlight")}
	tr := NewTransitioner(d, fastTuning(), 1, 100, events.NewEventHub())

	if _, _, err := tr.Apply(50, true); err == nil {
		t.Fatalf("expected error when current brightness is unreadable")
	}
	if writes := d.recorded(); len(writes) != 0 {
		t.Fatalf("expected no writes, got %v", writes)
	}
	if _, _, lastErr := tr.Status(); lastErr == nil {
		t.Fatalf("expected last error to be recorded")
	}
}

func TestApplyReadErrorInstantStillWrites(t *testing.T) {
	d := &fakeDriver{readErr: errors.New("no backlight")}
	tr := NewTransitioner(d, fastTuning(), 1, 100, events.NewEventHub())

	applied, previous, err := tr.Apply(50, false)
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if applied != 50 || previous != -1 {
		t.Fatalf("expected applied=50 previous=-1, got %d/%d", applied, previous)
	}
	if writes := d.recorded(); len(writes) != 1 || writes[0] != 50 {
		t.Fatalf("expected one write of 50, got %v", writes)
	}
}

func TestApplyWriteFailureAbortsRamp(t *testing.T) {
	d := &fakeDriver{current: 20, writeErr: errors.New("write failed"), failAfter: 2}
	tr := NewTransitioner(d, fastTuning(), 1, 100, events.NewEventHub())

	if _, _, err := tr.Apply(70, true); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	waitSettled(t, tr)

	writes := d.recorded()
	if len(writes) != 2 {
		t.Fatalf("expected ramp to stop after 2 writes, got %v", writes)
	}
	if _, _, lastErr := tr.Status(); lastErr == nil {
		t.Fatalf("expected last error after aborted ramp")
	}
}

func TestCancelStopsRamp(t *testing.T) {
	d := &fakeDriver{current: 1}
	tuning := config.Transition{
		Duration:     2 * time.Second,
		Steps:        20,
		MaxStepDelta: 10,
	}
	tr := NewTransitioner(d, tuning, 1, 100, events.NewEventHub())

	if _, _, err := tr.Apply(81, true); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	time.Sleep(150 * time.Millisecond)
	tr.Cancel()

	time.Sleep(200 * time.Millisecond)
	before := len(d.recorded())
	time.Sleep(300 * time.Millisecond)
	if after := len(d.recorded()); after != before {
		t.Fatalf("writes kept arriving after cancel: %d -> %d", before, after)
	}

	if running, _, _ := tr.Status(); running {
		t.Fatalf("transitioner still running after cancel")
	}
}

func TestTransitionEvents(t *testing.T) {
	d := &fakeDriver{current: 20}
	hub := events.NewEventHub()
	sub := hub.Subscribe()
	tr := NewTransitioner(d, fastTuning(), 1, 100, hub)

	if _, _, err := tr.Apply(70, true); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	var started, completed, changed int
	deadline := time.After(2 * time.Second)
	for completed == 0 {
		select {
		case ev := <-sub:
			switch ev.Name {
			case events.TransitionStarted:
				started++
			case events.TransitionCompleted:
				completed++
			case events.BrightnessChanged:
				changed++
				payload, err := events.DecodeAs[events.BrightnessChangedEvent](ev)
				if err != nil {
					t.Fatalf("failed to decode brightness event: %v", err)
				}
				if payload.Percent < 20 || payload.Percent > 70 {
					t.Fatalf("brightness event out of range: %d", payload.Percent)
				}
			}
		case <-deadline:
			t.Fatalf("did not observe transition completion; started=%d changed=%d", started, changed)
		}
	}

	if started != 1 {
		t.Fatalf("expected one transition_started, got %d", started)
	}
	if changed != 5 {
		t.Fatalf("expected 5 brightness_changed events, got %d", changed)
	}
}
