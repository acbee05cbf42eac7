package daemon

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lumisync/lumi/pkg/config"
	"github.com/lumisync/lumi/pkg/events"
	"github.com/lumisync/lumi/pkg/levels"
	"github.com/lumisync/lumi/pkg/types"
	"github.com/lumisync/lumi/pkg/utils/ptr"
)

const smoothOff = `{"smoothTransition": false}`

func testConfig(t *testing.T, raw string) config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lumi.json")
	if raw != "" {
		if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
	}
	conf, err := config.NewFile(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return conf
}

func newTestController(t *testing.T, raw string, d *fakeDriver) (*Controller, *Transitioner) {
	t.Helper()
	conf := testConfig(t, raw)
	tr := NewTransitioner(d, conf.Transition(), conf.MinPercent(), conf.MaxPercent(), events.NewEventHub())
	return NewController(conf, tr), tr
}

func fixedClock(hour, min int) func() time.Time {
	return func() time.Time {
		return time.Date(2024, 5, 1, hour, min, 0, 0, time.UTC)
	}
}

func TestDispatchPrecedence(t *testing.T) {
	cases := []struct {
		name string
		req  types.BrightnessRequest
		want string
	}{
		{
			name: "brightness wins over everything",
			req: types.BrightnessRequest{
				Brightness: ptr.To(0.5),
				Level:      ptr.To("bright"),
				TimeBased:  ptr.To(true),
				Lux:        ptr.To(300.0),
			},
			want: SourceBrightness,
		},
		{
			name: "level wins over time_based and lux",
			req: types.BrightnessRequest{
				Level:     ptr.To("dim"),
				TimeBased: ptr.To(true),
				Lux:       ptr.To(300.0),
			},
			want: SourceLevel,
		},
		{
			name: "time_based wins over lux",
			req: types.BrightnessRequest{
				TimeBased: ptr.To(true),
				Lux:       ptr.To(300.0),
			},
			want: SourceTimeBased,
		},
		{
			name: "lux stands alone",
			req:  types.BrightnessRequest{Lux: ptr.To(300.0)},
			want: SourceLux,
		},
		{
			name: "false time_based falls through to lux",
			req: types.BrightnessRequest{
				TimeBased: ptr.To(false),
				Lux:       ptr.To(300.0),
			},
			want: SourceLux,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &fakeDriver{current: 50}
			c, _ := newTestController(t, smoothOff, d)
			c.now = fixedClock(12, 0)

			res, err := c.Dispatch(tc.req)
			if err != nil {
				t.Fatalf("Dispatch returned error: %v", err)
			}
			if res.Source != tc.want {
				t.Fatalf("expected source %q, got %q", tc.want, res.Source)
			}
		})
	}
}

func TestDispatchNormalized(t *testing.T) {
	d := &fakeDriver{current: 50}
	c, _ := newTestController(t, smoothOff, d)

	res, err := c.Dispatch(types.BrightnessRequest{Brightness: ptr.To(0.5)})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if res.Percent != 68 {
		t.Fatalf("expected 0.5 to map to 68%%, got %d", res.Percent)
	}
	if res.Previous != 50 {
		t.Fatalf("expected previous 50, got %d", res.Previous)
	}
	if writes := d.recorded(); len(writes) != 1 || writes[0] != 68 {
		t.Fatalf("expected exactly one write of 68, got %v", writes)
	}
}

func TestDispatchLevel(t *testing.T) {
	d := &fakeDriver{current: 50}
	c, _ := newTestController(t, smoothOff, d)

	res, err := c.Dispatch(types.BrightnessRequest{Level: ptr.To("very_dark")})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if res.Percent != 18 {
		t.Fatalf("expected very_dark to map to 18%%, got %d", res.Percent)
	}
	if res.Level != levels.LevelVeryDark {
		t.Fatalf("expected level very_dark in result, got %q", res.Level)
	}
}

func TestDispatchUnknownLevel(t *testing.T) {
	d := &fakeDriver{current: 50}
	c, _ := newTestController(t, smoothOff, d)

	_, err := c.Dispatch(types.BrightnessRequest{Level: ptr.To("blinding")})
	if !errors.Is(err, levels.ErrUnknownLevel) {
		t.Fatalf("expected ErrUnknownLevel, got %v", err)
	}
	if writes := d.recorded(); len(writes) != 0 {
		t.Fatalf("expected no writes on unknown level, got %v", writes)
	}
}

func TestDispatchTimeBased(t *testing.T) {
	cases := []struct {
		name        string
		hour, min   int
		wantLevel   levels.Level
		wantPercent int
	}{
		{"noon is the day window", 12, 0, levels.LevelBright, 85},
		{"late evening is the night window", 23, 0, levels.LevelVeryDark, 18},
		{"early morning is still night", 2, 0, levels.LevelVeryDark, 18},
		{"morning window", 7, 30, levels.LevelNormal, 75},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &fakeDriver{current: 50}
			c, _ := newTestController(t, smoothOff, d)
			c.now = fixedClock(tc.hour, tc.min)

			res, err := c.Dispatch(types.BrightnessRequest{TimeBased: ptr.To(true)})
			if err != nil {
				t.Fatalf("Dispatch returned error: %v", err)
			}
			if res.Level != tc.wantLevel {
				t.Fatalf("expected level %q, got %q", tc.wantLevel, res.Level)
			}
			if res.Percent != tc.wantPercent {
				t.Fatalf("expected %d%%, got %d%%", tc.wantPercent, res.Percent)
			}
		})
	}
}

func TestDispatchTimeBasedFallsBackToDefaultLevel(t *testing.T) {
	raw := `{
		"smoothTransition": false,
		"windows": [
			{"name": "night", "start": "22:00", "end": "06:00", "level": "very_dark"}
		]
	}`
	d := &fakeDriver{current: 50}
	c, _ := newTestController(t, raw, d)
	c.now = fixedClock(12, 0)

	res, err := c.Dispatch(types.BrightnessRequest{TimeBased: ptr.To(true)})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if res.Level != levels.LevelNormal {
		t.Fatalf("expected fallback to normal, got %q", res.Level)
	}
	if res.Percent != 75 {
		t.Fatalf("expected 75%%, got %d%%", res.Percent)
	}
}

func TestDispatchLux(t *testing.T) {
	cases := []struct {
		name string
		lux  float64
		want int
	}{
		{"at the dim end", 10, 5},
		{"below the dim end", 1, 5},
		{"at the bright end", 10000, 95},
		{"above the bright end", 50000, 95},
		{"mid range on the log scale", 316, 68},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &fakeDriver{current: 50}
			c, _ := newTestController(t, smoothOff, d)

			res, err := c.Dispatch(types.BrightnessRequest{Lux: ptr.To(tc.lux)})
			if err != nil {
				t.Fatalf("Dispatch returned error: %v", err)
			}
			if res.Percent != tc.want {
				t.Fatalf("expected %g lux -> %d%%, got %d%%", tc.lux, tc.want, res.Percent)
			}
		})
	}
}

func TestDispatchEmptyRequest(t *testing.T) {
	d := &fakeDriver{current: 50}
	c, _ := newTestController(t, smoothOff, d)

	_, err := c.Dispatch(types.BrightnessRequest{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDispatchSmoothOverride(t *testing.T) {
	t.Run("request can disable smoothing", func(t *testing.T) {
		raw := `{"transitionDurationMs": 40, "transitionSteps": 4, "maxStepDelta": 30}`
		d := &fakeDriver{current: 50}
		c, _ := newTestController(t, raw, d)

		res, err := c.Dispatch(types.BrightnessRequest{
			Brightness: ptr.To(1.0),
			Smooth:     ptr.To(false),
		})
		if err != nil {
			t.Fatalf("Dispatch returned error: %v", err)
		}
		if res.Smooth {
			t.Fatalf("expected smooth to be off")
		}
		if writes := d.recorded(); len(writes) != 1 {
			t.Fatalf("expected a single write, got %v", writes)
		}
	})

	t.Run("request cannot force smoothing on", func(t *testing.T) {
		d := &fakeDriver{current: 50}
		c, _ := newTestController(t, smoothOff, d)

		res, err := c.Dispatch(types.BrightnessRequest{
			Brightness: ptr.To(1.0),
			Smooth:     ptr.To(true),
		})
		if err != nil {
			t.Fatalf("Dispatch returned error: %v", err)
		}
		if res.Smooth {
			t.Fatalf("smooth must stay off when the daemon disables it")
		}
	})

	t.Run("smooth by default", func(t *testing.T) {
		raw := `{"transitionDurationMs": 40, "transitionSteps": 4, "maxStepDelta": 30}`
		d := &fakeDriver{current: 50}
		c, tr := newTestController(t, raw, d)

		res, err := c.Dispatch(types.BrightnessRequest{Brightness: ptr.To(1.0)})
		if err != nil {
			t.Fatalf("Dispatch returned error: %v", err)
		}
		if !res.Smooth {
			t.Fatalf("expected smooth on by default")
		}

		waitSettled(t, tr)
		writes := d.recorded()
		if len(writes) < 2 {
			t.Fatalf("expected a multi-step ramp, got %v", writes)
		}
		if writes[len(writes)-1] != 95 {
			t.Fatalf("expected ramp to end at 95, got %v", writes)
		}
	})
}

func TestSetPercent(t *testing.T) {
	d := &fakeDriver{current: 50}
	c, _ := newTestController(t, smoothOff, d)

	res, err := c.SetPercent(37, nil)
	if err != nil {
		t.Fatalf("SetPercent returned error: %v", err)
	}
	if res.Percent != 37 || res.Source != SourcePercent {
		t.Fatalf("expected 37%% from source percent, got %d%% from %q", res.Percent, res.Source)
	}
	if writes := d.recorded(); len(writes) != 1 || writes[0] != 37 {
		t.Fatalf("expected one write of 37, got %v", writes)
	}

	if _, err := c.SetPercent(150, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for out-of-range percent, got %v", err)
	}
}

func TestAuto(t *testing.T) {
	d := &fakeDriver{current: 50}
	c, _ := newTestController(t, smoothOff, d)
	c.now = fixedClock(12, 0)

	res, err := c.Auto()
	if err != nil {
		t.Fatalf("Auto returned error: %v", err)
	}
	if res.Source != SourceTimeBased || res.Level != levels.LevelBright {
		t.Fatalf("expected time_based bright, got %q/%q", res.Source, res.Level)
	}
	if res.Percent != 85 {
		t.Fatalf("expected 85%%, got %d%%", res.Percent)
	}
}
