package levels

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// TimeOfDay is a clock time expressed as minutes since midnight. It
// marshals as "HH:MM".
type TimeOfDay int

// MinutesPerDay is the exclusive upper bound of a TimeOfDay.
const MinutesPerDay = 24 * 60

// ParseTimeOfDay parses a 24-hour "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// TimeOfDayFrom extracts the wall-clock time of day from t.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Window binds a stretch of the day to a brightness level. End is exclusive.
// A start later than its end means the window wraps past midnight, e.g.
// 22:00-06:00 covers 23:30 and 02:00 but not 12:00.
type Window struct {
	Name  string    `json:"name,omitempty"`
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
	Level Level     `json:"level"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t TimeOfDay) bool {
	if w.Start == w.End {
		return false
	}
	if w.Start < w.End {
		return t >= w.Start && t < w.End
	}
	return t >= w.Start || t < w.End
}

// ErrNoWindowMatched is returned when no configured window covers the
// current time. Callers are expected to fall back to a default level.
var ErrNoWindowMatched = errors.New("no time window matched")

// ResolveTimeBased returns the level of the first window containing now.
// Windows are matched in declaration order.
func ResolveTimeBased(now TimeOfDay, windows []Window) (Level, error) {
	for _, w := range windows {
		if w.Contains(now) {
			return w.Level, nil
		}
	}
	return "", ErrNoWindowMatched
}

// DefaultWindows returns the stock schedule. The four windows cover the full
// day, so time-based resolution never falls through with this table.
func DefaultWindows() []Window {
	return []Window{
		{Name: "night", Start: 22 * 60, End: 6 * 60, Level: LevelVeryDark},
		{Name: "evening", Start: 18 * 60, End: 22 * 60, Level: LevelDim},
		{Name: "morning", Start: 6 * 60, End: 9 * 60, Level: LevelNormal},
		{Name: "day", Start: 9 * 60, End: 18 * 60, Level: LevelBright},
	}
}

// ValidateWindows checks every window against the level table: times in
// range, a level the table can resolve, and a non-degenerate interval.
func ValidateWindows(windows []Window, table Table) error {
	for i, w := range windows {
		name := w.Name
		if name == "" {
			name = fmt.Sprintf("#%d", i)
		}
		if w.Start < 0 || w.Start >= MinutesPerDay || w.End < 0 || w.End >= MinutesPerDay {
			return fmt.Errorf("window %s: times out of range: %s-%s", name, w.Start, w.End)
		}
		if w.Start == w.End {
			return fmt.Errorf("window %s: start equals end, window can never match", name)
		}
		if _, err := table.Resolve(w.Level); err != nil {
			return fmt.Errorf("window %s: %w", name, err)
		}
	}
	return nil
}
