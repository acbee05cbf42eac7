package levels

import (
	"errors"
	"fmt"
	"math"
)

// Level is a symbolic brightness level.
type Level string

const (
	LevelVeryDark   Level = "very_dark"
	LevelDark       Level = "dark"
	LevelDim        Level = "dim"
	LevelNormal     Level = "normal"
	LevelBright     Level = "bright"
	LevelVeryBright Level = "very_bright"
)

// ErrUnknownLevel is returned when a symbol is not in the level table.
var ErrUnknownLevel = errors.New("unknown brightness level")

// All returns the known levels, dimmest first.
func All() []Level {
	return []Level{LevelVeryDark, LevelDark, LevelDim, LevelNormal, LevelBright, LevelVeryBright}
}

// Valid reports whether l is one of the known levels.
func (l Level) Valid() bool {
	for _, k := range All() {
		if l == k {
			return true
		}
	}
	return false
}

// Table binds each symbolic level to a normalized brightness in [0,1].
type Table map[Level]float64

// DefaultTable returns the stock level bindings.
func DefaultTable() Table {
	return Table{
		LevelVeryDark:   0.10,
		LevelDark:       0.22,
		LevelDim:        0.40,
		LevelNormal:     0.60,
		LevelBright:     0.80,
		LevelVeryBright: 0.95,
	}
}

// Resolve looks up the normalized brightness bound to l.
func (t Table) Resolve(l Level) (float64, error) {
	n, ok := t[l]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLevel, l)
	}
	return n, nil
}

// Validate checks that every key is a known level and every value is a
// normalized brightness.
func (t Table) Validate() error {
	if len(t) == 0 {
		return errors.New("level table is empty")
	}
	for l, n := range t {
		if !l.Valid() {
			return fmt.Errorf("level table: %w: %q", ErrUnknownLevel, l)
		}
		if n < 0 || n > 1 {
			return fmt.Errorf("level table: %q bound to %g, want [0,1]", l, n)
		}
	}
	return nil
}

// LuxRange bounds the ambient-light mapping: readings at or below Dim lux
// resolve to 0.0, readings at or above Bright lux resolve to 1.0, and the
// span in between is interpolated on a log10 scale, since perceived ambient
// brightness tracks the logarithm of illuminance.
type LuxRange struct {
	Dim    float64 `json:"dim"`
	Bright float64 `json:"bright"`
}

// DefaultLuxRange spans a dark room to bright daylight.
func DefaultLuxRange() LuxRange {
	return LuxRange{Dim: 10, Bright: 10000}
}

// Validate checks the range bounds.
func (r LuxRange) Validate() error {
	if r.Dim <= 0 || r.Bright <= r.Dim {
		return fmt.Errorf("lux range must satisfy 0 < dim < bright, got dim=%g bright=%g", r.Dim, r.Bright)
	}
	return nil
}

// Resolve maps a raw lux reading to a normalized brightness. Out-of-range
// readings clamp; they are never an error.
func (r LuxRange) Resolve(lux float64) float64 {
	if lux <= r.Dim {
		return 0
	}
	if lux >= r.Bright {
		return 1
	}
	n := (math.Log10(lux) - math.Log10(r.Dim)) / (math.Log10(r.Bright) - math.Log10(r.Dim))
	if n < 0 {
		return 0
	}
	if n > 1 {
		return 1
	}
	return n
}
