package calibration

import (
	"fmt"
	"sort"
)

// Method selects the curve used to map normalized source brightness to a
// display percentage.
type Method string

const (
	// MethodLUT interpolates an ordered anchor table.
	MethodLUT Method = "lut"
	// MethodPerceptual matches perceived luminance across the two displays
	// using their gamma response and peak nits.
	MethodPerceptual Method = "perceptual"
	// MethodLogarithmic compresses the low end of the range so dim inputs
	// still produce a usable backlight level.
	MethodLogarithmic Method = "logarithmic"
	// MethodLinear maps normalized input straight to percent. Simplest
	// curve; useful as a baseline when tuning the others.
	MethodLinear Method = "linear"
)

// Valid reports whether m is one of the known calibration methods.
func (m Method) Valid() bool {
	switch m {
	case MethodLUT, MethodPerceptual, MethodLogarithmic, MethodLinear:
		return true
	}
	return false
}

// Methods lists all known calibration methods.
func Methods() []Method {
	return []Method{MethodLUT, MethodPerceptual, MethodLogarithmic, MethodLinear}
}

// Anchor is one point of a lookup table curve: an input brightness in [0,1]
// and the display percent it maps to.
type Anchor struct {
	Normalized float64 `json:"normalized"`
	Percent    float64 `json:"percent"`
}

// LUT is an ordered sequence of anchors spanning [0,1]. Normalized values
// must be strictly increasing and percents non-decreasing so the curve stays
// monotonic.
type LUT []Anchor

// Validate checks the anchor ordering and span invariants.
func (l LUT) Validate() error {
	if len(l) < 2 {
		return fmt.Errorf("lut needs at least 2 anchors, got %d", len(l))
	}
	if !sort.SliceIsSorted(l, func(i, j int) bool { return l[i].Normalized < l[j].Normalized }) {
		return fmt.Errorf("lut anchors must be sorted by normalized value")
	}
	if l[0].Normalized != 0 || l[len(l)-1].Normalized != 1 {
		return fmt.Errorf("lut anchors must span [0,1], got [%g,%g]", l[0].Normalized, l[len(l)-1].Normalized)
	}
	for i, a := range l {
		if a.Percent < 0 || a.Percent > 100 {
			return fmt.Errorf("lut anchor %d: percent %g out of [0,100]", i, a.Percent)
		}
		if i > 0 {
			if a.Normalized == l[i-1].Normalized {
				return fmt.Errorf("lut anchor %d: duplicate normalized value %g", i, a.Normalized)
			}
			if a.Percent < l[i-1].Percent {
				return fmt.Errorf("lut anchor %d: percent %g decreases from %g", i, a.Percent, l[i-1].Percent)
			}
		}
	}
	return nil
}

// Eval interpolates linearly between the two anchors bracketing n. Inputs
// outside the anchor span clamp to the end anchors; an exact anchor hit
// returns that anchor's percent exactly.
func (l LUT) Eval(n float64) float64 {
	if len(l) == 0 {
		return 0
	}
	if n <= l[0].Normalized {
		return l[0].Percent
	}
	if n >= l[len(l)-1].Normalized {
		return l[len(l)-1].Percent
	}
	for i := 1; i < len(l); i++ {
		if n == l[i].Normalized {
			return l[i].Percent
		}
		if n < l[i].Normalized {
			lo, hi := l[i-1], l[i]
			t := (n - lo.Normalized) / (hi.Normalized - lo.Normalized)
			return lo.Percent + t*(hi.Percent-lo.Percent)
		}
	}
	return l[len(l)-1].Percent
}

// Default curve tunables. All of them are configurable; these values come
// from tuning an iPhone (ambient sensor source) against a 300-nit laptop
// panel.
const (
	DefaultSourcePeakNits = 625
	DefaultTargetPeakNits = 300
	DefaultGamma          = 2.2
	DefaultLogSteepness   = 9
)

// DefaultLUT returns the stock anchor table. It encodes the same perceptual
// correction as MethodPerceptual but with hand-tuned values, and keeps the
// display inside 5-95% so it never goes fully dark or full blast.
func DefaultLUT() LUT {
	return LUT{
		{Normalized: 0, Percent: 5},
		{Normalized: 0.05, Percent: 10},
		{Normalized: 0.1, Percent: 18},
		{Normalized: 0.25, Percent: 32},
		{Normalized: 0.4, Percent: 58},
		{Normalized: 0.5, Percent: 68},
		{Normalized: 0.6, Percent: 75},
		{Normalized: 0.75, Percent: 82},
		{Normalized: 0.9, Percent: 92},
		{Normalized: 1, Percent: 95},
	}
}

// Profile describes the display pair a brightness signal is translated
// between. It is loaded from config once at startup; changing it requires a
// daemon restart.
type Profile struct {
	// SourcePeakNits is the peak luminance of the display (or sensor
	// reference) producing the normalized input.
	SourcePeakNits float64 `json:"sourcePeakNits"`
	// TargetPeakNits is the peak luminance of the display being driven.
	TargetPeakNits float64 `json:"targetPeakNits"`
	// SourceGamma and TargetGamma describe each display's gamma response.
	SourceGamma float64 `json:"sourceGamma"`
	TargetGamma float64 `json:"targetGamma"`
	// LogSteepness is the k constant of MethodLogarithmic.
	LogSteepness float64 `json:"logSteepness"`
	Method       Method  `json:"method"`
	LUT          LUT     `json:"lut,omitempty"`
}

// DefaultProfile returns the stock profile: lut method over DefaultLUT with
// iPhone-class source and laptop-class target panels.
func DefaultProfile() Profile {
	return Profile{
		SourcePeakNits: DefaultSourcePeakNits,
		TargetPeakNits: DefaultTargetPeakNits,
		SourceGamma:    DefaultGamma,
		TargetGamma:    DefaultGamma,
		LogSteepness:   DefaultLogSteepness,
		Method:         MethodLUT,
		LUT:            DefaultLUT(),
	}
}

// Validate checks the profile invariants: positive peak nits and gamma, a
// known method, and a well-formed LUT when one is present.
func (p Profile) Validate() error {
	if p.SourcePeakNits <= 0 || p.TargetPeakNits <= 0 {
		return fmt.Errorf("peak nits must be positive, got source=%g target=%g", p.SourcePeakNits, p.TargetPeakNits)
	}
	if p.SourceGamma <= 0 || p.TargetGamma <= 0 {
		return fmt.Errorf("gamma must be positive, got source=%g target=%g", p.SourceGamma, p.TargetGamma)
	}
	if p.LogSteepness <= 0 {
		return fmt.Errorf("log steepness must be positive, got %g", p.LogSteepness)
	}
	if !p.Method.Valid() {
		return fmt.Errorf("unknown calibration method %q", p.Method)
	}
	if p.Method == MethodLUT && len(p.LUT) == 0 {
		return fmt.Errorf("method %q requires a lut", p.Method)
	}
	if len(p.LUT) > 0 {
		if err := p.LUT.Validate(); err != nil {
			return err
		}
	}
	return nil
}
