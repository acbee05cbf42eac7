package calibration

import "math"

// Calibrate maps a normalized source brightness to a target display percent
// using the profile's method. Input outside [0,1] is clamped, not rejected:
// upstream sensor noise routinely produces slightly out-of-range readings.
// The result is an integer percent in [0,100].
func Calibrate(normalized float64, p Profile) int {
	n := clamp01(normalized)

	var percent float64
	switch p.Method {
	case MethodLUT:
		percent = p.LUT.Eval(n)
	case MethodLogarithmic:
		percent = logarithmic(n, p.LogSteepness)
	case MethodLinear:
		percent = n * 100
	default:
		// Perceptual doubles as the fallback so a profile with a bad method
		// string still tracks the sensor sensibly.
		percent = perceptual(n, p)
	}

	return int(math.Round(clamp(percent, 0, 100)))
}

// perceptual matches perceived luminance across the display pair: decode the
// source gamma, scale by the peak-nits ratio, cap at the target's peak, then
// re-encode with the target gamma. A source brighter than the target (the
// usual phone-vs-laptop case) saturates to 100% before full source
// brightness.
func perceptual(n float64, p Profile) float64 {
	luminance := p.SourcePeakNits / p.TargetPeakNits * math.Pow(n, p.SourceGamma)
	if luminance > 1 {
		luminance = 1
	}
	return 100 * math.Pow(luminance, 1/p.TargetGamma)
}

// logarithmic maps n via 100*ln(1+k*n)/ln(1+k). Larger k lifts dim inputs
// harder.
func logarithmic(n, k float64) float64 {
	return 100 * math.Log(1+k*n) / math.Log(1+k)
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
