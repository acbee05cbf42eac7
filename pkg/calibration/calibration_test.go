package calibration

import (
	"testing"
)

func profileWithMethod(m Method) Profile {
	p := DefaultProfile()
	p.Method = m
	return p
}

func TestCalibrateMonotonic(t *testing.T) {
	dimSource := DefaultProfile()
	dimSource.Method = MethodPerceptual
	dimSource.SourcePeakNits = 200
	dimSource.TargetPeakNits = 500

	tests := []struct {
		name    string
		profile Profile
	}{
		{name: "lut", profile: profileWithMethod(MethodLUT)},
		{name: "perceptual", profile: profileWithMethod(MethodPerceptual)},
		{name: "perceptual-dimmer-source", profile: dimSource},
		{name: "logarithmic", profile: profileWithMethod(MethodLogarithmic)},
		{name: "linear", profile: profileWithMethod(MethodLinear)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := Calibrate(0, tt.profile)
			for i := 1; i <= 1000; i++ {
				n := float64(i) / 1000
				got := Calibrate(n, tt.profile)
				if got < prev {
					t.Fatalf("calibrate not monotonic at n=%g: got %d, previous %d", n, got, prev)
				}
				prev = got
			}
		})
	}
}

func TestCalibrateEndpoints(t *testing.T) {
	for _, m := range []Method{MethodLinear, MethodPerceptual, MethodLogarithmic} {
		p := profileWithMethod(m)
		if got := Calibrate(0, p); got != 0 {
			t.Errorf("%s: calibrate(0) = %d, want 0", m, got)
		}
		if got := Calibrate(1, p); got != 100 {
			t.Errorf("%s: calibrate(1) = %d, want 100", m, got)
		}
	}

	lut := profileWithMethod(MethodLUT)
	if got := Calibrate(0, lut); got != 5 {
		t.Errorf("lut: calibrate(0) = %d, want first anchor 5", got)
	}
	if got := Calibrate(1, lut); got != 95 {
		t.Errorf("lut: calibrate(1) = %d, want last anchor 95", got)
	}
}

func TestCalibrateClampsInput(t *testing.T) {
	tests := []struct {
		name   string
		method Method
		n      float64
		want   int
	}{
		{name: "negative-linear", method: MethodLinear, n: -0.2, want: 0},
		{name: "above-one-linear", method: MethodLinear, n: 1.3, want: 100},
		{name: "negative-lut", method: MethodLUT, n: -1, want: 5},
		{name: "above-one-lut", method: MethodLUT, n: 2, want: 95},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Calibrate(tt.n, profileWithMethod(tt.method)); got != tt.want {
				t.Errorf("calibrate(%g) = %d, want %d", tt.n, got, tt.want)
			}
		})
	}
}

func TestLUTAnchorsExact(t *testing.T) {
	l := DefaultLUT()
	for _, a := range l {
		if got := l.Eval(a.Normalized); got != a.Percent {
			t.Errorf("eval(%g) = %g, want anchor percent %g", a.Normalized, got, a.Percent)
		}
	}
}

func TestCalibrateLUTKeyPoints(t *testing.T) {
	p := profileWithMethod(MethodLUT)
	tests := []struct {
		n    float64
		want int
	}{
		{n: 0.25, want: 32},
		{n: 0.5, want: 68},
		{n: 0.75, want: 82},
		// Interpolated halfway between the 0.4 and 0.5 anchors.
		{n: 0.45, want: 63},
	}

	for _, tt := range tests {
		if got := Calibrate(tt.n, p); got != tt.want {
			t.Errorf("calibrate(%g) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestCalibratePerceptual(t *testing.T) {
	p := profileWithMethod(MethodPerceptual)

	// Midpoint under the default 625/300 nits pair.
	if got := Calibrate(0.5, p); got != 70 {
		t.Errorf("calibrate(0.5) = %d, want 70", got)
	}
	// The brighter source saturates the target before full input.
	if got := Calibrate(0.8, p); got != 100 {
		t.Errorf("calibrate(0.8) = %d, want 100", got)
	}

	// A dimmer source never reaches the target's full brightness.
	dim := p
	dim.SourcePeakNits = 150
	dim.TargetPeakNits = 600
	if got := Calibrate(1, dim); got >= 100 {
		t.Errorf("calibrate(1) with dim source = %d, want < 100", got)
	}
	if got := Calibrate(0, dim); got != 0 {
		t.Errorf("calibrate(0) with dim source = %d, want 0", got)
	}
}

func TestCalibrateLogarithmicSteepness(t *testing.T) {
	p := profileWithMethod(MethodLogarithmic)
	if got := Calibrate(0.5, p); got != 74 {
		t.Errorf("calibrate(0.5) with k=9 = %d, want 74", got)
	}

	// A gentler curve sits lower at the midpoint but keeps the endpoints.
	gentle := p
	gentle.LogSteepness = 2
	mid := Calibrate(0.5, gentle)
	if mid >= 74 {
		t.Errorf("calibrate(0.5) with k=2 = %d, want < 74", mid)
	}
	if got := Calibrate(0, gentle); got != 0 {
		t.Errorf("calibrate(0) with k=2 = %d, want 0", got)
	}
	if got := Calibrate(1, gentle); got != 100 {
		t.Errorf("calibrate(1) with k=2 = %d, want 100", got)
	}
}

func TestCalibrateUnknownMethodFallsBackToPerceptual(t *testing.T) {
	bogus := profileWithMethod(Method("bogus"))
	p := profileWithMethod(MethodPerceptual)
	for _, n := range []float64{0, 0.3, 0.5, 0.8, 1} {
		if got, want := Calibrate(n, bogus), Calibrate(n, p); got != want {
			t.Errorf("calibrate(%g) with unknown method = %d, want perceptual %d", n, got, want)
		}
	}
}

func TestLUTValidate(t *testing.T) {
	tests := []struct {
		name    string
		lut     LUT
		wantErr bool
	}{
		{name: "default", lut: DefaultLUT(), wantErr: false},
		{name: "minimal", lut: LUT{{0, 0}, {1, 100}}, wantErr: false},
		{name: "too-few", lut: LUT{{0, 5}}, wantErr: true},
		{name: "unsorted", lut: LUT{{0, 5}, {0.6, 70}, {0.4, 50}, {1, 95}}, wantErr: true},
		{name: "not-spanning-zero", lut: LUT{{0.1, 5}, {1, 95}}, wantErr: true},
		{name: "not-spanning-one", lut: LUT{{0, 5}, {0.9, 95}}, wantErr: true},
		{name: "decreasing-percent", lut: LUT{{0, 50}, {0.5, 40}, {1, 95}}, wantErr: true},
		{name: "percent-out-of-range", lut: LUT{{0, 5}, {1, 120}}, wantErr: true},
		{name: "duplicate-normalized", lut: LUT{{0, 5}, {0.5, 50}, {0.5, 60}, {1, 95}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.lut.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}

func TestProfileValidate(t *testing.T) {
	valid := DefaultProfile()

	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr bool
	}{
		{name: "default", mutate: func(*Profile) {}, wantErr: false},
		{name: "zero-source-nits", mutate: func(p *Profile) { p.SourcePeakNits = 0 }, wantErr: true},
		{name: "negative-target-nits", mutate: func(p *Profile) { p.TargetPeakNits = -1 }, wantErr: true},
		{name: "zero-gamma", mutate: func(p *Profile) { p.TargetGamma = 0 }, wantErr: true},
		{name: "zero-steepness", mutate: func(p *Profile) { p.LogSteepness = 0 }, wantErr: true},
		{name: "bad-method", mutate: func(p *Profile) { p.Method = "quadratic" }, wantErr: true},
		{name: "lut-method-without-lut", mutate: func(p *Profile) { p.LUT = nil }, wantErr: true},
		{name: "linear-without-lut", mutate: func(p *Profile) { p.Method = MethodLinear; p.LUT = nil }, wantErr: false},
		{name: "bad-lut", mutate: func(p *Profile) { p.LUT = LUT{{0, 90}, {1, 10}} }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			p.LUT = DefaultLUT()
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %t", err, tt.wantErr)
			}
		})
	}
}
