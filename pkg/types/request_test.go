package types

import (
	"encoding/json"
	"testing"
)

func TestBrightnessRequestDecode(t *testing.T) {
	cases := []struct {
		name string
		body string
		want func(r BrightnessRequest) bool
	}{
		{
			name: "plain fields",
			body: `{"brightness": 0.5, "smooth": false}`,
			want: func(r BrightnessRequest) bool {
				return r.Brightness != nil && *r.Brightness == 0.5 &&
					r.Smooth != nil && !*r.Smooth
			},
		},
		{
			name: "shortcuts envelope",
			body: `{"": {"level": "dim", "time_based": true}}`,
			want: func(r BrightnessRequest) bool {
				return r.Level != nil && *r.Level == "dim" &&
					r.TimeBased != nil && *r.TimeBased
			},
		},
		{
			name: "stringified number",
			body: `{"brightness": "0.75"}`,
			want: func(r BrightnessRequest) bool {
				return r.Brightness != nil && *r.Brightness == 0.75
			},
		},
		{
			name: "stringified number with spaces",
			body: `{"lux": " 350 "}`,
			want: func(r BrightnessRequest) bool {
				return r.Lux != nil && *r.Lux == 350
			},
		},
		{
			name: "stringified boolean",
			body: `{"time_based": "true"}`,
			want: func(r BrightnessRequest) bool {
				return r.TimeBased != nil && *r.TimeBased
			},
		},
		{
			name: "null means absent",
			body: `{"brightness": null, "lux": 20}`,
			want: func(r BrightnessRequest) bool {
				return r.Brightness == nil && r.Lux != nil && *r.Lux == 20
			},
		},
		{
			name: "unknown fields are ignored",
			body: `{"lux": 20, "device": "phone"}`,
			want: func(r BrightnessRequest) bool {
				return r.Lux != nil && *r.Lux == 20
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var r BrightnessRequest
			if err := json.Unmarshal([]byte(tc.body), &r); err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}
			if !tc.want(r) {
				t.Fatalf("decoded request does not match: %+v", r)
			}
		})
	}
}

func TestBrightnessRequestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"garbage number", `{"brightness": "a lot"}`},
		{"number as object", `{"lux": {"value": 1}}`},
		{"garbage boolean", `{"time_based": "sometimes"}`},
		{"level as number", `{"level": 3}`},
		{"not an object", `[1, 2, 3]`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var r BrightnessRequest
			if err := json.Unmarshal([]byte(tc.body), &r); err == nil {
				t.Fatalf("expected decode error, got %+v", r)
			}
		})
	}
}

func TestBrightnessRequestEmpty(t *testing.T) {
	var r BrightnessRequest
	if err := json.Unmarshal([]byte(`{"smooth": true}`), &r); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if !r.Empty() {
		t.Fatalf("request with only smooth should count as empty")
	}

	if err := json.Unmarshal([]byte(`{"lux": 20}`), &r); err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if r.Empty() {
		t.Fatalf("request with lux should not be empty")
	}
}
