package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// BrightnessRequest is the body of POST /brightness. Exactly one of the
// source fields is expected; when several are present the daemon applies
// the fixed precedence brightness > level > time_based > lux.
//
// Two client quirks are absorbed during decoding so the daemon never sees
// them: iOS Shortcuts wraps the object in a {"": {...}} envelope, and some
// automation apps send numbers and booleans as strings.
type BrightnessRequest struct {
	// Brightness is the normalized source brightness in [0, 1].
	Brightness *float64 `json:"brightness,omitempty"`
	// Level is a symbolic level name, e.g. "dim" or "very_bright".
	Level *string `json:"level,omitempty"`
	// TimeBased asks the daemon to pick a level from its time windows.
	TimeBased *bool `json:"time_based,omitempty"`
	// Lux is an ambient light reading in lux.
	Lux *float64 `json:"lux,omitempty"`
	// Smooth overrides the daemon-wide smooth transition setting. It can
	// only disable smoothing, never force it on when the daemon has it off.
	Smooth *bool `json:"smooth,omitempty"`
}

// UnmarshalJSON decodes a request, unwrapping the Shortcuts envelope and
// coercing stringified numbers and booleans.
func (r *BrightnessRequest) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	// iOS Shortcuts nests the whole body under a single empty key.
	if inner, ok := raw[""]; ok && len(raw) == 1 {
		if err := json.Unmarshal(inner, &raw); err != nil {
			return fmt.Errorf("malformed request envelope: %v", err)
		}
	}

	var err error
	if r.Brightness, err = numberField(raw, "brightness"); err != nil {
		return err
	}
	if r.Level, err = stringField(raw, "level"); err != nil {
		return err
	}
	if r.TimeBased, err = boolField(raw, "time_based"); err != nil {
		return err
	}
	if r.Lux, err = numberField(raw, "lux"); err != nil {
		return err
	}
	if r.Smooth, err = boolField(raw, "smooth"); err != nil {
		return err
	}
	return nil
}

func numberField(raw map[string]json.RawMessage, key string) (*float64, error) {
	v, ok := raw[key]
	if !ok || string(v) == "null" {
		return nil, nil
	}

	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return &f, nil
	}

	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("field %q is not a number: %q", key, s)
		}
		return &f, nil
	}

	return nil, fmt.Errorf("field %q is not a number: %s", key, v)
}

func stringField(raw map[string]json.RawMessage, key string) (*string, error) {
	v, ok := raw[key]
	if !ok || string(v) == "null" {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return nil, fmt.Errorf("field %q is not a string: %s", key, v)
	}
	return &s, nil
}

func boolField(raw map[string]json.RawMessage, key string) (*bool, error) {
	v, ok := raw[key]
	if !ok || string(v) == "null" {
		return nil, nil
	}

	var b bool
	if err := json.Unmarshal(v, &b); err == nil {
		return &b, nil
	}

	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("field %q is not a boolean: %q", key, s)
		}
		return &b, nil
	}

	return nil, fmt.Errorf("field %q is not a boolean: %s", key, v)
}

// Empty reports whether the request carries no brightness source at all.
func (r BrightnessRequest) Empty() bool {
	return r.Brightness == nil && r.Level == nil && r.TimeBased == nil && r.Lux == nil
}
