// Package types holds the wire types shared between the daemon, the
// client package and the GUI.
package types

// BrightnessResult is the response to the brightness write endpoints
// (POST /brightness, PUT /brightness and POST /auto).
type BrightnessResult struct {
	Status        string `json:"status"`
	BrightnessSet int    `json:"brightness_set"`
	// PreviousBrightness is omitted when the display could not be read
	// before the write.
	PreviousBrightness *int `json:"previous_brightness,omitempty"`
	// Source names the request field that produced the target:
	// "brightness", "level", "time_based", "lux" or "percent".
	Source string `json:"source,omitempty"`
	// Level is set when the target came from a symbolic level, directly
	// or through a time window.
	Level     string `json:"level,omitempty"`
	Smooth    bool   `json:"smooth"`
	Timestamp string `json:"timestamp"`
}

// CurrentBrightness is the response to GET /brightness.
type CurrentBrightness struct {
	Brightness int    `json:"brightness"`
	Timestamp  string `json:"timestamp"`
}

// Health is the response to GET /health.
type Health struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Driver        string `json:"driver"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	// Brightness is omitted when the display cannot be read.
	Brightness *int `json:"brightness,omitempty"`
	// LastError is the most recent transition failure, if any.
	LastError string `json:"last_error,omitempty"`
}

// RawSetRequest is the body of PUT /brightness: a percent applied
// directly to the display, bypassing calibration.
type RawSetRequest struct {
	Percent *int  `json:"percent"`
	Smooth  *bool `json:"smooth,omitempty"`
}
