// Package display abstracts the backlight of the driven panel. The daemon
// talks to a Driver only; which one is picked by config:
//
//   - sysfs: a Linux kernel backlight device under /sys/class/backlight
//   - gpiopwm: a PWM pin dimming an embedded panel (Raspberry Pi class
//     hardware)
//   - virtual: an in-memory value, for development and tests
//
// Drivers are assumed fast and idempotent; a failed call surfaces to the
// caller and is never retried by this package.
package display

import (
	"errors"
	"fmt"
)

// Driver is the control surface for one display backlight.
type Driver interface {
	// Open prepares the underlying device. Must be called before Current
	// or Set.
	Open() error
	// Close releases the device.
	Close() error
	// Current reads the present brightness as a percent of the panel
	// maximum.
	Current() (int, error)
	// Set drives the panel to the given percent. Out-of-range values are
	// clamped to [0,100].
	Set(percent int) error
}

// Known driver names, selectable via config.
const (
	DriverSysfs   = "sysfs"
	DriverGPIOPWM = "gpiopwm"
	DriverVirtual = "virtual"
)

// ErrNoBacklight is returned when no controllable backlight device exists.
var ErrNoBacklight = errors.New("no backlight device found")

// Options carries the per-driver settings from config.
type Options struct {
	// Device selects the sysfs backlight name (e.g. intel_backlight) or
	// the GPIO pin (e.g. GPIO18). Empty means autodetect for sysfs.
	Device string
	// PWMFreqHz is the PWM carrier frequency for the gpiopwm driver.
	PWMFreqHz int
	// Initial is the percent assumed before the first write, for drivers
	// that cannot read the hardware back.
	Initial int
}

// New returns the driver selected by name. An empty name picks sysfs.
func New(name string, opts Options) (Driver, error) {
	switch name {
	case DriverSysfs, "":
		return NewSysfs(opts.Device), nil
	case DriverGPIOPWM:
		return NewGPIOPWM(opts.Device, opts.PWMFreqHz, opts.Initial), nil
	case DriverVirtual:
		return NewVirtual(opts.Initial), nil
	default:
		return nil, fmt.Errorf("unknown display driver %q", name)
	}
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
