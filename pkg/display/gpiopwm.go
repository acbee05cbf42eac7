package display

import (
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// Panel PWM below a few kHz flickers visibly; 25 kHz is a safe default.
const defaultPWMFreqHz = 25000

// GPIOPWM dims an embedded panel through a PWM-capable GPIO pin. PWM is
// write-only, so Current reports the last written percent (starting from
// the configured initial value).
type GPIOPWM struct {
	pinName string
	freq    physic.Frequency

	mu   sync.Mutex
	pin  gpio.PinIO
	last int
}

// NewGPIOPWM returns a PWM driver on the named pin (e.g. "GPIO18").
func NewGPIOPWM(pin string, freqHz int, initial int) *GPIOPWM {
	if freqHz <= 0 {
		freqHz = defaultPWMFreqHz
	}
	return &GPIOPWM{
		pinName: pin,
		freq:    physic.Frequency(freqHz) * physic.Hertz,
		last:    clampPercent(initial),
	}
}

func (d *GPIOPWM) Open() error {
	if _, err := host.Init(); err != nil {
		return pkgerrors.Wrap(err, "failed to initialize gpio host")
	}

	pin := gpioreg.ByName(d.pinName)
	if pin == nil {
		return pkgerrors.Errorf("gpio pin %q not found", d.pinName)
	}
	d.pin = pin

	logrus.WithFields(logrus.Fields{
		"pin":  d.pinName,
		"freq": d.freq,
	}).Debug("gpio pwm backlight opened")

	return nil
}

func (d *GPIOPWM) Close() error {
	if d.pin == nil {
		return nil
	}
	return d.pin.Halt()
}

func (d *GPIOPWM) Current() (int, error) {
	logrus.Tracef("Current called")

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last, nil
}

func (d *GPIOPWM) Set(percent int) error {
	logrus.Tracef("Set called with %d", percent)

	if d.pin == nil {
		return pkgerrors.New("gpio pwm driver is not open")
	}

	percent = clampPercent(percent)
	duty := gpio.Duty(int64(gpio.DutyMax) * int64(percent) / 100)

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.pin.PWM(duty, d.freq); err != nil {
		return pkgerrors.Wrapf(err, "failed to drive pwm on %s", d.pinName)
	}
	d.last = percent

	return nil
}
