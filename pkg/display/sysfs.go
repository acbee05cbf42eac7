package display

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const sysfsRoot = "/sys/class/backlight"

// Sysfs drives a Linux kernel backlight device. Raw values are scaled
// through the device's max_brightness so callers only ever see percents.
type Sysfs struct {
	root   string
	device string
	max    int
}

// NewSysfs returns a sysfs driver for the named backlight device. An empty
// device name autodetects the first device present.
func NewSysfs(device string) *Sysfs {
	return &Sysfs{
		root:   sysfsRoot,
		device: device,
	}
}

func (d *Sysfs) Open() error {
	if d.device == "" {
		entries, err := os.ReadDir(d.root)
		if err != nil {
			if os.IsNotExist(err) {
				return ErrNoBacklight
			}
			return pkgerrors.Wrapf(err, "failed to list %s", d.root)
		}
		for _, e := range entries {
			d.device = e.Name()
			break
		}
		if d.device == "" {
			return ErrNoBacklight
		}
	}

	max, err := d.readInt("max_brightness")
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to read max brightness of %s", d.device)
	}
	if max <= 0 {
		return pkgerrors.Errorf("backlight %s reports max brightness %d", d.device, max)
	}
	d.max = max

	logrus.WithFields(logrus.Fields{
		"device": d.device,
		"max":    d.max,
	}).Debug("sysfs backlight opened")

	return nil
}

func (d *Sysfs) Close() error {
	return nil
}

func (d *Sysfs) Current() (int, error) {
	logrus.Tracef("Current called")

	raw, err := d.readInt("brightness")
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "failed to read brightness of %s", d.device)
	}

	percent := int(math.Round(float64(raw) * 100 / float64(d.max)))
	return clampPercent(percent), nil
}

func (d *Sysfs) Set(percent int) error {
	logrus.Tracef("Set called with %d", percent)

	percent = clampPercent(percent)
	raw := int(math.Round(float64(percent) * float64(d.max) / 100))

	path := filepath.Join(d.root, d.device, "brightness")
	if err := os.WriteFile(path, []byte(strconv.Itoa(raw)), 0644); err != nil {
		return pkgerrors.Wrapf(err, "failed to write brightness of %s", d.device)
	}

	return nil
}

func (d *Sysfs) readInt(file string) (int, error) {
	b, err := os.ReadFile(filepath.Join(d.root, d.device, file))
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, pkgerrors.Wrapf(err, "unexpected content in %s", file)
	}
	return v, nil
}
