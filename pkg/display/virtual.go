package display

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Virtual is an in-memory driver for machines without a controllable
// backlight. It lets the daemon run end-to-end in development.
type Virtual struct {
	mu      sync.Mutex
	percent int
}

// NewVirtual returns a virtual driver starting at the given percent.
func NewVirtual(initial int) *Virtual {
	return &Virtual{percent: clampPercent(initial)}
}

func (d *Virtual) Open() error {
	return nil
}

func (d *Virtual) Close() error {
	return nil
}

func (d *Virtual) Current() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.percent, nil
}

func (d *Virtual) Set(percent int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.percent = clampPercent(percent)
	logrus.Tracef("virtual display set to %d", d.percent)

	return nil
}
