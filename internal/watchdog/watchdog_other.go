//go:build !linux

package watchdog

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultDevicePath only exists on Linux; kept so callers build everywhere.
const DefaultDevicePath = "/dev/watchdog"

// Watchdog is unavailable off Linux; Open always fails and the
// supervisor runs without one.
type Watchdog struct{}

func Open(string, time.Duration, *logrus.Entry) (*Watchdog, error) {
	return nil, errors.New("watchdog: only supported on linux")
}

func (w *Watchdog) Timeout() time.Duration { return 0 }
func (w *Watchdog) Feed() error            { return nil }
func (w *Watchdog) Close(bool) error       { return nil }
