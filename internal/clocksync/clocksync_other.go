//go:build !linux

package clocksync

import (
	"errors"
	"time"
)

func setSystemClock(time.Time) error {
	return errors.New("clocksync: setting the system clock is only supported on linux")
}
