//go:build linux

package clocksync

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// setSystemClock sets the OS wall clock. Needs CAP_SYS_TIME.
func setSystemClock(t time.Time) error {
	tv := unix.NsecToTimeval(t.UnixNano())
	if err := unix.Settimeofday(&tv); err != nil {
		return fmt.Errorf("clocksync: settimeofday: %w", err)
	}
	return nil
}
