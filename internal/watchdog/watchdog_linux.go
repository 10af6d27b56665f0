//go:build linux

package watchdog

import (
	"fmt"
	"os"
	"time"
	"unsafe"

	ioctl "github.com/daedaluz/goioctl"
	"github.com/sirupsen/logrus"
)

// DefaultDevicePath is the standard Linux watchdog character device.
const DefaultDevicePath = "/dev/watchdog"

// Watchdog ioctl numbers from linux/watchdog.h, built the same way
// ioctl_linux.go in daedaluz/goserial builds its termios requests.
var (
	wdiocGetSupport = ioctl.IOR('W', 0, unsafe.Sizeof(supportInfo{}))
	wdiocSetTimeout = ioctl.IOWR('W', 6, unsafe.Sizeof(int32(0)))
	wdiocGetTimeout = ioctl.IOR('W', 7, unsafe.Sizeof(int32(0)))
)

// supportInfo mirrors struct watchdog_info.
type supportInfo struct {
	Options         uint32
	FirmwareVersion uint32
	Identity        [32]byte
}

// Watchdog is an armed /dev/watchdog handle. Once Open succeeds the kernel
// reboots the system unless Feed is called within the timeout; Close with
// magic close disarms it instead.
type Watchdog struct {
	f       *os.File
	timeout time.Duration
	log     *logrus.Entry
}

// Open arms the watchdog at path with the requested timeout. A zero
// timeout keeps the driver default. Failure to set the requested timeout
// is returned as an error; the caller decides whether to continue
// without a watchdog.
func Open(path string, timeout time.Duration, log *logrus.Entry) (*Watchdog, error) {
	if path == "" {
		path = DefaultDevicePath
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("watchdog: open %s: %w", path, err)
	}
	w := &Watchdog{f: f, log: log}

	var info supportInfo
	if err := ioctl.Ioctl(f.Fd(), wdiocGetSupport, uintptr(unsafe.Pointer(&info))); err == nil {
		identity := string(info.Identity[:])
		for i, b := range info.Identity {
			if b == 0 {
				identity = string(info.Identity[:i])
				break
			}
		}
		log.WithFields(logrus.Fields{
			"identity": identity,
			"options":  info.Options,
			"firmware": info.FirmwareVersion,
		}).Info("watchdog armed")
	}

	if timeout > 0 {
		if err := w.setTimeout(timeout); err != nil {
			w.Close(true)
			return nil, err
		}
	}
	actual, err := w.getTimeout()
	if err != nil {
		w.Close(true)
		return nil, err
	}
	w.timeout = actual
	return w, nil
}

func (w *Watchdog) getTimeout() (time.Duration, error) {
	var secs int32
	if err := ioctl.Ioctl(w.f.Fd(), wdiocGetTimeout, uintptr(unsafe.Pointer(&secs))); err != nil {
		return 0, fmt.Errorf("watchdog: get timeout: %w", err)
	}
	return time.Duration(secs) * time.Second, nil
}

func (w *Watchdog) setTimeout(timeout time.Duration) error {
	secs := int32(timeout / time.Second)
	if err := ioctl.Ioctl(w.f.Fd(), wdiocSetTimeout, uintptr(unsafe.Pointer(&secs))); err != nil {
		return fmt.Errorf("watchdog: set timeout %v: %w", timeout, err)
	}
	actual, err := w.getTimeout()
	if err != nil {
		return err
	}
	if actual != timeout {
		return fmt.Errorf("watchdog: requested timeout %v, driver kept %v", timeout, actual)
	}
	return nil
}

// Timeout is the driver's effective timeout.
func (w *Watchdog) Timeout() time.Duration { return w.timeout }

// Feed resets the watchdog's countdown. Any byte other than 'V' works.
func (w *Watchdog) Feed() error {
	_, err := w.f.Write([]byte{0})
	return err
}

// Close releases the handle. With magicClose the byte 'V' is written first
// so the driver disarms instead of rebooting once the handle drops.
func (w *Watchdog) Close(magicClose bool) error {
	if magicClose {
		if _, err := w.f.Write([]byte{'V'}); err != nil {
			w.log.WithError(err).Error("watchdog magic close failed")
		}
	}
	return w.f.Close()
}
