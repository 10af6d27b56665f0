// Package clocksync is the system-clock sink device: it consumes RMC
// sentences from its transport until one carries a valid date, sets the
// OS clock from it, and then shuts itself down.
package clocksync

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/binnacle-labs/seabridge/internal/nmea"
	"github.com/binnacle-labs/seabridge/internal/transport"
)

// Device is a one-shot consumer. It never emits anything.
type Device struct {
	name string
	port transport.Port
	log  *logrus.Entry

	// setClock is the platform call; swappable in tests.
	setClock func(time.Time) error
}

// New builds the sink over port.
func New(name string, port transport.Port, log *logrus.Entry) *Device {
	return &Device{name: name, port: port, log: log, setClock: setSystemClock}
}

// Name identifies the device to the supervisor.
func (d *Device) Name() string { return d.name }

// Run reads lines until a valid RMC arrives, sets the clock once, and
// returns nil so the supervisor sees a clean self-shutdown.
func (d *Device) Run(ctx context.Context) error {
	if err := d.port.Initialize(ctx); err != nil {
		return err
	}
	defer d.port.Close()

	lines := nmea.NewLineReader(d.port)
	for {
		line, err := lines.ReadLine(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if err := nmea.VerifyChecksum(line); err != nil {
			d.log.WithError(err).Warn("discarding line")
			continue
		}
		sentence, err := nmea.ParseLine(line)
		if err != nil {
			continue
		}
		rmc, ok := sentence.(nmea.RMC)
		if !ok || !rmc.Valid || rmc.UTC.IsZero() {
			continue
		}
		if err := d.setClock(rmc.UTC); err != nil {
			d.log.WithError(err).Error("failed to set system clock")
			return err
		}
		d.log.WithField("time", rmc.UTC.Format(time.RFC3339)).Info("system clock set, shutting down")
		return nil
	}
}
