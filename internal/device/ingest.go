package device

import (
	"context"
	"errors"

	"github.com/binnacle-labs/seabridge/internal/nmea"
	"github.com/binnacle-labs/seabridge/internal/seatalk"
)

// ingestLoop reads one framed message at a time off the transport
// through the device's codec, puts it on the bounded read-queue, then
// immediately drains that queue entry into ship state and the own-echo
// set.
func (d *Device) ingestLoop(ctx context.Context) error {
	switch d.cfg.Kind {
	case KindNMEA:
		return d.ingestNMEA(ctx)
	case KindSeatalk:
		return d.ingestSeatalk(ctx)
	default:
		return errNoSuchKind(d.cfg.Kind)
	}
}

func (d *Device) ingestNMEA(ctx context.Context) error {
	lines := nmea.NewLineReader(d.port)
	for {
		line, err := lines.ReadLine(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.log.WithError(err).Warn("nmea transport read failed")
			return err
		}
		d.rawLog.Append("rx", []byte(line))
		if err := nmea.VerifyChecksum(line); err != nil {
			d.rawLog.Error(err)
			d.log.WithError(err).Warn("nmea malformed framing or checksum mismatch")
			if err := d.port.Flush(); err != nil {
				d.log.WithError(err).Warn("flush after malformed frame failed")
			}
			continue
		}
		sentence, err := nmea.ParseLine(line)
		if err != nil {
			d.log.WithError(err).Warn("nmea parse failed")
			continue
		}
		if unk, ok := sentence.(nmea.Unknown); ok {
			d.store.AppendUnknownNMEA([]byte(unk.RawLine))
			continue
		}
		d.readQueue.Put(decodedMessage{nmeaSentence: sentence})
		if msg, ok := d.readQueue.Get(); ok {
			d.noteOwnEcho(msg.nmeaSentence.Tag())
			applyNMEASentence(d.store, msg.nmeaSentence)
			d.maybeAutoFlush()
		}
	}
}

func (d *Device) ingestSeatalk(ctx context.Context) error {
	r := seatalk.NewReader(d.port)
	for {
		frame, err := r.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			switch {
			case errors.Is(err, seatalk.ErrUnknownCommand):
				d.log.WithError(err).Warn("seatalk unknown command")
			case errors.Is(err, seatalk.ErrDataValidation):
				d.rawLog.Error(err)
				d.log.WithError(err).Warn("seatalk frame read failed")
			default:
				d.log.WithError(err).Warn("seatalk transport read failed")
				return err
			}
			continue
		}
		d.rawLog.Append("rx", append([]byte{frame.Command}, frame.Data...))
		record, err := seatalk.ParseRecord(frame)
		if err != nil {
			d.store.AppendUnknownSeatalk(append([]byte{frame.Command}, frame.Data...))
			d.log.WithError(err).Warn("seatalk record parse failed")
			continue
		}
		d.readQueue.Put(decodedMessage{seatalkRecord: record})
		if msg, ok := d.readQueue.Get(); ok {
			d.noteOwnEcho(seatalkEchoKey(msg.seatalkRecord.Command()))
			applySeatalkRecord(d.store, msg.seatalkRecord)
			d.maybeAutoFlush()
		}
	}
}

type errNoSuchKind Kind

func (e errNoSuchKind) Error() string { return "device: unknown kind " + string(e) }
