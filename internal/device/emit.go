package device

import (
	"bytes"
	"context"
	"time"

	"github.com/binnacle-labs/seabridge/internal/nmea"
	"github.com/binnacle-labs/seabridge/internal/seatalk"
)

// emitLoop wakes every emitInterval, builds the set of messages ship
// state currently supports for this device's codec, drops any whose
// tag/command is in the own-echo set, serializes the rest onto the
// bounded write-queue, then immediately drains that queue to the
// transport.
func (d *Device) emitLoop(ctx context.Context) error {
	ticker := time.NewTicker(emitInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			switch d.cfg.Kind {
			case KindNMEA:
				d.emitNMEA()
			case KindSeatalk:
				d.emitSeatalk()
			default:
				return errNoSuchKind(d.cfg.Kind)
			}
			d.drainWriteQueue()
		}
	}
}

func (d *Device) emitNMEA() {
	for _, sentence := range buildNMEASentences(d.store) {
		if d.isOwnEcho(sentence.Tag()) {
			continue
		}
		line, err := nmea.Emit(sentence)
		if err != nil {
			d.log.WithError(err).Warn("nmea emit failed")
			continue
		}
		d.writeQ.Put([]byte(line))
	}
}

func (d *Device) emitSeatalk() {
	for _, record := range buildSeatalkRecords(d.store) {
		if d.isOwnEcho(seatalkEchoKey(record.Command())) {
			continue
		}
		frame, err := seatalk.EmitRecord(record)
		if err != nil {
			d.log.WithError(err).Warn("seatalk emit failed")
			continue
		}
		buf := new(bytes.Buffer)
		if err := seatalk.WriteFrame(buf, frame); err != nil {
			d.log.WithError(err).Warn("seatalk frame serialize failed")
			continue
		}
		d.writeQ.Put(buf.Bytes())
	}
}

func (d *Device) drainWriteQueue() {
	for {
		b, ok := d.writeQ.Get()
		if !ok {
			return
		}
		if _, err := d.port.Write(b); err != nil {
			d.log.WithError(err).Warn("transport write failed")
			return
		}
		d.rawLog.Append("tx", b)
	}
}

func seatalkEchoKey(cmd byte) string {
	const hexDigits = "0123456789ABCDEF"
	return string([]byte{'0', 'x', hexDigits[cmd>>4], hexDigits[cmd&0xF]})
}
