package seatalk

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// Sentinel errors for the Seatalk codec.
var (
	ErrNotEnoughData  = errors.New("seatalk: not enough data")
	ErrTooMuchData    = errors.New("seatalk: too much data")
	ErrDataValidation = errors.New("seatalk: data validation failed")
	ErrUnknownCommand = errors.New("seatalk: unknown command byte")
)

// RawFrame is one framed-but-not-yet-semantically-decoded Seatalk datagram:
// command byte, the "first half byte" (attr high nibble, carries
// command-specific flag/sub-field bits), and the length+1 payload bytes.
type RawFrame struct {
	Command   byte
	FirstHalf byte
	Data      []byte
}

// Reader reads one Seatalk datagram at a time off src: read a byte,
// validate, discard and resume scanning on error. The stream carries no
// delimiter, so resync after an error means simply treating the very
// next byte as a fresh command byte.
//
// Not goroutine-safe; one Reader per device.
type Reader struct {
	src io.Reader
	buf [1]byte
}

// NewReader wraps src.
func NewReader(src io.Reader) *Reader {
	return &Reader{src: src}
}

func (r *Reader) readByte(ctx context.Context) (byte, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	default:
	}
	if _, err := io.ReadFull(r.src, r.buf[:]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

func (r *Reader) readN(ctx context.Context, n int) ([]byte, error) {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		b, err := r.readByte(ctx)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// ReadFrame returns the next well-formed frame. On a validation error
// (unknown command, or declared length outside what the table expects)
// it returns that error with the frame's bytes already consumed so the
// next call resumes scanning at the following command byte — the caller
// (device ingest loop) is expected to log and continue, never abort.
func (r *Reader) ReadFrame(ctx context.Context) (RawFrame, error) {
	cmd, err := r.readByte(ctx)
	if err != nil {
		return RawFrame{}, err
	}
	spec, known := commandTable[cmd]
	if !known {
		return RawFrame{}, fmt.Errorf("%w: 0x%02X", ErrUnknownCommand, cmd)
	}

	attr, err := r.readByte(ctx)
	if err != nil {
		return RawFrame{}, err
	}
	length := int(loNibble(attr))
	firstHalf := hiNibble(attr)

	if spec.Length >= 0 && length != spec.Length {
		// Still consume the declared payload length so the stream resyncs
		// at the next command byte.
		if _, drainErr := r.readN(ctx, length+1); drainErr != nil {
			return RawFrame{}, drainErr
		}
		return RawFrame{}, fmt.Errorf("%w: cmd 0x%02X declared length %d, expected %d", ErrDataValidation, cmd, length, spec.Length)
	}

	data, err := r.readN(ctx, length+1)
	if err != nil {
		return RawFrame{}, err
	}
	return RawFrame{Command: cmd, FirstHalf: firstHalf, Data: data}, nil
}

// WriteFrame serializes a frame as [cmd, (firstHalf<<4)|length, data...].
func WriteFrame(w io.Writer, f RawFrame) error {
	length := len(f.Data) - 1
	if length < 0 || length > 0x0F {
		return fmt.Errorf("%w: payload length %d out of range", ErrTooMuchData, len(f.Data))
	}
	out := make([]byte, 0, 2+len(f.Data))
	out = append(out, f.Command, (f.FirstHalf<<4)|byte(length))
	out = append(out, f.Data...)
	_, err := w.Write(out)
	return err
}
