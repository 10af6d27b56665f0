// Package transport wires a device's byte stream to the wider world: a
// serial line, a raw Seatalk bus, a TCP listener/dialer, a plain file, or
// stdout. All of them satisfy Port, the single capability the device
// pipeline (internal/device) needs from its I/O.
package transport

import (
	"context"
	"io"
)

// Port is a bidirectional byte stream with an explicit open step. Transports
// that need none of the warm-up (stdin/stdout) make Initialize a no-op.
type Port interface {
	io.ReadWriteCloser
	Initialize(ctx context.Context) error
	// Flush discards or drains any buffered bytes. Matters after a protocol
	// error leaves a partial frame sitting in a serial driver's buffer.
	Flush() error
}
