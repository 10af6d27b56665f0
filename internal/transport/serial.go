package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// SerialConfig describes a plain line-oriented serial port, used for
// NMEA 0183 devices.
type SerialConfig struct {
	Name        string
	Baud        int
	ReadTimeout time.Duration
}

// SerialPort wraps github.com/tarm/serial for NMEA devices that need
// only 8N1 framing, no parity tricks. Read and write on one instance are
// serialized by a mutex so codec state cannot interleave on the
// descriptor; the read timeout keeps the lock cycling.
type SerialPort struct {
	cfg  SerialConfig
	mu   sync.Mutex
	port *serial.Port
}

// NewSerialPort builds an unopened port; call Initialize before use.
func NewSerialPort(cfg SerialConfig) *SerialPort {
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 100 * time.Millisecond
	}
	return &SerialPort{cfg: cfg}
}

func (p *SerialPort) Initialize(ctx context.Context) error {
	port, err := serial.OpenPort(&serial.Config{
		Name:        p.cfg.Name,
		Baud:        p.cfg.Baud,
		ReadTimeout: p.cfg.ReadTimeout,
		Size:        8,
	})
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", p.cfg.Name, err)
	}
	p.port = port
	return nil
}

func (p *SerialPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.port.Read(b)
}

func (p *SerialPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.port.Write(b)
}
func (p *SerialPort) Flush() error                { return p.port.Flush() }
func (p *SerialPort) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}
