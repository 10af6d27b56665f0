//go:build linux

package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	goserial "github.com/daedaluz/goserial"
)

// SeatalkSerialConfig configures the raw termios access the Seatalk bus
// needs: mark/space ("9th bit") parity to flag a datagram's command byte,
// which plain github.com/tarm/serial cannot express.
type SeatalkSerialConfig struct {
	Name string
	Baud uint32
}

// SeatalkSerialPort talks the Seatalk bus over a raw tty: even parity
// checking with PARMRK on read so a parity-violating ("marked") command
// byte surfaces as the kernel's \377\000<byte> escape, and CMSPAR-toggled
// stick parity on write so we can set that same marker on demand.
type SeatalkSerialPort struct {
	cfg  SeatalkSerialConfig
	mu   sync.Mutex
	port *goserial.Port
}

func NewSeatalkSerialPort(cfg SeatalkSerialConfig) *SeatalkSerialPort {
	if cfg.Baud == 0 {
		cfg.Baud = 4800
	}
	return &SeatalkSerialPort{cfg: cfg}
}

func (p *SeatalkSerialPort) Initialize(ctx context.Context) error {
	opts := goserial.NewOptions().SetReadTimeout(200 * time.Millisecond)
	port, err := goserial.Open(p.cfg.Name, opts)
	if err != nil {
		return fmt.Errorf("open seatalk port %s: %w", p.cfg.Name, err)
	}
	attrs, err := port.GetAttr2()
	if err != nil {
		port.Close()
		return fmt.Errorf("get termios for %s: %w", p.cfg.Name, err)
	}
	attrs.MakeRaw()
	attrs.Cflag |= goserial.CREAD | goserial.CLOCAL | goserial.PARENB
	attrs.Cflag &^= goserial.PARODD | goserial.CMSPAR
	attrs.Iflag |= goserial.INPCK | goserial.PARMRK
	attrs.Iflag &^= goserial.IGNPAR | goserial.ISTRIP
	attrs.SetCustomSpeed(p.cfg.Baud)
	if err := port.SetAttr2(goserial.TCSANOW, attrs); err != nil {
		port.Close()
		return fmt.Errorf("set termios for %s: %w", p.cfg.Name, err)
	}
	p.port = port
	return nil
}

// Read de-escapes the kernel's PARMRK stream (\377\000<byte> for a
// parity-violating byte, \377\377 for a genuine 0xFF) back into a plain
// byte stream; Reader.readByte never sees the marker itself, since framing
// resync is length-driven, not marker-driven (internal/seatalk.Reader).
func (p *SeatalkSerialPort) Read(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	raw := make([]byte, len(b))
	n, err := p.port.Read(raw)
	if n == 0 {
		return 0, err
	}
	out := 0
	for i := 0; i < n; i++ {
		if raw[i] == 0xFF && i+1 < n {
			switch raw[i+1] {
			case 0x00:
				if i+2 < n {
					b[out] = raw[i+2]
					out++
					i += 2
					continue
				}
			case 0xFF:
				b[out] = 0xFF
				out++
				i++
				continue
			}
		}
		b[out] = raw[i]
		out++
	}
	return out, err
}

// Write sends the command byte with mark (stick-odd) parity and the
// remaining bytes with ordinary (space) parity.
func (p *SeatalkSerialPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(b) == 0 {
		return 0, nil
	}
	if err := p.setParityMode(true); err != nil {
		return 0, err
	}
	if _, err := p.port.Write(b[:1]); err != nil {
		return 0, err
	}
	if len(b) == 1 {
		return 1, nil
	}
	if err := p.setParityMode(false); err != nil {
		return 1, err
	}
	n, err := p.port.Write(b[1:])
	return 1 + n, err
}

func (p *SeatalkSerialPort) setParityMode(mark bool) error {
	attrs, err := p.port.GetAttr2()
	if err != nil {
		return err
	}
	if mark {
		attrs.Cflag |= goserial.CMSPAR | goserial.PARODD
	} else {
		attrs.Cflag &^= goserial.CMSPAR | goserial.PARODD
	}
	return p.port.SetAttr2(goserial.TCSADRAIN, attrs)
}

func (p *SeatalkSerialPort) Flush() error {
	return p.port.Flush(goserial.TCIOFLUSH)
}

func (p *SeatalkSerialPort) Close() error {
	if p.port == nil {
		return nil
	}
	return p.port.Close()
}
