package transport

import (
	"context"
	"io"
	"os"
)

// FilePort replays/records a plain file, e.g. a captured NMEA log used
// for replay testing.
type FilePort struct {
	path string
	flag int
	f    *os.File
}

func NewFilePort(path string, writable bool) *FilePort {
	flag := os.O_RDONLY
	if writable {
		flag = os.O_RDWR | os.O_CREATE | os.O_APPEND
	}
	return &FilePort{path: path, flag: flag}
}

func (p *FilePort) Initialize(ctx context.Context) error {
	f, err := os.OpenFile(p.path, p.flag, 0644)
	if err != nil {
		return err
	}
	p.f = f
	return nil
}

func (p *FilePort) Read(b []byte) (int, error)  { return p.f.Read(b) }
func (p *FilePort) Write(b []byte) (int, error) { return p.f.Write(b) }
func (p *FilePort) Flush() error                { return p.f.Sync() }
func (p *FilePort) Close() error                { return p.f.Close() }

// StdIOPort wires stdin/stdout as a device, for shell pipelines.
type StdIOPort struct {
	r io.Reader
	w io.Writer
}

func NewStdIOPort() *StdIOPort {
	return &StdIOPort{r: os.Stdin, w: os.Stdout}
}

func (p *StdIOPort) Initialize(ctx context.Context) error { return nil }
func (p *StdIOPort) Read(b []byte) (int, error)           { return p.r.Read(b) }
func (p *StdIOPort) Write(b []byte) (int, error)          { return p.w.Write(b) }
func (p *StdIOPort) Flush() error                         { return nil }
func (p *StdIOPort) Close() error                         { return nil }
