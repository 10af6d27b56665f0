// Package config loads the single nested YAML document that drives
// bootstrap: the watchdog options and the device list. Configuration
// errors are fatal; the caller exits non-zero.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure so bootstrap can treat all of
// them as one fatal class.
var ErrInvalid = errors.New("config: invalid")

// Watchdog holds the hardware-watchdog options. PreviousResets is mutated
// and persisted across reboots through internal/watchdog's counter file,
// not through this document.
type Watchdog struct {
	Enable      bool   `yaml:"Enable"`
	Timeout     int    `yaml:"Timeout"` // seconds
	MaxResets   int    `yaml:"MaxResets"`
	DevicePath  string `yaml:"DevicePath"` // defaults to /dev/watchdog
	CounterFile string `yaml:"CounterFile"`
}

// IO selects and parameterizes one device's transport.
type IO struct {
	Transport string `yaml:"Transport"` // serial, serial-seatalk, tcp-server, tcp-client, file, stdio
	Path      string `yaml:"Path"`      // serial device or file path
	Address   string `yaml:"Address"`   // tcp host:port
	Baud      int    `yaml:"Baud"`
	Encoding  string `yaml:"Encoding"` // optional IANA charset name, e.g. latin-1
	Writable  bool   `yaml:"Writable"` // file transport only
}

// Device is one device-list entry.
type Device struct {
	Name       string `yaml:"Name"`
	Kind       string `yaml:"Kind"` // NMEA, Seatalk, SetTime
	IO         IO     `yaml:"IO"`
	AutoFlush  int    `yaml:"AutoFlush"`
	MaxItemAge int    `yaml:"MaxItemAge"` // seconds
}

// MaxItemAgeDuration returns the configured per-queue item age, or 0 for
// the pipeline default.
func (d Device) MaxItemAgeDuration() time.Duration {
	return time.Duration(d.MaxItemAge) * time.Second
}

// Root is the whole configuration document.
type Root struct {
	LogLevel  string   `yaml:"LogLevel"`
	RawLogDir string   `yaml:"RawLogDir"`
	Watchdog  Watchdog `yaml:"Watchdog"`
	Devices   []Device `yaml:"Devices"`
}

var knownKinds = map[string]struct{}{
	"NMEA": {}, "Seatalk": {}, "SetTime": {},
}

var knownTransports = map[string]struct{}{
	"serial": {}, "serial-seatalk": {}, "tcp-server": {}, "tcp-client": {}, "file": {}, "stdio": {},
}

// Load reads and validates the document at path.
func Load(path string) (*Root, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalid, path, err)
	}
	var root Root
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalid, path, err)
	}
	if err := root.validate(); err != nil {
		return nil, err
	}
	return &root, nil
}

func (r *Root) validate() error {
	if len(r.Devices) == 0 {
		return fmt.Errorf("%w: no devices configured", ErrInvalid)
	}
	seen := make(map[string]struct{}, len(r.Devices))
	for i, d := range r.Devices {
		if d.Name == "" {
			return fmt.Errorf("%w: device %d has no name", ErrInvalid, i)
		}
		if _, dup := seen[d.Name]; dup {
			return fmt.Errorf("%w: duplicate device name %q", ErrInvalid, d.Name)
		}
		seen[d.Name] = struct{}{}
		if _, ok := knownKinds[d.Kind]; !ok {
			return fmt.Errorf("%w: device %q: unknown kind %q", ErrInvalid, d.Name, d.Kind)
		}
		if _, ok := knownTransports[d.IO.Transport]; !ok {
			return fmt.Errorf("%w: device %q: unknown transport %q", ErrInvalid, d.Name, d.IO.Transport)
		}
		switch d.IO.Transport {
		case "serial", "serial-seatalk", "file":
			if d.IO.Path == "" {
				return fmt.Errorf("%w: device %q: transport %s needs a Path", ErrInvalid, d.Name, d.IO.Transport)
			}
		case "tcp-server", "tcp-client":
			if d.IO.Address == "" {
				return fmt.Errorf("%w: device %q: transport %s needs an Address", ErrInvalid, d.Name, d.IO.Transport)
			}
		}
		if d.AutoFlush < 0 || d.MaxItemAge < 0 {
			return fmt.Errorf("%w: device %q: AutoFlush and MaxItemAge must not be negative", ErrInvalid, d.Name)
		}
	}
	if r.Watchdog.Enable {
		if r.Watchdog.Timeout <= 0 {
			return fmt.Errorf("%w: watchdog enabled with no timeout", ErrInvalid)
		}
		if r.Watchdog.MaxResets <= 0 {
			return fmt.Errorf("%w: watchdog enabled with no reset ceiling", ErrInvalid)
		}
	}
	return nil
}
