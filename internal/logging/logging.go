// Package logging builds the process logger and the per-device raw I/O
// logs. Every subsystem receives a component-scoped *logrus.Entry at
// construction; there is no package-level logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/binnacle-labs/seabridge/internal/utils"
)

// New builds the root logger. level is one of logrus's named levels
// ("debug", "info", "warning", "error"); an empty or unparseable level
// falls back to info.
func New(level string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	if parsed, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(parsed)
	}
	return log
}

// Component scopes the root logger to one subsystem.
func Component(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("component", name)
}

// RawLog is one device's append-only raw I/O log: every ingested or
// emitted datagram and every codec error is appended with a timestamp and
// direction marker. Tab, CR, LF, VT and FF are escaped so a log line stays
// one line even when the payload carries CR-LF.
type RawLog struct {
	mu sync.Mutex
	f  *os.File
}

// OpenRawLog opens (creating if needed) dir/<device>.log for appending.
func OpenRawLog(dir, deviceName string) (*RawLog, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("raw log dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, deviceName+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("raw log %s: %w", path, err)
	}
	return &RawLog{f: f}, nil
}

// Append records one raw datagram. direction is "rx" or "tx".
func (l *RawLog) Append(direction string, raw []byte) {
	if l == nil {
		return
	}
	l.write(direction, utils.FormatSpaces(raw))
}

// Error records a codec or transport error against the raw stream.
func (l *RawLog) Error(err error) {
	if l == nil {
		return
	}
	l.write("error", err.Error())
}

func (l *RawLog) write(marker, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.f, "%s %s %s\n", time.Now().UTC().Format(time.RFC3339Nano), marker, text)
}

// Close flushes and closes the underlying file.
func (l *RawLog) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
