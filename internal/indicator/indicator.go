// Package indicator is the LED device-state interface the multiplexer
// drives but does not implement. The shipped implementations log or do
// nothing; GPIO wiring lives outside this repository.
package indicator

import "github.com/sirupsen/logrus"

// State is the coarse device state an indicator shows.
type State int

const (
	StateStarting State = iota
	StateRunning
	StateError
	StateShutdown
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateError:
		return "error"
	case StateShutdown:
		return "shutdown"
	}
	return "unknown"
}

// Indicator shows a device's state to the operator.
type Indicator interface {
	ShowState(name string, state State)
}

// Noop discards every state change.
type Noop struct{}

func (Noop) ShowState(string, State) {}

// Log writes state changes to the structured logger.
type Log struct {
	Entry *logrus.Entry
}

func (l Log) ShowState(name string, state State) {
	l.Entry.WithFields(logrus.Fields{"device": name, "state": state.String()}).Info("device state")
}
