// Package supervisor owns the process lifecycle: it spawns every device
// task, watches their liveness on a ticker, and feeds the hardware
// watchdog for as long as every task is still running.
package supervisor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/binnacle-labs/seabridge/internal/indicator"
	"github.com/binnacle-labs/seabridge/internal/watchdog"
)

// Task is one supervised unit of work: a device pipeline or the clock sink.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// minWatchInterval floors the liveness-poll interval.
const minWatchInterval = 30 * time.Second

// Supervisor runs tasks as daemons and reacts when one stops.
type Supervisor struct {
	log       *logrus.Entry
	tasks     []Task
	wd        *watchdog.Watchdog // nil when disabled or unavailable
	counter   *watchdog.Counter  // nil when the watchdog is disabled
	indicator indicator.Indicator

	// watchInterval overrides the computed interval; tests only.
	watchInterval time.Duration
}

// New builds a Supervisor. wd and counter may be nil to run without a
// hardware watchdog.
func New(log *logrus.Entry, ind indicator.Indicator, wd *watchdog.Watchdog, counter *watchdog.Counter, tasks ...Task) *Supervisor {
	if ind == nil {
		ind = indicator.Noop{}
	}
	return &Supervisor{log: log, tasks: tasks, wd: wd, counter: counter, indicator: ind}
}

type taskState struct {
	task       Task
	terminated bool
	err        error
}

// Run spawns every task and blocks until ctx is cancelled (clean shutdown).
// With a watchdog armed, a terminated task stops the feeding: the reset
// counter is incremented and the watchdog is closed without the magic
// close so it expires and reboots the system, while Run keeps waiting
// for ctx to be cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	interval := s.watchInterval
	if interval == 0 {
		interval = minWatchInterval
		if s.wd != nil {
			interval = s.wd.Timeout() / 4
			if interval < minWatchInterval {
				interval = minWatchInterval
			}
		}
	}

	var mu sync.Mutex
	states := make([]*taskState, len(s.tasks))
	var wg sync.WaitGroup
	for i, t := range s.tasks {
		st := &taskState{task: t}
		states[i] = st
		s.indicator.ShowState(t.Name(), indicator.StateStarting)
		wg.Add(1)
		go func(t Task, st *taskState) {
			defer wg.Done()
			err := t.Run(ctx)
			mu.Lock()
			st.terminated = true
			st.err = err
			mu.Unlock()
		}(t, st)
		s.indicator.ShowState(t.Name(), indicator.StateRunning)
	}
	defer wg.Wait()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	reported := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			s.shutdown()
			return ctx.Err()
		case <-ticker.C:
			anyDown := false
			mu.Lock()
			for _, st := range states {
				if !st.terminated {
					continue
				}
				anyDown = true
				if _, seen := reported[st.task.Name()]; seen {
					continue
				}
				reported[st.task.Name()] = struct{}{}
				entry := s.log.WithField("task", st.task.Name())
				if st.err != nil && !errors.Is(st.err, context.Canceled) {
					entry.WithError(st.err).Error("task terminated with error")
					s.indicator.ShowState(st.task.Name(), indicator.StateError)
				} else {
					entry.Warn("task terminated")
					s.indicator.ShowState(st.task.Name(), indicator.StateShutdown)
				}
			}
			mu.Unlock()

			if s.wd == nil {
				continue
			}
			if anyDown {
				// Stop feeding: the watchdog expires, the system reboots,
				// and the next boot sees the incremented counter.
				if s.counter != nil {
					if err := s.counter.Increment(); err != nil {
						s.log.WithError(err).Error("failed to persist reset counter")
					}
				}
				s.log.Error("task down, withholding watchdog feed until reboot")
				if err := s.wd.Close(false); err != nil {
					s.log.WithError(err).Error("watchdog close failed")
				}
				s.wd = nil
				continue
			}
			if err := s.wd.Feed(); err != nil {
				s.log.WithError(err).Error("watchdog feed failed")
			}
		}
	}
}

// shutdown handles the clean-exit path: counter reset and magic close.
func (s *Supervisor) shutdown() {
	for _, t := range s.tasks {
		s.indicator.ShowState(t.Name(), indicator.StateShutdown)
	}
	if s.counter != nil {
		if err := s.counter.Reset(); err != nil {
			s.log.WithError(err).Error("failed to reset counter on shutdown")
		}
	}
	if s.wd != nil {
		if err := s.wd.Close(true); err != nil {
			s.log.WithError(err).Error("watchdog magic close failed")
		}
		s.wd = nil
	}
}
