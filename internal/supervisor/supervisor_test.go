package supervisor

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binnacle-labs/seabridge/internal/indicator"
	"github.com/binnacle-labs/seabridge/internal/watchdog"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

type fakeTask struct {
	name string
	run  func(ctx context.Context) error
}

func (f fakeTask) Name() string                  { return f.name }
func (f fakeTask) Run(ctx context.Context) error { return f.run(ctx) }

func blockUntilCancel(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRunStopsOnContextCancel(t *testing.T) {
	s := New(testLogger(), indicator.Noop{}, nil, nil,
		fakeTask{name: "a", run: blockUntilCancel},
		fakeTask{name: "b", run: blockUntilCancel})
	s.watchInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("supervisor did not stop on cancel")
	}
}

// A terminated task is logged once and the supervisor keeps running the
// remaining tasks.
func TestRunSurvivesTaskFailureWithoutWatchdog(t *testing.T) {
	var ran atomic.Bool
	s := New(testLogger(), indicator.Noop{}, nil, nil,
		fakeTask{name: "dies", run: func(context.Context) error {
			ran.Store(true)
			return errors.New("boom")
		}},
		fakeTask{name: "lives", run: blockUntilCancel})
	s.watchInterval = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := s.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, ran.Load())
}

// Clean shutdown resets the persisted counter.
func TestCleanShutdownResetsCounter(t *testing.T) {
	counter := watchdog.NewCounter(t.TempDir() + "/resets")
	require.NoError(t, counter.Store(2))

	s := New(testLogger(), indicator.Noop{}, nil, counter,
		fakeTask{name: "a", run: blockUntilCancel})
	s.watchInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	n, err := counter.Load()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

type recordingIndicator struct {
	states chan string
}

func (r *recordingIndicator) ShowState(name string, state indicator.State) {
	select {
	case r.states <- name + ":" + state.String():
	default:
	}
}

func TestIndicatorSeesLifecycle(t *testing.T) {
	ind := &recordingIndicator{states: make(chan string, 16)}
	s := New(testLogger(), ind, nil, nil, fakeTask{name: "a", run: blockUntilCancel})
	s.watchInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	var seen []string
	for len(ind.states) > 0 {
		seen = append(seen, <-ind.states)
	}
	assert.Contains(t, seen, "a:starting")
	assert.Contains(t, seen, "a:running")
	assert.Contains(t, seen, "a:shutdown")
}
