// Package device runs the per-device concurrent pipeline: one ingest
// task reading transport bytes through a codec into the shared ship
// state, one emit task reading ship state through a codec back out to
// transport bytes, with own-echo suppression and bounded timed queues
// between each stage.
package device

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/binnacle-labs/seabridge/internal/logging"
	"github.com/binnacle-labs/seabridge/internal/nmea"
	"github.com/binnacle-labs/seabridge/internal/queue"
	"github.com/binnacle-labs/seabridge/internal/seatalk"
	"github.com/binnacle-labs/seabridge/internal/shipstate"
	"github.com/binnacle-labs/seabridge/internal/transport"
)

// Kind selects which codec and ship-state mapping a device's pipeline uses.
type Kind string

const (
	KindNMEA    Kind = "nmea"
	KindSeatalk Kind = "seatalk"
)

// Config is one device's bootstrap configuration, mirroring the config
// document's device-list entry shape.
type Config struct {
	Name       string
	Kind       Kind
	AutoFlush  int           // flush transport after this many ingested messages; 0 disables
	MaxItemAge time.Duration // per-queue item max age; 0 uses DefaultMaxItemAge
}

// DefaultQueueCapacity and DefaultMaxItemAge are the timed-queue
// defaults.
const (
	DefaultQueueCapacity = 30
	DefaultMaxItemAge    = 30 * time.Second
	emitInterval         = 500 * time.Millisecond
)

// Device owns one transport handle, its read/write queues, and its
// own-echo set exclusively; only the ship state is shared.
type Device struct {
	cfg       Config
	port      transport.Port
	store     *shipstate.Store
	log       *logrus.Entry
	rawLog    *logging.RawLog
	readQueue *queue.TimedQueue[decodedMessage]
	writeQ    *queue.TimedQueue[[]byte]

	echoMu  sync.Mutex
	ownEcho map[string]struct{}

	flushCounter int
}

// decodedMessage is the shared envelope carried on the read-queue between
// the transport-facing decode step and the ingest step, so one device can
// speak either codec without the queue itself being generic over either.
type decodedMessage struct {
	nmeaSentence    nmea.Sentence
	seatalkRecord   seatalk.Record
}

// New builds a Device; call Run to start its pipeline. rawLog may be nil
// to skip the append-only raw I/O log.
func New(cfg Config, port transport.Port, store *shipstate.Store, log *logrus.Entry, rawLog *logging.RawLog) *Device {
	maxAge := cfg.MaxItemAge
	if maxAge == 0 {
		maxAge = DefaultMaxItemAge
	}
	return &Device{
		cfg:       cfg,
		port:      port,
		store:     store,
		log:       log,
		rawLog:    rawLog,
		readQueue: queue.New[decodedMessage](DefaultQueueCapacity, maxAge),
		writeQ:    queue.New[[]byte](DefaultQueueCapacity, maxAge),
		ownEcho:   make(map[string]struct{}),
	}
}

// Name identifies the device to the supervisor.
func (d *Device) Name() string { return d.cfg.Name }

// Run initializes the transport and blocks running the ingest and emit
// tasks until ctx is cancelled or one of them fails; the first task
// failure is the one surfaced.
func (d *Device) Run(ctx context.Context) error {
	if err := d.port.Initialize(ctx); err != nil {
		return err
	}
	defer d.port.Close()

	errCh := make(chan error, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		errCh <- d.ingestLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		errCh <- d.emitLoop(ctx)
	}()

	err := <-errCh
	go func() {
		wg.Wait()
		close(errCh)
	}()
	return err
}

func (d *Device) noteOwnEcho(key string) {
	d.echoMu.Lock()
	d.ownEcho[key] = struct{}{}
	d.echoMu.Unlock()
}

func (d *Device) isOwnEcho(key string) bool {
	d.echoMu.Lock()
	_, ok := d.ownEcho[key]
	d.echoMu.Unlock()
	return ok
}

func (d *Device) maybeAutoFlush() {
	if d.cfg.AutoFlush <= 0 {
		return
	}
	d.flushCounter++
	if d.flushCounter >= d.cfg.AutoFlush {
		d.flushCounter = 0
		if err := d.port.Flush(); err != nil {
			d.log.WithError(err).Warn("transport flush failed")
		}
	}
}
