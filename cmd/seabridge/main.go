// Command seabridge bridges NMEA 0183 and Seatalk marine buses through a
// shared, age-weighted ship state: every configured device's traffic is
// normalized into the store and re-emitted onto every other bus in the
// format that bus expects.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/binnacle-labs/seabridge/internal/clocksync"
	"github.com/binnacle-labs/seabridge/internal/config"
	"github.com/binnacle-labs/seabridge/internal/device"
	"github.com/binnacle-labs/seabridge/internal/indicator"
	"github.com/binnacle-labs/seabridge/internal/logging"
	"github.com/binnacle-labs/seabridge/internal/shipstate"
	"github.com/binnacle-labs/seabridge/internal/supervisor"
	"github.com/binnacle-labs/seabridge/internal/transport"
	"github.com/binnacle-labs/seabridge/internal/watchdog"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration document")
	flag.Parse()

	if err := run(*configPath); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logging.New(cfg.LogLevel)
	mainLog := logging.Component(log, "main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := shipstate.NewStore()
	ind := indicator.Log{Entry: logging.Component(log, "indicator")}

	var tasks []supervisor.Task
	var rawLogs []*logging.RawLog
	defer func() {
		for _, rl := range rawLogs {
			rl.Close()
		}
	}()

	for _, dc := range cfg.Devices {
		port, err := buildPort(dc.IO, logging.Component(log, "transport").WithField("device", dc.Name))
		if err != nil {
			return fmt.Errorf("%w: device %q: %v", config.ErrInvalid, dc.Name, err)
		}
		devLog := logging.Component(log, "device").WithField("device", dc.Name)

		if dc.Kind == "SetTime" {
			tasks = append(tasks, clocksync.New(dc.Name, port, devLog))
			continue
		}

		var rawLog *logging.RawLog
		if cfg.RawLogDir != "" {
			rawLog, err = logging.OpenRawLog(cfg.RawLogDir, dc.Name)
			if err != nil {
				return fmt.Errorf("%w: device %q: %v", config.ErrInvalid, dc.Name, err)
			}
			rawLogs = append(rawLogs, rawLog)
		}

		kind := device.KindNMEA
		if dc.Kind == "Seatalk" {
			kind = device.KindSeatalk
		}
		tasks = append(tasks, device.New(device.Config{
			Name:       dc.Name,
			Kind:       kind,
			AutoFlush:  dc.AutoFlush,
			MaxItemAge: dc.MaxItemAgeDuration(),
		}, port, store, devLog, rawLog))
	}

	wd, counter := setupWatchdog(cfg.Watchdog, logging.Component(log, "watchdog"))

	sup := supervisor.New(logging.Component(log, "supervisor"), ind, wd, counter, tasks...)
	mainLog.WithField("devices", len(tasks)).Info("starting")
	err = sup.Run(ctx)
	mainLog.Info("shut down")
	return err
}

// setupWatchdog arms the hardware watchdog when enabled and the
// persisted reset counter is still under the ceiling. Arming failure is
// not fatal: the system continues without a watchdog.
func setupWatchdog(cfg config.Watchdog, log *logrus.Entry) (*watchdog.Watchdog, *watchdog.Counter) {
	if !cfg.Enable {
		return nil, nil
	}
	counterFile := cfg.CounterFile
	if counterFile == "" {
		counterFile = "watchdog_resets"
	}
	counter := watchdog.NewCounter(counterFile)
	resets, err := counter.Load()
	if err != nil {
		log.WithError(err).Error("cannot read reset counter, not arming watchdog")
		return nil, counter
	}
	if resets >= cfg.MaxResets {
		log.WithField("resets", resets).Error("reset ceiling reached, not arming watchdog")
		return nil, counter
	}
	wd, err := watchdog.Open(cfg.DevicePath, time.Duration(cfg.Timeout)*time.Second, log)
	if err != nil {
		log.WithError(err).Error("watchdog unavailable, continuing without")
		return nil, counter
	}
	return wd, counter
}

func buildPort(ioCfg config.IO, log *logrus.Entry) (transport.Port, error) {
	var port transport.Port
	switch ioCfg.Transport {
	case "serial":
		port = transport.NewSerialPort(transport.SerialConfig{Name: ioCfg.Path, Baud: ioCfg.Baud})
	case "serial-seatalk":
		port = transport.NewSeatalkSerialPort(transport.SeatalkSerialConfig{Name: ioCfg.Path, Baud: uint32(ioCfg.Baud)})
	case "tcp-server":
		port = transport.NewTCPServer(ioCfg.Address, log)
	case "tcp-client":
		port = transport.NewTCPClient(ioCfg.Address)
	case "file":
		port = transport.NewFilePort(ioCfg.Path, ioCfg.Writable)
	case "stdio":
		port = transport.NewStdIOPort()
	default:
		return nil, fmt.Errorf("unknown transport %q", ioCfg.Transport)
	}
	if ioCfg.Encoding != "" {
		port = transport.NewEncodingPort(port, ioCfg.Encoding)
	}
	return port, nil
}
