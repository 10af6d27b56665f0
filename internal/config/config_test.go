package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
LogLevel: debug
RawLogDir: /var/log/seabridge
Watchdog:
  Enable: true
  Timeout: 120
  MaxResets: 3
Devices:
  - Name: gps
    Kind: NMEA
    IO:
      Transport: serial
      Path: /dev/ttyUSB0
      Baud: 4800
    AutoFlush: 10
  - Name: instruments
    Kind: Seatalk
    IO:
      Transport: serial-seatalk
      Path: /dev/ttyUSB1
    MaxItemAge: 15
  - Name: plotter
    Kind: NMEA
    IO:
      Transport: tcp-server
      Address: 0.0.0.0:10110
  - Name: clock
    Kind: SetTime
    IO:
      Transport: tcp-client
      Address: 192.168.1.10:10110
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Watchdog.Enable)
	assert.Equal(t, 120, cfg.Watchdog.Timeout)
	assert.Equal(t, 3, cfg.Watchdog.MaxResets)
	require.Len(t, cfg.Devices, 4)
	assert.Equal(t, "gps", cfg.Devices[0].Name)
	assert.Equal(t, 10, cfg.Devices[0].AutoFlush)
	assert.Equal(t, 15*time.Second, cfg.Devices[1].MaxItemAgeDuration())
	assert.Equal(t, "tcp-server", cfg.Devices[2].IO.Transport)
	assert.Equal(t, "SetTime", cfg.Devices[3].Kind)
}

func TestLoadValidation(t *testing.T) {
	var testCases = []struct {
		name        string
		when        string
		expectError string
	}{
		{
			name:        "no devices",
			when:        "LogLevel: info\n",
			expectError: "no devices",
		},
		{
			name: "unknown kind",
			when: `
Devices:
  - Name: gps
    Kind: NMEA2000
    IO: {Transport: serial, Path: /dev/ttyUSB0}
`,
			expectError: "unknown kind",
		},
		{
			name: "unknown transport",
			when: `
Devices:
  - Name: gps
    Kind: NMEA
    IO: {Transport: carrier-pigeon}
`,
			expectError: "unknown transport",
		},
		{
			name: "duplicate names",
			when: `
Devices:
  - Name: gps
    Kind: NMEA
    IO: {Transport: stdio}
  - Name: gps
    Kind: Seatalk
    IO: {Transport: stdio}
`,
			expectError: "duplicate device name",
		},
		{
			name: "serial without path",
			when: `
Devices:
  - Name: gps
    Kind: NMEA
    IO: {Transport: serial}
`,
			expectError: "needs a Path",
		},
		{
			name: "tcp without address",
			when: `
Devices:
  - Name: gps
    Kind: NMEA
    IO: {Transport: tcp-client}
`,
			expectError: "needs an Address",
		},
		{
			name: "watchdog without timeout",
			when: `
Watchdog: {Enable: true, MaxResets: 3}
Devices:
  - Name: gps
    Kind: NMEA
    IO: {Transport: stdio}
`,
			expectError: "no timeout",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.when))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.ErrorContains(t, err, tc.expectError)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrInvalid)
}
