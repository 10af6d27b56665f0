package device

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binnacle-labs/seabridge/internal/nmea"
	"github.com/binnacle-labs/seabridge/internal/seatalk"
	"github.com/binnacle-labs/seabridge/internal/shipstate"
	test_test "github.com/binnacle-labs/seabridge/test"
)

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func newTestDevice(kind Kind, port *test_test.MockPort, store *shipstate.Store) *Device {
	return New(Config{Name: "test", Kind: kind}, port, store, testLogger(), nil)
}

// A bridged water-temperature reading: NMEA in, Seatalk out, exact wire
// bytes asserted on both sides.
func TestBridgeWaterTemperatureNMEAToSeatalk(t *testing.T) {
	store := shipstate.NewStore()
	port := &test_test.MockPort{Reads: []test_test.ReadResult{
		{Read: []byte("$INMTW,17.9,C*1B\r\n")},
	}}
	d := newTestDevice(KindNMEA, port, store)

	err := d.ingestNMEA(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	temp, ok := store.WaterTemperatureC()
	require.True(t, ok)
	assert.Equal(t, 17.9, temp)

	var frames [][]byte
	for _, r := range buildSeatalkRecords(store) {
		frame, err := seatalk.EmitRecord(r)
		require.NoError(t, err)
		buf := new(bytes.Buffer)
		require.NoError(t, seatalk.WriteFrame(buf, frame))
		frames = append(frames, buf.Bytes())
	}
	assert.Contains(t, frames, []byte{0x27, 0x01, 0x17, 0x01})
}

// A bridged depth reading: Seatalk in, NMEA DBT out with the converted
// meters value.
func TestBridgeDepthSeatalkToNMEA(t *testing.T) {
	store := shipstate.NewStore()
	port := &test_test.MockPort{Reads: []test_test.ReadResult{
		{Read: []byte{0x00, 0x02, 0x00, 0xDB, 0x02}},
	}}
	d := newTestDevice(KindSeatalk, port, store)

	err := d.ingestSeatalk(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	depth, ok := store.DepthM()
	require.True(t, ok)
	assert.InDelta(t, 22.28, depth, 0.01)

	var dbtLine string
	for _, s := range buildNMEASentences(store) {
		if s.Tag() == "DBT" {
			line, err := nmea.Emit(s)
			require.NoError(t, err)
			dbtLine = line
		}
	}
	require.NotEmpty(t, dbtLine)
	assert.Contains(t, dbtLine, ",22.28,M,")
	assert.NoError(t, nmea.VerifyChecksum(dbtLine))
}

// A valid RMC populates date, time, position, SOG and COG, which the
// Seatalk side re-encodes as 0x50, 0x51, 0x58, 0x54 and 0x56 records.
func TestBridgeRMCToSeatalk(t *testing.T) {
	store := shipstate.NewStore()
	port := &test_test.MockPort{Reads: []test_test.ReadResult{
		{Read: []byte("$GPRMC,144858.193500,A,5235.3151,N,00207.6577,W,0.0,144.8,160610,3.6,W,A*32\r\n")},
	}}
	d := newTestDevice(KindNMEA, port, store)

	err := d.ingestNMEA(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	records := buildSeatalkRecords(store)
	byCommand := map[byte]seatalk.Record{}
	for _, r := range records {
		byCommand[r.Command()] = r
	}

	require.Contains(t, byCommand, byte(0x50))
	lat := byCommand[0x50].(seatalk.Latitude).Value
	assert.Equal(t, uint16(52), lat.Degrees)
	assert.InDelta(t, 35.3151, lat.Minutes, 1e-9)
	assert.Equal(t, shipstate.North, lat.Orientation)

	require.Contains(t, byCommand, byte(0x51))
	lon := byCommand[0x51].(seatalk.Longitude).Value
	assert.Equal(t, uint16(2), lon.Degrees)
	assert.InDelta(t, 7.6577, lon.Minutes, 1e-9)
	assert.Equal(t, shipstate.West, lon.Orientation)

	require.Contains(t, byCommand, byte(0x58))

	require.Contains(t, byCommand, byte(0x54))
	gmt := byCommand[0x54].(seatalk.GMTTime)
	assert.Equal(t, 14, gmt.Hour)
	assert.Equal(t, 48, gmt.Minute)
	assert.Equal(t, 58, gmt.Second)

	require.Contains(t, byCommand, byte(0x56))
	date := byCommand[0x56].(seatalk.Date)
	assert.Equal(t, 2010, date.Year)
	assert.Equal(t, 6, date.Month)
	assert.Equal(t, 16, date.Day)

	sog, ok := store.SpeedOverGround()
	require.True(t, ok)
	assert.Equal(t, 0.0, sog)
}

// Apparent wind angle from Seatalk surfaces as an MWV relative sentence.
func TestBridgeApparentWindSeatalkToNMEA(t *testing.T) {
	store := shipstate.NewStore()
	port := &test_test.MockPort{Reads: []test_test.ReadResult{
		{Read: []byte{0x10, 0x01, 0x01, 0x02}},
		{Read: []byte{0x11, 0x01, 0x0A, 0x03}},
	}}
	d := newTestDevice(KindSeatalk, port, store)

	err := d.ingestSeatalk(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	angle, ok := store.ApparentWindAngle()
	require.True(t, ok)
	assert.Equal(t, 256.5, angle)

	var mwvLine string
	for _, s := range buildNMEASentences(store) {
		if mwv, ok := s.(nmea.MWV); ok && !mwv.ReferenceTrue {
			line, err := nmea.Emit(s)
			require.NoError(t, err)
			mwvLine = line
		}
	}
	require.NotEmpty(t, mwvLine)
	assert.Contains(t, mwvLine, "256.50,R")
}

func sentenceTags(sentences []nmea.Sentence) []string {
	var tags []string
	for _, s := range sentences {
		tags = append(tags, s.Tag())
	}
	return tags
}

// An RMC needs date, position and SOG all present. A Seatalk feed that
// carries GMT time (0x54) but never a Date (0x56) must not produce one.
func TestRMCNotEmittedWithoutDate(t *testing.T) {
	store := shipstate.NewStore()
	applySeatalkRecord(store, seatalk.GMTTime{Hour: 14, Minute: 48, Second: 58})
	applySeatalkRecord(store, seatalk.Latitude{Value: shipstate.PartPosition{Degrees: 52, Minutes: 35.3151, Orientation: shipstate.North}})
	applySeatalkRecord(store, seatalk.Longitude{Value: shipstate.PartPosition{Degrees: 2, Minutes: 7.6577, Orientation: shipstate.West}})
	applySeatalkRecord(store, seatalk.SpeedOverGround{SpeedKnots: 5.5})

	assert.NotContains(t, sentenceTags(buildNMEASentences(store)), "RMC")

	applySeatalkRecord(store, seatalk.Date{Year: 2010, Month: 6, Day: 16})

	var rmc nmea.RMC
	found := false
	for _, s := range buildNMEASentences(store) {
		if v, ok := s.(nmea.RMC); ok {
			rmc, found = v, true
		}
	}
	require.True(t, found)
	assert.Equal(t, time.Date(2010, time.June, 16, 14, 48, 58, 0, time.UTC), rmc.UTC)
}

// VTG needs COG-true, COG-magnetic and SOG all present; a partial set
// must not produce a sentence with blank fields.
func TestVTGNeedsAllThreeFields(t *testing.T) {
	store := shipstate.NewStore()
	store.SetSpeedOverGround(5.5)
	assert.NotContains(t, sentenceTags(buildNMEASentences(store)), "VTG")

	store.SetCOGTrue(144.8)
	assert.NotContains(t, sentenceTags(buildNMEASentences(store)), "VTG")

	store.SetCOGMagnetic(141.2)
	assert.Contains(t, sentenceTags(buildNMEASentences(store)), "VTG")
}

// VHW needs STW, heading-true and heading-magnetic all present.
func TestVHWNeedsAllThreeFields(t *testing.T) {
	store := shipstate.NewStore()
	store.SetSpeedThroughWater(10)
	assert.NotContains(t, sentenceTags(buildNMEASentences(store)), "VHW")

	store.SetHeadingTrue(245)
	assert.NotContains(t, sentenceTags(buildNMEASentences(store)), "VHW")

	store.SetHeadingMagnetic(241.4)
	assert.Contains(t, sentenceTags(buildNMEASentences(store)), "VHW")
}

// A corrupted line must not touch ship state; the transport is flushed and
// the stream continues with the next line.
func TestCorruptChecksumDiscardsLineAndContinues(t *testing.T) {
	store := shipstate.NewStore()
	port := &test_test.MockPort{Reads: []test_test.ReadResult{
		{Read: []byte("$IIVHW,245.00,T,245.00,M,10.00,N,18.52,K*00\r\n")},
		{Read: []byte("$INMTW,17.9,C*1B\r\n")},
	}}
	d := newTestDevice(KindNMEA, port, store)

	err := d.ingestNMEA(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	_, ok := store.SpeedThroughWater()
	assert.False(t, ok, "corrupt VHW must not reach ship state")
	assert.GreaterOrEqual(t, port.FlushCount, 1, "transport is flushed after a bad frame")

	temp, ok := store.WaterTemperatureC()
	require.True(t, ok)
	assert.Equal(t, 17.9, temp, "stream continues with the next line")
}

// A device that sent an RMC must not hear an RMC back (spec own-echo rule);
// a second device with no echo history still receives it.
func TestOwnEchoSuppression(t *testing.T) {
	store := shipstate.NewStore()
	sender := newTestDevice(KindNMEA, &test_test.MockPort{Reads: []test_test.ReadResult{
		{Read: []byte("$GPRMC,144858.193500,A,5235.3151,N,00207.6577,W,0.0,144.8,160610,3.6,W,A*32\r\n")},
	}}, store)

	err := sender.ingestNMEA(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	senderPort := sender.port.(*test_test.MockPort)
	sender.emitNMEA()
	sender.drainWriteQueue()
	assert.NotContains(t, string(senderPort.WrittenBytes()), "RMC", "device must not hear its own RMC back")

	listenerPort := &test_test.MockPort{}
	listener := newTestDevice(KindNMEA, listenerPort, store)
	listener.emitNMEA()
	listener.drainWriteQueue()
	assert.Contains(t, string(listenerPort.WrittenBytes()), "RMC", "other devices do receive the bridged RMC")
}

func TestSeatalkOwnEchoSuppression(t *testing.T) {
	store := shipstate.NewStore()
	sender := newTestDevice(KindSeatalk, &test_test.MockPort{Reads: []test_test.ReadResult{
		{Read: []byte{0x27, 0x01, 0x17, 0x01}},
	}}, store)

	err := sender.ingestSeatalk(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	senderPort := sender.port.(*test_test.MockPort)
	sender.emitSeatalk()
	sender.drainWriteQueue()
	for _, frame := range senderPort.Written {
		assert.NotEqual(t, byte(0x27), frame[0], "device must not hear its own water temp back")
	}
	// the other generation's encoding of the same quantity still goes out
	assert.True(t, len(senderPort.Written) > 0)
}

func TestAutoFlushAfterNMessages(t *testing.T) {
	store := shipstate.NewStore()
	port := &test_test.MockPort{Reads: []test_test.ReadResult{
		{Read: []byte("$INMTW,17.9,C*1B\r\n")},
		{Read: []byte("$INMTW,18.0,C*1D\r\n")},
		{Read: []byte("$INMTW,18.1,C*1C\r\n")},
	}}
	d := New(Config{Name: "test", Kind: KindNMEA, AutoFlush: 2}, port, store, testLogger(), nil)

	err := d.ingestNMEA(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, port.FlushCount)
}

// Replaying a recorded feed covering every sentence class: typed tags land
// in ship state, the proprietary sentence lands in the unknown spillover.
func TestIngestRecordedFeed(t *testing.T) {
	store := shipstate.NewStore()
	port := &test_test.MockPort{Reads: []test_test.ReadResult{
		{Read: test_test.LoadBytes(t, "nmea_feed.txt")},
	}}
	d := newTestDevice(KindNMEA, port, store)

	err := d.ingestNMEA(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	_, ok := store.Position()
	assert.True(t, ok)
	temp, _ := store.WaterTemperatureC()
	assert.Equal(t, 17.9, temp)
	depth, _ := store.DepthM()
	assert.InDelta(t, 22.28, depth, 0.01)
	stw, _ := store.SpeedThroughWater()
	assert.Equal(t, 10.0, stw)
	speed, _ := store.ApparentWindSpeed()
	assert.Equal(t, 10.0, speed)

	unknown := store.UnknownNMEA()
	require.Len(t, unknown, 1)
	assert.Contains(t, string(unknown[0].Raw), "PSRF103")
}

func TestRunClosesTransportWhenIngestEnds(t *testing.T) {
	store := shipstate.NewStore()
	port := &test_test.MockPort{}
	d := newTestDevice(KindNMEA, port, store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(2 * time.Second):
		t.Fatal("device did not surface the ingest failure")
	}
	assert.GreaterOrEqual(t, port.CloseCount, 1)
}
