package nmea

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binnacle-labs/seabridge/internal/shipstate"
)

func TestParseLineRMC(t *testing.T) {
	line := "$GPRMC,144858.193500,A,5235.3151,N,00207.6577,W,0.0,144.8,160610,3.6,W,A*32\r\n"
	require.NoError(t, VerifyChecksum(line))

	sentence, err := ParseLine(line)
	require.NoError(t, err)

	rmc, ok := sentence.(RMC)
	require.True(t, ok)
	assert.Equal(t, "GP", rmc.TalkerID)
	assert.True(t, rmc.Valid)
	assert.Equal(t, uint16(52), rmc.Position.Latitude.Degrees)
	assert.InDelta(t, 35.3151, rmc.Position.Latitude.Minutes, 1e-9)
	assert.Equal(t, shipstate.North, rmc.Position.Latitude.Orientation)
	assert.Equal(t, uint16(2), rmc.Position.Longitude.Degrees)
	assert.InDelta(t, 7.6577, rmc.Position.Longitude.Minutes, 1e-9)
	assert.Equal(t, shipstate.West, rmc.Position.Longitude.Orientation)
	assert.Equal(t, 0.0, rmc.SpeedOverGroundKn)
	assert.Equal(t, 144.8, rmc.TrackMadeGood)
	assert.Equal(t, time.Date(2010, time.June, 16, 14, 48, 58, 193500000, time.UTC), rmc.UTC)
	assert.Equal(t, 3.6, rmc.MagneticVariation)
	assert.Equal(t, byte('W'), rmc.VariationSense)
	assert.Equal(t, byte('A'), rmc.FAAMode)
}

func TestParseLineTimeWithAndWithoutFraction(t *testing.T) {
	// spec behavior: hhmmss and hhmmss.0 parse identically
	withFraction, err := ParseLine("$GPRMC,144858.0,A,5235.3151,N,00207.6577,W,0.0,144.8,160610,,,A*70\r\n")
	require.NoError(t, err)
	without, err := ParseLine("$GPRMC,144858,A,5235.3151,N,00207.6577,W,0.0,144.8,160610,,,A*6E\r\n")
	require.NoError(t, err)

	assert.Equal(t, withFraction.(RMC).UTC, without.(RMC).UTC)
}

func TestParseLineUnknownAndBroken(t *testing.T) {
	var testCases = []struct {
		name string
		when string
	}{
		{name: "unknown tag passes through", when: "$GPXYZ,1,2,3*50\r\n"},
		{name: "field parse failure passes through", when: "$GPRMC,notatime,A,5235.3151,N,00207.6577,W,0.0,144.8,160610,,,A*6B\r\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sentence, err := ParseLine(tc.when)
			require.NoError(t, err)

			unknown, ok := sentence.(Unknown)
			require.True(t, ok)
			assert.Equal(t, tc.when, unknown.RawLine)
		})
	}
}

func TestDBTUnitNormalization(t *testing.T) {
	var testCases = []struct {
		name        string
		when        string
		expectDepth float64
	}{
		{
			name:        "meters preferred when present",
			when:        "$IIDBT,73.10,f,22.28,M,12.18,F*14\r\n",
			expectDepth: 22.28,
		},
		{
			name:        "feet only converts x0.3048",
			when:        "$IIDBT,73.10,f,,,,*1F\r\n",
			expectDepth: 73.10 * 0.3048,
		},
		{
			name:        "fathoms only converts x1.8288",
			when:        "$IIDBT,,,,,12.18,F*30\r\n",
			expectDepth: 12.18 * 1.8288,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, VerifyChecksum(tc.when))
			sentence, err := ParseLine(tc.when)
			require.NoError(t, err)

			dbt, ok := sentence.(DBT)
			require.True(t, ok)
			// feet-only and meters-only forms agree to +-1cm
			assert.InDelta(t, tc.expectDepth, dbt.DepthM, 0.01)
		})
	}
}

func TestMWVSpeedUnitNormalization(t *testing.T) {
	var testCases = []struct {
		name        string
		when        string
		expectKnots float64
	}{
		{name: "knots passes through", when: "$WIMWV,045.00,R,10.00,N,A*13\r\n", expectKnots: 10.0},
		{name: "K normalizes to knots", when: "$WIMWV,045.00,R,10.00,K,A*16\r\n", expectKnots: 10.0 * 3600 / 1852},
		{name: "M normalizes to knots", when: "$WIMWV,045.00,R,10.00,M,A*10\r\n", expectKnots: 10.0 * 3600 / 1852},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, VerifyChecksum(tc.when))
			sentence, err := ParseLine(tc.when)
			require.NoError(t, err)

			mwv, ok := sentence.(MWV)
			require.True(t, ok)
			assert.InDelta(t, tc.expectKnots, mwv.SpeedKnots, 1e-9)
			assert.False(t, mwv.ReferenceTrue)
			assert.True(t, mwv.Valid)
		})
	}
}

// Emitted lines must verify and decode back to the same semantic fields at
// two-decimal precision.
func TestSentenceRoundTrips(t *testing.T) {
	pos := shipstate.Position{
		Latitude:  shipstate.PartPosition{Degrees: 52, Minutes: 35.3151, Orientation: shipstate.North},
		Longitude: shipstate.PartPosition{Degrees: 2, Minutes: 7.6577, Orientation: shipstate.West},
	}
	utc := time.Date(2010, time.June, 16, 14, 48, 58, 0, time.UTC)

	var testCases = []struct {
		name string
		when Sentence
	}{
		{name: "RMC", when: RMC{TalkerID: "II", UTC: utc, Valid: true, Position: pos, SpeedOverGroundKn: 5.5, TrackMadeGood: 144.8, MagneticVariation: 3.6, VariationSense: 'W', FAAMode: 'A'}},
		{name: "VTG", when: VTG{TalkerID: "II", COGTrue: 144.8, COGMagnetic: 141.2, SpeedOverGroundKn: 5.5, Mode: 'A'}},
		{name: "DBT", when: DBT{TalkerID: "II", DepthM: 22.28}},
		{name: "VHW", when: VHW{TalkerID: "II", HeadingTrue: 245, HeadingMagnetic: 241.4, SpeedThroughWaterK: 10}},
		{name: "MTW", when: MTW{TalkerID: "II", TemperatureC: 17.9}},
		{name: "MWV apparent", when: MWV{TalkerID: "WI", AngleDegrees: 256.5, ReferenceTrue: false, SpeedKnots: 10, Valid: true}},
		{name: "MWV true", when: MWV{TalkerID: "WI", AngleDegrees: 45, ReferenceTrue: true, SpeedKnots: 12.25, Valid: true}},
		{name: "GLL", when: GLL{TalkerID: "II", Position: pos, UTCTime: time.Date(2000, 1, 1, 14, 48, 58, 0, time.UTC), Valid: true}},
		{name: "HDT", when: HDT{TalkerID: "II", HeadingTrue: 245}},
		{name: "HDM", when: HDM{TalkerID: "II", HeadingMagnetic: 241.4}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			line, err := Emit(tc.when)
			require.NoError(t, err)
			require.NoError(t, VerifyChecksum(line))

			parsed, err := ParseLine(line)
			require.NoError(t, err)
			assert.Equal(t, tc.when, parsed)
		})
	}
}

func TestEmitMTWExactWire(t *testing.T) {
	line, err := Emit(MTW{TalkerID: "IN", TemperatureC: 17.9})
	require.NoError(t, err)
	assert.Equal(t, "$INMTW,17.90,C*2B\r\n", line)
}

func TestEmitDBTExactWire(t *testing.T) {
	line, err := Emit(DBT{TalkerID: "II", DepthM: 22.28088})
	require.NoError(t, err)
	assert.Contains(t, line, ",22.28,M,")
	require.NoError(t, VerifyChecksum(line))
}
