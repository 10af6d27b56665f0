package shipstate

import (
	"sync"
	"time"
)

// DefaultMaxAge is the default staleness ceiling for every stored
// quantity.
const DefaultMaxAge = 60 * time.Second

// UnknownSpilloverCap bounds each of the two unknown-datagram overflow
// lists.
const UnknownSpilloverCap = 100

// aged wraps a value with the wall-clock time it was last written.
type aged[T any] struct {
	value T
	at    time.Time
	set   bool
}

func (a aged[T]) get(now time.Time, maxAge time.Duration) (T, bool) {
	var zero T
	if !a.set || now.Sub(a.at) > maxAge {
		return zero, false
	}
	return a.value, true
}

// Waypoint is a named target position; Position is optional (a waypoint may
// be named before its coordinates are known).
type Waypoint struct {
	Name     string
	Position *Position
}

// AutopilotStatus is read-only autopilot telemetry. No ingest mapping
// writes it and no emitter reads it; this bridge does not emulate an
// autopilot.
type AutopilotStatus struct {
	CompassHeadingDegrees float64
	TurnDirection         string
	InAutoMode            bool
}

// SatelliteInfo supplements GSA's DOP/sat-ID fields with the satellite
// count from Seatalk's 0x57 report; no ingest mapping fills SignalStrength.
type SatelliteInfo struct {
	SatelliteCount int
	SignalStrength int
}

// DisplayUnits records the Seatalk 0x24 mileage/speed unit preference.
// Stored only; not consulted or re-emitted by any emitter.
type DisplayUnits struct {
	MileageNauticalNotStatute bool
	SpeedKnotsNotMph          bool
}

// UnknownDatagram is an opaque, unparsed message kept in one of the
// store's bounded spillover lists. The emit loops do not read these
// lists, so unknown datagrams are not forwarded to any bus.
type UnknownDatagram struct {
	Protocol string // "nmea" or "seatalk"
	Raw      []byte
	At       time.Time
}

// Store is the process-wide, age-weighted key-value ship state. All
// writes and reads are atomic per call under a single mutex; a reader
// never observes a torn half-updated value.
type Store struct {
	mu     sync.RWMutex
	maxAge time.Duration
	now    func() time.Time

	utcDate aged[time.Time]
	utcTime aged[time.Time]

	latitude  aged[PartPosition]
	longitude aged[PartPosition]
	waypoints []Waypoint

	cogTrue     aged[float64]
	cogMagnetic aged[float64]
	hdgTrue     aged[float64]
	hdgMagnetic aged[float64]

	sog aged[float64]
	stw aged[float64]

	trueWindSpeed aged[float64]
	trueWindAngle aged[float64]
	appWindSpeed  aged[float64]
	appWindAngle  aged[float64]

	tripMileage  aged[float64]
	totalMileage aged[float64]

	depthM  aged[float64]
	waterTC aged[float64]

	lampIntensity aged[int]

	rudderAngle     aged[float64]
	autopilotStatus aged[AutopilotStatus]
	satelliteInfo   aged[SatelliteInfo]
	displayUnits    aged[DisplayUnits]
	fixQuality      aged[int]
	manOverboard    aged[bool]

	unknownNMEA    []UnknownDatagram
	unknownSeatalk []UnknownDatagram
}

// NewStore builds a Store with the default max age and real wall clock.
func NewStore() *Store {
	return &Store{maxAge: DefaultMaxAge, now: time.Now}
}

// NewStoreWithClock is used by tests to inject a deterministic clock.
func NewStoreWithClock(maxAge time.Duration, now func() time.Time) *Store {
	return &Store{maxAge: maxAge, now: now}
}

func setAged[T any](mu *sync.RWMutex, now func() time.Time, field *aged[T], value T) {
	mu.Lock()
	defer mu.Unlock()
	*field = aged[T]{value: value, at: now(), set: true}
}

func getAged[T any](mu *sync.RWMutex, now func() time.Time, maxAge time.Duration, field *aged[T]) (T, bool) {
	mu.RLock()
	defer mu.RUnlock()
	return field.get(now(), maxAge)
}

func (s *Store) SetUTCDate(v time.Time)     { setAged(&s.mu, s.now, &s.utcDate, v) }
func (s *Store) UTCDate() (time.Time, bool) { return getAged(&s.mu, s.now, s.maxAge, &s.utcDate) }

func (s *Store) SetUTCTime(v time.Time)     { setAged(&s.mu, s.now, &s.utcTime, v) }
func (s *Store) UTCTime() (time.Time, bool) { return getAged(&s.mu, s.now, s.maxAge, &s.utcTime) }

func (s *Store) SetLatitude(v PartPosition)     { setAged(&s.mu, s.now, &s.latitude, v) }
func (s *Store) Latitude() (PartPosition, bool) { return getAged(&s.mu, s.now, s.maxAge, &s.latitude) }

func (s *Store) SetLongitude(v PartPosition) { setAged(&s.mu, s.now, &s.longitude, v) }
func (s *Store) Longitude() (PartPosition, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.longitude)
}

// Position bundles latitude and longitude iff both are still fresh.
func (s *Store) Position() (Position, bool) {
	lat, ok := s.Latitude()
	if !ok {
		return Position{}, false
	}
	lon, ok := s.Longitude()
	if !ok {
		return Position{}, false
	}
	return Position{Latitude: lat, Longitude: lon}, true
}

func (s *Store) AddWaypoint(w Waypoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waypoints = append(s.waypoints, w)
}

func (s *Store) Waypoints() []Waypoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Waypoint, len(s.waypoints))
	copy(out, s.waypoints)
	return out
}

func (s *Store) SetCOGTrue(v float64) { setAged(&s.mu, s.now, &s.cogTrue, v) }
func (s *Store) COGTrue() (float64, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.cogTrue)
}

func (s *Store) SetCOGMagnetic(v float64) { setAged(&s.mu, s.now, &s.cogMagnetic, v) }
func (s *Store) COGMagnetic() (float64, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.cogMagnetic)
}

func (s *Store) SetHeadingTrue(v float64) { setAged(&s.mu, s.now, &s.hdgTrue, v) }
func (s *Store) HeadingTrue() (float64, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.hdgTrue)
}

func (s *Store) SetHeadingMagnetic(v float64) { setAged(&s.mu, s.now, &s.hdgMagnetic, v) }
func (s *Store) HeadingMagnetic() (float64, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.hdgMagnetic)
}

func (s *Store) SetSpeedOverGround(v float64) { setAged(&s.mu, s.now, &s.sog, v) }
func (s *Store) SpeedOverGround() (float64, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.sog)
}

func (s *Store) SetSpeedThroughWater(v float64) { setAged(&s.mu, s.now, &s.stw, v) }
func (s *Store) SpeedThroughWater() (float64, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.stw)
}

func (s *Store) SetTrueWindSpeed(v float64) { setAged(&s.mu, s.now, &s.trueWindSpeed, v) }
func (s *Store) TrueWindSpeed() (float64, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.trueWindSpeed)
}

func (s *Store) SetTrueWindAngle(v float64) { setAged(&s.mu, s.now, &s.trueWindAngle, v) }
func (s *Store) TrueWindAngle() (float64, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.trueWindAngle)
}

func (s *Store) SetApparentWindSpeed(v float64) { setAged(&s.mu, s.now, &s.appWindSpeed, v) }
func (s *Store) ApparentWindSpeed() (float64, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.appWindSpeed)
}

func (s *Store) SetApparentWindAngle(v float64) { setAged(&s.mu, s.now, &s.appWindAngle, v) }
func (s *Store) ApparentWindAngle() (float64, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.appWindAngle)
}

func (s *Store) SetTripMileage(v float64) { setAged(&s.mu, s.now, &s.tripMileage, v) }
func (s *Store) TripMileage() (float64, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.tripMileage)
}

func (s *Store) SetTotalMileage(v float64) { setAged(&s.mu, s.now, &s.totalMileage, v) }
func (s *Store) TotalMileage() (float64, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.totalMileage)
}

func (s *Store) SetDepthM(v float64) { setAged(&s.mu, s.now, &s.depthM, v) }
func (s *Store) DepthM() (float64, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.depthM)
}

func (s *Store) SetWaterTemperatureC(v float64) { setAged(&s.mu, s.now, &s.waterTC, v) }
func (s *Store) WaterTemperatureC() (float64, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.waterTC)
}

func (s *Store) SetLampIntensity(v int) { setAged(&s.mu, s.now, &s.lampIntensity, v) }
func (s *Store) LampIntensity() (int, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.lampIntensity)
}

func (s *Store) SetRudderAngle(v float64) { setAged(&s.mu, s.now, &s.rudderAngle, v) }
func (s *Store) RudderAngle() (float64, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.rudderAngle)
}

func (s *Store) SetAutopilotStatus(v AutopilotStatus) {
	setAged(&s.mu, s.now, &s.autopilotStatus, v)
}
func (s *Store) AutopilotStatus() (AutopilotStatus, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.autopilotStatus)
}

func (s *Store) SetSatelliteInfo(v SatelliteInfo) { setAged(&s.mu, s.now, &s.satelliteInfo, v) }
func (s *Store) SatelliteInfoSnapshot() (SatelliteInfo, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.satelliteInfo)
}

func (s *Store) SetDisplayUnits(v DisplayUnits) { setAged(&s.mu, s.now, &s.displayUnits, v) }
func (s *Store) DisplayUnitsSnapshot() (DisplayUnits, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.displayUnits)
}

func (s *Store) SetFixQuality(v int) { setAged(&s.mu, s.now, &s.fixQuality, v) }
func (s *Store) FixQuality() (int, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.fixQuality)
}

func (s *Store) SetManOverboard(v bool) { setAged(&s.mu, s.now, &s.manOverboard, v) }
func (s *Store) ManOverboard() (bool, bool) {
	return getAged(&s.mu, s.now, s.maxAge, &s.manOverboard)
}

// AppendUnknownNMEA appends to the bounded unknown-NMEA spillover list,
// dropping the oldest entry once UnknownSpilloverCap is reached.
func (s *Store) AppendUnknownNMEA(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unknownNMEA = appendCapped(s.unknownNMEA, UnknownDatagram{Protocol: "nmea", Raw: raw, At: s.now()})
}

// AppendUnknownSeatalk appends to the bounded unknown-Seatalk spillover list.
func (s *Store) AppendUnknownSeatalk(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.unknownSeatalk = appendCapped(s.unknownSeatalk, UnknownDatagram{Protocol: "seatalk", Raw: raw, At: s.now()})
}

func appendCapped(list []UnknownDatagram, item UnknownDatagram) []UnknownDatagram {
	list = append(list, item)
	if len(list) > UnknownSpilloverCap {
		list = list[len(list)-UnknownSpilloverCap:]
	}
	return list
}

func (s *Store) UnknownNMEA() []UnknownDatagram {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]UnknownDatagram, len(s.unknownNMEA))
	copy(out, s.unknownNMEA)
	return out
}

func (s *Store) UnknownSeatalk() []UnknownDatagram {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]UnknownDatagram, len(s.unknownSeatalk))
	copy(out, s.unknownSeatalk)
	return out
}
