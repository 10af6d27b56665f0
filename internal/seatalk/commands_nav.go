package seatalk

import (
	"fmt"

	"github.com/binnacle-labs/seabridge/internal/shipstate"
)

// CancelMOB is command 0x36: cancels a Man-Overboard condition. It carries
// no payload beyond a fixed sentinel byte; the device ingest clears the
// ship-state man-overboard flag on receipt.
type CancelMOB struct{}

func (CancelMOB) Command() byte { return 0x36 }

func parseCancelMOB(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("%w: cancel mob needs 1 byte", ErrNotEnoughData)
	}
	if data[0] != 0x01 {
		return nil, fmt.Errorf("%w: cancel mob expected 0x01, got 0x%02X", ErrDataValidation, data[0])
	}
	return CancelMOB{}, nil
}

func emitCancelMOB(r Record) (byte, []byte, error) {
	return 0, []byte{0x01}, nil
}

// CodeLockData is command 0x38, a dealer code-lock keypad report kept for
// typed pass-through only.
type CodeLockData struct {
	X byte
	Y byte
	Z byte
}

func (CodeLockData) Command() byte { return 0x38 }

func parseCodeLockData(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 2 {
		return nil, fmt.Errorf("%w: code lock data needs 2 bytes", ErrNotEnoughData)
	}
	return CodeLockData{X: firstHalf, Y: data[0], Z: data[1]}, nil
}

func emitCodeLockData(r Record) (byte, []byte, error) {
	c := r.(CodeLockData)
	return c.X, []byte{c.Y, c.Z}, nil
}

// partPositionFromBytes/partPositionToBytes implement the shared
// "XX degrees, (YYYY&0x7FFF)/100 minutes, MSB of Y = hemisphere" layout
// used by both Latitude (0x50) and Longitude (0x51).
func partPositionFromBytes(data []byte, southOrEast, northOrWest shipstate.Orientation) shipstate.PartPosition {
	degrees := data[0]
	yyyy := u16le(data[1], data[2])
	minutes := float64(yyyy&0x7FFF) / 100
	orientation := northOrWest
	if yyyy&0x8000 != 0 {
		orientation = southOrEast
	}
	return shipstate.PartPosition{Degrees: uint16(degrees), Minutes: minutes, Orientation: orientation}
}

func partPositionToBytes(p shipstate.PartPosition, hemisphereBitSet shipstate.Orientation) []byte {
	yyyy := scaled16(p.Minutes, 100) & 0x7FFF
	if p.Orientation == hemisphereBitSet {
		yyyy |= 0x8000
	}
	lo, hi := u16leBytes(yyyy)
	return []byte{byte(p.Degrees), lo, hi}
}

// Latitude is command 0x50: the filtered/stable latitude fix (raw,
// unfiltered data uses Position/0x58 instead).
type Latitude struct {
	Value shipstate.PartPosition
}

func (Latitude) Command() byte { return 0x50 }

func parseLatitude(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 3 {
		return nil, fmt.Errorf("%w: latitude needs 3 bytes", ErrNotEnoughData)
	}
	return Latitude{Value: partPositionFromBytes(data, shipstate.South, shipstate.North)}, nil
}

func emitLatitude(r Record) (byte, []byte, error) {
	l := r.(Latitude)
	return 0, partPositionToBytes(l.Value, shipstate.South), nil
}

// Longitude is command 0x51: the filtered/stable longitude fix.
type Longitude struct {
	Value shipstate.PartPosition
}

func (Longitude) Command() byte { return 0x51 }

func parseLongitude(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 3 {
		return nil, fmt.Errorf("%w: longitude needs 3 bytes", ErrNotEnoughData)
	}
	return Longitude{Value: partPositionFromBytes(data, shipstate.East, shipstate.West)}, nil
}

func emitLongitude(r Record) (byte, []byte, error) {
	l := r.(Longitude)
	return 0, partPositionToBytes(l.Value, shipstate.East), nil
}

// SpeedOverGround is command 0x52.
type SpeedOverGround struct {
	SpeedKnots float64
}

func (SpeedOverGround) Command() byte { return 0x52 }

func parseSpeedOverGround(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 2 {
		return nil, fmt.Errorf("%w: speed over ground needs 2 bytes", ErrNotEnoughData)
	}
	return SpeedOverGround{SpeedKnots: float64(u16le(data[0], data[1])) / 10}, nil
}

func emitSpeedOverGround(r Record) (byte, []byte, error) {
	s := r.(SpeedOverGround)
	lo, hi := u16leBytes(scaled16(s.SpeedKnots, 10))
	return 0, []byte{lo, hi}, nil
}

// CourseOverGround is command 0x53. The bit layout packs
// course = (U&0x3)*90 + (data0&0x3F)*2 + ((U&0xC)>>3), carrying one
// degree of resolution; decode is the exact inverse of encode.
type CourseOverGround struct {
	CourseDegrees float64
}

func (CourseOverGround) Command() byte { return 0x53 }

func parseCourseOverGround(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("%w: course over ground needs 1 byte", ErrNotEnoughData)
	}
	course := float64(firstHalf&0x3)*90 + float64(data[0]&0x3F)*2 + float64((firstHalf&0xC)>>3)
	return CourseOverGround{CourseDegrees: course}, nil
}

func emitCourseOverGround(r Record) (byte, []byte, error) {
	c := r.(CourseOverGround)
	deg := int(c.CourseDegrees)
	u0 := byte((deg / 90) & 0x3)
	u1 := byte((deg % 2) << 3 & 0xC)
	data0 := byte((deg % 90) / 2 & 0x3F)
	return u0 | u1, []byte{data0}, nil
}

// GMTTime is command 0x54.
type GMTTime struct {
	Hour   int
	Minute int
	Second int
}

func (GMTTime) Command() byte { return 0x54 }

func parseGMTTime(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 2 {
		return nil, fmt.Errorf("%w: gmt time needs 2 bytes", ErrNotEnoughData)
	}
	hours := int(data[1])
	minutes := int(data[0]&0xFC) / 4
	st := (int(data[0]&0x0F) << 4) | int(firstHalf)
	seconds := st & 0x3F
	return GMTTime{Hour: hours, Minute: minutes, Second: seconds}, nil
}

func emitGMTTime(r Record) (byte, []byte, error) {
	t := r.(GMTTime)
	tNibble := byte(t.Second & 0x0F)
	rs := byte((t.Minute*4)&0xFC) | byte((t.Second>>4)&0x03)
	return tNibble, []byte{rs, byte(t.Hour)}, nil
}

// Date is command 0x56.
type Date struct {
	Year  int
	Month int
	Day   int
}

func (Date) Command() byte { return 0x56 }

func parseDate(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 2 {
		return nil, fmt.Errorf("%w: date needs 2 bytes", ErrNotEnoughData)
	}
	return Date{Month: int(firstHalf), Day: int(data[0]), Year: 2000 + int(data[1])}, nil
}

func emitDate(r Record) (byte, []byte, error) {
	d := r.(Date)
	return byte(d.Month), []byte{byte(d.Day), byte(d.Year - 2000)}, nil
}

// SatInfo is command 0x57, supplementing GSA's DOP/sat-ID fields.
type SatInfo struct {
	SatelliteCount        int
	HorizontalDilutionRaw byte
}

func (SatInfo) Command() byte { return 0x57 }

func parseSatInfo(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("%w: sat info needs 1 byte", ErrNotEnoughData)
	}
	return SatInfo{SatelliteCount: int(firstHalf), HorizontalDilutionRaw: data[0]}, nil
}

func emitSatInfo(r Record) (byte, []byte, error) {
	s := r.(SatInfo)
	return byte(s.SatelliteCount), []byte{s.HorizontalDilutionRaw}, nil
}

// Position is command 0x58: the raw, unfiltered lat/lon fix (the filtered
// equivalent is Latitude/Longitude, 0x50/0x51).
type Position struct {
	Value shipstate.Position
}

func (Position) Command() byte { return 0x58 }

func parsePosition(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 6 {
		return nil, fmt.Errorf("%w: position needs 6 bytes", ErrNotEnoughData)
	}
	latOrientation := shipstate.North
	if firstHalf&0x1 != 0 {
		latOrientation = shipstate.South
	}
	lonOrientation := shipstate.West
	if firstHalf&0x2 != 0 {
		lonOrientation = shipstate.East
	}
	lat := shipstate.PartPosition{
		Degrees:     uint16(data[0]),
		Minutes:     float64(int(data[1])<<8|int(data[2])) / 1000,
		Orientation: latOrientation,
	}
	lon := shipstate.PartPosition{
		Degrees:     uint16(data[3]),
		Minutes:     float64(int(data[4])<<8|int(data[5])) / 1000,
		Orientation: lonOrientation,
	}
	return Position{Value: shipstate.Position{Latitude: lat, Longitude: lon}}, nil
}

func emitPosition(r Record) (byte, []byte, error) {
	p := r.(Position)
	var firstHalf byte
	if p.Value.Latitude.Orientation == shipstate.South {
		firstHalf |= 0x1
	}
	if p.Value.Longitude.Orientation == shipstate.East {
		firstHalf |= 0x2
	}
	latMin := int(scaled32(p.Value.Latitude.Minutes, 1000))
	lonMin := int(scaled32(p.Value.Longitude.Minutes, 1000))
	return firstHalf, []byte{
		byte(p.Value.Latitude.Degrees),
		byte(latMin >> 8), byte(latMin),
		byte(p.Value.Longitude.Degrees),
		byte(lonMin >> 8), byte(lonMin),
	}, nil
}

// CountdownTimer is command 0x59.
type CountdownTimer struct {
	Hours   int
	Minutes int
	Seconds int
	Mode    int // 0 count-up-start, 4 count-down, 8 count-down-start
}

func (CountdownTimer) Command() byte { return 0x59 }

func parseCountdownTimer(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 3 {
		return nil, fmt.Errorf("%w: countdown timer needs 3 bytes", ErrNotEnoughData)
	}
	if firstHalf != 0x02 {
		return nil, fmt.Errorf("%w: countdown timer first-half byte not 0x02: 0x%X", ErrDataValidation, firstHalf)
	}
	mode := int(data[2] >> 4)
	if mode != 0 && mode != 4 && mode != 8 {
		return nil, fmt.Errorf("%w: countdown timer mode invalid: %d", ErrDataValidation, mode)
	}
	return CountdownTimer{Seconds: int(data[0]), Minutes: int(data[1]), Hours: int(data[2] & 0x0F), Mode: mode}, nil
}

func emitCountdownTimer(r Record) (byte, []byte, error) {
	c := r.(CountdownTimer)
	last := byte(c.Mode<<4) | byte(c.Hours&0x0F)
	return 0x02, []byte{byte(c.Seconds), byte(c.Minutes), last}, nil
}

// E80Initialization is command 0x61, a fixed sentinel report issued by the
// E-80 multifunction display at power-on.
type E80Initialization struct{}

func (E80Initialization) Command() byte { return 0x61 }

func parseE80Initialization(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 4 {
		return nil, fmt.Errorf("%w: e80 init needs 4 bytes", ErrNotEnoughData)
	}
	if firstHalf != 0 || data[0] != 0x03 || data[1] != 0 || data[2] != 0 || data[3] != 0 {
		return nil, fmt.Errorf("%w: e80 init unrecognized sentinel", ErrDataValidation)
	}
	return E80Initialization{}, nil
}

func emitE80Initialization(r Record) (byte, []byte, error) {
	return 0, []byte{0x03, 0x00, 0x00, 0x00}, nil
}

// SelectFathom is command 0x65, a fixed sentinel selecting fathom display
// units for depth (command 0x00).
type SelectFathom struct{}

func (SelectFathom) Command() byte { return 0x65 }

func parseSelectFathom(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("%w: select fathom needs 1 byte", ErrNotEnoughData)
	}
	if data[0] != 0x02 {
		return nil, fmt.Errorf("%w: select fathom expected 0x02, got 0x%02X", ErrDataValidation, data[0])
	}
	return SelectFathom{}, nil
}

func emitSelectFathom(r Record) (byte, []byte, error) {
	return 0, []byte{0x02}, nil
}

// WindAlarm is command 0x66: per-bit apparent/true wind alarm flags.
type WindAlarm struct {
	ApparentAlarm byte // bitmask: 8 angle-low, 4 angle-high, 2 speed-low, 1 speed-high
	TrueAlarm     byte
}

func (WindAlarm) Command() byte { return 0x66 }

func parseWindAlarm(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("%w: wind alarm needs 1 byte", ErrNotEnoughData)
	}
	return WindAlarm{ApparentAlarm: hiNibble(data[0]), TrueAlarm: loNibble(data[0])}, nil
}

func emitWindAlarm(r Record) (byte, []byte, error) {
	w := r.(WindAlarm)
	return 0, []byte{(w.ApparentAlarm << 4) | (w.TrueAlarm & 0x0F)}, nil
}

// AlarmAcknowledgement is command 0x68.
type AlarmAcknowledgement struct {
	Alarm byte // one of the Alarm* constants below
}

const (
	AlarmShallowWater      = 0x01
	AlarmDeepWater         = 0x02
	AlarmAnchor            = 0x03
	AlarmTrueWindHigh      = 0x04
	AlarmTrueWindLow       = 0x05
	AlarmTrueWindAngleHigh = 0x06
	AlarmTrueWindAngleLow  = 0x07
	AlarmApparentWindHigh  = 0x08
	AlarmApparentWindLow   = 0x09
	AlarmApparentAngleHigh = 0x0A
	AlarmApparentAngleLow  = 0x0B
)

func (AlarmAcknowledgement) Command() byte { return 0x68 }

func parseAlarmAcknowledgement(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 2 {
		return nil, fmt.Errorf("%w: alarm acknowledgement needs 2 bytes", ErrNotEnoughData)
	}
	if firstHalf < AlarmShallowWater || firstHalf > AlarmApparentAngleLow {
		return nil, fmt.Errorf("%w: unknown acknowledged alarm 0x%X", ErrDataValidation, firstHalf)
	}
	return AlarmAcknowledgement{Alarm: firstHalf}, nil
}

func emitAlarmAcknowledgement(r Record) (byte, []byte, error) {
	a := r.(AlarmAcknowledgement)
	return a.Alarm, []byte{0x01, 0x00}, nil
}
