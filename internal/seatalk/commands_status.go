package seatalk

import "fmt"

// EquipmentID2 is command 0x6C: a second device fingerprint, reported by
// some equipment alongside (not instead of) 0x01 EquipmentID1.
type EquipmentID2 struct {
	Fingerprint [6]byte
	Name        string
}

func (EquipmentID2) Command() byte { return 0x6C }

var equipmentID2Names = map[[6]byte]string{
	{0x04, 0xBA, 0x20, 0x28, 0x2D, 0x2D}: "ST60 Tridata",
	{0x87, 0x72, 0x25, 0x28, 0x2D, 0x2D}: "ST60 Tridata+",
	{0x05, 0x70, 0x99, 0x10, 0x28, 0x2D}: "ST60 Log",
	{0xF3, 0x18, 0x00, 0x26, 0x2D, 0x2D}: "ST80 Masterview",
}

func parseEquipmentID2(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 6 {
		return nil, fmt.Errorf("%w: equipment id2 needs 6 bytes", ErrNotEnoughData)
	}
	var fp [6]byte
	copy(fp[:], data)
	return EquipmentID2{Fingerprint: fp, Name: equipmentID2Names[fp]}, nil
}

func emitEquipmentID2(r Record) (byte, []byte, error) {
	e := r.(EquipmentID2)
	return 0, e.Fingerprint[:], nil
}

// ManOverboard is command 0x6E: a fixed all-zero sentinel, typically
// preceded by a Man-Overboard TargetWaypointName (0x82, name "0999").
// The codec attaches no behavior to it; the device ingest sets the
// ship-state man-overboard flag on receipt.
type ManOverboard struct{}

func (ManOverboard) Command() byte { return 0x6E }

func parseManOverboard(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 8 {
		return nil, fmt.Errorf("%w: man overboard needs 8 bytes", ErrNotEnoughData)
	}
	return ManOverboard{}, nil
}

func emitManOverboard(r Record) (byte, []byte, error) {
	return 0, make([]byte, 8), nil
}

// SetLampIntensity2 is command 0x80, the ST80-style counterpart to 0x30.
type SetLampIntensity2 struct {
	Level int
}

func (SetLampIntensity2) Command() byte { return 0x80 }

func parseSetLampIntensity2(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("%w: lamp intensity2 needs 1 byte", ErrNotEnoughData)
	}
	return SetLampIntensity2{Level: lampIntensityFromByte(data[0])}, nil
}

func emitSetLampIntensity2(r Record) (byte, []byte, error) {
	s := r.(SetLampIntensity2)
	return 0, []byte{lampIntensityToByte(s.Level)}, nil
}

// CourseComputerSetup is command 0x81. Its "declared length" is variable:
// the course computer sends a 1-byte all-zero variant when setup finishes
// and a 2-byte all-zero variant while setup is in progress; the message
// variant is recovered from the payload length itself rather than a
// separate length field (the dispatch table carries Length -1 for it,
// skipping the reader's length check).
type CourseComputerSetup struct {
	MessageType int // 0 = setup finished, 1 = setup in progress
}

func (CourseComputerSetup) Command() byte { return 0x81 }

func parseCourseComputerSetup(firstHalf byte, data []byte) (Record, error) {
	if len(data) < 1 || len(data) > 2 {
		return nil, fmt.Errorf("%w: course computer setup length %d", ErrDataValidation, len(data))
	}
	if firstHalf != 0 {
		return nil, fmt.Errorf("%w: course computer setup first-half byte not zero", ErrDataValidation)
	}
	for _, b := range data {
		if b != 0 {
			return nil, fmt.Errorf("%w: course computer setup payload not all zero", ErrDataValidation)
		}
	}
	return CourseComputerSetup{MessageType: len(data) - 1}, nil
}

func emitCourseComputerSetup(r Record) (byte, []byte, error) {
	c := r.(CourseComputerSetup)
	if c.MessageType != 0 && c.MessageType != 1 {
		return 0, nil, fmt.Errorf("%w: course computer setup message type %d", ErrDataValidation, c.MessageType)
	}
	return 0, make([]byte, c.MessageType+1), nil
}

// TargetWaypointName is command 0x82: the last 4 characters of a waypoint
// name, packed across bit boundaries with a redundant 1's-complement byte
// for each pair acting as a detection code. The Man-Overboard name "0999"
// is exposed as a flag only; no further behavior is attached to it.
type TargetWaypointName struct {
	Name           string
	IsManOverboard bool
}

func (TargetWaypointName) Command() byte { return 0x82 }

func parseTargetWaypointName(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 6 {
		return nil, fmt.Errorf("%w: target waypoint name needs 6 bytes", ErrNotEnoughData)
	}
	x, xc, y, yc, z, zc := data[0], data[1], data[2], data[3], data[4], data[5]
	if int(x)+int(xc) != 0xFF || int(y)+int(yc) != 0xFF || int(z)+int(zc) != 0xFF {
		return nil, fmt.Errorf("%w: target waypoint name redundancy check failed", ErrDataValidation)
	}
	char1 := 0x30 + (x & 0x3F)
	char2 := 0x30 + (((y & 0x0F) << 2) | ((x & 0xC0) >> 6))
	char3 := 0x30 + (((z & 0x03) << 4) | ((y & 0xF0) >> 4))
	char4 := 0x30 + ((z & 0xFC) >> 2)
	name := string([]byte{char1, char2, char3, char4})
	return TargetWaypointName{Name: name, IsManOverboard: name == "0999"}, nil
}

func emitTargetWaypointName(r Record) (byte, []byte, error) {
	t := r.(TargetWaypointName)
	if len(t.Name) != 4 {
		return 0, nil, fmt.Errorf("%w: target waypoint name must be 4 chars", ErrDataValidation)
	}
	c1 := t.Name[0] - 0x30
	c2 := t.Name[1] - 0x30
	c3 := t.Name[2] - 0x30
	c4 := t.Name[3] - 0x30
	x := (c1 & 0x3F) | ((c2 & 0x3) << 6)
	xc := 0xFF - x
	y := (c2 >> 2) | ((c3 & 0x0F) << 4)
	yc := 0xFF - y
	z := ((c3 & 0x3C) >> 4) | (c4 << 2)
	zc := 0xFF - z
	return 0, []byte{x, xc, y, yc, z, zc}, nil
}

// SetResponseLevel is command 0x87.
type SetResponseLevel struct {
	Level int // 1 = automatic deadband, 2 = minimum deadband
}

func (SetResponseLevel) Command() byte { return 0x87 }

func parseSetResponseLevel(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("%w: set response level needs 1 byte", ErrNotEnoughData)
	}
	if data[0] != 1 && data[0] != 2 {
		return nil, fmt.Errorf("%w: unknown response level %d", ErrDataValidation, data[0])
	}
	return SetResponseLevel{Level: int(data[0])}, nil
}

func emitSetResponseLevel(r Record) (byte, []byte, error) {
	s := r.(SetResponseLevel)
	return 0, []byte{byte(s.Level)}, nil
}

// DeviceIdentification1 is command 0x90.
type DeviceIdentification1 struct {
	DeviceCode byte // 0x02 ST600R, 0x05 Type 150/150G/400G course computer, 0xA3 NMEA<->Seatalk bridge
}

func (DeviceIdentification1) Command() byte { return 0x90 }

func parseDeviceIdentification1(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("%w: device identification1 needs 1 byte", ErrNotEnoughData)
	}
	return DeviceIdentification1{DeviceCode: data[0]}, nil
}

func emitDeviceIdentification1(r Record) (byte, []byte, error) {
	d := r.(DeviceIdentification1)
	return 0, []byte{d.DeviceCode}, nil
}

// SetRudderGain is command 0x91.
type SetRudderGain struct {
	Gain byte
}

func (SetRudderGain) Command() byte { return 0x91 }

func parseSetRudderGain(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("%w: set rudder gain needs 1 byte", ErrNotEnoughData)
	}
	return SetRudderGain{Gain: data[0]}, nil
}

func emitSetRudderGain(r Record) (byte, []byte, error) {
	s := r.(SetRudderGain)
	return 0, []byte{s.Gain}, nil
}

// EnterAPSetup is command 0x93: a fixed all-zero sentinel sent by the
// course computer once per second while it waits to enter dealer setup.
type EnterAPSetup struct{}

func (EnterAPSetup) Command() byte { return 0x93 }

func parseEnterAPSetup(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("%w: enter ap setup needs 1 byte", ErrNotEnoughData)
	}
	if firstHalf != 0 || data[0] != 0 {
		return nil, fmt.Errorf("%w: enter ap setup payload not all zero", ErrDataValidation)
	}
	return EnterAPSetup{}, nil
}

func emitEnterAPSetup(r Record) (byte, []byte, error) {
	return 0, []byte{0x00}, nil
}

// CompassVariation is command 0x99: signed degrees, positive = west,
// negative = east.
type CompassVariation struct {
	VariationDegrees int8
}

func (CompassVariation) Command() byte { return 0x99 }

func parseCompassVariation(firstHalf byte, data []byte) (Record, error) {
	if len(data) != 1 {
		return nil, fmt.Errorf("%w: compass variation needs 1 byte", ErrNotEnoughData)
	}
	return CompassVariation{VariationDegrees: int8(data[0])}, nil
}

func emitCompassVariation(r Record) (byte, []byte, error) {
	c := r.(CompassVariation)
	return 0, []byte{byte(c.VariationDegrees)}, nil
}

// DeviceIdentification2Kind distinguishes the three payload shapes 0xA4
// can take, chosen by its parser purely from observed payload length
// (and, for the 3-byte-payload case, the first-half byte) since the
// command carries no separate type tag.
type DeviceIdentification2Kind int

const (
	DeviceIdentBroadcast DeviceIdentification2Kind = iota
	DeviceIdentAnswer
	DeviceIdentTermination
)

// DeviceIdentification2 is command 0xA4. Documentation of the
// Termination variant is inconsistent about its length (declares 6,
// shows an example with 4); on ingest both a 4-byte and a 6-byte
// all-zero payload are accepted as Termination, and emission always
// produces 6 bytes.
type DeviceIdentification2 struct {
	Kind           DeviceIdentification2Kind
	UnitID         byte
	MainSWVersion  byte
	MinorSWVersion byte
}

func (DeviceIdentification2) Command() byte { return 0xA4 }

func parseDeviceIdentification2(firstHalf byte, data []byte) (Record, error) {
	switch len(data) {
	case 3:
		if firstHalf == 1 {
			return DeviceIdentification2{Kind: DeviceIdentAnswer, UnitID: data[0], MainSWVersion: data[1], MinorSWVersion: data[2]}, nil
		}
		if firstHalf != 0 || data[0] != 0 || data[1] != 0 || data[2] != 0 {
			return nil, fmt.Errorf("%w: device identification2 broadcast payload not all zero", ErrDataValidation)
		}
		return DeviceIdentification2{Kind: DeviceIdentBroadcast}, nil
	case 4, 6:
		if firstHalf != 0 {
			return nil, fmt.Errorf("%w: device identification2 termination first-half byte not zero", ErrDataValidation)
		}
		for _, b := range data {
			if b != 0 {
				return nil, fmt.Errorf("%w: device identification2 termination payload not all zero", ErrDataValidation)
			}
		}
		return DeviceIdentification2{Kind: DeviceIdentTermination}, nil
	default:
		return nil, fmt.Errorf("%w: device identification2 length %d", ErrDataValidation, len(data))
	}
}

func emitDeviceIdentification2(r Record) (byte, []byte, error) {
	d := r.(DeviceIdentification2)
	switch d.Kind {
	case DeviceIdentBroadcast:
		return 0, make([]byte, 3), nil
	case DeviceIdentAnswer:
		return 1, []byte{d.UnitID, d.MainSWVersion, d.MinorSWVersion}, nil
	case DeviceIdentTermination:
		return 0, make([]byte, 6), nil
	default:
		return 0, nil, fmt.Errorf("%w: unknown device identification2 kind", ErrDataValidation)
	}
}
