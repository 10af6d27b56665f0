package seatalk

import "fmt"

// Record is a decoded Seatalk datagram of any command. Concrete types are
// defined alongside their parse/emit pair below.
type Record interface {
	Command() byte
}

// commandSpec is one entry in the static command dispatch table.
//
// Length is the canonical payload length nibble (attr & 0x0F) for this
// command; -1 means the command accepts more than one length (dispatch
// happens inside Parse itself, e.g. 0x81 CourseComputerSetup and 0xA4
// DeviceIdent2).
type commandSpec struct {
	Length int
	Parse  func(firstHalf byte, data []byte) (Record, error)
	Emit   func(Record) (firstHalf byte, data []byte, err error)
}

var commandTable map[byte]commandSpec

func init() {
	commandTable = map[byte]commandSpec{
		0x00: {2, parseDepth, emitDepth},
		0x01: {5, parseEquipmentID1, emitEquipmentID1},
		0x10: {1, parseApparentWindAngle, emitApparentWindAngle},
		0x11: {1, parseApparentWindSpeed, emitApparentWindSpeed},
		0x20: {1, parseSpeed1, emitSpeed1},
		0x21: {2, parseTripMileage, emitTripMileage},
		0x22: {2, parseTotalMileage, emitTotalMileage},
		0x23: {1, parseWaterTemperature1, emitWaterTemperature1},
		0x24: {2, parseDisplayUnits, emitDisplayUnits},
		0x25: {4, parseTotalTripLog, emitTotalTripLog},
		0x26: {4, parseSpeed2, emitSpeed2},
		0x27: {1, parseWaterTemperature2, emitWaterTemperature2},
		0x30: {0, parseSetLampIntensity1, emitSetLampIntensity1},
		0x36: {0, parseCancelMOB, emitCancelMOB},
		0x38: {1, parseCodeLockData, emitCodeLockData},
		0x50: {2, parseLatitude, emitLatitude},
		0x51: {2, parseLongitude, emitLongitude},
		0x52: {1, parseSpeedOverGround, emitSpeedOverGround},
		0x53: {0, parseCourseOverGround, emitCourseOverGround},
		0x54: {1, parseGMTTime, emitGMTTime},
		0x56: {1, parseDate, emitDate},
		0x57: {0, parseSatInfo, emitSatInfo},
		0x58: {5, parsePosition, emitPosition},
		0x59: {2, parseCountdownTimer, emitCountdownTimer},
		0x61: {3, parseE80Initialization, emitE80Initialization},
		0x65: {0, parseSelectFathom, emitSelectFathom},
		0x66: {0, parseWindAlarm, emitWindAlarm},
		0x68: {1, parseAlarmAcknowledgement, emitAlarmAcknowledgement},
		0x6C: {5, parseEquipmentID2, emitEquipmentID2},
		0x6E: {7, parseManOverboard, emitManOverboard},
		0x80: {0, parseSetLampIntensity2, emitSetLampIntensity2},
		0x81: {-1, parseCourseComputerSetup, emitCourseComputerSetup},
		0x82: {5, parseTargetWaypointName, emitTargetWaypointName},
		0x87: {0, parseSetResponseLevel, emitSetResponseLevel},
		0x90: {0, parseDeviceIdentification1, emitDeviceIdentification1},
		0x91: {0, parseSetRudderGain, emitSetRudderGain},
		0x93: {0, parseEnterAPSetup, emitEnterAPSetup},
		0x99: {0, parseCompassVariation, emitCompassVariation},
		0xA4: {-1, parseDeviceIdentification2, emitDeviceIdentification2},
	}
}

// ParseRecord dispatches a RawFrame to its command's Parse function.
func ParseRecord(f RawFrame) (Record, error) {
	spec, ok := commandTable[f.Command]
	if !ok {
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownCommand, f.Command)
	}
	return spec.Parse(f.FirstHalf, f.Data)
}

// EmitRecord serializes a Record back into a RawFrame via its command's
// Emit function.
func EmitRecord(r Record) (RawFrame, error) {
	spec, ok := commandTable[r.Command()]
	if !ok {
		return RawFrame{}, fmt.Errorf("%w: 0x%02X", ErrUnknownCommand, r.Command())
	}
	firstHalf, data, err := spec.Emit(r)
	if err != nil {
		return RawFrame{}, err
	}
	return RawFrame{Command: r.Command(), FirstHalf: firstHalf, Data: data}, nil
}
