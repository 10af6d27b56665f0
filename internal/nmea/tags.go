package nmea

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/binnacle-labs/seabridge/internal/shipstate"
)

// tagSpec is one entry in the static tag dispatch table.
type tagSpec struct {
	parse func(talkerID string, fields []string) (Sentence, error)
	emit  func(Sentence) (string, error)
}

var tagTable map[string]tagSpec

func init() {
	tagTable = map[string]tagSpec{
		"RMC": {parseRMC, emitRMC},
		"VTG": {parseVTG, emitVTG},
		"GSA": {parseGSA, emitGSA},
		"DBT": {parseDBT, emitDBT},
		"VHW": {parseVHW, emitVHW},
		"MTW": {parseMTW, emitMTW},
		"MWV": {parseMWV, emitMWV},
		"ZDA": {parseZDA, emitZDA},
		"GGA": {parseGGA, emitGGA},
		"GLL": {parseGLL, emitGLL},
		"HDT": {parseHDT, emitHDT},
		"HDM": {parseHDM, emitHDM},
	}
}

// ParseLine parses one full "$...\r\n" line. The checksum must already
// have been verified by the caller (VerifyChecksum).
func ParseLine(line string) (Sentence, error) {
	body, _, err := splitFrame(line)
	if err != nil {
		return nil, err
	}
	if len(body) < 5 {
		return Unknown{RawLine: line}, nil
	}
	talkerID := body[:2]
	tag := body[2:5]
	rest := body[5:]
	var fields []string
	if strings.HasPrefix(rest, ",") {
		fields = strings.Split(rest[1:], ",")
	} else if rest != "" {
		return Unknown{TalkerID: talkerID, RawLine: line}, nil
	}

	spec, ok := tagTable[tag]
	if !ok {
		return Unknown{TalkerID: talkerID, RawLine: line}, nil
	}
	sentence, err := spec.parse(talkerID, fields)
	if err != nil {
		return Unknown{TalkerID: talkerID, RawLine: line}, nil
	}
	return sentence, nil
}

// Emit serializes a typed sentence back to wire bytes via the static
// dispatch table's emit half.
func Emit(s Sentence) (string, error) {
	spec, ok := tagTable[s.Tag()]
	if !ok {
		return "", fmt.Errorf("nmea: no emitter for tag %q", s.Tag())
	}
	return spec.emit(s)
}

// field returns fields[i] or "" if out of range; absent fields sit as
// empty strings between commas.
func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

func parseFloatField(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func fmtFloat(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// parseNMEALatLon parses "ddmm.mmmm","N|S" or "dddmm.mmmm","E|W" pairs.
func parseNMEALatLon(degreeWidth int, raw, hemi string) (shipstate.PartPosition, bool) {
	if raw == "" || hemi == "" {
		return shipstate.PartPosition{}, false
	}
	dotIdx := strings.Index(raw, ".")
	if dotIdx < degreeWidth {
		return shipstate.PartPosition{}, false
	}
	degStr := raw[:degreeWidth]
	minStr := raw[degreeWidth:]
	deg, err := strconv.Atoi(degStr)
	if err != nil {
		return shipstate.PartPosition{}, false
	}
	min, err := strconv.ParseFloat(minStr, 64)
	if err != nil {
		return shipstate.PartPosition{}, false
	}
	var o shipstate.Orientation
	switch hemi {
	case "N":
		o = shipstate.North
	case "S":
		o = shipstate.South
	case "E":
		o = shipstate.East
	case "W":
		o = shipstate.West
	default:
		return shipstate.PartPosition{}, false
	}
	return shipstate.PartPosition{Degrees: uint16(deg), Minutes: min, Orientation: o}, true
}

func emitNMEALatLon(degreeWidth int, p shipstate.PartPosition) (string, string) {
	raw := fmt.Sprintf("%0*d%07.4f", degreeWidth, p.Degrees, p.Minutes)
	var hemi string
	switch p.Orientation {
	case shipstate.North:
		hemi = "N"
	case shipstate.South:
		hemi = "S"
	case shipstate.East:
		hemi = "E"
	case shipstate.West:
		hemi = "W"
	}
	return raw, hemi
}

// parseNMEATime parses "hhmmss" or "hhmmss.ss"; both forms parse
// identically.
func parseNMEATime(raw string) (hh, mm int, ss float64, ok bool) {
	if len(raw) < 6 {
		return 0, 0, 0, false
	}
	hh, err1 := strconv.Atoi(raw[0:2])
	mm, err2 := strconv.Atoi(raw[2:4])
	ss, err3 := strconv.ParseFloat(raw[4:], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	return hh, mm, ss, true
}

func parseNMEADate(raw string) (day, month, year int, ok bool) {
	if len(raw) != 6 {
		return 0, 0, 0, false
	}
	day, err1 := strconv.Atoi(raw[0:2])
	month, err2 := strconv.Atoi(raw[2:4])
	yy, err3 := strconv.Atoi(raw[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	return day, month, 2000 + yy, true
}

func combineDateTime(day, month, year, hh, mm int, ss float64) time.Time {
	whole := int(ss)
	nanos := int((ss - float64(whole)) * 1e9)
	return time.Date(year, time.Month(month), day, hh, mm, whole, nanos, time.UTC)
}

// --- RMC ---

func parseRMC(talkerID string, f []string) (Sentence, error) {
	hh, mm, ss, ok := parseNMEATime(field(f, 0))
	if !ok {
		return nil, fmt.Errorf("RMC: bad time")
	}
	valid := field(f, 1) == "A"
	lat, latOK := parseNMEALatLon(2, field(f, 2), field(f, 3))
	lon, lonOK := parseNMEALatLon(3, field(f, 4), field(f, 5))
	sog, _ := parseFloatField(field(f, 6))
	track, _ := parseFloatField(field(f, 7))
	day, month, year, dateOK := parseNMEADate(field(f, 8))
	if !latOK || !lonOK || !dateOK {
		return nil, fmt.Errorf("RMC: missing required fields")
	}
	variation, _ := parseFloatField(field(f, 9))
	var sense byte
	if s := field(f, 10); s != "" {
		sense = s[0]
	}
	var faaMode byte
	if s := field(f, 11); s != "" {
		faaMode = s[0]
	}
	return RMC{
		TalkerID:          talkerID,
		UTC:               combineDateTime(day, month, year, hh, mm, ss),
		Valid:             valid,
		Position:          shipstate.Position{Latitude: lat, Longitude: lon},
		SpeedOverGroundKn: sog,
		TrackMadeGood:     track,
		MagneticVariation: variation,
		VariationSense:    sense,
		FAAMode:           faaMode,
	}, nil
}

func emitRMC(s Sentence) (string, error) {
	r := s.(RMC)
	latRaw, latHemi := emitNMEALatLon(2, r.Position.Latitude)
	lonRaw, lonHemi := emitNMEALatLon(3, r.Position.Longitude)
	validity := "V"
	if r.Valid {
		validity = "A"
	}
	body := fmt.Sprintf("%sRMC,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s",
		r.TalkerID,
		r.UTC.Format("150405.00"),
		validity,
		latRaw, latHemi, lonRaw, lonHemi,
		fmtFloat(r.SpeedOverGroundKn, true),
		fmtFloat(r.TrackMadeGood, true),
		r.UTC.Format("020106"),
		fmtFloat(r.MagneticVariation, true),
		string(r.VariationSense),
		string(r.FAAMode))
	return frame(body), nil
}

// --- VTG ---

func parseVTG(talkerID string, f []string) (Sentence, error) {
	cogT, _ := parseFloatField(field(f, 0))
	cogM, _ := parseFloatField(field(f, 2))
	sog, sogOK := parseFloatField(field(f, 4))
	if !sogOK {
		if kmh, ok := parseFloatField(field(f, 6)); ok {
			sog = kmh / 1.852
		}
	}
	var mode byte
	if m := field(f, 8); m != "" {
		mode = m[0]
	}
	return VTG{TalkerID: talkerID, COGTrue: cogT, COGMagnetic: cogM, SpeedOverGroundKn: sog, Mode: mode}, nil
}

func emitVTG(s Sentence) (string, error) {
	v := s.(VTG)
	body := fmt.Sprintf("%sVTG,%s,T,%s,M,%s,N,%s,K,%s",
		v.TalkerID,
		fmtFloat(v.COGTrue, true),
		fmtFloat(v.COGMagnetic, true),
		fmtFloat(v.SpeedOverGroundKn, true),
		fmtFloat(v.SpeedOverGroundKn*1.852, true),
		string(v.Mode))
	return frame(body), nil
}

// --- GSA ---

func parseGSA(talkerID string, f []string) (Sentence, error) {
	var mode1 byte
	if m := field(f, 0); m != "" {
		mode1 = m[0]
	}
	fixType, _ := strconv.Atoi(field(f, 1))
	var sats []string
	for i := 2; i < 14; i++ {
		if v := field(f, i); v != "" {
			sats = append(sats, v)
		}
	}
	pdop, _ := parseFloatField(field(f, 14))
	hdop, _ := parseFloatField(field(f, 15))
	vdop, _ := parseFloatField(field(f, 16))
	return GSA{TalkerID: talkerID, Mode1: mode1, FixType: fixType, SatIDs: sats, PDOP: pdop, HDOP: hdop, VDOP: vdop}, nil
}

func emitGSA(s Sentence) (string, error) {
	g := s.(GSA)
	sats := make([]string, 12)
	copy(sats, g.SatIDs)
	body := fmt.Sprintf("%sGSA,%s,%d,%s,%s,%s,%s",
		g.TalkerID, string(g.Mode1), g.FixType, strings.Join(sats, ","),
		fmtFloat(g.PDOP, true), fmtFloat(g.HDOP, true), fmtFloat(g.VDOP, true))
	return frame(body), nil
}

// --- DBT ---

func parseDBT(talkerID string, f []string) (Sentence, error) {
	feet, feetOK := parseFloatField(field(f, 0))
	meters, metersOK := parseFloatField(field(f, 2))
	fathoms, fathomsOK := parseFloatField(field(f, 4))
	var feetP, metersP, fathomsP *float64
	if feetOK {
		feetP = &feet
	}
	if metersOK {
		metersP = &meters
	}
	if fathomsOK {
		fathomsP = &fathoms
	}
	if !feetOK && !metersOK && !fathomsOK {
		return nil, fmt.Errorf("DBT: no depth field present")
	}
	return DBT{TalkerID: talkerID, DepthM: normalizeDepthMeters(feetP, metersP, fathomsP)}, nil
}

func emitDBT(s Sentence) (string, error) {
	d := s.(DBT)
	feet := d.DepthM / feetToMeters
	fathoms := d.DepthM / fathomsToMeters
	body := fmt.Sprintf("%sDBT,%s,f,%s,M,%s,F",
		d.TalkerID, fmtFloat(feet, true), fmtFloat(d.DepthM, true), fmtFloat(fathoms, true))
	return frame(body), nil
}

// --- VHW ---

func parseVHW(talkerID string, f []string) (Sentence, error) {
	hdgT, _ := parseFloatField(field(f, 0))
	hdgM, _ := parseFloatField(field(f, 2))
	stwKn, stwOK := parseFloatField(field(f, 4))
	stwKmh, stwKmhOK := parseFloatField(field(f, 6))
	stw := stwKn
	if !stwOK && stwKmhOK {
		stw = stwKmh / 1.852
	}
	return VHW{TalkerID: talkerID, HeadingTrue: hdgT, HeadingMagnetic: hdgM, SpeedThroughWaterK: stw}, nil
}

func emitVHW(s Sentence) (string, error) {
	v := s.(VHW)
	body := fmt.Sprintf("%sVHW,%s,T,%s,M,%s,N,%s,K",
		v.TalkerID, fmtFloat(v.HeadingTrue, true), fmtFloat(v.HeadingMagnetic, true),
		fmtFloat(v.SpeedThroughWaterK, true), fmtFloat(v.SpeedThroughWaterK*1.852, true))
	return frame(body), nil
}

// --- MTW ---

func parseMTW(talkerID string, f []string) (Sentence, error) {
	temp, ok := parseFloatField(field(f, 0))
	if !ok {
		return nil, fmt.Errorf("MTW: bad temperature")
	}
	return MTW{TalkerID: talkerID, TemperatureC: temp}, nil
}

func emitMTW(s Sentence) (string, error) {
	m := s.(MTW)
	body := fmt.Sprintf("%sMTW,%s,C", m.TalkerID, fmtFloat(m.TemperatureC, true))
	return frame(body), nil
}

// --- MWV ---

func parseMWV(talkerID string, f []string) (Sentence, error) {
	angle, _ := parseFloatField(field(f, 0))
	reference := field(f, 1) == "T"
	speedRaw, _ := parseFloatField(field(f, 2))
	var unit byte
	if u := field(f, 3); u != "" {
		unit = u[0]
	}
	valid := field(f, 4) == "A"
	return MWV{
		TalkerID:      talkerID,
		AngleDegrees:  angle,
		ReferenceTrue: reference,
		SpeedKnots:    normalizeWindSpeedKnots(speedRaw, unit),
		Valid:         valid,
	}, nil
}

func emitMWV(s Sentence) (string, error) {
	m := s.(MWV)
	ref := "R"
	if m.ReferenceTrue {
		ref = "T"
	}
	validity := "V"
	if m.Valid {
		validity = "A"
	}
	body := fmt.Sprintf("%sMWV,%s,%s,%s,N,%s", m.TalkerID, fmtFloat(m.AngleDegrees, true), ref, fmtFloat(m.SpeedKnots, true), validity)
	return frame(body), nil
}

// --- ZDA (supplemented) ---

func parseZDA(talkerID string, f []string) (Sentence, error) {
	hh, mm, ss, ok := parseNMEATime(field(f, 0))
	if !ok {
		return nil, fmt.Errorf("ZDA: bad time")
	}
	day, _ := strconv.Atoi(field(f, 1))
	month, _ := strconv.Atoi(field(f, 2))
	year, _ := strconv.Atoi(field(f, 3))
	zh, _ := strconv.Atoi(field(f, 4))
	zm, _ := strconv.Atoi(field(f, 5))
	return ZDA{TalkerID: talkerID, UTC: combineDateTime(day, month, year, hh, mm, ss), ZoneHours: zh, ZoneMinutes: zm}, nil
}

func emitZDA(s Sentence) (string, error) {
	z := s.(ZDA)
	body := fmt.Sprintf("%sZDA,%s,%02d,%02d,%04d,%02d,%02d",
		z.TalkerID, z.UTC.Format("150405.00"), z.UTC.Day(), int(z.UTC.Month()), z.UTC.Year(), z.ZoneHours, z.ZoneMinutes)
	return frame(body), nil
}

// --- GGA (supplemented) ---

func parseGGA(talkerID string, f []string) (Sentence, error) {
	hh, mm, ss, ok := parseNMEATime(field(f, 0))
	if !ok {
		return nil, fmt.Errorf("GGA: bad time")
	}
	lat, latOK := parseNMEALatLon(2, field(f, 1), field(f, 2))
	lon, lonOK := parseNMEALatLon(3, field(f, 3), field(f, 4))
	if !latOK || !lonOK {
		return nil, fmt.Errorf("GGA: missing position")
	}
	fixQuality, _ := strconv.Atoi(field(f, 5))
	sats, _ := strconv.Atoi(field(f, 6))
	hdop, _ := parseFloatField(field(f, 7))
	alt, _ := parseFloatField(field(f, 8))
	return GGA{
		TalkerID:   talkerID,
		UTCTime:    combineDateTime(1, 1, 2000, hh, mm, ss),
		Position:   shipstate.Position{Latitude: lat, Longitude: lon},
		FixQuality: fixQuality,
		Satellites: sats,
		HDOP:       hdop,
		AltitudeM:  alt,
	}, nil
}

func emitGGA(s Sentence) (string, error) {
	g := s.(GGA)
	latRaw, latHemi := emitNMEALatLon(2, g.Position.Latitude)
	lonRaw, lonHemi := emitNMEALatLon(3, g.Position.Longitude)
	body := fmt.Sprintf("%sGGA,%s,%s,%s,%s,%s,%d,%02d,%s,%s,M,,,,",
		g.TalkerID, g.UTCTime.Format("150405.00"), latRaw, latHemi, lonRaw, lonHemi,
		g.FixQuality, g.Satellites, fmtFloat(g.HDOP, true), fmtFloat(g.AltitudeM, true))
	return frame(body), nil
}

// --- GLL (supplemented) ---

func parseGLL(talkerID string, f []string) (Sentence, error) {
	lat, latOK := parseNMEALatLon(2, field(f, 0), field(f, 1))
	lon, lonOK := parseNMEALatLon(3, field(f, 2), field(f, 3))
	if !latOK || !lonOK {
		return nil, fmt.Errorf("GLL: missing position")
	}
	hh, mm, ss, _ := parseNMEATime(field(f, 4))
	valid := field(f, 5) == "A"
	return GLL{
		TalkerID: talkerID,
		Position: shipstate.Position{Latitude: lat, Longitude: lon},
		UTCTime:  combineDateTime(1, 1, 2000, hh, mm, ss),
		Valid:    valid,
	}, nil
}

func emitGLL(s Sentence) (string, error) {
	g := s.(GLL)
	latRaw, latHemi := emitNMEALatLon(2, g.Position.Latitude)
	lonRaw, lonHemi := emitNMEALatLon(3, g.Position.Longitude)
	validity := "V"
	if g.Valid {
		validity = "A"
	}
	body := fmt.Sprintf("%sGLL,%s,%s,%s,%s,%s,%s,A", g.TalkerID, latRaw, latHemi, lonRaw, lonHemi, g.UTCTime.Format("150405.00"), validity)
	return frame(body), nil
}

// --- HDT (supplemented) ---

func parseHDT(talkerID string, f []string) (Sentence, error) {
	v, ok := parseFloatField(field(f, 0))
	if !ok {
		return nil, fmt.Errorf("HDT: bad heading")
	}
	return HDT{TalkerID: talkerID, HeadingTrue: v}, nil
}

func emitHDT(s Sentence) (string, error) {
	h := s.(HDT)
	body := fmt.Sprintf("%sHDT,%s,T", h.TalkerID, fmtFloat(h.HeadingTrue, true))
	return frame(body), nil
}

// --- HDM (supplemented) ---

func parseHDM(talkerID string, f []string) (Sentence, error) {
	v, ok := parseFloatField(field(f, 0))
	if !ok {
		return nil, fmt.Errorf("HDM: bad heading")
	}
	return HDM{TalkerID: talkerID, HeadingMagnetic: v}, nil
}

func emitHDM(s Sentence) (string, error) {
	h := s.(HDM)
	body := fmt.Sprintf("%sHDM,%s,M", h.TalkerID, fmtFloat(h.HeadingMagnetic, true))
	return frame(body), nil
}
