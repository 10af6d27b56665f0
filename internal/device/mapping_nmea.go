package device

import (
	"time"

	"github.com/binnacle-labs/seabridge/internal/nmea"
	"github.com/binnacle-labs/seabridge/internal/shipstate"
)

// applyNMEASentence maps a decoded sentence's typed fields onto the
// shared ship-state keys it contributes to.
func applyNMEASentence(store *shipstate.Store, s nmea.Sentence) {
	switch v := s.(type) {
	case nmea.RMC:
		if v.Valid {
			store.SetUTCTime(v.UTC)
			store.SetUTCDate(v.UTC)
			store.SetLatitude(v.Position.Latitude)
			store.SetLongitude(v.Position.Longitude)
			store.SetSpeedOverGround(v.SpeedOverGroundKn)
			store.SetCOGTrue(v.TrackMadeGood)
		}
	case nmea.VTG:
		store.SetCOGTrue(v.COGTrue)
		store.SetCOGMagnetic(v.COGMagnetic)
		store.SetSpeedOverGround(v.SpeedOverGroundKn)
	case nmea.GSA:
		// DOP/sat-ID fields are forwarded opportunistically; no dedicated
		// ship-state key beyond SatelliteInfo's count, which GSA doesn't
		// itself carry (SatInfo/0x57 does).
	case nmea.DBT:
		store.SetDepthM(v.DepthM)
	case nmea.VHW:
		store.SetHeadingTrue(v.HeadingTrue)
		store.SetHeadingMagnetic(v.HeadingMagnetic)
		store.SetSpeedThroughWater(v.SpeedThroughWaterK)
	case nmea.MTW:
		store.SetWaterTemperatureC(v.TemperatureC)
	case nmea.MWV:
		if v.Valid {
			if v.ReferenceTrue {
				store.SetTrueWindAngle(v.AngleDegrees)
				store.SetTrueWindSpeed(v.SpeedKnots)
			} else {
				store.SetApparentWindAngle(v.AngleDegrees)
				store.SetApparentWindSpeed(v.SpeedKnots)
			}
		}
	case nmea.ZDA:
		store.SetUTCTime(v.UTC)
		store.SetUTCDate(v.UTC)
	case nmea.GGA:
		store.SetLatitude(v.Position.Latitude)
		store.SetLongitude(v.Position.Longitude)
		store.SetFixQuality(v.FixQuality)
		store.SetSatelliteInfo(shipstate.SatelliteInfo{SatelliteCount: v.Satellites})
	case nmea.GLL:
		if v.Valid {
			store.SetLatitude(v.Position.Latitude)
			store.SetLongitude(v.Position.Longitude)
		}
	case nmea.HDT:
		store.SetHeadingTrue(v.HeadingTrue)
	case nmea.HDM:
		store.SetHeadingMagnetic(v.HeadingMagnetic)
	}
}

// buildNMEASentences assembles every sentence ship state currently has
// fresh data for, to be filtered through own-echo suppression and
// serialized by the emit loop. "II" (Integrated Instrumentation) is used
// as a generic talker ID for bridge-originated traffic.
const bridgeTalkerID = "II"

func buildNMEASentences(store *shipstate.Store) []nmea.Sentence {
	var out []nmea.Sentence

	pos, hasPos := store.Position()
	sog, hasSOG := store.SpeedOverGround()
	cogTrue, hasCOGTrue := store.COGTrue()
	cogMag, hasCOGMag := store.COGMagnetic()
	utcTime, hasTime := store.UTCTime()
	utcDate, hasDate := store.UTCDate()
	if hasDate && hasPos && hasSOG && hasTime {
		out = append(out, nmea.RMC{
			TalkerID:          bridgeTalkerID,
			UTC:               combineZDA(utcDate, utcTime),
			Valid:             true,
			Position:          pos,
			SpeedOverGroundKn: sog,
			TrackMadeGood:     cogTrue,
			FAAMode:           'A',
		})
	}

	if hasCOGTrue && hasCOGMag && hasSOG {
		out = append(out, nmea.VTG{
			TalkerID:          bridgeTalkerID,
			COGTrue:           cogTrue,
			COGMagnetic:       cogMag,
			SpeedOverGroundKn: sog,
			Mode:              'A',
		})
	}

	if depth, ok := store.DepthM(); ok {
		out = append(out, nmea.DBT{TalkerID: bridgeTalkerID, DepthM: depth})
	}

	hdgTrue, hasHdgTrue := store.HeadingTrue()
	hdgMag, hasHdgMag := store.HeadingMagnetic()
	stw, hasSTW := store.SpeedThroughWater()
	if hasHdgTrue && hasHdgMag && hasSTW {
		out = append(out, nmea.VHW{
			TalkerID:           bridgeTalkerID,
			HeadingTrue:        hdgTrue,
			HeadingMagnetic:    hdgMag,
			SpeedThroughWaterK: stw,
		})
	}
	if hasHdgTrue {
		out = append(out, nmea.HDT{TalkerID: bridgeTalkerID, HeadingTrue: hdgTrue})
	}
	if hasHdgMag {
		out = append(out, nmea.HDM{TalkerID: bridgeTalkerID, HeadingMagnetic: hdgMag})
	}

	if waterTC, ok := store.WaterTemperatureC(); ok {
		out = append(out, nmea.MTW{TalkerID: bridgeTalkerID, TemperatureC: waterTC})
	}

	if speed, ok := store.TrueWindSpeed(); ok {
		angle, _ := store.TrueWindAngle()
		out = append(out, nmea.MWV{TalkerID: bridgeTalkerID, AngleDegrees: angle, ReferenceTrue: true, SpeedKnots: speed, Valid: true})
	}
	if speed, ok := store.ApparentWindSpeed(); ok {
		angle, _ := store.ApparentWindAngle()
		out = append(out, nmea.MWV{TalkerID: bridgeTalkerID, AngleDegrees: angle, ReferenceTrue: false, SpeedKnots: speed, Valid: true})
	}

	if hasPos && hasTime {
		out = append(out, nmea.GLL{TalkerID: bridgeTalkerID, Position: pos, UTCTime: utcTime, Valid: true})
	}
	if hasPos {
		fixQuality, _ := store.FixQuality()
		sat, _ := store.SatelliteInfoSnapshot()
		out = append(out, nmea.GGA{
			TalkerID:   bridgeTalkerID,
			UTCTime:    utcTime,
			Position:   pos,
			FixQuality: fixQuality,
			Satellites: sat.SatelliteCount,
		})
	}
	if hasDate && hasTime {
		out = append(out, nmea.ZDA{TalkerID: bridgeTalkerID, UTC: combineZDA(utcDate, utcTime)})
	}

	return out
}

func combineZDA(date, clock time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		clock.Hour(), clock.Minute(), clock.Second(), clock.Nanosecond(), time.UTC)
}
