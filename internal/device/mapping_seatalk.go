package device

import (
	"time"

	"github.com/binnacle-labs/seabridge/internal/seatalk"
	"github.com/binnacle-labs/seabridge/internal/shipstate"
)

// seatalkFeetToMeters mirrors nmea.feetToMeters; kept as a separate
// constant here since internal/nmea does not export it and Seatalk's
// Depth record is natively in feet.
const seatalkFeetToMeters = 0.3048

// applySeatalkRecord maps a decoded record's typed fields onto the
// shared ship-state keys it contributes to. Records with no ship-state
// key (EquipmentID*, CodeLockData, CourseComputerSetup,
// E80Initialization, SelectFathom, EnterAPSetup, AlarmAcknowledgement,
// WindAlarm, CountdownTimer, DeviceIdentification*) fall through the
// switch: their command byte still enters the own-echo set on ingest, but
// they are neither stored nor re-emitted by buildSeatalkRecords.
func applySeatalkRecord(store *shipstate.Store, r seatalk.Record) {
	switch v := r.(type) {
	case seatalk.Depth:
		store.SetDepthM(v.DepthFeet * seatalkFeetToMeters)
	case seatalk.ApparentWindAngle:
		store.SetApparentWindAngle(v.AngleDegrees)
	case seatalk.ApparentWindSpeed:
		store.SetApparentWindSpeed(v.SpeedKnots)
	case seatalk.Speed1:
		store.SetSpeedThroughWater(v.SpeedKnots)
	case seatalk.Speed2:
		store.SetSpeedThroughWater(v.SpeedKnots)
	case seatalk.TripMileage:
		store.SetTripMileage(v.MileageNM)
	case seatalk.TotalMileage:
		store.SetTotalMileage(v.MileageNM)
	case seatalk.TotalTripLog:
		store.SetTotalMileage(v.TotalMilesNM)
		store.SetTripMileage(v.TripMilesNM)
	case seatalk.WaterTemperature1:
		store.SetWaterTemperatureC(v.TemperatureC)
	case seatalk.WaterTemperature2:
		store.SetWaterTemperatureC(v.TemperatureC)
	case seatalk.DisplayUnits:
		store.SetDisplayUnits(shipstate.DisplayUnits{
			SpeedKnotsNotMph:          v.Unit == "knots",
			MileageNauticalNotStatute: v.Unit != "kph",
		})
	case seatalk.SetLampIntensity1:
		store.SetLampIntensity(v.Level)
	case seatalk.SetLampIntensity2:
		store.SetLampIntensity(v.Level)
	case seatalk.Latitude:
		store.SetLatitude(v.Value)
	case seatalk.Longitude:
		store.SetLongitude(v.Value)
	case seatalk.SpeedOverGround:
		store.SetSpeedOverGround(v.SpeedKnots)
	case seatalk.CourseOverGround:
		store.SetCOGTrue(v.CourseDegrees)
	case seatalk.GMTTime:
		prevDate, _ := store.UTCDate()
		store.SetUTCTime(combineSeatalkTime(prevDate, v))
	case seatalk.Date:
		store.SetUTCDate(time.Date(v.Year, time.Month(v.Month), v.Day, 0, 0, 0, 0, time.UTC))
	case seatalk.SatInfo:
		store.SetSatelliteInfo(shipstate.SatelliteInfo{SatelliteCount: v.SatelliteCount})
	case seatalk.Position:
		store.SetLatitude(v.Value.Latitude)
		store.SetLongitude(v.Value.Longitude)
	case seatalk.SetRudderGain:
		store.SetRudderAngle(float64(int8(v.Gain)))
	case seatalk.CompassVariation:
		// Not stored and not re-emitted: the store has no magnetic-variation
		// key (RMC's own MagneticVariation field covers the NMEA side), so
		// there is nothing to apply here.
	case seatalk.TargetWaypointName:
		if v.IsManOverboard {
			store.SetManOverboard(true)
		} else {
			store.AddWaypoint(shipstate.Waypoint{Name: v.Name})
		}
	case seatalk.ManOverboard:
		store.SetManOverboard(true)
	case seatalk.CancelMOB:
		store.SetManOverboard(false)
	}
}

func combineSeatalkTime(date time.Time, t seatalk.GMTTime) time.Time {
	year, month, day := date.Date()
	if date.IsZero() {
		year, month, day = 0, time.January, 0
	}
	return time.Date(year, month, day, t.Hour, t.Minute, t.Second, 0, time.UTC)
}

// buildSeatalkRecords assembles every record ship state currently has
// fresh data for. Quantities that two command generations both carry are
// emitted in both encodings (Speed1+Speed2, WaterTemperature1+2,
// SetLampIntensity1+2) so older and newer instruments each hear the one
// they understand.
func buildSeatalkRecords(store *shipstate.Store) []seatalk.Record {
	var out []seatalk.Record

	if depth, ok := store.DepthM(); ok {
		out = append(out, seatalk.Depth{DepthFeet: depth / seatalkFeetToMeters})
	}
	if angle, ok := store.ApparentWindAngle(); ok {
		out = append(out, seatalk.ApparentWindAngle{AngleDegrees: angle})
	}
	if speed, ok := store.ApparentWindSpeed(); ok {
		out = append(out, seatalk.ApparentWindSpeed{SpeedKnots: speed})
	}
	if stw, ok := store.SpeedThroughWater(); ok {
		out = append(out, seatalk.Speed1{SpeedKnots: stw}, seatalk.Speed2{SpeedKnots: stw})
	}
	if trip, ok := store.TripMileage(); ok {
		if total, ok := store.TotalMileage(); ok {
			out = append(out, seatalk.TotalTripLog{TotalMilesNM: total, TripMilesNM: trip})
		}
	}
	if waterTC, ok := store.WaterTemperatureC(); ok {
		out = append(out,
			seatalk.WaterTemperature1{TemperatureC: waterTC},
			seatalk.WaterTemperature2{TemperatureC: waterTC})
	}
	if lamp, ok := store.LampIntensity(); ok {
		out = append(out, seatalk.SetLampIntensity1{Level: lamp}, seatalk.SetLampIntensity2{Level: lamp})
	}
	lat, hasLat := store.Latitude()
	lon, hasLon := store.Longitude()
	if hasLat {
		out = append(out, seatalk.Latitude{Value: lat})
	}
	if hasLon {
		out = append(out, seatalk.Longitude{Value: lon})
	}
	if hasLat && hasLon {
		out = append(out, seatalk.Position{Value: shipstate.Position{Latitude: lat, Longitude: lon}})
	}
	if sog, ok := store.SpeedOverGround(); ok {
		out = append(out, seatalk.SpeedOverGround{SpeedKnots: sog})
	}
	if cog, ok := store.COGTrue(); ok {
		out = append(out, seatalk.CourseOverGround{CourseDegrees: cog})
	}
	if utcTime, ok := store.UTCTime(); ok {
		out = append(out, seatalk.GMTTime{Hour: utcTime.Hour(), Minute: utcTime.Minute(), Second: utcTime.Second()})
	}
	if utcDate, ok := store.UTCDate(); ok {
		out = append(out, seatalk.Date{Year: utcDate.Year(), Month: int(utcDate.Month()), Day: utcDate.Day()})
	}
	if sat, ok := store.SatelliteInfoSnapshot(); ok {
		out = append(out, seatalk.SatInfo{SatelliteCount: sat.SatelliteCount})
	}
	if rudder, ok := store.RudderAngle(); ok {
		out = append(out, seatalk.SetRudderGain{Gain: byte(int8(rudder))})
	}
	for _, w := range store.Waypoints() {
		if len(w.Name) != 4 {
			continue
		}
		out = append(out, seatalk.TargetWaypointName{Name: w.Name})
	}

	return out
}
