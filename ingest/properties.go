package ingest

import (
	"math"

	"hotpot/decode"
)

const earthRadiusM = 6371000.0

// movingSpeedThresholdMS is the instantaneous speed below which a
// segment is excluded from moving_time, per spec.md §6.
const movingSpeedThresholdMS = 0.3

// ComputeProperties derives spec.md §6's always-overriding computed
// properties from a decoded sample sequence.
func ComputeProperties(samples []decode.Sample) map[string]any {
	props := map[string]any{}
	if len(samples) < 2 {
		return props
	}

	var totalDistanceM, movingTimeS float64
	var gain, loss float64
	var minEle, maxEle float64
	haveEle := false
	var maxSpeedMS float64

	for i := 1; i < len(samples); i++ {
		prev, cur := samples[i-1], samples[i]
		d := haversineM(prev.Lat, prev.Lon, cur.Lat, cur.Lon)
		totalDistanceM += d

		if prev.Time != nil && cur.Time != nil {
			dt := cur.Time.Sub(*prev.Time).Seconds()
			if dt > 0 {
				speed := d / dt
				if speed > maxSpeedMS {
					maxSpeedMS = speed
				}
				if speed >= movingSpeedThresholdMS {
					movingTimeS += dt
				}
			}
		}

		if prev.Elevation != nil && cur.Elevation != nil {
			delta := *cur.Elevation - *prev.Elevation
			if delta > 0 {
				gain += delta
			} else {
				loss += -delta
			}
		}
		for _, s := range []decode.Sample{prev, cur} {
			if s.Elevation == nil {
				continue
			}
			if !haveEle {
				minEle, maxEle = *s.Elevation, *s.Elevation
				haveEle = true
				continue
			}
			if *s.Elevation < minEle {
				minEle = *s.Elevation
			}
			if *s.Elevation > maxEle {
				maxEle = *s.Elevation
			}
		}
	}

	totalDistanceKm := totalDistanceM / 1000.0
	props["total_distance"] = totalDistanceKm
	props["elevation_gain"] = gain
	props["elevation_loss"] = loss
	if haveEle {
		props["min_elevation"] = minEle
		props["max_elevation"] = maxEle
	}
	props["max_speed"] = maxSpeedMS * 3.6

	first, last := samples[0], samples[len(samples)-1]
	if first.Time != nil && last.Time != nil {
		elapsed := last.Time.Sub(*first.Time).Seconds()
		props["elapsed_time"] = elapsed
		props["moving_time"] = movingTimeS
		if movingTimeS > 0 {
			props["average_speed"] = totalDistanceKm / (movingTimeS / 3600.0)
		}
	}

	return props
}

func haversineM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}
