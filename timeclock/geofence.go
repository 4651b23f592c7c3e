package timeclock

import (
	"math"

	"sitecrew.com.au/sitecrew/core/model"
)

const earthRadiusM = 6371000.0

// Coordinate is a WGS84 point reported by the device.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusM * math.Asin(math.Sqrt(h))
}

// GeofenceCheck is the outcome of validating a clock coordinate against a
// job site. A failed check never rejects the clock action, it only feeds
// the exception tags.
type GeofenceCheck struct {
	Valid      bool
	GpsMissing bool
	DistanceM  float64
}

// CheckGeofence validates coord against the job's site fence. Jobs without
// site coordinates have no fence and always pass. A nil coord means the
// device had no GPS fix; the check fails and GpsMissing is set.
func CheckGeofence(job *model.Job, coord *Coordinate) GeofenceCheck {
	if job.SiteLat == nil || job.SiteLng == nil {
		return GeofenceCheck{Valid: true, GpsMissing: coord == nil}
	}
	if coord == nil {
		return GeofenceCheck{Valid: false, GpsMissing: true}
	}

	dist := HaversineMeters(Coordinate{Lat: *job.SiteLat, Lng: *job.SiteLng}, *coord)
	return GeofenceCheck{
		Valid:     dist <= job.SiteRadiusM,
		DistanceM: dist,
	}
}
