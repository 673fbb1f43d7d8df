package model

import (
	"math"
	"time"
)

const earthRadiusKm = 6371.0

// Location is an already-resolved coordinate pair with its capture time.
// Geocoding is an external concern; the core only ever compares and orders
// locations.
type Location struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CapturedAt time.Time `json:"captured_at"`
}

// DistanceKm returns the great-circle distance to other in kilometers using
// the haversine formula.
func (l Location) DistanceKm(other Location) float64 {
	lat1 := l.Latitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	dLat := (other.Latitude - l.Latitude) * math.Pi / 180
	dLon := (other.Longitude - l.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Region is a bounding box used as a sanity bound on intake coordinates.
type Region struct {
	MinLatitude  float64 `json:"min_latitude"`
	MaxLatitude  float64 `json:"max_latitude"`
	MinLongitude float64 `json:"min_longitude"`
	MaxLongitude float64 `json:"max_longitude"`
}

// Contains reports whether the location lies inside the region.
func (r Region) Contains(l Location) bool {
	return l.Latitude >= r.MinLatitude && l.Latitude <= r.MaxLatitude &&
		l.Longitude >= r.MinLongitude && l.Longitude <= r.MaxLongitude
}
