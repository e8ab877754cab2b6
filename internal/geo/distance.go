// Package geo measures distances on the map and decides whether a submitted
// position is trusted against a device location fix.
package geo

import "math"

// EarthRadiusMeters is the spherical-earth radius used by HaversineMeters.
const EarthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

// HaversineMeters returns the great-circle distance between two coordinates.
// NaN inputs yield NaN.
func HaversineMeters(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Pow(math.Sin(dLng/2), 2)

	return EarthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// DistanceTo is HaversineMeters between p and q.
func (p Point) DistanceTo(q Point) float64 {
	return HaversineMeters(p.Latitude, p.Longitude, q.Latitude, q.Longitude)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
