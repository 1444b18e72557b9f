package domain

import "math"

// earthRadiusKM is the mean Earth radius used for great-circle distances.
const earthRadiusKM = 6371

// DistanceKM returns the haversine great-circle distance between two points
// in kilometers.
func DistanceKM(a, b GeoPoint) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKM * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
