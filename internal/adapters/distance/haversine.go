package distance

import (
	"math"

	"delivery-route-optimizer/internal/domain"
)

const earthRadiusKm = 6371.0

// Haversine is a DistanceOracle returning great-circle distance in kilometres.
type Haversine struct{}

func (Haversine) Distance(a, b domain.Stop) float64 {
	return HaversineKm(a.Coordinates, b.Coordinates)
}

// HaversineKm returns the great-circle distance between two points in kilometres.
func HaversineKm(a, b domain.Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
