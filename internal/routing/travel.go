package routing

import (
	"time"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/ports"
)

// AverageSpeedPerMinute is the fixed agent speed: 20 distance units per hour.
const AverageSpeedPerMinute = 20.0 / 60.0

// TravelMinutes converts a distance into travel time at AverageSpeedPerMinute.
func TravelMinutes(distance float64) float64 {
	return distance / AverageSpeedPerMinute
}

// MinutesToDuration converts fractional minutes to a time.Duration.
func MinutesToDuration(minutes float64) time.Duration {
	return time.Duration(minutes * float64(time.Minute))
}

// PathDistance sums the leg distances of route under oracle.
func PathDistance(route domain.Route, oracle ports.DistanceOracle) float64 {
	total := 0.0
	for i := 0; i+1 < len(route); i++ {
		total += oracle.Distance(route[i], route[i+1])
	}
	return total
}
