package domain

import "fmt"

// Stop is a named point the agent visits: its own start position,
// a pickup (restaurant, store) or a dropoff (customer).
type Stop struct {
	Name        string
	Coordinates Coordinates
}

func NewStop(name string, lat, lon float64) Stop {
	return Stop{Name: name, Coordinates: Coordinates{Lat: lat, Lon: lon}}
}

// IsZero reports whether the stop carries neither a name nor a position.
func (s Stop) IsZero() bool {
	return s.Name == "" && s.Coordinates == (Coordinates{})
}

func (s Stop) String() string {
	return fmt.Sprintf("%s (%.4f, %.4f)", s.Name, s.Coordinates.Lat, s.Coordinates.Lon)
}
