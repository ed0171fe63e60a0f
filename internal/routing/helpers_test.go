package routing

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"delivery-route-optimizer/internal/domain"
)

// planeOracle treats coordinates as points on a plane: Lat is x, Lon is y.
type planeOracle struct{}

func (planeOracle) Distance(a, b domain.Stop) float64 {
	return math.Hypot(a.Coordinates.Lat-b.Coordinates.Lat, a.Coordinates.Lon-b.Coordinates.Lon)
}

// countingOracle wraps another oracle and counts lookups.
type countingOracle struct {
	inner interface {
		Distance(a, b domain.Stop) float64
	}
	calls int
}

func (c *countingOracle) Distance(a, b domain.Stop) float64 {
	c.calls++
	return c.inner.Distance(a, b)
}

func stopAt(name string, x, y float64) domain.Stop {
	return domain.Stop{Name: name, Coordinates: domain.Coordinates{Lat: x, Lon: y}}
}

func order(id string, pickup, dropoff domain.Stop, ready time.Duration) domain.Order {
	return domain.Order{ID: id, Pickup: pickup, Dropoff: dropoff, ReadyDuration: ready}
}

func randomOrders(rng *rand.Rand, k int) []domain.Order {
	orders := make([]domain.Order, 0, k)
	for i := 0; i < k; i++ {
		orders = append(orders, order(
			fmt.Sprintf("o%d", i+1),
			stopAt(fmt.Sprintf("P%d", i+1), rng.Float64()*10, rng.Float64()*10),
			stopAt(fmt.Sprintf("D%d", i+1), rng.Float64()*10, rng.Float64()*10),
			time.Duration(rng.Intn(30))*time.Minute,
		))
	}
	return orders
}

// checkWellFormed checks completeness and precedence of route for orders.
func checkWellFormed(route domain.Route, start domain.Stop, orders []domain.Order) error {
	if len(route) != 1+2*len(orders) {
		return fmt.Errorf("route length %d, want %d", len(route), 1+2*len(orders))
	}
	if route[0] != start {
		return fmt.Errorf("route[0] = %v, want start %v", route[0], start)
	}
	pos := make(map[domain.Stop]int, len(route))
	for i, s := range route {
		if _, dup := pos[s]; dup {
			return fmt.Errorf("stop %v appears more than once", s)
		}
		pos[s] = i
	}
	for _, o := range orders {
		p, okP := pos[o.Pickup]
		d, okD := pos[o.Dropoff]
		if !okP || !okD {
			return fmt.Errorf("order %s stops missing from route", o.ID)
		}
		if p >= d {
			return fmt.Errorf("order %s: pickup at %d not before dropoff at %d", o.ID, p, d)
		}
	}
	return nil
}

// bruteForceBest enumerates every precedence-respecting ordering of the
// order stops and returns the shortest open-path length from start.
func bruteForceBest(start domain.Stop, orders []domain.Order, oracle planeOracle) float64 {
	stops := routeStops(start, orders)
	n := len(stops)
	best := math.Inf(1)

	used := make([]bool, n)
	used[0] = true
	var walk func(last, count int, acc float64)
	walk = func(last, count int, acc float64) {
		if acc >= best {
			return
		}
		if count == n {
			best = acc
			return
		}
		for next := 1; next < n; next++ {
			if used[next] {
				continue
			}
			// even indices are dropoffs; their pickup sits one before
			if next%2 == 0 && !used[next-1] {
				continue
			}
			used[next] = true
			walk(next, count+1, acc+oracle.Distance(stops[last], stops[next]))
			used[next] = false
		}
	}
	walk(0, 1, 0)
	return best
}
