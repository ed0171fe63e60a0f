package routing

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/ports"
)

// PrecedenceTSP finds the shortest open path from the start that visits every
// pickup before its dropoff, using a Held–Karp style bitmask dynamic program.
//
// Stops are indexed 0 (start), then 1+2i / 2+2i for the pickup / dropoff of
// orders[i]. dp[mask][last] is the shortest path that starts at 0, visits
// exactly the stops in mask and ends at last.
//
// Time O(2ⁿ·n²), memory O(2ⁿ·n) with n = 1+2k. Batch size is not bounded
// here; callers route large batches to GreedyHeuristic.
type PrecedenceTSP struct {
	oracle ports.DistanceOracle
}

func NewPrecedenceTSP(oracle ports.DistanceOracle) *PrecedenceTSP {
	return &PrecedenceTSP{oracle: oracle}
}

func (p *PrecedenceTSP) String() string { return "exact" }

// FindOptimalRoute implements RouteStrategy.
func (p *PrecedenceTSP) FindOptimalRoute(start domain.Stop, orders []domain.Order) (domain.Route, error) {
	if err := validateInput(start, orders); err != nil {
		return nil, fmt.Errorf("exact route: %w", err)
	}

	if len(orders) <= 1 {
		return p.simpleRoute(start, orders), nil
	}

	stops := routeStops(start, orders)
	n := len(stops)

	dist := p.distanceMatrix(stops)
	requires := precedenceMap(n, len(orders))

	t := newSearchTable(n)
	t.solve(dist, requires)

	order := t.reconstruct()
	route := make(domain.Route, 0, n)
	for _, idx := range order {
		route = append(route, stops[idx])
	}
	return route, nil
}

// simpleRoute handles batches with no combinatorial choice: each order is
// served pickup-then-dropoff, nearest pickup first.
func (p *PrecedenceTSP) simpleRoute(start domain.Stop, orders []domain.Order) domain.Route {
	sorted := slices.Clone(orders)
	slices.SortStableFunc(sorted, func(a, b domain.Order) int {
		return cmp.Compare(p.oracle.Distance(start, a.Pickup), p.oracle.Distance(start, b.Pickup))
	})

	route := make(domain.Route, 0, 1+2*len(sorted))
	route = append(route, start)
	for _, o := range sorted {
		route = append(route, o.Pickup, o.Dropoff)
	}
	return route
}

func routeStops(start domain.Stop, orders []domain.Order) []domain.Stop {
	stops := make([]domain.Stop, 0, 1+2*len(orders))
	stops = append(stops, start)
	for _, o := range orders {
		stops = append(stops, o.Pickup, o.Dropoff)
	}
	return stops
}

func (p *PrecedenceTSP) distanceMatrix(stops []domain.Stop) [][]float64 {
	n := len(stops)
	dist := make([][]float64, n)
	for i := range stops {
		dist[i] = make([]float64, n)
		for j := range stops {
			dist[i][j] = p.oracle.Distance(stops[i], stops[j])
		}
	}
	return dist
}

// precedenceMap pairs each pickup index with its dropoff index. It is stored
// inverted, requires[dropoff] = pickup, since transitions only ask "which
// pickup must already be visited before this stop". -1 means no requirement.
func precedenceMap(n, orderCount int) []int {
	requires := make([]int, n)
	for i := range requires {
		requires[i] = -1
	}
	for i := 0; i < orderCount; i++ {
		pickup := 1 + 2*i
		requires[pickup+1] = pickup
	}
	return requires
}

const noParent = -1

// searchTable holds the dp and parent tables as flat arenas indexed by
// mask*n + last, allocated once per call.
type searchTable struct {
	n      int
	cost   []float64
	parent []int8
}

func newSearchTable(n int) *searchTable {
	size := (1 << n) * n
	t := &searchTable{
		n:      n,
		cost:   make([]float64, size),
		parent: make([]int8, size),
	}
	for i := range t.cost {
		t.cost[i] = math.Inf(1)
		t.parent[i] = noParent
	}
	// Base case: only the start visited, standing at the start.
	t.cost[t.at(1, 0)] = 0
	return t
}

func (t *searchTable) at(mask, last int) int { return mask*t.n + last }

// solve fills the tables. Masks are processed in ascending order; every
// transition sets a previously clear bit, so each state is final before it
// is expanded.
func (t *searchTable) solve(dist [][]float64, requires []int) {
	n := t.n
	fullMask := (1 << n) - 1

	for mask := 1; mask <= fullMask; mask++ {
		if mask&1 == 0 {
			continue // every path starts at stop 0
		}
		for last := 0; last < n; last++ {
			if mask&(1<<last) == 0 {
				continue
			}
			base := t.cost[t.at(mask, last)]
			if math.IsInf(base, 1) {
				continue
			}

			for next := 0; next < n; next++ {
				if mask&(1<<next) != 0 {
					continue
				}
				// A dropoff is reachable only once its pickup is in the path.
				if pickup := requires[next]; pickup >= 0 && mask&(1<<pickup) == 0 {
					continue
				}

				nextMask := mask | 1<<next
				cand := base + dist[last][next]
				if i := t.at(nextMask, next); cand < t.cost[i] {
					t.cost[i] = cand
					t.parent[i] = int8(last)
				}
			}
		}
	}
}

// best returns the cheapest final stop over the full mask, preferring the
// smallest index on ties, and the path length ending there.
func (t *searchTable) best() (int, float64) {
	fullMask := (1 << t.n) - 1
	last := 0
	minCost := math.Inf(1)
	for i := 0; i < t.n; i++ {
		if c := t.cost[t.at(fullMask, i)]; c < minCost {
			minCost = c
			last = i
		}
	}
	return last, minCost
}

// reconstruct walks the parent table back from the best full-mask state
// until only the start bit remains, and returns stop indices in visiting
// order with the start at position 0.
func (t *searchTable) reconstruct() []int {
	last, _ := t.best()
	mask := (1 << t.n) - 1

	reversed := make([]int, 0, t.n)
	for mask != 1 {
		reversed = append(reversed, last)
		prev := int(t.parent[t.at(mask, last)])
		mask ^= 1 << last
		last = prev
	}

	order := make([]int, 0, t.n)
	order = append(order, 0)
	for i := len(reversed) - 1; i >= 0; i-- {
		order = append(order, reversed[i])
	}
	return order
}
