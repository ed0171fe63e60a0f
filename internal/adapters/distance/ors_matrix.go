package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/ports"
)

// matrixRequest asks ORS for a single source row: location 0 to every other
// location.
type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Sources      []int       `json:"sources"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
	Units        string      `json:"units"`
}

func newRowRequest(origin domain.Coordinates, destinations []domain.Coordinates) matrixRequest {
	req := matrixRequest{
		Locations:    make([][]float64, 0, 1+len(destinations)),
		Sources:      []int{0},
		Destinations: make([]int, 0, len(destinations)),
		Metrics:      []string{"distance", "duration"},
		Units:        "m",
	}
	req.Locations = append(req.Locations, origin.CoordsToList())
	for i, c := range destinations {
		req.Locations = append(req.Locations, c.CoordsToList())
		req.Destinations = append(req.Destinations, i+1)
	}
	return req
}

// matrixResponse holds nullable cells; ORS reports unroutable pairs as null.
type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// row checks the reply shape and returns the single source row.
func (mr matrixResponse) row(want int) (distances, durations []*float64, err error) {
	if len(mr.Distances) != 1 || len(mr.Durations) != 1 {
		return nil, nil, fmt.Errorf("expected 1 source row, got distances=%d durations=%d",
			len(mr.Distances), len(mr.Durations))
	}
	distances, durations = mr.Distances[0], mr.Durations[0]
	if len(distances) != want || len(durations) != want {
		return nil, nil, fmt.Errorf("row has distances=%d durations=%d, want %d",
			len(distances), len(durations), want)
	}
	return distances, durations, nil
}

// fetchMatrixRow retrieves road distance and duration from origin to each
// destination in one matrix call.
func (o *ORSDistanceProvider) fetchMatrixRow(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
) (map[string]ports.DistanceResult, error) {
	if len(destinations) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	payload, err := json.Marshal(newRowRequest(origin, destinations))
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := o.postWithRetry(ctx, o.baseURL+"/v2/matrix/"+o.profile, payload)
	if err != nil {
		return nil, fmt.Errorf("matrix request: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}

	distances, durations, err := mr.row(len(destinations))
	if err != nil {
		return nil, fmt.Errorf("matrix response: %w", err)
	}

	out := make(map[string]ports.DistanceResult, len(destinations))
	for i, dest := range destinations {
		if distances[i] == nil || durations[i] == nil {
			return nil, fmt.Errorf("matrix has no route %s -> %s", origin.Key(), dest.Key())
		}
		out[dest.Key()] = ports.DistanceResult{
			DistanceMeters:  int(math.Round(*distances[i])),
			DurationSeconds: int(math.Round(*durations[i])),
		}
	}

	return out, nil
}
