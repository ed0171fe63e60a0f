package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"delivery-route-optimizer/internal/api/dto"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/platform/obs"

	"github.com/rs/zerolog/log"
)

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Str("method", r.Method).Str("path", r.URL.Path).Err(err).Msg("encode failed")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeServiceError maps invalid input to 400 and hides everything else
// behind a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, domain.ErrInvalidInput) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	log.Error().Str("req_id", obs.RequestID(r.Context())).Str("op", op).Err(err).Msg("request failed")
	writeError(w, r, http.StatusInternalServerError, "internal server error")
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	return false
}

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// decodeJSON reads exactly one JSON object with no unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	defer body.Close()

	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

func toStop(s dto.StopRequest) domain.Stop {
	return domain.NewStop(s.Name, s.Lat, s.Lon)
}

func fromStop(s domain.Stop) dto.StopRequest {
	return dto.StopRequest{Name: s.Name, Lat: s.Coordinates.Lat, Lon: s.Coordinates.Lon}
}

func toOrder(o dto.OrderRequest) domain.Order {
	return domain.Order{
		ID:            o.OrderID,
		Pickup:        toStop(o.Pickup),
		Dropoff:       toStop(o.Dropoff),
		ReadyDuration: time.Duration(o.ReadyMinutes * float64(time.Minute)),
	}
}

func departAt(t *time.Time) time.Time {
	if t != nil {
		return *t
	}
	return time.Now().UTC()
}

func toPlanResponse(p *domain.RoutePlan) dto.PlanResponse {
	res := dto.PlanResponse{
		PlanID:               p.PlanID,
		AgentID:              p.AgentID,
		Strategy:             p.Strategy,
		DepartAt:             p.DepartAt,
		TotalDistanceKm:      p.TotalDistanceKm,
		TotalDurationSeconds: int64(math.Round(p.TotalDuration.Seconds())),
		Route:                make([]string, 0, len(p.Stops)),
		Stops:                make([]dto.PlanStopResponse, 0, len(p.Stops)),
		Warnings:             p.Warnings,
	}
	for _, s := range p.Stops {
		res.Route = append(res.Route, s.Stop.Name)
		res.Stops = append(res.Stops, dto.PlanStopResponse{
			Name:          s.Stop.Name,
			Lat:           s.Stop.Coordinates.Lat,
			Lon:           s.Stop.Coordinates.Lon,
			Kind:          string(s.Kind),
			OrderID:       s.OrderID,
			ArriveAt:      s.ArriveAt,
			LegDistanceKm: s.LegDistanceKm,
			WaitMinutes:   s.WaitMinutes,
		})
	}
	return res
}
