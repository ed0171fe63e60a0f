package handlers

import (
	"net/http"

	"delivery-route-optimizer/internal/api/dto"
	"delivery-route-optimizer/internal/domain"
	"delivery-route-optimizer/internal/ports"
	"delivery-route-optimizer/internal/services"
)

// RouteHandler plans routes for batches supplied in the request body.
// Nothing is persisted.
type RouteHandler struct {
	Source  ports.DistanceOracleSource
	Options services.Options
}

func (h *RouteHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.RouteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	mode, err := services.ParseMode(req.Mode)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	orders := make([]domain.Order, 0, len(req.Orders))
	for _, o := range req.Orders {
		orders = append(orders, toOrder(o))
	}

	plan, err := services.PlanRoute(r.Context(), services.PlanRouteRequest{
		AgentID:  req.AgentID,
		Start:    toStop(req.Start),
		Orders:   orders,
		DepartAt: departAt(req.DepartAt),
		Mode:     mode,
	}, h.Source, h.Options)
	if err != nil {
		writeServiceError(w, r, "plan route", err)
		return
	}

	writeJSON(w, r, http.StatusOK, toPlanResponse(plan))
}
