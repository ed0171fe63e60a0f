package handlers

import (
	"net/http"
	"strings"

	"delivery-route-optimizer/internal/api/dto"
	"delivery-route-optimizer/internal/ports"
	"delivery-route-optimizer/internal/services"
)

type PlanHandler struct {
	Orders  ports.OrderRepository
	Plans   ports.RoutePlanRepository
	Source  ports.DistanceOracleSource
	Options services.Options
}

// Plan routes the pending orders of one agent and stores the plan.
func (h *PlanHandler) Plan(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req dto.PlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	agentID := strings.TrimSpace(req.AgentID)
	if agentID == "" {
		writeError(w, r, http.StatusBadRequest, "agent_id is required")
		return
	}

	mode, err := services.ParseMode(req.Mode)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	plan, err := services.PlanAgentRoute(r.Context(), services.PlanAgentRequest{
		AgentID:  agentID,
		Start:    toStop(req.Start),
		DepartAt: departAt(req.DepartAt),
		Mode:     mode,
	}, h.Orders, h.Plans, h.Source, h.Options)
	if err != nil {
		writeServiceError(w, r, "plan agent route", err)
		return
	}

	writeJSON(w, r, http.StatusOK, toPlanResponse(plan))
}
