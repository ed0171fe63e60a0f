package handlers

import (
	"net/http"
	"strings"

	"delivery-route-optimizer/internal/api/dto"
	"delivery-route-optimizer/internal/ports"
)

// OrderHandler exposes read-only pending order retrieval.
type OrderHandler struct {
	Repo ports.OrderRepository
}

func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	agentID := strings.TrimSpace(r.URL.Query().Get("agent_id"))
	if agentID == "" {
		writeError(w, r, http.StatusBadRequest, "agent_id is required")
		return
	}

	orders, err := h.Repo.ListPendingOrders(r.Context(), agentID)
	if err != nil {
		writeServiceError(w, r, "list pending orders", err)
		return
	}

	res := dto.ListOrdersResponse{
		AgentID: agentID,
		Orders:  make([]dto.OrderResponse, 0, len(orders)),
	}
	for _, o := range orders {
		res.Orders = append(res.Orders, dto.OrderResponse{
			OrderID:      o.ID,
			Pickup:       fromStop(o.Pickup),
			Dropoff:      fromStop(o.Dropoff),
			ReadyMinutes: o.ReadyDuration.Minutes(),
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}
