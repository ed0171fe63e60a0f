package dto

type OrderResponse struct {
	OrderID      string      `json:"order_id"`
	Pickup       StopRequest `json:"pickup"`
	Dropoff      StopRequest `json:"dropoff"`
	ReadyMinutes float64     `json:"ready_minutes"`
}

type ListOrdersResponse struct {
	AgentID string          `json:"agent_id"`
	Orders  []OrderResponse `json:"orders"`
}
