package models

// Requests for the desk HTTP endpoints.

type ForceRequest struct {
	Side string `param:"side" json:"side" validate:"required,oneof=BUY SELL"`
}

type LogsRequest struct {
	Limit int `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=100"`
}

type ViewRequest struct {
	Name string `param:"name" json:"name" default:"dashboard" validate:"oneof=dashboard strategy trades risk settings"`
}

// ForceResult reports what happened to a manual override.
type ForceResult struct {
	Side      OrderSide `json:"side"`
	Forwarded bool      `json:"forwarded"`
	Simulated bool      `json:"simulated"`
	Throttled bool      `json:"throttled"`
	Error     string    `json:"error,omitempty"`
}
