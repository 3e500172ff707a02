package http

// APIResponse is the envelope every REST endpoint replies with.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes one rejected request parameter.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_ONEOF"`
	Field   string                 `json:"field,omitempty" example:"range"`
	Message string                 `json:"message,omitempty" example:"Range must be one of: 1W, 1M, 3M"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
