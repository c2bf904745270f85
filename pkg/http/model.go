package http

// APIResponse is the envelope of every response, errors included.
// Data carries []ValidationError for 400s from request binding and
// []*AppError for mapped application errors.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes one rejected request field. Field is the
// query or JSON name the client sent.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"total_premium"`
	Message string                 `json:"message,omitempty" example:"total_premium is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
