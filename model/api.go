package model

// ErrorResponse is the uniform error envelope for all API endpoints. Data
// carries per-field validation details when present.
type ErrorResponse struct {
	Error string `json:"error"`
	Data  any    `json:"data,omitempty"`
}
