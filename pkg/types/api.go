package types

// InferInputBlob carries the raw bytes of one named input over HTTP.
// Data is base64-encoded on the wire (encoding/json []byte behavior).
type InferInputBlob struct {
	// Input tensor name.
	// example: INPUT0
	Name string `json:"name" example:"INPUT0"`
	// Raw little-endian tensor bytes, base64-encoded in JSON.
	Data []byte `json:"data"`
}

// InferOutputBlob carries the raw bytes of one produced output over HTTP.
type InferOutputBlob struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// InferRequest is the JSON body accepted by POST /api/infer/{model}.
type InferRequest struct {
	// Structured request header.
	Header InferRequestHeader `json:"header"`
	// Raw input data, one blob per input tensor named in the header.
	Inputs []InferInputBlob `json:"inputs"`
}

// InferResponse is the JSON body produced by POST /api/infer/{model}.
type InferResponse struct {
	Header  InferResponseHeader `json:"header"`
	Outputs []InferOutputBlob   `json:"outputs"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	// Health probe result.
	// example: true
	Healthy bool `json:"healthy" example:"true"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: model not found
	Error string `json:"error" example:"model not found"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
	// Engine status code name, when the failure originated in the engine.
	// example: NOT_FOUND
	Status string `json:"status,omitempty" example:"NOT_FOUND"`
}
