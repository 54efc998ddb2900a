package httpapi

import (
	"encoding/json"
	"net/http"

	"inferd/pkg/serving"
	"inferd/pkg/types"
)

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeFacadeError maps a facade error to an HTTP status and writes it.
func writeFacadeError(w http.ResponseWriter, err *serving.Error) {
	status := httpStatusFor(err.Code())
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{
		Error:  err.Message(),
		Code:   status,
		Status: err.Code().String(),
	})
}

// httpStatusFor maps engine status codes onto HTTP status codes.
func httpStatusFor(code types.StatusCode) int {
	switch code {
	case types.StatusNotFound:
		return http.StatusNotFound
	case types.StatusInvalidArg, types.StatusUnsupported:
		return http.StatusBadRequest
	case types.StatusUnavailable:
		return http.StatusServiceUnavailable
	case types.StatusAlreadyExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
