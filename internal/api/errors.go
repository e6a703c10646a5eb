package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"repoviz/internal/errors"
)

// ErrorResponse represents an HTTP error response
type ErrorResponse struct {
	Error          string             `json:"error"`
	Code           string             `json:"code"`
	Details        interface{}        `json:"details,omitempty"`
	SuggestedFixes []errors.FixAction `json:"suggestedFixes,omitempty"`
}

// WriteError writes err with the status its code maps to. Errors without a
// code are reported as INTERNAL_ERROR without their message.
func WriteError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Code: string(errors.InternalError), Error: "Internal server error"}

	var re *errors.RepovizError
	if stderrors.As(err, &re) {
		resp.Code = string(re.Code)
		resp.Error = re.Message
		resp.Details = re.Details
		resp.SuggestedFixes = re.SuggestedFixes
	}
	WriteJSON(w, resp, StatusForCode(errors.ErrorCode(resp.Code)))
}

// StatusForCode maps error codes to HTTP status codes
func StatusForCode(code errors.ErrorCode) int {
	switch code {
	case errors.InvalidInput:
		return http.StatusBadRequest // 400
	case errors.Unauthorized:
		return http.StatusUnauthorized // 401
	case errors.ScanNotFound:
		return http.StatusNotFound // 404
	case errors.UploadTooLarge:
		return http.StatusRequestEntityTooLarge // 413
	case errors.UnsupportedArchive:
		return http.StatusUnsupportedMediaType // 415
	case errors.NoSourceFiles:
		return http.StatusUnprocessableEntity // 422
	case errors.CloneFailed, errors.LLMFailed:
		return http.StatusBadGateway // 502
	case errors.LLMUnavailable:
		return http.StatusServiceUnavailable // 503
	case errors.Timeout:
		return http.StatusGatewayTimeout // 504
	default:
		return http.StatusInternalServerError // 500
	}
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// BadRequest writes a 400 Bad Request error
func BadRequest(w http.ResponseWriter, message string) {
	WriteError(w, errors.New(errors.InvalidInput, message, nil))
}
