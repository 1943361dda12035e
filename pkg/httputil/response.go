package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the standard error envelope
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`

	// Extra carries endpoint-specific diagnostic fields (e.g. the feature
	// name on a feature denial). Flattened into the envelope on encoding.
	Extra map[string]interface{} `json:"-"`
}

// MarshalJSON flattens Extra into the top-level envelope
func (e ErrorResponse) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"success": e.Success,
		"error":   e.Error,
	}
	if e.Code != "" {
		out["code"] = e.Code
	}
	for k, v := range e.Extra {
		out[k] = v
	}
	return json.Marshal(out)
}

// SuccessResponse is the standard success envelope
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteError writes the standard error envelope
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Success: false, Error: message})
}

// WriteErrorCode writes the standard error envelope with a machine-readable code
func WriteErrorCode(w http.ResponseWriter, status int, message, code string) {
	WriteJSON(w, status, ErrorResponse{Success: false, Error: message, Code: code})
}

// WriteErrorExtra writes the error envelope with additional diagnostic fields
func WriteErrorExtra(w http.ResponseWriter, status int, message string, extra map[string]interface{}) {
	WriteJSON(w, status, ErrorResponse{Success: false, Error: message, Extra: extra})
}

// WriteSuccess writes a 200 response with the success envelope
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: data})
}

// WriteCreated writes a 201 response with the success envelope
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Success: true, Data: data})
}

// WriteSuccessMessage writes a success envelope with a message
func WriteSuccessMessage(w http.ResponseWriter, message string, data interface{}) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: message, Data: data})
}

// WriteBadRequest writes a bad request error (400)
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes an unauthorized error (401)
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

// WriteForbidden writes a forbidden error (403)
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

// WriteNotFound writes a not found error (404)
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteTooManyRequests writes a rate limit error (429)
func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message)
}

// WriteInternalError writes an internal server error (500). The message must
// never carry internal identifiers or stack traces.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}
