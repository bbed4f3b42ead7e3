// Package httpx provides JSON response and request helpers.
package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/storefront/storefront/internal/shared"
)

// maxBodyBytes bounds request bodies decoded by DecodeJSON.
const maxBodyBytes = 1 << 20

// FailureBody is the error payload for every non-401 failure.
type FailureBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// MessageBody is the error payload for 401 responses.
type MessageBody struct {
	Message string `json:"message"`
}

// SuccessBody acknowledges operations that return no resource.
type SuccessBody struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Fail sends {success:false, message}.
func Fail(w http.ResponseWriter, status int, message string) {
	JSON(w, status, FailureBody{Success: false, Message: message})
}

// Unauthorized sends a 401 with {message}.
func Unauthorized(w http.ResponseWriter, message string) {
	JSON(w, http.StatusUnauthorized, MessageBody{Message: message})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: malformed JSON body", shared.ErrValidation)
	}
	return nil
}
