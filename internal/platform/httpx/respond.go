package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/odyssey-erp/storeledger/internal/shared"
)

// Result is the envelope returned by every operation. Success is true only when the
// operation was confirmed; callers must not treat a missing error as success.
type Result struct {
	Success bool              `json:"success"`
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
	Data    any               `json:"data,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// OK sends a confirmed success envelope.
func OK(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Result{Success: true, Status: StatusOK, Data: data})
}

// DecodeJSON decodes JSON request body into the target struct, rejecting unknown fields.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("%w: malformed payload: %v", shared.ErrValidation, err)
	}
	return nil
}
