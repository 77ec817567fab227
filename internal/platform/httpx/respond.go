// Package httpx provides JSON response utilities for the API surface.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
)

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends the single {"error": msg} error shape used by every endpoint.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// DecodeJSON decodes the request body into target, rejecting trailing data
// after the document. Unknown fields are ignored so older clients keep
// working across additive API changes.
func DecodeJSON(r *http.Request, target any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(target); err != nil {
		return err
	}
	// Trailing garbage after the JSON document is a client bug.
	if dec.More() {
		return errors.New("unexpected trailing data")
	}
	return nil
}
