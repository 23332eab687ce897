// Package response provides plain HTTP response helpers for code that
// runs outside the API framework, such as router middleware.
package response

import (
	"encoding/json/v2"
	"net/http"
)

// Envelope is the wire shape used for middleware-level responses.
type Envelope struct {
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
}

// JSON writes v wrapped in a success envelope.
func JSON(w http.ResponseWriter, status int, v any) {
	write(w, status, Envelope{Data: v, Success: true})
}

// Error writes an error envelope with the given code and message.
func Error(w http.ResponseWriter, status int, code, message string) {
	write(w, status, Envelope{Error: code, Message: message, Success: false})
}

// TooManyRequests writes the standard rate limit response.
func TooManyRequests(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "60")
	Error(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, slow down")
}

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.MarshalWrite(w, env)
}
