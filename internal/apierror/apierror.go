// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
// The desk side decodes the same envelope into Remote.
package apierror

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation error", Fields: fields}
}

// Remote is a non-2xx answer from the cash register API as seen by a client.
// Detail is empty when the payload carried no message.
type Remote struct {
	Status int
	Detail string
}

func (e *Remote) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("remote returned status %d", e.Status)
	}
	return fmt.Sprintf("remote returned status %d: %s", e.Status, e.Detail)
}

// ServerSide reports whether the failure was the server's (5xx) rather than a
// rejection of the request.
func (e *Remote) ServerSide() bool { return e.Status >= 500 }

// ParseRemote builds a Remote from a response status and body. It understands the
// {"detail": ...} envelope and the common "message" / "error" variants.
func ParseRemote(status int, body []byte) *Remote {
	e := &Remote{Status: status}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return e
	}
	for _, key := range []string{"detail", "message", "error"} {
		if s, ok := payload[key].(string); ok && strings.TrimSpace(s) != "" {
			e.Detail = s
			return e
		}
	}
	return e
}
