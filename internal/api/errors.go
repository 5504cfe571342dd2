package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrUnauthenticated is returned when no token is held or the backend
// rejected the one we sent. There is no refresh flow; the caller must
// re-authenticate.
var ErrUnauthenticated = errors.New("not authenticated")

// StatusError is a non-success HTTP response from the backend. Detail carries
// the body's error field when present.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// Is allows 401 responses to be matched against ErrUnauthenticated.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthenticated && e.Status == http.StatusUnauthorized
}

// errorFromResponse builds the error for a non-2xx response body. The backend
// reports failures as {"detail": "..."}.
func errorFromResponse(status int, body []byte) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Detail == "" {
		return &StatusError{Status: status}
	}
	return &StatusError{Status: status, Detail: payload.Detail}
}
