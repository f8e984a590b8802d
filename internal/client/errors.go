package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials is returned when login or registration is
	// rejected by the server. Non-fatal: the session stays signed out.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrNoRefreshToken is returned when a refresh is attempted without a
	// stored refresh token.
	ErrNoRefreshToken = errors.New("no refresh token available")

	// ErrRefreshFailed wraps any failure of the refresh exchange. Fatal to
	// the session: callers should send the user back to login.
	ErrRefreshFailed = errors.New("token refresh failed")

	// ErrSessionEnded means a logout cleared the token store while a
	// refresh exchange was in flight. The late token is discarded.
	ErrSessionEnded = errors.New("session ended during refresh")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api error: %d", e.Status)
	}
	return fmt.Sprintf("api error: %d: %s", e.Status, e.Detail)
}

// Is maps common statuses onto sentinel errors so callers can use errors.Is
// without digging the APIError out first.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// newAPIError extracts a human-readable detail from an error body. The
// backend answers with {"detail": ...} or {"error": ...}, and validation
// failures with a field-to-messages map.
func newAPIError(status int, body []byte) *APIError {
	return &APIError{Status: status, Detail: errorDetail(status, body)}
}

func errorDetail(status int, body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || len(payload) == 0 {
		return http.StatusText(status)
	}

	for _, key := range []string{"detail", "error"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var msg string
		if err := json.Unmarshal(raw, &msg); err == nil && msg != "" {
			return msg
		}
	}

	// Field validation errors: {"name": ["This field is required."], ...}
	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var parts []string
	for _, key := range keys {
		var msgs []string
		if err := json.Unmarshal(payload[key], &msgs); err == nil {
			parts = append(parts, fmt.Sprintf("%s: %s", key, strings.Join(msgs, ", ")))
			continue
		}
		var msg string
		if err := json.Unmarshal(payload[key], &msg); err == nil {
			parts = append(parts, fmt.Sprintf("%s: %s", key, msg))
		}
	}
	if len(parts) == 0 {
		return http.StatusText(status)
	}
	return strings.Join(parts, "; ")
}
