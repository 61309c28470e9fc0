package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
)

var (
	// ErrUnauthenticated is returned by calls that need a bearer token when
	// none was supplied. No request is sent.
	ErrUnauthenticated = errors.New("api: login required")

	// ErrEmptyQuery rejects a search without text.
	ErrEmptyQuery = errors.New("api: empty query")
)

// APIError is a non-2xx response from the service.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Detail)
}

// Unauthorized reports a rejected or expired token.
func (e *APIError) Unauthorized() bool { return e.Status == http.StatusUnauthorized }

// IsUnauthorized reports whether err is a 401 from the service.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Unauthorized()
}

// newAPIError reads the {"detail": ...} body. The service sends a string
// for application errors and a list of objects for request validation
// failures; anything else falls back to the raw body or status text.
func newAPIError(status int, body io.Reader) *APIError {
	e := &APIError{Status: status}
	raw, _ := io.ReadAll(body)

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(raw, &envelope) == nil && len(envelope.Detail) > 0 {
		var s string
		if json.Unmarshal(envelope.Detail, &s) == nil {
			e.Detail = s
			return e
		}
		var list []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(envelope.Detail, &list) == nil && len(list) > 0 && list[0].Msg != "" {
			e.Detail = list[0].Msg
			return e
		}
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && len(trimmed) < 200 {
		e.Detail = string(trimmed)
		return e
	}
	e.Detail = http.StatusText(status)
	return e
}
