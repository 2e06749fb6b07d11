package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	// ErrInvalidCredentials is returned by Login when the store rejects the
	// username/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthorized signals a missing, invalid, or expired token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden signals a valid token with insufficient role.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound signals an operation on a stale or deleted id.
	ErrNotFound = errors.New("not found")
)

// APIError is a non-2xx response decoded from the remote store. Code carries
// the store's application-level error code ("A104" etc.) when present.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Unwrap maps well-known status classes onto sentinel errors so callers can
// use errors.Is without inspecting status codes.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// decodeError drains a failed response into an APIError. The body is read
// fully so the connection can be reused.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err == nil && len(data) > 0 {
		var body errorBody
		if json.Unmarshal(data, &body) == nil {
			apiErr.Code = body.Code
			if body.Error != "" {
				apiErr.Message = body.Error
			} else if body.Message != "" {
				apiErr.Message = body.Message
			}
		}
	}
	return apiErr
}
