package financesdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ============================================================================
// Validation errors
// ============================================================================

var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrMissingDate        = errors.New("date is required")
	ErrInvalidDate        = errors.New("date must be YYYY-MM-DD")
	ErrInvalidType        = errors.New("transaction type must be INCOME or EXPENSE")
	ErrInvalidCategory    = errors.New("unknown category")
	ErrCategoryRequired   = errors.New("category is required for expenses")
	ErrCategoryNotAllowed = errors.New("income cannot have a category")
	ErrDescriptionTooLong = errors.New("description is too long")
	ErrInvalidGoal        = errors.New("goal amount cannot be negative")
	ErrInvalidPlan        = errors.New("plan must be FREE or PREMIUM")
	ErrInvalidRole        = errors.New("role must be USER or ADMIN")
	ErrInvalidID          = errors.New("id must be positive")
	ErrMissingCredentials = errors.New("username and password are required")
	ErrNoRefreshToken     = errors.New("no refresh token stored")
	ErrNoAccessToken      = errors.New("response carried no access token")
)

// ValidationError is returned before any request is sent when input fails a
// client-side check. It unwraps to one of the Err* sentinels above.
type ValidationError struct {
	Field  string
	Reason string
	err    error
}

func invalid(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Reason: err.Error(), err: err}
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.err }

// ============================================================================
// APIError - non-2xx responses
// ============================================================================

// APIError is a non-2xx response from the backend, after the refresh
// protocol has had its one chance.
type APIError struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// Status is the status text, e.g. "Bad Request"
	Status string

	// Message is the payload's "detail" field, or Status when absent
	Message string

	// Payload is the decoded JSON body, or nil if the body was not JSON
	Payload any

	// Body is the raw response body
	Body []byte
}

func newAPIError(resp *Response) *APIError {
	e := &APIError{
		StatusCode: resp.StatusCode,
		Status:     http.StatusText(resp.StatusCode),
		Body:       resp.Body,
	}

	var payload any
	if len(resp.Body) > 0 && json.Unmarshal(resp.Body, &payload) == nil {
		e.Payload = payload
	}

	if m, ok := e.Payload.(map[string]any); ok {
		if detail, ok := m["detail"].(string); ok && detail != "" {
			e.Message = detail
		}
	}
	if e.Message == "" {
		e.Message = e.Status
	}
	if e.Message == "" {
		e.Message = "API error"
	}

	return e
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }
func (e *APIError) IsForbidden() bool    { return e.StatusCode == http.StatusForbidden }
func (e *APIError) IsNotFound() bool     { return e.StatusCode == http.StatusNotFound }
func (e *APIError) IsServer() bool       { return e.StatusCode >= 500 }

// FieldErrors returns the per-field messages of a validation payload such as
// {"amount": ["A valid number is required."]}. The "detail" key is excluded.
func (e *APIError) FieldErrors() map[string][]string {
	m, ok := e.Payload.(map[string]any)
	if !ok {
		return nil
	}

	out := make(map[string][]string)
	for field, v := range m {
		if field == "detail" {
			continue
		}
		switch val := v.(type) {
		case string:
			out[field] = []string{val}
		case []any:
			for _, item := range val {
				if s, ok := item.(string); ok {
					out[field] = append(out[field], s)
				}
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Details renders Message followed by any field errors, sorted by field.
func (e *APIError) Details() string {
	fields := e.FieldErrors()
	if len(fields) == 0 {
		return e.Message
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(fields[name], " "))
	}
	m, _ := e.Payload.(map[string]any)
	if _, hasDetail := m["detail"]; hasDetail {
		return e.Message + " (" + strings.Join(parts, "; ") + ")"
	}
	return strings.Join(parts, "; ")
}

// ============================================================================
// TransportError - the request never produced a response
// ============================================================================

// TransportError wraps a network failure. It is never retried.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ============================================================================
// Helpers
// ============================================================================

// AsAPIError returns the *APIError in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.IsUnauthorized()
}
