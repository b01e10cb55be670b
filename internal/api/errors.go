package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// ErrNoCredential is wrapped by CredentialError when neither a permanent
// token nor an OAuth2 token has been configured.
var ErrNoCredential = errors.New("no credential configured: set a permanent token or complete the OAuth2 flow")

// APIError represents an error response from the API.
// Body holds the response body exactly as the server sent it.
type APIError struct {
	StatusCode int
	Status     string
	Body       string
	RequestID  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message())
}

// Message returns a short human readable description of the failure,
// preferring the server supplied message over the HTTP status text.
func (e *APIError) Message() string {
	if msg := summarizeErrorBody(e.Body); msg != "" {
		return msg
	}
	if e.Status != "" {
		return e.Status
	}
	return http.StatusText(e.StatusCode)
}

// ValidationError is returned when a required identifying parameter is
// missing. No request is sent when it occurs. Its status is always 0.
type ValidationError struct {
	Module string
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: missing required parameter(s): %s", e.Module, strings.Join(e.Fields, ", "))
}

// StatusCode is always 0 for validation errors.
func (e *ValidationError) StatusCode() int { return 0 }

// ConfigError represents an invalid client configuration detected at
// construction time.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration (%s): %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid configuration (%s): %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CredentialError represents a missing or unusable credential at send time.
type CredentialError struct {
	Reason string
	Err    error
}

func (e *CredentialError) Error() string {
	switch {
	case e.Reason != "" && e.Err != nil:
		return fmt.Sprintf("credential error: %s: %v", e.Reason, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("credential error: %v", e.Err)
	default:
		return fmt.Sprintf("credential error: %s", e.Reason)
	}
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if the error is a missing parameter error.
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsCredentialError checks if the error is a credential error.
func IsCredentialError(err error) bool {
	var e *CredentialError
	return errors.As(err, &e)
}

// IsConfigError checks if the error is a configuration error.
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}

// IsNotFoundError checks if the error indicates a resource was not found.
func IsNotFoundError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusNotFound
	}
	return false
}

type requiredField struct {
	name  string
	value string
}

// requireFields returns a ValidationError naming every blank field.
func requireFields(module string, fields ...requiredField) error {
	var missing []string
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Module: module, Fields: missing}
}

// summarizeErrorBody extracts the error/message fields of a JSON error
// response. It returns "" when the body is not a recognised JSON error.
func summarizeErrorBody(body string) string {
	var errResp struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Errors  any    `json:"errors"`
	}
	if err := json.Unmarshal([]byte(body), &errResp); err != nil {
		return ""
	}

	var result string
	if errResp.Message != "" {
		result = errResp.Message
	} else if errResp.Error != "" {
		result = errResp.Error
	}

	if details := formatValidationErrors(errResp.Errors); details != "" {
		if result != "" {
			return result + "\n" + details
		}
		return details
	}
	return result
}

// formatValidationErrors handles both {"field": "msg"} and
// {"field": ["msg", ...]} shapes.
func formatValidationErrors(errs any) string {
	errMap, ok := errs.(map[string]any)
	if !ok || len(errMap) == 0 {
		return ""
	}

	var lines []string
	for field, value := range errMap {
		switch v := value.(type) {
		case string:
			lines = append(lines, fmt.Sprintf("  %s: %s", field, v))
		case []any:
			for _, msg := range v {
				if s, ok := msg.(string); ok {
					lines = append(lines, fmt.Sprintf("  %s: %s", field, s))
				}
			}
		}
	}
	if len(lines) == 0 {
		return ""
	}

	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func requestIDFromHeader(header http.Header) string {
	if header == nil {
		return ""
	}
	return header.Get("X-Request-Id")
}
