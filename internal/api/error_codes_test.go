package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"golang.org/x/oauth2"
)

func TestErrorCodeFromStatus(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		want       ErrorCode
	}{
		{"400 Bad Request", 400, ErrBadRequest},
		{"401 Unauthorized", 401, ErrUnauthorized},
		{"403 Forbidden", 403, ErrForbidden},
		{"404 Not Found", 404, ErrNotFound},
		{"409 Conflict", 409, ErrConflict},
		{"422 Validation", 422, ErrValidation},
		{"429 Rate Limited", 429, ErrRateLimited},
		{"500 Server Error", 500, ErrServerError},
		{"503 Service Unavailable", 503, ErrServerError},
		{"200 OK (unknown)", 200, ErrUnknown},
		{"418 Teapot (unknown)", 418, ErrUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCodeFromStatus(tt.statusCode); got != tt.want {
				t.Errorf("ErrorCodeFromStatus(%d) = %v, want %v", tt.statusCode, got, tt.want)
			}
		})
	}
}

func TestErrorCode_IsRetryable(t *testing.T) {
	retryable := map[ErrorCode]bool{
		ErrRateLimited:  true,
		ErrServerError:  true,
		ErrTimeout:      true,
		ErrBadRequest:   false,
		ErrUnauthorized: false,
		ErrValidation:   false,
		ErrConfig:       false,
		ErrUnknown:      false,
	}
	for code, want := range retryable {
		if got := code.IsRetryable(); got != want {
			t.Errorf("%s.IsRetryable() = %v, want %v", code, got, want)
		}
	}
}

func TestErrorCode_Suggestion(t *testing.T) {
	for _, code := range []ErrorCode{ErrUnauthorized, ErrForbidden, ErrNotFound, ErrValidation, ErrConfig, ErrTimeout} {
		if code.Suggestion() == "" {
			t.Errorf("%s should have a suggestion", code)
		}
	}
	if ErrUnknown.Suggestion() != "" {
		t.Error("unknown errors have no suggestion")
	}
}

func TestStructuredErrorFromError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  ErrorCode
		wantRetry bool
	}{
		{"api 404", &APIError{StatusCode: 404, Body: `{"message":"gone"}`}, ErrNotFound, false},
		{"wrapped api 503", fmt.Errorf("page 2: %w", &APIError{StatusCode: 503}), ErrServerError, true},
		{"validation", &ValidationError{Module: "media", Fields: []string{"id"}}, ErrValidation, false},
		{"config", &ConfigError{Field: "base_url", Reason: "bad"}, ErrConfig, false},
		{"credential", &CredentialError{Err: ErrNoCredential}, ErrUnauthorized, false},
		{"oauth", &CredentialError{Reason: "token refresh failed", Err: &oauth2.RetrieveError{ErrorCode: "invalid_grant"}}, ErrUnauthorized, false},
		{"deadline", fmt.Errorf("request failed: %w", context.DeadlineExceeded), ErrTimeout, true},
		{"other", errors.New("something odd"), ErrUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StructuredErrorFromError(tt.err)
			if got == nil {
				t.Fatal("expected a structured error")
			}
			if got.Code != tt.wantCode {
				t.Errorf("Code = %v, want %v", got.Code, tt.wantCode)
			}
			if got.Retryable != tt.wantRetry {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.wantRetry)
			}
		})
	}

	if StructuredErrorFromError(nil) != nil {
		t.Error("nil error should map to nil")
	}
}

func TestStructuredErrorFromError_ValidationContext(t *testing.T) {
	got := StructuredErrorFromError(&ValidationError{Module: "users", Fields: []string{"password"}})
	if got.Context["status_code"] != 0 {
		t.Errorf("status_code = %v, want 0", got.Context["status_code"])
	}
	if got.Context["module"] != "users" {
		t.Errorf("module = %v", got.Context["module"])
	}
}

func TestStructuredErrorFromAPIError(t *testing.T) {
	got := StructuredErrorFromAPIError(&APIError{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error":"slow down"}`,
		RequestID:  "req-9",
	})
	if got.Code != ErrRateLimited || !got.Retryable {
		t.Errorf("unexpected code %v retryable %v", got.Code, got.Retryable)
	}
	if got.Message != "slow down" {
		t.Errorf("Message = %q", got.Message)
	}
	if got.Context["request_id"] != "req-9" {
		t.Errorf("request_id = %v", got.Context["request_id"])
	}
}

func TestStructuredError_JSON(t *testing.T) {
	err := NewStructuredError(ErrNotFound, "media not found")
	data, marshalErr := json.Marshal(err)
	if marshalErr != nil {
		t.Fatalf("marshal: %v", marshalErr)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["code"] != "not_found" {
		t.Errorf("code = %v", decoded["code"])
	}
	if decoded["retryable"] != false {
		t.Errorf("retryable = %v", decoded["retryable"])
	}
	if _, ok := decoded["context"]; ok {
		t.Error("empty context should be omitted")
	}
	if err.Error() != "[not_found] media not found" {
		t.Errorf("Error() = %q", err.Error())
	}
}
