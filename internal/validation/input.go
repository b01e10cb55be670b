package validation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Input length limits to prevent resource exhaustion
const (
	MaxJSONPayload = 1048576 // 1MB for JSON payloads
	MaxURLLength   = 2048    // Standard browser URL limit
)

// ValidateJSONPayload validates JSON payload size
func ValidateJSONPayload(payload string) error {
	if payload == "" {
		return fmt.Errorf("JSON payload cannot be empty")
	}

	// Use byte length for JSON payloads as they're transmitted as UTF-8
	length := len(payload)
	if length > MaxJSONPayload {
		return fmt.Errorf("JSON payload exceeds maximum size of %d bytes (got %d)", MaxJSONPayload, length)
	}

	return nil
}

// ParseJSONObject validates the payload size and decodes it as a JSON object.
func ParseJSONObject(payload string) (map[string]any, error) {
	payload = strings.TrimSpace(payload)
	if err := ValidateJSONPayload(payload); err != nil {
		return nil, err
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(payload), &obj); err != nil {
		return nil, fmt.Errorf("invalid JSON object: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("invalid JSON object: got null")
	}
	return obj, nil
}

// SplitList splits a comma separated flag value, dropping blanks.
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
