package api

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DefaultPageSize is the page size Media().All requests when none is given.
const DefaultPageSize = 50

// Remote entities are passed through as opaque key-value payloads. Only
// the identifier fields needed for routing are ever inspected.
type (
	Media              map[string]any
	Metaproperty       map[string]any
	MetapropertyOption map[string]any
	SmartFilter        map[string]any
	LoginResult        map[string]any
	// Result is the body of a create, edit or delete response.
	Result map[string]any
)

// ID returns the "id" field of a metaproperty, or "".
func (m Metaproperty) ID() string {
	return stringField(m, "id")
}

// Name returns the "name" field of a metaproperty, or "".
func (m Metaproperty) Name() string {
	return stringField(m, "name")
}

// ID returns the "id" field of a media item, or "".
func (m Media) ID() string {
	return stringField(m, "id")
}

func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// FlexInt handles JSON numbers that may come as strings or integers
type FlexInt int

func (fi *FlexInt) UnmarshalJSON(data []byte) error {
	// Try as int first
	var i int
	if err := json.Unmarshal(data, &i); err == nil {
		*fi = FlexInt(i)
		return nil
	}
	// Try as string
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*fi = 0
			return nil
		}
		i, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*fi = FlexInt(i)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into FlexInt", data)
}
