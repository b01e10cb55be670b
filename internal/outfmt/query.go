// internal/outfmt/query.go
package outfmt

import (
	"context"
	"encoding/json"
	"io"

	"github.com/bynder/bynder-cli/internal/filter"
)

type queryKey struct{}

// WithQuery adds a jq query to the context
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey{}, query)
}

// GetQuery retrieves the jq query from context
func GetQuery(ctx context.Context) string {
	if q, ok := ctx.Value(queryKey{}).(string); ok {
		return q
	}
	return ""
}

// WriteJSONFiltered writes JSON with optional jq filtering.
// Uses pretty-printed output by default; pass compact=true for single-line output.
func WriteJSONFiltered(w io.Writer, v any, query string, compact bool) error {
	result, err := ApplyQuery(v, query)
	if err != nil {
		return err
	}
	return WriteJSONMaybeCompact(w, result, compact)
}

// WriteJSONLines writes each list item on its own line. Values that are not
// lists are written as a single line.
func WriteJSONLines(w io.Writer, v any, query string) error {
	result, err := ApplyQuery(v, query)
	if err != nil {
		return err
	}

	items := []any{result}
	if m, ok := result.(map[string]any); ok && query == "" {
		if list, ok := m["items"].([]any); ok && len(m) == 1 {
			items = list
		}
	} else if list, ok := result.([]any); ok {
		items = list
	}

	for _, item := range items {
		if err := WriteJSONMaybeCompact(w, item, true); err != nil {
			return err
		}
	}
	return nil
}

// ApplyQuery normalizes v and applies a jq query to it. The result is
// decoded JSON (maps, slices, float64 and so on).
func ApplyQuery(v any, query string) (any, error) {
	v = normalizeJSONOutput(v)

	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if query == "" {
		var out any
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	return filter.ApplyFromJSON(data, query)
}
