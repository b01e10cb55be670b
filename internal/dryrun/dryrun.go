// Package dryrun previews write requests without sending them.
package dryrun

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"sort"
)

type contextKey struct{}

// WithDryRun returns a context with dry-run mode enabled or disabled.
func WithDryRun(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, contextKey{}, enabled)
}

// IsEnabled reports whether dry-run mode is enabled.
func IsEnabled(ctx context.Context) bool {
	v, _ := ctx.Value(contextKey{}).(bool)
	return v
}

// Preview describes the request a write command would send.
type Preview struct {
	Action   string         `json:"action"`
	Resource string         `json:"resource"`
	ID       string         `json:"id,omitempty"`
	Method   string         `json:"method"`
	Path     string         `json:"path"`
	Fields   map[string]any `json:"fields,omitempty"`
	DryRun   bool           `json:"dry_run"`
}

// New builds a preview for action on resource.
func New(action, resource, id, method, path string) *Preview {
	return &Preview{
		Action:   action,
		Resource: resource,
		ID:       id,
		Method:   method,
		Path:     path,
		DryRun:   true,
	}
}

// WithFields attaches the request payload.
func (p *Preview) WithFields(fields map[string]any) *Preview {
	if len(fields) > 0 {
		p.Fields = fields
	}
	return p
}

// WithForm attaches a form payload, flattening single values.
func (p *Preview) WithForm(form url.Values) *Preview {
	fields := make(map[string]any, len(form))
	for key, values := range form {
		if len(values) == 1 {
			fields[key] = values[0]
		} else {
			fields[key] = values
		}
	}
	return p.WithFields(fields)
}

// Write renders the preview as text, fields sorted by key.
func (p *Preview) Write(w io.Writer) {
	target := p.Resource
	if p.ID != "" {
		target += " " + p.ID
	}
	_, _ = fmt.Fprintf(w, "[dry-run] would %s %s\n", p.Action, target)
	_, _ = fmt.Fprintf(w, "  %s %s\n", p.Method, p.Path)

	keys := make([]string, 0, len(p.Fields))
	for k := range p.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "  %s: %v\n", k, p.Fields[k])
	}
	_, _ = fmt.Fprintln(w, "No changes made.")
}
