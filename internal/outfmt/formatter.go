package outfmt

import (
	"context"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
)

// Formatter handles output formatting for commands.
type Formatter struct {
	ctx       context.Context
	out       io.Writer
	errOut    io.Writer
	tabWriter *tabwriter.Writer
}

// NewFormatter creates a new Formatter
func NewFormatter(ctx context.Context, out, errOut io.Writer) *Formatter {
	return &Formatter{
		ctx:       ctx,
		out:       out,
		errOut:    errOut,
		tabWriter: tabwriter.NewWriter(out, 0, 4, 2, ' ', 0),
	}
}

// Output writes data as JSON or JSON lines based on context format.
// In text mode it writes nothing; callers render their own tables.
func (f *Formatter) Output(data any) error {
	switch ModeFromContext(f.ctx) {
	case JSON:
		return WriteJSONFiltered(f.out, data, GetQuery(f.ctx), IsCompact(f.ctx))
	case JSONL:
		return WriteJSONLines(f.out, data, GetQuery(f.ctx))
	default:
		return nil
	}
}

// StartTable writes table headers. Returns true if in text mode.
func (f *Formatter) StartTable(headers []string) bool {
	if IsJSON(f.ctx) {
		return false
	}
	f.Row(headers...)
	return true
}

// Row writes a single row to the table.
func (f *Formatter) Row(columns ...string) {
	for i, col := range columns {
		if i > 0 {
			_, _ = fmt.Fprint(f.tabWriter, "\t")
		}
		_, _ = fmt.Fprint(f.tabWriter, col)
	}
	_, _ = fmt.Fprintln(f.tabWriter)
}

// EndTable flushes the table output.
func (f *Formatter) EndTable() error {
	return f.tabWriter.Flush()
}

// Record writes a single opaque record as sorted "key  value" rows. Nested
// values are shown as compact JSON.
func (f *Formatter) Record(record map[string]any) error {
	keys := make([]string, 0, len(record))
	for k := range record {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		f.Row(k, Cell(record[k]))
	}
	return f.EndTable()
}

// Empty writes a message to stderr indicating no results.
func (f *Formatter) Empty(message string) {
	_, _ = fmt.Fprintln(f.errOut, message)
}
