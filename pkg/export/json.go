package export

import (
	"context"
	"encoding/json"
	"io"

	"creotrail/validator/pkg/store"
)

// JSONExporter exports history rows as a JSON array.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{
		Pretty: pretty,
	}
}

// ContentType implements Exporter.
func (e *JSONExporter) ContentType() string { return "application/json" }

// Format implements Exporter.
func (e *JSONExporter) Format() string { return FormatJSON }

// Export writes entries to w. An empty result is written as [] rather
// than null.
func (e *JSONExporter) Export(ctx context.Context, entries []store.HistoryEntry, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entries == nil {
		entries = []store.HistoryEntry{}
	}

	enc := json.NewEncoder(w)
	if e.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(entries); err != nil {
		return NewExportError(FormatJSON, len(entries), err)
	}
	return nil
}
