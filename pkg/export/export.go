package export

import (
	"context"
	"fmt"
	"io"
	"strings"

	"creotrail/validator/pkg/store"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// Exporter writes history rows to w.
type Exporter interface {
	Export(ctx context.Context, entries []store.HistoryEntry, w io.Writer) error
	ContentType() string
	Format() string
}

// ForFormat returns the exporter for a format name. The empty string
// selects JSON.
func ForFormat(format string, csvHeader bool) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatJSON:
		return NewJSONExporter(false), nil
	case FormatCSV:
		return NewCSVExporter(csvHeader), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
