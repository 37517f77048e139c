package export

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"creotrail/validator/pkg/store"
)

// CSVExporter exports history rows to CSV format.
type CSVExporter struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(includeHeader bool) *CSVExporter {
	return &CSVExporter{
		IncludeHeader: includeHeader,
	}
}

// ContentType implements Exporter.
func (e *CSVExporter) ContentType() string { return "text/csv; charset=utf-8" }

// Format implements Exporter.
func (e *CSVExporter) Format() string { return FormatCSV }

// Export writes history rows to w in CSV format. Timestamps use RFC 3339
// with fractional seconds in UTC.
func (e *CSVExporter) Export(ctx context.Context, entries []store.HistoryEntry, w io.Writer) error {
	writer := csv.NewWriter(w)

	if e.IncludeHeader {
		if err := writer.Write(headerRow()); err != nil {
			return NewExportError(FormatCSV, len(entries), err)
		}
	}

	for i := range entries {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := writer.Write(entryToRow(&entries[i])); err != nil {
			return NewExportError(FormatCSV, len(entries), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return NewExportError(FormatCSV, len(entries), err)
	}
	return nil
}

func headerRow() []string {
	return []string{"id", "command_id", "command_text", "action", "processed_time"}
}

func entryToRow(e *store.HistoryEntry) []string {
	return []string{
		strconv.FormatInt(e.ID, 10),
		strconv.FormatInt(e.CommandID, 10),
		e.CommandText,
		e.Action,
		e.ProcessedTime.UTC().Format(time.RFC3339Nano),
	}
}
