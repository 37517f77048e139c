package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// OutputFormat selects how command results are printed.
type OutputFormat string

const (
	// FormatTable renders an ASCII table (default).
	FormatTable OutputFormat = "table"
	// FormatJSON prints indented JSON.
	FormatJSON OutputFormat = "json"
	// FormatCSV prints comma-separated values with a header row.
	FormatCSV OutputFormat = "csv"
)

// ParseFormat validates a --format flag value. Empty means table.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", NewConfigError("format", fmt.Sprintf("unknown output format %q (want table, json or csv)", s))
	}
}

// Table is a command result. Header and Rows feed the table and CSV
// formatters; Data, when set, is what the JSON formatter encodes.
type Table struct {
	Header []string
	Rows   [][]string
	Data   any
}

// Append adds a row.
func (t *Table) Append(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Formatter writes a Table in one output format.
type Formatter interface {
	FormatTo(w io.Writer, t *Table) error
}

// TableFormatter renders bordered ASCII tables.
type TableFormatter struct{}

func (TableFormatter) FormatTo(w io.Writer, t *Table) error {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(true)
	table.SetHeader(t.Header)
	table.AppendBulk(t.Rows)
	table.Render()
	return nil
}

// JSONFormatter encodes Data, or the rows keyed by header when Data is nil.
type JSONFormatter struct {
	Indent bool
}

func (f JSONFormatter) FormatTo(w io.Writer, t *Table) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	if t.Data != nil {
		return enc.Encode(t.Data)
	}

	rows := make([]map[string]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		m := make(map[string]string, len(t.Header))
		for i, h := range t.Header {
			if i < len(r) {
				m[h] = r[i]
			}
		}
		rows = append(rows, m)
	}
	return enc.Encode(rows)
}

// CSVFormatter writes the header and rows as CSV.
type CSVFormatter struct {
	NoHeader bool
}

func (f CSVFormatter) FormatTo(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if !f.NoHeader {
		if err := cw.Write(t.Header); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// NewFormatter returns the formatter for format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return JSONFormatter{Indent: true}
	case FormatCSV:
		return CSVFormatter{}
	default:
		return TableFormatter{}
	}
}

// Print writes t to w in format.
func Print(w io.Writer, format OutputFormat, t *Table) error {
	return NewFormatter(format).FormatTo(w, t)
}
