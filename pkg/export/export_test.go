package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"creotrail/validator/pkg/store"
)

func testEntries() []store.HistoryEntry {
	return []store.HistoryEntry{
		{ID: 1, CommandID: 10, CommandText: `echo "hi, there"`, Action: "Static", ProcessedTime: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)},
		{ID: 2, CommandID: 20, CommandText: "cp a b", Action: "Dynamic", ProcessedTime: time.Date(2024, 3, 1, 10, 0, 0, 500000000, time.UTC)},
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format      string
		wantFormat  string
		wantErr     bool
		contentType string
	}{
		{"", FormatJSON, false, "application/json"},
		{"JSON", FormatJSON, false, "application/json"},
		{"csv", FormatCSV, false, "text/csv; charset=utf-8"},
		{"xml", "", true, ""},
	}

	for _, tt := range tests {
		exp, err := ForFormat(tt.format, true)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownFormat) {
				t.Errorf("ForFormat(%q) error = %v, want ErrUnknownFormat", tt.format, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ForFormat(%q) failed: %v", tt.format, err)
		}
		if exp.Format() != tt.wantFormat || exp.ContentType() != tt.contentType {
			t.Errorf("ForFormat(%q) = %s/%s", tt.format, exp.Format(), exp.ContentType())
		}
	}
}

func TestCSVExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := NewCSVExporter(true).Export(context.Background(), testEntries(), &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	want := strings.Join([]string{
		"id,command_id,command_text,action,processed_time",
		`1,10,"echo ""hi, there""",Static,2024-03-01T09:30:00Z`,
		"2,20,cp a b,Dynamic,2024-03-01T10:00:00.5Z",
		"",
	}, "\n")
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("CSV mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	if err := NewCSVExporter(false).Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("headerless empty export wrote %q", buf.String())
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestExport_WriterError(t *testing.T) {
	for _, exp := range []Exporter{NewCSVExporter(true), NewJSONExporter(false)} {
		err := exp.Export(context.Background(), testEntries(), failingWriter{})
		var exportErr *ExportError
		if !errors.As(err, &exportErr) {
			t.Fatalf("%s: error = %v, want *ExportError", exp.Format(), err)
		}
		if exportErr.Format != exp.Format() || exportErr.RowCount != 2 {
			t.Errorf("%s: got %+v", exp.Format(), exportErr)
		}
	}
}

func TestJSONExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := NewJSONExporter(false).Export(context.Background(), testEntries(), &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}

	var got []store.HistoryEntry
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(testEntries(), got); diff != "" {
		t.Errorf("JSON mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	if err := NewJSONExporter(true).Export(context.Background(), nil, &buf); err != nil {
		t.Fatalf("Export() failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty export = %q, want []", buf.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewJSONExporter(false).Export(ctx, testEntries(), &buf); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled export error = %v", err)
	}
}
