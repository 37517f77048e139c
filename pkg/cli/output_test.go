package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleTable() *Table {
	t := &Table{Header: []string{"name", "count"}}
	t.Append("ada", "3")
	t.Append("bob, jr", "0")
	return t
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{" JSON ", FormatJSON, false},
		{"csv", FormatCSV, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
		var ce *ConfigError
		if tt.wantErr && !errors.As(err, &ce) {
			t.Errorf("ParseFormat(%q) error should be a ConfigError", tt.in)
		}
	}
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, FormatTable, sampleTable()); err != nil {
		t.Fatalf("Print() failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"name", "count", "ada", "bob, jr", "+"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestCSVFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, FormatCSV, sampleTable()); err != nil {
		t.Fatalf("Print() failed: %v", err)
	}
	want := "name,count\nada,3\n\"bob, jr\",0\n"
	if buf.String() != want {
		t.Errorf("csv = %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := (CSVFormatter{NoHeader: true}).FormatTo(&buf, sampleTable()); err != nil {
		t.Fatalf("FormatTo() failed: %v", err)
	}
	if strings.HasPrefix(buf.String(), "name") {
		t.Errorf("header written with NoHeader: %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, FormatJSON, sampleTable()); err != nil {
		t.Fatalf("Print() failed: %v", err)
	}

	var got []map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	want := []map[string]string{{"name": "ada", "count": "3"}, {"name": "bob, jr", "count": "0"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()
	tbl := sampleTable()
	tbl.Data = map[string]int{"total": 2}
	if err := (JSONFormatter{}).FormatTo(&buf, tbl); err != nil {
		t.Fatalf("FormatTo() failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != `{"total":2}` {
		t.Errorf("Data not encoded: %q", buf.String())
	}
}

func TestJSONFormatter_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := Print(&buf, FormatJSON, &Table{Header: []string{"a"}}); err != nil {
		t.Fatalf("Print() failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty table = %q, want []", buf.String())
	}
}
