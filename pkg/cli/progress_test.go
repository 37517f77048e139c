package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "Reviewed")

	p.Start(1, 4)
	if !strings.Contains(buf.String(), "25.0% (1/4)") {
		t.Errorf("start output = %q", buf.String())
	}

	p.Update(9)
	if !strings.HasSuffix(buf.String(), "100.0% (4/4)") {
		t.Errorf("update should clamp to total: %q", buf.String())
	}

	p.Finish()
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Error("Finish should end the line")
	}
	if !strings.HasPrefix(buf.String(), "\rReviewed [") {
		t.Errorf("unexpected prefix: %q", buf.String())
	}
}

func TestProgress_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, "x")
	p.Start(0, 0)
	p.Update(3)
	if buf.Len() != 0 {
		t.Errorf("zero total should draw nothing, got %q", buf.String())
	}
}
