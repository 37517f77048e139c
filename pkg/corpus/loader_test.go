package corpus

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"creotrail/validator/pkg/store"
)

const sampleJSON = `[
  {"id": 2, "arguments": [
    {"id": 21, "full_command_line": "cp a b", "context_lines": "one\\ntwo"},
    {"id": 22, "full_command_line": "cp -r x y"}
  ]},
  {"id": 1, "arguments": []}
]`

const sampleYAML = `
- id: 2
  arguments:
    - id: 21
      full_command_line: cp a b
      context_lines: 'one\ntwo'
    - id: 22
      full_command_line: cp -r x y
- id: 1
  arguments: []
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func sampleCommands() []store.CorpusCommand {
	return []store.CorpusCommand{
		{ID: 2, Arguments: []store.CorpusArgument{
			{ID: 21, FullCommandLine: "cp a b", Context: `one\ntwo`},
			{ID: 22, FullCommandLine: "cp -r x y"},
		}},
		{ID: 1, Arguments: []store.CorpusArgument{}},
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", "corpus.json", sampleJSON},
		{"yaml", "corpus.yaml", sampleYAML},
		{"yml upper case", "corpus.YML", sampleYAML},
		{"no extension is json", "corpus", sampleJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(writeFile(t, tt.file, tt.content), 0)
			if err != nil {
				t.Fatalf("Load() failed: %v", err)
			}
			if diff := cmp.Diff(sampleCommands(), got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		maxSize int64
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }, 0},
		{"directory", func(t *testing.T) string { return t.TempDir() }, 0},
		{"too large", func(t *testing.T) string { return writeFile(t, "c.json", sampleJSON) }, 10},
		{"invalid utf8", func(t *testing.T) string { return writeFile(t, "c.json", "[\xff]") }, 0},
		{"bad json", func(t *testing.T) string { return writeFile(t, "c.json", "{") }, 0},
		{"unknown field", func(t *testing.T) string { return writeFile(t, "c.json", `[{"id":1,"args":[]}]`) }, 0},
		{"unknown yaml field", func(t *testing.T) string {
			return writeFile(t, "c.yaml", "- id: 1\n  argumnets:\n    - id: 2\n      full_command_line: make\n")
		}, 0},
		{"unknown nested yaml field", func(t *testing.T) string {
			return writeFile(t, "c.yml", "- id: 1\n  arguments:\n    - id: 2\n      command: make\n")
		}, 0},
		{"zero command id", func(t *testing.T) string { return writeFile(t, "c.json", `[{"id":0}]`) }, 0},
		{"duplicate command", func(t *testing.T) string { return writeFile(t, "c.json", `[{"id":1},{"id":1}]`) }, 0},
		{"bad argument id", func(t *testing.T) string {
			return writeFile(t, "c.json", `[{"id":1,"arguments":[{"id":-1,"full_command_line":"x"}]}]`)
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t), tt.maxSize)
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("Load() error = %v, want *LoadError", err)
			}
			if le.Message == "" {
				t.Error("expected a message")
			}
		})
	}
}

type fakeImporter struct {
	got [][]store.CorpusCommand
	err error
}

func (f *fakeImporter) ImportCorpus(_ context.Context, commands []store.CorpusCommand) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.got = append(f.got, commands)
	n := 0
	for _, c := range commands {
		n += len(c.Arguments)
	}
	return n, nil
}

func TestSync(t *testing.T) {
	path := writeFile(t, "corpus.json", sampleJSON)
	imp := &fakeImporter{}

	n, err := Sync(context.Background(), path, 0, imp)
	if err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}
	if n != 2 || len(imp.got) != 1 {
		t.Errorf("Sync() = %d with %d imports", n, len(imp.got))
	}

	imp.err = store.ErrInvalidInput
	if _, err := Sync(context.Background(), path, 0, imp); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("Sync() error = %v, want ErrInvalidInput", err)
	}

	if _, err := Sync(context.Background(), filepath.Join(t.TempDir(), "x.json"), 0, imp); err == nil {
		t.Error("expected load error")
	}
}

func TestSync_RealStore(t *testing.T) {
	s, err := store.Open(context.Background(), store.Config{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "corpus.db"),
	})
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := Sync(context.Background(), writeFile(t, "corpus.yaml", sampleYAML), 0, s); err != nil {
		t.Fatalf("Sync() failed: %v", err)
	}

	rows, err := s.ContextsForCommand(context.Background(), 2)
	if err != nil {
		t.Fatalf("ContextsForCommand() failed: %v", err)
	}
	if len(rows) != 2 || rows[0].ContextLines != "one\ntwo" {
		t.Errorf("rows = %+v", rows)
	}
}
