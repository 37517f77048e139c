package corpus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"creotrail/validator/pkg/store"
)

// DefaultMaxFileSize bounds the size of a corpus file.
const DefaultMaxFileSize int64 = 256 << 20

// Importer replaces the stored corpus. store.Store satisfies it.
type Importer interface {
	ImportCorpus(ctx context.Context, commands []store.CorpusCommand) (int, error)
}

// Load reads a corpus file. Files ending in .yaml or .yml are decoded as
// YAML, everything else as JSON. Both hold a list of commands with their
// arguments.
func Load(path string, maxSize int64) ([]store.CorpusCommand, error) {
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LoadError{FilePath: path, Message: "file not found", Cause: err}
		}
		return nil, &LoadError{FilePath: path, Message: "failed to access file", Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}
	if info.Size() > maxSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), maxSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}
	if !utf8.Valid(data) {
		return nil, &LoadError{FilePath: path, Message: "file contains invalid UTF-8 encoding"}
	}

	commands, err := decode(path, data)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "decode failed", Cause: err}
	}
	if err := validate(commands); err != nil {
		return nil, &LoadError{FilePath: path, Message: "invalid corpus", Cause: err}
	}
	return commands, nil
}

func decode(path string, data []byte) ([]store.CorpusCommand, error) {
	var commands []store.CorpusCommand

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&commands); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&commands); err != nil {
			return nil, err
		}
	}
	return commands, nil
}

func validate(commands []store.CorpusCommand) error {
	seen := make(map[int64]bool, len(commands))
	for i, cmd := range commands {
		if cmd.ID <= 0 {
			return fmt.Errorf("command #%d: id must be positive", i)
		}
		if seen[cmd.ID] {
			return fmt.Errorf("command %d listed twice", cmd.ID)
		}
		seen[cmd.ID] = true
		for j, arg := range cmd.Arguments {
			if arg.ID <= 0 {
				return fmt.Errorf("command %d argument #%d: id must be positive", cmd.ID, j)
			}
		}
	}
	return nil
}

// Sync loads the corpus file and hands it to the importer. It returns the
// number of arguments written.
func Sync(ctx context.Context, path string, maxSize int64, imp Importer) (int, error) {
	commands, err := Load(path, maxSize)
	if err != nil {
		return 0, err
	}
	n, err := imp.ImportCorpus(ctx, commands)
	if err != nil {
		return 0, fmt.Errorf("import corpus %q: %w", path, err)
	}
	return n, nil
}
