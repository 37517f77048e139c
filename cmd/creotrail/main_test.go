package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"creotrail/validator/pkg/config"
	"creotrail/validator/pkg/corpus"
	"creotrail/validator/pkg/security/password"
	"creotrail/validator/pkg/server"
	"creotrail/validator/pkg/store"
)

// testEnv is a config file pointing at a fresh SQLite database.
type testEnv struct {
	dir        string
	configPath string
	dbPath     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		dbPath:     filepath.Join(dir, "data", "creotrail.db"),
	}
	if err := os.MkdirAll(filepath.Dir(env.dbPath), 0o755); err != nil {
		t.Fatal(err)
	}

	cfg := `
database:
  driver: sqlite
  path: ` + env.dbPath + `
security:
  bcrypt_cost: 4
telemetry:
  logging:
    level: error
`
	if err := os.WriteFile(env.configPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return env
}

// openStore opens the env's database directly.
func (e *testEnv) openStore(t *testing.T) *store.SQLStore {
	t.Helper()
	s, err := store.Open(context.Background(), store.Config{
		Driver: "sqlite",
		Path:   e.dbPath,
		Hasher: password.NewHasher(bcrypt.MinCost),
	})
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// startServer serves the API over the env's database.
func (e *testEnv) startServer(t *testing.T) string {
	t.Helper()
	cfg, err := config.LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() failed: %v", err)
	}
	srv := server.NewServer(cfg, server.Deps{
		Store:  e.openStore(t),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func resetFlags() {
	cfgFile = "config.yaml"
	verbose = false
	serverURL = ""
	serveFlags.listenAddress, serveFlags.logLevel, serveFlags.dryRun = "", "", false
	usersFlags.name, usersFlags.email, usersFlags.password = "", "", ""
	usersFlags.role, usersFlags.format = store.RoleValidator, "table"
	corpusFlags.file, corpusFlags.watch, corpusFlags.maxFileSize = "", false, corpus.DefaultMaxFileSize
	statsFlags.format = "table"
	historyFlags.userID, historyFlags.cmdID = 0, 0
	historyFlags.start, historyFlags.end, historyFlags.typ, historyFlags.format = "", "", "all", "table"
	reviewFlags.userID, reviewFlags.restart = 0, false
	certsFlags.format, certsFlags.certFile, certsFlags.keyFile = "table", "", ""
}

// run executes the root command with args and returns stdout.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	defer resetFlags()

	var out, errOut bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	// cobra only fills in a subcommand's context when it is nil, so the
	// previous run's cancelled context would otherwise stick.
	setContext(ctx, rootCmd)

	err := rootCmd.ExecuteContext(ctx)
	if errOut.Len() > 0 {
		t.Logf("stderr: %s", errOut.String())
	}
	return out.String(), err
}

func setContext(ctx context.Context, cmd *cobra.Command) {
	cmd.SetContext(ctx)
	for _, sub := range cmd.Commands() {
		setContext(ctx, sub)
	}
}

func mustRun(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	out, err := run(t, stdin, args...)
	if err != nil {
		t.Fatalf("creotrail %s failed: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}
