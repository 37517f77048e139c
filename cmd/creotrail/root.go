package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"creotrail/validator/pkg/cli"
	"creotrail/validator/pkg/client"
	"creotrail/validator/pkg/config"
	"creotrail/validator/pkg/security/password"
	"creotrail/validator/pkg/security/secrets"
	"creotrail/validator/pkg/security/tls"
	"creotrail/validator/pkg/store"
	"creotrail/validator/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile   string
	verbose   bool
	serverURL string
)

var rootCmd = &cobra.Command{
	Use:   "creotrail",
	Short: "Creotrail - dynamic/static command classification backend",
	Long: `Creotrail serves the command classification API and provides admin
tooling around it.

Validators review commands taken from a log corpus and mark each one as
dynamic or static. Progress is stored per user so a review resumes where it
stopped. Admins browse statistics and per-validator history.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "API base URL for client commands (overrides client.base_url)")
}

// loadConfig reads the config file (a missing file means defaults),
// resolves secret references and publishes the result as the process-wide
// configuration.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.WrapConfigError("", "failed to load config", err)
	}

	providers := []secrets.SecretProvider{secrets.NewEnvProvider("")}
	if dir := cfg.Security.SecretsDir; dir != "" {
		files, err := secrets.NewFileProvider(dir)
		if err != nil {
			return nil, cli.WrapConfigError("security.secrets_dir", "unusable secrets directory", err)
		}
		providers = append(providers, files)
	}
	if err := config.ResolveSecrets(ctx, cfg, secrets.NewResolver(nil, providers...)); err != nil {
		return nil, cli.WrapConfigError("", "failed to resolve secrets", err)
	}

	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		RedactPII: cfg.Telemetry.Logging.RedactPII,
		Writer:    w,
	})
	if err != nil {
		return nil, cli.WrapConfigError("telemetry.logging", "invalid logging config", err)
	}
	return logger, nil
}

// openStore opens the configured database, creating the SQLite directory
// when needed.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.SQLStore, error) {
	db := cfg.Database
	if (db.Driver == "sqlite" || db.Driver == "sqlite3") && db.Path != "" {
		if err := os.MkdirAll(filepath.Dir(db.Path), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	return store.Open(ctx, store.Config{
		Driver:         db.Driver,
		Path:           db.Path,
		DSN:            db.DSN,
		Layout:         store.Layout(db.Layout),
		MaxOpenConns:   db.MaxOpenConns,
		MaxIdleConns:   db.MaxIdleConns,
		WALMode:        db.WALMode,
		BusyTimeout:    db.BusyTimeout,
		ConnectTimeout: db.ConnectTimeout,
		HistoryLimit:   cfg.History.MaxRows,
		Hasher:         password.NewHasher(cfg.Security.BcryptCost),
		Clock:          clockwork.NewRealClock(),
		Logger:         logger,
	})
}

// withStore loads config, opens the store and runs fn. Logs go to stderr so
// command output stays clean.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, s *store.SQLStore, cfg *config.Config, logger *slog.Logger) error) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	s, err := openStore(ctx, cfg, logger)
	if err != nil {
		return cli.NewCommandError(cmd.Name(), err)
	}
	defer s.Close()

	return fn(ctx, s, cfg, logger)
}

// newClient builds an API client from config, honouring --server.
func newClient(cfg *config.Config) (*client.Client, error) {
	base := cfg.Client.BaseURL
	if serverURL != "" {
		base = serverURL
	}
	tlsCfg, err := tls.NewClientConfig(cfg.Client.CAFile)
	if err != nil {
		return nil, cli.WrapConfigError("client.ca_file", "cannot load CA bundle", err)
	}
	return client.New(base,
		client.WithTimeout(cfg.Client.Timeout),
		client.WithTLSConfig(tlsCfg),
		client.WithAPIKey(cfg.Client.APIKey),
	), nil
}
