package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/jonboulle/clockwork"

	"creotrail/validator/pkg/security/password"
)

// Layout selects how classification decisions are stored.
type Layout string

const (
	// LayoutShared keeps every decision in one table keyed by user id.
	LayoutShared Layout = "shared"
	// LayoutPerUser creates a dynamic and a static table for each user.
	LayoutPerUser Layout = "per_user"
)

const (
	defaultMaxOpenConns   = 10
	defaultMaxIdleConns   = 5
	defaultBusyTimeout    = 5 * time.Second
	defaultConnectTimeout = 30 * time.Second
	defaultHistoryLimit   = 2000
)

// Store is the data access surface used by the HTTP API and the CLI.
type Store interface {
	CreateUser(ctx context.Context, in NewUser) (*User, error)
	Authenticate(ctx context.Context, email, plain string) (*User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)

	CommandsWithContexts(ctx context.Context) ([]CorpusRow, error)
	ContextsForCommand(ctx context.Context, commandID int64) ([]CorpusRow, error)
	ImportCorpus(ctx context.Context, commands []CorpusCommand) (int, error)

	MarkCommand(ctx context.Context, userID, commandID int64, text string, c Classification) error
	LastProcessed(ctx context.Context, userID int64) (int64, error)
	UpdateLastProcessed(ctx context.Context, userID, lastCmdID int64) error

	Validators(ctx context.Context) ([]ValidatorRef, error)
	ValidatorStats(ctx context.Context, userID int64) (*ValidatorStats, error)
	UserCountsByRole(ctx context.Context) (*RoleCounts, error)
	RecentlyActiveValidators(ctx context.Context, limit int) ([]ActiveValidator, error)
	History(ctx context.Context, userID int64, filter HistoryFilter) ([]HistoryEntry, error)

	Ping(ctx context.Context) error
	Close() error
}

// Config configures an SQLStore.
type Config struct {
	// Driver is the database/sql driver: "sqlite", "sqlite3", "pgx" or "postgres".
	Driver string
	// Path is the SQLite database file.
	Path string
	// DSN is the PostgreSQL connection string.
	DSN    string
	Layout Layout

	MaxOpenConns int
	MaxIdleConns int
	WALMode      bool
	BusyTimeout  time.Duration

	// ConnectTimeout bounds the retry loop that waits for the database.
	ConnectTimeout time.Duration

	// HistoryLimit caps the rows a history query returns.
	HistoryLimit int

	Hasher *password.Hasher
	Clock  clockwork.Clock
	Logger *slog.Logger
}

// Validate fills defaults and rejects unusable settings.
func (c *Config) Validate() error {
	if c.Driver == "" {
		c.Driver = "sqlite"
	}
	if _, err := newDialect(c.Driver); err != nil {
		return err
	}
	switch c.Driver {
	case "sqlite", "sqlite3":
		if c.Path == "" {
			return errors.New("path is required for sqlite")
		}
	default:
		if c.DSN == "" {
			return errors.New("dsn is required for postgres")
		}
	}

	if c.Layout == "" {
		c.Layout = LayoutShared
	}
	if c.Layout != LayoutShared && c.Layout != LayoutPerUser {
		return fmt.Errorf("unknown layout %q", c.Layout)
	}

	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = defaultMaxOpenConns
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = defaultMaxIdleConns
	}
	if c.BusyTimeout == 0 {
		c.BusyTimeout = defaultBusyTimeout
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.HistoryLimit == 0 {
		c.HistoryLimit = defaultHistoryLimit
	}
	if c.HistoryLimit < 0 {
		return errors.New("history limit must be > 0")
	}

	if c.Hasher == nil {
		c.Hasher = password.NewHasher(0)
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// SQLStore implements Store on top of database/sql.
type SQLStore struct {
	db        *sql.DB
	cfg       Config
	dialect   dialect
	decisions decisionLog
	logger    *slog.Logger
}

var _ Store = (*SQLStore)(nil)

// Open connects to the configured database, waits for it to answer a ping
// and creates the schema.
func Open(ctx context.Context, cfg Config) (*SQLStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}

	d, _ := newDialect(cfg.Driver)
	logger := cfg.Logger.With("component", "store", "driver", cfg.Driver)

	dsn := cfg.DSN
	if !d.postgres {
		dsn = sqliteDSN(cfg.Driver, cfg.Path, cfg.WALMode, cfg.BusyTimeout)
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, NewStorageError(cfg.Driver, "open", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	attempts := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		if err := db.PingContext(ctx); err != nil {
			logger.Debug("database not ready", "attempt", attempts, "error", err)
			// A local SQLite file that cannot be opened will not appear later.
			if !d.postgres {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		return struct{}{}, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxElapsedTime(cfg.ConnectTimeout))
	if err != nil {
		db.Close()
		return nil, NewStorageError(cfg.Driver, "ping", err)
	}

	s := &SQLStore{
		db:      db,
		cfg:     cfg,
		dialect: d,
		logger:  logger,
	}
	switch cfg.Layout {
	case LayoutPerUser:
		s.decisions = &perUserLog{s: s}
	default:
		s.decisions = &sharedLog{s: s}
	}

	if err := s.initialize(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("store initialized",
		"layout", cfg.Layout,
		"max_open_conns", cfg.MaxOpenConns,
		"wal_mode", cfg.WALMode && !d.postgres,
	)
	return s, nil
}

// initialize creates the schema and verifies its version.
func (s *SQLStore) initialize(ctx context.Context) error {
	for _, stmt := range schemaStatements(s.dialect) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return s.fail("create_schema", err)
		}
	}
	s.logger.Debug("database schema created")

	if _, err := s.exec(ctx, insertSchemaVersion, SchemaVersion, s.now()); err != nil {
		return s.fail("insert_schema_version", err)
	}

	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx, getSchemaVersion).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return s.fail("get_schema_version", err)
	}
	if version.Int64 != SchemaVersion {
		return s.fail("schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version.Int64))
	}

	s.logger.Debug("schema version verified", "version", version.Int64)
	return nil
}

// Ping checks that the database is reachable.
func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return s.fail("ping", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *SQLStore) Close() error {
	if err := s.db.Close(); err != nil {
		return s.fail("close", err)
	}
	return nil
}

// Layout reports the decision layout in use.
func (s *SQLStore) Layout() Layout {
	return s.cfg.Layout
}

func (s *SQLStore) fail(op string, err error) error {
	return NewStorageError(s.cfg.Driver, op, err)
}

// now returns the clock time in UTC at microsecond precision, the finest
// both SQLite text timestamps and PostgreSQL TIMESTAMPTZ round-trip.
func (s *SQLStore) now() time.Time {
	return s.cfg.Clock.Now().UTC().Truncate(time.Microsecond)
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.dialect.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.dialect.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.dialect.rebind(query), args...)
}

// inTx runs fn in a transaction, committing when it returns nil.
func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// tableExists reports whether a table is present in the current schema.
func (s *SQLStore) tableExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.queryRow(ctx, s.dialect.tableExistsQuery(), name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// sqlTime scans timestamps that drivers may return as time.Time or as text.
// SQLite only attaches a declared type to plain column reads, so values from
// compound selects arrive as strings.
type sqlTime struct {
	Time  time.Time
	Valid bool
}

var sqlTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Scan implements sql.Scanner.
func (t *sqlTime) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = x.UTC(), true
		return nil
	case string:
		return t.parse(x)
	case []byte:
		return t.parse(string(x))
	default:
		return fmt.Errorf("cannot scan %T into timestamp", v)
	}
}

func (t *sqlTime) parse(s string) error {
	for _, layout := range sqlTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = parsed.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// ptr returns nil for NULL timestamps.
func (t sqlTime) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
