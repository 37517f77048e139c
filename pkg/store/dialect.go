package store

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// dialect captures the SQL differences between the supported drivers.
type dialect struct {
	driver   string
	postgres bool
}

func newDialect(driver string) (dialect, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return dialect{driver: driver}, nil
	case "pgx", "postgres":
		return dialect{driver: driver, postgres: true}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported driver %q", driver)
	}
}

// primaryKey is the column definition of an auto-incrementing id.
func (d dialect) primaryKey() string {
	if d.postgres {
		return "BIGSERIAL PRIMARY KEY"
	}
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (d dialect) timestamp() string {
	if d.postgres {
		return "TIMESTAMPTZ"
	}
	return "TIMESTAMP"
}

// rebind rewrites ? placeholders into $n for PostgreSQL. Queries in this
// package never contain a literal question mark.
func (d dialect) rebind(query string) string {
	if !d.postgres {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(query[i])
	}
	return sb.String()
}

// tableExistsQuery returns a query that yields one row when the named
// table exists.
func (d dialect) tableExistsQuery() string {
	if d.postgres {
		return "SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?"
	}
	return "SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?"
}

// sqliteDSN builds a connection string for the SQLite drivers. Pragmas go
// into the DSN so every pooled connection gets them.
func sqliteDSN(driver, path string, walMode bool, busyTimeout time.Duration) string {
	q := url.Values{}
	switch driver {
	case "sqlite":
		q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
		q.Add("_pragma", "foreign_keys(1)")
		if walMode {
			q.Add("_pragma", "journal_mode(WAL)")
		}
		// Store times in the same text layout mattn uses so string
		// comparisons order correctly.
		q.Set("_time_format", "sqlite")
	case "sqlite3":
		q.Set("_busy_timeout", strconv.FormatInt(busyTimeout.Milliseconds(), 10))
		q.Set("_foreign_keys", "1")
		if walMode {
			q.Set("_journal_mode", "WAL")
		}
	}
	return "file:" + path + "?" + q.Encode()
}

// isUniqueViolation reports whether err is a unique constraint failure
// from any of the supported drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	if ok, matched := mattnUniqueViolation(err); matched {
		return ok
	}

	var moderncErr *sqlite.Error
	if errors.As(err, &moderncErr) {
		return moderncErr.Code() == sqlitelib.SQLITE_CONSTRAINT_UNIQUE
	}

	return false
}
