package store

import (
	"fmt"
	"strings"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// schemaStatements returns the DDL for the shared tables. Statements are
// executed one at a time because not every driver accepts batches.
func schemaStatements(d dialect) []string {
	r := strings.NewReplacer(
		"{{pk}}", d.primaryKey(),
		"{{ts}}", d.timestamp(),
	)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at {{ts}} NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS users (
    id {{pk}},
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password TEXT NOT NULL,
    role TEXT NOT NULL DEFAULT 'validator',
    last_processed_cmd_id BIGINT NOT NULL DEFAULT 0,
    last_seen {{ts}},
    created_at {{ts}} NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)`,
		`CREATE TABLE IF NOT EXISTS commands (
    id BIGINT PRIMARY KEY
)`,
		`CREATE TABLE IF NOT EXISTS arguments (
    id BIGINT PRIMARY KEY,
    command_id BIGINT NOT NULL REFERENCES commands(id) ON DELETE CASCADE,
    full_command_line TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_arguments_command ON arguments(command_id)`,
		`CREATE TABLE IF NOT EXISTS contexts (
    id {{pk}},
    argument_id BIGINT NOT NULL UNIQUE REFERENCES arguments(id) ON DELETE CASCADE,
    context_lines TEXT
)`,
		`CREATE TABLE IF NOT EXISTS decisions (
    id {{pk}},
    user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    command_id BIGINT NOT NULL,
    command_text TEXT NOT NULL,
    classification TEXT NOT NULL,
    processed_time {{ts}} NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_user_command ON decisions(user_id, command_id)`,
		`CREATE INDEX IF NOT EXISTS idx_decisions_user_time ON decisions(user_id, processed_time)`,
	}

	for i, s := range stmts {
		stmts[i] = r.Replace(s)
	}
	return stmts
}

// perUserTable names the legacy decision table of one user. The name is
// built from the integer id only.
func perUserTable(c Classification, userID int64) string {
	return fmt.Sprintf("%s_cmds_user_%d", c, userID)
}

// perUserTableDDL creates one legacy decision table.
func perUserTableDDL(d dialect, c Classification, userID int64) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id %s,
    command_id BIGINT NOT NULL,
    command_text TEXT NOT NULL,
    processed_time %s NOT NULL
)`, perUserTable(c, userID), d.primaryKey(), d.timestamp())
}

const insertSchemaVersion = `INSERT INTO schema_version (version, applied_at) VALUES (?, ?)
ON CONFLICT (version) DO NOTHING`

const getSchemaVersion = `SELECT MAX(version) FROM schema_version`
