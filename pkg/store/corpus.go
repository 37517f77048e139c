package store

import (
	"context"
	"database/sql"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"creotrail/validator/pkg/telemetry/tracing"
)

// UnescapeContext decodes a stored context blob. The two-character
// sequence `\n` becomes a newline, then `\\` becomes a single backslash.
func UnescapeContext(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, `\n`, "\n"), `\\`, `\`)
}

const corpusSelect = `SELECT a.id, a.command_id, a.full_command_line, c.context_lines
FROM arguments a
JOIN commands cmd ON cmd.id = a.command_id
LEFT JOIN contexts c ON c.argument_id = a.id`

// CommandsWithContexts returns every argument with its command id and
// unescaped context, ordered by command id then argument id.
func (s *SQLStore) CommandsWithContexts(ctx context.Context) ([]CorpusRow, error) {
	rows, err := s.query(ctx, corpusSelect+` ORDER BY a.command_id, a.id`)
	if err != nil {
		return nil, s.fail("commands", err)
	}
	out, err := scanCorpusRows(rows)
	if err != nil {
		return nil, s.fail("commands", err)
	}
	return out, nil
}

// ContextsForCommand returns the arguments of one command ordered by
// argument id. An unknown command yields an empty slice.
func (s *SQLStore) ContextsForCommand(ctx context.Context, commandID int64) ([]CorpusRow, error) {
	rows, err := s.query(ctx, corpusSelect+` WHERE a.command_id = ? ORDER BY a.id`, commandID)
	if err != nil {
		return nil, s.fail("contexts", err)
	}
	out, err := scanCorpusRows(rows)
	if err != nil {
		return nil, s.fail("contexts", err)
	}
	return out, nil
}

func scanCorpusRows(rows *sql.Rows) ([]CorpusRow, error) {
	defer rows.Close()

	out := []CorpusRow{}
	for rows.Next() {
		var (
			r       CorpusRow
			context sql.NullString
		)
		if err := rows.Scan(&r.ArgumentID, &r.CommandID, &r.FullCommandLine, &context); err != nil {
			return nil, err
		}
		r.ContextLines = UnescapeContext(context.String)
		out = append(out, r)
	}
	return out, rows.Err()
}

// ImportCorpus replaces the corpus with commands in one transaction and
// returns the number of arguments written. Decision logs are untouched.
func (s *SQLStore) ImportCorpus(ctx context.Context, commands []CorpusCommand) (_ int, err error) {
	ctx, span := s.startSpan(ctx, "ImportCorpus", attribute.Int("creotrail.commands", len(commands)))
	defer func() { tracing.End(span, err) }()

	seenArgs := make(map[int64]int64)
	for _, cmd := range commands {
		for _, arg := range cmd.Arguments {
			if prev, ok := seenArgs[arg.ID]; ok {
				return 0, invalidInput("argument %d appears under commands %d and %d", arg.ID, prev, cmd.ID)
			}
			seenArgs[arg.ID] = cmd.ID
		}
	}

	written := 0
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{`DELETE FROM contexts`, `DELETE FROM arguments`, `DELETE FROM commands`} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}

		insertCmd, err := tx.PrepareContext(ctx, s.dialect.rebind(`INSERT INTO commands (id) VALUES (?) ON CONFLICT (id) DO NOTHING`))
		if err != nil {
			return err
		}
		defer insertCmd.Close()

		insertArg, err := tx.PrepareContext(ctx, s.dialect.rebind(`INSERT INTO arguments (id, command_id, full_command_line) VALUES (?, ?, ?)`))
		if err != nil {
			return err
		}
		defer insertArg.Close()

		insertCtx, err := tx.PrepareContext(ctx, s.dialect.rebind(`INSERT INTO contexts (argument_id, context_lines) VALUES (?, ?)`))
		if err != nil {
			return err
		}
		defer insertCtx.Close()

		for _, cmd := range commands {
			if _, err := insertCmd.ExecContext(ctx, cmd.ID); err != nil {
				return err
			}
			for _, arg := range cmd.Arguments {
				if _, err := insertArg.ExecContext(ctx, arg.ID, cmd.ID, arg.FullCommandLine); err != nil {
					return err
				}
				if arg.Context != "" {
					if _, err := insertCtx.ExecContext(ctx, arg.ID, arg.Context); err != nil {
						return err
					}
				}
				written++
			}
		}
		return nil
	})
	if err != nil {
		return 0, s.fail("import_corpus", err)
	}

	s.logger.Info("corpus imported", "commands", len(commands), "arguments", written)
	return written, nil
}

// commandCount is the number of distinct commands in the corpus.
func (s *SQLStore) commandCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM commands`).Scan(&n)
	return n, err
}
