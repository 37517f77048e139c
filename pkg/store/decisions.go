package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"creotrail/validator/pkg/telemetry/tracing"
)

// decisionLog abstracts the two decision storage layouts.
type decisionLog interface {
	// provision prepares storage for a new user inside the signup transaction.
	provision(ctx context.Context, tx *sql.Tx, userID int64) error
	insert(ctx context.Context, tx *sql.Tx, userID, commandID int64, text string, c Classification, at time.Time) error
	counts(ctx context.Context, userID int64) (dynamic, static int64, err error)
	history(ctx context.Context, userID int64, f HistoryFilter, limit int) ([]HistoryEntry, error)
}

// MarkCommand records a classification and touches the user's last_seen in
// one transaction.
func (s *SQLStore) MarkCommand(ctx context.Context, userID, commandID int64, text string, c Classification) (err error) {
	ctx, span := s.startSpan(ctx, "MarkCommand",
		attribute.Int64("creotrail.user_id", userID),
		attribute.Int64("creotrail.command_id", commandID),
		attribute.String("creotrail.classification", string(c)),
	)
	defer func() { tracing.End(span, err) }()

	if !c.Valid() {
		return invalidInput("unknown classification %q", c)
	}

	at := s.now()
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.dialect.rebind(`UPDATE users SET last_seen = ? WHERE id = ?`), at, userID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return s.decisions.insert(ctx, tx, userID, commandID, text, c, at)
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	default:
		return s.fail("mark_"+string(c), err)
	}

	s.logger.Debug("command marked", "user_id", userID, "command_id", commandID, "classification", c)
	return nil
}

// ValidatorStats summarizes a validator's classifications against the
// corpus size.
func (s *SQLStore) ValidatorStats(ctx context.Context, userID int64) (_ *ValidatorStats, err error) {
	ctx, span := s.startSpan(ctx, "ValidatorStats", attribute.Int64("creotrail.user_id", userID))
	defer func() { tracing.End(span, err) }()

	dynamic, static, err := s.decisions.counts(ctx, userID)
	if err != nil {
		return nil, s.fail("validator_stats", err)
	}
	total, err := s.commandCount(ctx)
	if err != nil {
		return nil, s.fail("validator_stats", err)
	}
	return newValidatorStats(dynamic, static, total), nil
}

// History returns a user's decisions ordered by command id then processed
// time, capped at the configured row limit.
func (s *SQLStore) History(ctx context.Context, userID int64, f HistoryFilter) (entries []HistoryEntry, err error) {
	ctx, span := s.startSpan(ctx, "History", attribute.Int64("creotrail.user_id", userID))
	defer func() {
		span.SetAttributes(attribute.Int("creotrail.rows", len(entries)))
		tracing.End(span, err)
	}()

	if err := f.Validate(); err != nil {
		return nil, err
	}
	entries, err = s.decisions.history(ctx, userID, f, s.cfg.HistoryLimit)
	if err != nil {
		return nil, s.fail("history", err)
	}
	return entries, nil
}

// filterClauses renders the optional history predicates shared by both
// layouts. Arguments line up with the returned clauses.
func filterClauses(f HistoryFilter) ([]string, []any) {
	var (
		where []string
		args  []any
	)
	if f.Start != nil {
		where = append(where, "processed_time >= ?")
		args = append(args, f.Start.UTC())
	}
	if f.End != nil {
		where = append(where, "processed_time <= ?")
		args = append(args, f.End.UTC())
	}
	if f.CommandID != nil {
		where = append(where, "command_id = ?")
		args = append(args, *f.CommandID)
	}
	return where, args
}

func scanHistory(rows *sql.Rows) ([]HistoryEntry, error) {
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var (
			e  HistoryEntry
			c  string
			at sqlTime
		)
		if err := rows.Scan(&e.ID, &e.CommandID, &e.CommandText, &c, &at); err != nil {
			return nil, err
		}
		e.Action = Classification(c).Label()
		e.ProcessedTime = at.Time
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// sharedLog stores every decision in the decisions table.
type sharedLog struct {
	s *SQLStore
}

func (l *sharedLog) provision(context.Context, *sql.Tx, int64) error {
	return nil
}

func (l *sharedLog) insert(ctx context.Context, tx *sql.Tx, userID, commandID int64, text string, c Classification, at time.Time) error {
	_, err := tx.ExecContext(ctx, l.s.dialect.rebind(`INSERT INTO decisions (user_id, command_id, command_text, classification, processed_time)
VALUES (?, ?, ?, ?, ?)`), userID, commandID, text, string(c), at)
	return err
}

func (l *sharedLog) counts(ctx context.Context, userID int64) (int64, int64, error) {
	rows, err := l.s.query(ctx, `SELECT classification, COUNT(*) FROM decisions WHERE user_id = ? GROUP BY classification`, userID)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	var dynamic, static int64
	for rows.Next() {
		var (
			c string
			n int64
		)
		if err := rows.Scan(&c, &n); err != nil {
			return 0, 0, err
		}
		switch Classification(c) {
		case Dynamic:
			dynamic = n
		case Static:
			static = n
		}
	}
	return dynamic, static, rows.Err()
}

func (l *sharedLog) history(ctx context.Context, userID int64, f HistoryFilter, limit int) ([]HistoryEntry, error) {
	where, args := filterClauses(f)
	where = append([]string{"user_id = ?"}, where...)
	args = append([]any{userID}, args...)

	switch f.Action {
	case ActionDynamic:
		where = append(where, "classification = ?")
		args = append(args, string(Dynamic))
	case ActionStatic:
		where = append(where, "classification = ?")
		args = append(args, string(Static))
	}

	q := `SELECT id, command_id, command_text, classification, processed_time FROM decisions WHERE ` +
		strings.Join(where, " AND ") +
		` ORDER BY command_id ASC, processed_time ASC, id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := l.s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanHistory(rows)
}

// perUserLog keeps a dynamic and a static table per user.
type perUserLog struct {
	s *SQLStore
}

var classifications = []Classification{Dynamic, Static}

func (l *perUserLog) provision(ctx context.Context, tx *sql.Tx, userID int64) error {
	for _, c := range classifications {
		if _, err := tx.ExecContext(ctx, perUserTableDDL(l.s.dialect, c, userID)); err != nil {
			return err
		}
	}
	return nil
}

// insert creates the table when missing, which covers users registered
// while the shared layout was active.
func (l *perUserLog) insert(ctx context.Context, tx *sql.Tx, userID, commandID int64, text string, c Classification, at time.Time) error {
	if _, err := tx.ExecContext(ctx, perUserTableDDL(l.s.dialect, c, userID)); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, l.s.dialect.rebind(`INSERT INTO `+perUserTable(c, userID)+
		` (command_id, command_text, processed_time) VALUES (?, ?, ?)`), commandID, text, at)
	return err
}

// counts treats a missing table as zero rows.
func (l *perUserLog) counts(ctx context.Context, userID int64) (int64, int64, error) {
	var out [2]int64
	for i, c := range classifications {
		table := perUserTable(c, userID)
		ok, err := l.s.tableExists(ctx, table)
		if err != nil {
			return 0, 0, err
		}
		if !ok {
			continue
		}
		if err := l.s.queryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&out[i]); err != nil {
			return 0, 0, err
		}
	}
	return out[0], out[1], nil
}

// history builds one SELECT per selected table, each carrying the same
// predicates, joined with UNION ALL. Parameters are bound positionally in
// table order.
func (l *perUserLog) history(ctx context.Context, userID int64, f HistoryFilter, limit int) ([]HistoryEntry, error) {
	where, filterArgs := filterClauses(f)

	var (
		selects []string
		args    []any
	)
	for _, c := range classifications {
		if !f.Action.Includes(c) {
			continue
		}
		table := perUserTable(c, userID)
		ok, err := l.s.tableExists(ctx, table)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		q := `SELECT id, command_id, command_text, '` + string(c) + `' AS classification, processed_time FROM ` + table
		if len(where) > 0 {
			q += ` WHERE ` + strings.Join(where, " AND ")
		}
		selects = append(selects, q)
		args = append(args, filterArgs...)
	}
	if len(selects) == 0 {
		return []HistoryEntry{}, nil
	}

	q := strings.Join(selects, " UNION ALL ") + ` ORDER BY command_id ASC, processed_time ASC, id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := l.s.query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return scanHistory(rows)
}
