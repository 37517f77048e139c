// Package store persists users, the command corpus and validator decisions.
//
// # Backends
//
// SQLStore runs on database/sql with four drivers:
//
//   - sqlite: modernc.org/sqlite, pure Go (default)
//   - sqlite3: github.com/mattn/go-sqlite3, cgo
//   - pgx: github.com/jackc/pgx/v5/stdlib
//   - postgres: github.com/lib/pq
//
// Queries are written with ? placeholders and rewritten to $n for
// PostgreSQL.
//
// # Decision Layouts
//
// Decisions are stored in one of two layouts. The shared layout keeps every
// decision in a single decisions table keyed by user id. The per_user layout
// creates dynamic_cmds_user_<id> and static_cmds_user_<id> at signup and
// answers history queries with a UNION ALL across both. Table names are
// built from the integer user id only.
//
// # Basic Usage
//
//	s, err := store.Open(ctx, store.Config{
//	    Driver: "sqlite",
//	    Path:   "data/creotrail.db",
//	    Layout: store.LayoutShared,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	u, err := s.CreateUser(ctx, store.NewUser{Name: "Ada", Email: "ada@example.com", Password: "pw"})
//	err = s.MarkCommand(ctx, u.ID, 42, "tar -xzf a.tgz", store.Dynamic)
//	entries, err := s.History(ctx, u.ID, store.HistoryFilter{Action: store.ActionAll})
package store
