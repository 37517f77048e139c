package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"creotrail/validator/pkg/security/password"
)

const userColumns = `id, name, email, role, password, last_processed_cmd_id, last_seen, created_at`

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var (
		u         User
		lastSeen  sqlTime
		createdAt sqlTime
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.PasswordHash,
		&u.LastProcessedCmdID, &lastSeen, &createdAt); err != nil {
		return nil, err
	}
	u.LastSeen = lastSeen.ptr()
	u.CreatedAt = createdAt.Time
	return &u, nil
}

// CreateUser registers a user. The password is hashed before it is stored.
// With the per-user layout the user's decision tables are created in the
// same transaction.
func (s *SQLStore) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	hash, err := s.cfg.Hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:         in.Name,
		Email:        in.Email,
		Role:         in.Role,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, s.dialect.rebind(`SELECT 1 FROM users WHERE email = ?`), u.Email).Scan(&one)
		switch {
		case err == nil:
			return ErrEmailTaken
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		err = tx.QueryRowContext(ctx, s.dialect.rebind(`INSERT INTO users (name, email, password, role, last_processed_cmd_id, created_at)
VALUES (?, ?, ?, ?, 0, ?) RETURNING id`), u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt).Scan(&u.ID)
		if err != nil {
			return err
		}

		return s.decisions.provision(ctx, tx, u.ID)
	})
	switch {
	case err == nil:
	case errors.Is(err, ErrEmailTaken), isUniqueViolation(err):
		return nil, ErrEmailTaken
	default:
		return nil, s.fail("create_user", err)
	}

	s.logger.Info("user created", "user_id", u.ID, "role", u.Role, "email", u.Email)
	return u, nil
}

// Authenticate returns the user with the given email when plain matches the
// stored hash. Unknown emails and wrong passwords both yield
// ErrInvalidCredentials.
func (s *SQLStore) Authenticate(ctx context.Context, email, plain string) (*User, error) {
	u, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.TrimSpace(email)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, s.fail("authenticate", err)
	}

	if err := s.cfg.Hasher.Compare(u.PasswordHash, plain); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return nil, ErrInvalidCredentials
		}
		return nil, s.fail("authenticate", err)
	}
	return u, nil
}

// GetUser loads one user by id.
func (s *SQLStore) GetUser(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(s.queryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, s.fail("get_user", err)
	}
	return u, nil
}

// ListUsers returns every user ordered by id.
func (s *SQLStore) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, s.fail("list_users", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, s.fail("list_users", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list_users", err)
	}
	return users, nil
}

// LastProcessed returns the user's resume index. Unknown users report 0.
func (s *SQLStore) LastProcessed(ctx context.Context, userID int64) (int64, error) {
	var last int64
	err := s.queryRow(ctx, `SELECT last_processed_cmd_id FROM users WHERE id = ?`, userID).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, s.fail("last_processed", err)
	}
	return last, nil
}

// UpdateLastProcessed stores the user's resume index.
func (s *SQLStore) UpdateLastProcessed(ctx context.Context, userID, lastCmdID int64) error {
	if lastCmdID < 0 {
		return invalidInput("last_cmd_id must be >= 0, got %d", lastCmdID)
	}

	res, err := s.exec(ctx, `UPDATE users SET last_processed_cmd_id = ? WHERE id = ?`, lastCmdID, userID)
	if err != nil {
		return s.fail("update_last_processed", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.fail("update_last_processed", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Validators lists users whose role is validator, ordered by id.
func (s *SQLStore) Validators(ctx context.Context) ([]ValidatorRef, error) {
	rows, err := s.query(ctx, `SELECT id, name FROM users WHERE LOWER(role) = ? ORDER BY id`, RoleValidator)
	if err != nil {
		return nil, s.fail("validators", err)
	}
	defer rows.Close()

	refs := []ValidatorRef{}
	for rows.Next() {
		var r ValidatorRef
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, s.fail("validators", err)
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("validators", err)
	}
	return refs, nil
}

// UserCountsByRole counts validators and viewers and lists their names.
func (s *SQLStore) UserCountsByRole(ctx context.Context) (*RoleCounts, error) {
	rows, err := s.query(ctx, `SELECT LOWER(role), name FROM users WHERE LOWER(role) IN (?, ?) ORDER BY id`,
		RoleValidator, RoleViewer)
	if err != nil {
		return nil, s.fail("user_counts", err)
	}
	defer rows.Close()

	counts := &RoleCounts{ValidatorNames: []string{}, ViewerNames: []string{}}
	for rows.Next() {
		var role, name string
		if err := rows.Scan(&role, &name); err != nil {
			return nil, s.fail("user_counts", err)
		}
		switch role {
		case RoleValidator:
			counts.ValidatorCount++
			counts.ValidatorNames = append(counts.ValidatorNames, name)
		case RoleViewer:
			counts.ViewerCount++
			counts.ViewerNames = append(counts.ViewerNames, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("user_counts", err)
	}
	return counts, nil
}

// RecentlyActiveValidators returns validators ordered by their last
// classification, most recent first. Validators who never classified
// anything come last.
func (s *SQLStore) RecentlyActiveValidators(ctx context.Context, limit int) ([]ActiveValidator, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.query(ctx, `SELECT name, last_seen FROM users WHERE LOWER(role) = ?
ORDER BY last_seen IS NULL, last_seen DESC, id LIMIT ?`, RoleValidator, limit)
	if err != nil {
		return nil, s.fail("recent_active", err)
	}
	defer rows.Close()

	active := []ActiveValidator{}
	for rows.Next() {
		var (
			a    ActiveValidator
			seen sqlTime
		)
		if err := rows.Scan(&a.Name, &seen); err != nil {
			return nil, s.fail("recent_active", err)
		}
		a.LastSeen = seen.ptr()
		active = append(active, a)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("recent_active", err)
	}
	return active, nil
}
