package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"hiretrack/internal/types"
)

const userColumns = "id, full_name, email, password_hash, role, created_at, updated_at"

func scanUser(row interface{ Scan(...any) error }) (*types.User, error) {
	var u types.User
	var passwordHash sql.NullString
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &passwordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = passwordHash.String
	return &u, nil
}

// CreateUser inserts a user and fills in its generated id and
// timestamps. Emails are stored lowercased.
func (s *Store) CreateUser(ctx context.Context, u *types.User) error {
	ts := now()
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt, u.UpdatedAt = ts, ts
	err := s.db.QueryRowContext(ctx, s.rebind(
		`INSERT INTO users (full_name, email, password_hash, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`),
		u.FullName, u.Email, nullStr(u.PasswordHash), u.Role, ts, ts,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// GetUserByID returns the user, or nil when the id does not resolve.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*types.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users WHERE id=$1`), id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// GetUserByEmail looks a user up by case-insensitive email match.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*types.User, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT `+userColumns+` FROM users WHERE lower(email)=lower($1)`), email)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}
	return u, nil
}

// ListUsers returns all users, optionally filtered by a name/email
// substring, newest id first.
func (s *Store) ListUsers(ctx context.Context, query string) ([]types.User, error) {
	sqlText := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if query != "" {
		sqlText += ` WHERE lower(full_name) LIKE $1 OR lower(email) LIKE $1`
		args = append(args, "%"+strings.ToLower(query)+"%")
	}
	sqlText += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(sqlText), args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []types.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UserUpdate holds the fields an update may change; nil means "leave
// unchanged".
type UserUpdate struct {
	FullName     *string
	Email        *string
	Role         *types.Role
	PasswordHash *string
}

// UpdateUser applies the non-nil fields and returns the updated row, or
// nil when the id does not resolve.
func (s *Store) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (*types.User, error) {
	var set []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if upd.FullName != nil {
		add("full_name", *upd.FullName)
	}
	if upd.Email != nil {
		add("email", strings.ToLower(*upd.Email))
	}
	if upd.Role != nil {
		add("role", *upd.Role)
	}
	if upd.PasswordHash != nil {
		add("password_hash", *upd.PasswordHash)
	}
	if len(set) == 0 {
		return s.GetUserByID(ctx, id)
	}
	add("updated_at", now())
	args = append(args, id)

	row := s.db.QueryRowContext(ctx, s.rebind(fmt.Sprintf(
		`UPDATE users SET %s WHERE id=$%d RETURNING %s`,
		strings.Join(set, ", "), len(args), userColumns)), args...)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return u, nil
}

// DeleteUser removes a user. Deleting a missing user is not an error.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM users WHERE id=$1`), id); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}
