package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/model"
)

const userColumns = `id, username, first_name, last_name, password_hash, role, bill_address, created_at`

// CreateUser registers a new user. A taken username is a conflict.
func CreateUser(ctx context.Context, q db.Querier, u model.User) (*model.User, error) {
	if !model.ValidRole(u.Role) {
		return nil, fmt.Errorf("%w: unknown role %q", model.ErrValidation, u.Role)
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO users (username, first_name, last_name, password_hash, role, bill_address)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Username, u.FirstName, u.LastName, u.PasswordHash, u.Role, nullString(u.BillAddress),
	)
	if db.IsUniqueViolation(err) {
		return nil, fmt.Errorf("%w: username %q is taken", model.ErrConflict, u.Username)
	}
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUserByUsername(ctx, q, u.Username)
}

// GetUserByUsername returns a user by username.
func GetUserByUsername(ctx context.Context, q db.Querier, username string) (*model.User, error) {
	u := &model.User{}
	var billAddress sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Role, &billAddress, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %q", model.ErrNotFound, username)
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	u.BillAddress = billAddress.String
	return u, nil
}

// ListUsers returns all users with the given role, or every user when role is empty.
func ListUsers(ctx context.Context, q db.Querier, role string) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var args []any
	if role != "" {
		query += ` WHERE role = ?`
		args = append(args, role)
	}
	query += ` ORDER BY username`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var billAddress sql.NullString
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.PasswordHash, &u.Role, &billAddress, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		u.BillAddress = billAddress.String
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetRole returns the role of a user.
func GetRole(ctx context.Context, q db.Querier, username string) (string, error) {
	var role string
	err := q.QueryRowContext(ctx,
		`SELECT role FROM users WHERE username = ?`, username,
	).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: user %q", model.ErrNotFound, username)
	}
	if err != nil {
		return "", fmt.Errorf("getting role: %w", err)
	}
	return role, nil
}

// RequireRole fails with model.ErrAuthorization unless username exists and
// has exactly the expected role. It is the only authorization check and runs
// first in every privileged operation.
func RequireRole(ctx context.Context, q db.Querier, username, expected string) error {
	role, err := GetRole(ctx, q, username)
	if errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("%w: %q is not a registered %s", model.ErrAuthorization, username, expected)
	}
	if err != nil {
		return err
	}
	if role != expected {
		return fmt.Errorf("%w: %q is %s, not %s", model.ErrAuthorization, username, role, expected)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
