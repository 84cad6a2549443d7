package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/donacije/internal/auth"
	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/model"
	"github.com/erazemk/donacije/internal/store"
)

// Directory resolves users and their roles.
type Directory struct {
	store *db.Store
}

// Register creates a new account. A taken username is model.ErrConflict.
func (d *Directory) Register(ctx context.Context, in model.RegisterInput) (*model.User, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if err := model.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	var user *model.User
	err = d.store.WithTx(ctx, func(tx *sql.Tx) error {
		user, err = store.CreateUser(ctx, tx, model.User{
			Username:     in.Username,
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			PasswordHash: hash,
			Role:         in.Role,
			BillAddress:  in.BillAddress,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username and password. Unknown users and wrong
// passwords both fail with model.ErrAuthentication.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	var user *model.User
	err := d.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		user, err = store.GetUserByUsername(ctx, tx, username)
		return err
	})
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", model.ErrAuthentication)
	}
	if err != nil {
		return nil, err
	}

	if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser returns a user by username.
func (d *Directory) GetUser(ctx context.Context, username string) (*model.User, error) {
	var user *model.User
	err := d.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		user, err = store.GetUserByUsername(ctx, tx, username)
		return err
	})
	return user, err
}

// GetRole returns the role of a user.
func (d *Directory) GetRole(ctx context.Context, username string) (string, error) {
	var role string
	err := d.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		role, err = store.GetRole(ctx, tx, username)
		return err
	})
	return role, err
}

// RequireRole fails with model.ErrAuthorization unless username has role.
func (d *Directory) RequireRole(ctx context.Context, username, role string) error {
	return d.store.WithTx(ctx, func(tx *sql.Tx) error {
		return store.RequireRole(ctx, tx, username, role)
	})
}
