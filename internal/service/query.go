package service

import (
	"context"
	"database/sql"

	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/model"
	"github.com/erazemk/donacije/internal/store"
)

// Query serves the reference data used to browse inventory: categories,
// rooms, shelves and locations.
type Query struct {
	store *db.Store
}

func (q *Query) ListCategories(ctx context.Context) ([]model.Category, error) {
	var cats []model.Category
	err := q.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		cats, err = store.ListCategories(ctx, tx)
		return err
	})
	return cats, err
}

func (q *Query) ListRooms(ctx context.Context) ([]int, error) {
	var rooms []int
	err := q.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		rooms, err = store.ListRooms(ctx, tx)
		return err
	})
	return rooms, err
}

func (q *Query) ListShelves(ctx context.Context, room int) ([]int, error) {
	var shelves []int
	err := q.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		shelves, err = store.ListShelves(ctx, tx, room)
		return err
	})
	return shelves, err
}

func (q *Query) ListLocations(ctx context.Context) ([]model.Location, error) {
	var locs []model.Location
	err := q.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		locs, err = store.ListLocations(ctx, tx)
		return err
	})
	return locs, err
}

// CreateCategory adds a category pair. Staff only.
func (q *Query) CreateCategory(ctx context.Context, staff string, c model.Category) error {
	return q.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := store.RequireRole(ctx, tx, staff, model.RoleStaff); err != nil {
			return err
		}
		if err := validateStruct(c); err != nil {
			return err
		}
		return store.CreateCategory(ctx, tx, c)
	})
}

// CreateLocation describes a storage slot. Staff only.
func (q *Query) CreateLocation(ctx context.Context, staff string, l model.Location) error {
	return q.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := store.RequireRole(ctx, tx, staff, model.RoleStaff); err != nil {
			return err
		}
		if err := validateStruct(l); err != nil {
			return err
		}
		return store.CreateLocation(ctx, tx, l)
	})
}
