package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/model"
)

// CreateCategory adds a (main, sub) pair to the category reference set.
func CreateCategory(ctx context.Context, q db.Querier, c model.Category) error {
	if c.MainCategory == "" || c.SubCategory == "" {
		return fmt.Errorf("%w: main and sub category required", model.ErrValidation)
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO categories (main_category, sub_category, notes) VALUES (?, ?, ?)`,
		c.MainCategory, c.SubCategory, nullString(c.Notes),
	)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: category %s/%s already exists", model.ErrConflict, c.MainCategory, c.SubCategory)
	}
	if err != nil {
		return fmt.Errorf("creating category: %w", err)
	}
	return nil
}

// CategoryExists reports whether (main, sub) is in the category reference set.
func CategoryExists(ctx context.Context, q db.Querier, main, sub string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM categories WHERE main_category = ? AND sub_category = ?`, main, sub,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking category: %w", err)
	}
	return n > 0, nil
}

// ListCategories returns every category pair.
func ListCategories(ctx context.Context, q db.Querier) ([]model.Category, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT main_category, sub_category, notes FROM categories ORDER BY main_category, sub_category`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		var notes sql.NullString
		if err := rows.Scan(&c.MainCategory, &c.SubCategory, &notes); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		c.Notes = notes.String
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateLocation describes a (room, shelf) storage slot.
func CreateLocation(ctx context.Context, q db.Querier, l model.Location) error {
	if l.RoomNum < 0 || l.ShelfNum < 0 {
		return fmt.Errorf("%w: room and shelf numbers must not be negative", model.ErrValidation)
	}

	_, err := q.ExecContext(ctx,
		`INSERT INTO locations (room_num, shelf_num, description) VALUES (?, ?, ?)`,
		l.RoomNum, l.ShelfNum, l.Description,
	)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: location %d/%d already exists", model.ErrConflict, l.RoomNum, l.ShelfNum)
	}
	if err != nil {
		return fmt.Errorf("creating location: %w", err)
	}
	return nil
}

// GetLocation returns one location.
func GetLocation(ctx context.Context, q db.Querier, room, shelf int) (*model.Location, error) {
	l := &model.Location{}
	err := q.QueryRowContext(ctx,
		`SELECT room_num, shelf_num, description FROM locations WHERE room_num = ? AND shelf_num = ?`,
		room, shelf,
	).Scan(&l.RoomNum, &l.ShelfNum, &l.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: location %d/%d", model.ErrNotFound, room, shelf)
	}
	if err != nil {
		return nil, fmt.Errorf("getting location: %w", err)
	}
	return l, nil
}

// ListLocations returns every location.
func ListLocations(ctx context.Context, q db.Querier) ([]model.Location, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT room_num, shelf_num, description FROM locations ORDER BY room_num, shelf_num`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.RoomNum, &l.ShelfNum, &l.Description); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// ListRooms returns the distinct room numbers that have at least one location.
func ListRooms(ctx context.Context, q db.Querier) ([]int, error) {
	return scanInts(ctx, q, "listing rooms",
		`SELECT DISTINCT room_num FROM locations ORDER BY room_num`)
}

// ListShelves returns the shelf numbers of a room.
func ListShelves(ctx context.Context, q db.Querier, room int) ([]int, error) {
	return scanInts(ctx, q, "listing shelves",
		`SELECT shelf_num FROM locations WHERE room_num = ? ORDER BY shelf_num`, room)
}

func scanInts(ctx context.Context, q db.Querier, what, query string, args ...any) ([]int, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("%s: %w", what, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
