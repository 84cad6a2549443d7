package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/model"
)

const itemColumns = `id, description, photo, color, is_new, has_pieces, material,
	main_category, sub_category, image_mime, created_at`

// CreateItem inserts a new item and returns its ID. The (main, sub) category
// pair must exist in the category reference set.
func CreateItem(ctx context.Context, q db.Querier, in model.ItemInput) (int64, error) {
	if strings.TrimSpace(in.Description) == "" {
		return 0, fmt.Errorf("%w: item description required", model.ErrValidation)
	}

	ok, err := CategoryExists(ctx, q, in.MainCategory, in.SubCategory)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: unknown category %s/%s", model.ErrValidation, in.MainCategory, in.SubCategory)
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO items (description, photo, color, is_new, material, main_category, sub_category)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.Description, nullString(in.Photo), nullString(in.Color), in.IsNew, nullString(in.Material),
		in.MainCategory, in.SubCategory,
	)
	if err != nil {
		return 0, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting item id: %w", err)
	}
	return id, nil
}

// GetItem returns an item by ID.
func GetItem(ctx context.Context, q db.Querier, id int64) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: item %d", model.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// GetItemWithPieces returns an item and all of its pieces ordered by piece
// number. Pieces is empty, never nil, for an item without pieces.
func GetItemWithPieces(ctx context.Context, q db.Querier, id int64) (*model.ItemDetail, error) {
	item, err := GetItem(ctx, q, id)
	if err != nil {
		return nil, err
	}

	pieces, err := ListPieces(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if pieces == nil {
		pieces = []model.Piece{}
	}

	return &model.ItemDetail{Item: *item, Pieces: pieces}, nil
}

// ListAvailableItems returns the items of a category that have never been
// assigned to an order.
func ListAvailableItems(ctx context.Context, q db.Querier, main, sub string) ([]model.ItemSummary, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT i.id, i.description, i.color, i.material, i.is_new
		 FROM items i
		 LEFT JOIN item_assignments a ON a.item_id = i.id
		 WHERE i.main_category = ? AND i.sub_category = ? AND a.item_id IS NULL
		 ORDER BY i.id`, main, sub,
	)
	if err != nil {
		return nil, fmt.Errorf("listing available items: %w", err)
	}
	defer rows.Close()

	var items []model.ItemSummary
	for rows.Next() {
		var s model.ItemSummary
		var color, material sql.NullString
		if err := rows.Scan(&s.ID, &s.Description, &color, &material, &s.IsNew); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		s.Color = color.String
		s.Material = material.String
		items = append(items, s)
	}
	return items, rows.Err()
}

// IsItemAssigned reports whether the item has an assignment to any order.
func IsItemAssigned(ctx context.Context, q db.Querier, itemID int64) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM item_assignments WHERE item_id = ?`, itemID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking item assignment: %w", err)
	}
	return n > 0, nil
}

// SetItemImage stores an item's photo and points its photo reference at ref.
func SetItemImage(ctx context.Context, q db.Querier, id int64, image []byte, mime, ref string) error {
	result, err := q.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, photo = ? WHERE id = ?`,
		image, mime, ref, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: item %d", model.ErrNotFound, id)
	}
	return nil
}

// GetItemImage returns an item's image data and MIME type. Data is nil when
// the item exists but has no image.
func GetItemImage(ctx context.Context, q db.Querier, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("%w: item %d", model.ErrNotFound, id)
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*model.Item, error) {
	item := &model.Item{}
	var photo, color, material, imageMime sql.NullString
	err := row.Scan(&item.ID, &item.Description, &photo, &color, &item.IsNew, &item.HasPieces, &material,
		&item.MainCategory, &item.SubCategory, &imageMime, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	item.Photo = photo.String
	item.Color = color.String
	item.Material = material.String
	item.ImageMime = imageMime.String
	return item, nil
}
