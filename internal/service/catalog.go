package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/imaging"
	"github.com/erazemk/donacije/internal/model"
	"github.com/erazemk/donacije/internal/store"
)

// Catalog manages items, their pieces and photos.
type Catalog struct {
	store  *db.Store
	photos imaging.Options
}

// AddPieces attaches pieces to an existing item. Either every piece is stored
// or none is.
func (c *Catalog) AddPieces(ctx context.Context, staff string, itemID int64, pieces []model.PieceInput) error {
	return c.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := store.RequireRole(ctx, tx, staff, model.RoleStaff); err != nil {
			return err
		}
		for i, p := range pieces {
			if err := validateStruct(p); err != nil {
				return fmt.Errorf("piece %d: %w", i+1, err)
			}
		}
		return store.AddPieces(ctx, tx, itemID, pieces)
	})
}

// GetItemWithPieces returns an item and its pieces ordered by piece number.
func (c *Catalog) GetItemWithPieces(ctx context.Context, itemID int64) (*model.ItemDetail, error) {
	var detail *model.ItemDetail
	err := c.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		detail, err = store.GetItemWithPieces(ctx, tx, itemID)
		return err
	})
	return detail, err
}

// ListAvailableItems returns the items of a category not assigned to any
// order.
func (c *Catalog) ListAvailableItems(ctx context.Context, main, sub string) ([]model.ItemSummary, error) {
	var items []model.ItemSummary
	err := c.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		items, err = store.ListAvailableItems(ctx, tx, main, sub)
		return err
	})
	return items, err
}

// SetItemImage stores a photo for an item. The upload is normalized before the
// transaction starts so the write lock is not held while resizing.
func (c *Catalog) SetItemImage(ctx context.Context, staff string, itemID int64, r io.Reader) error {
	photo, err := imaging.Normalize(r, c.photos)
	if err != nil {
		return err
	}

	return c.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := store.RequireRole(ctx, tx, staff, model.RoleStaff); err != nil {
			return err
		}
		return store.SetItemImage(ctx, tx, itemID, photo.Data, photo.MIME, ImageURL(itemID))
	})
}

// GetItemImage returns an item's photo and its MIME type.
func (c *Catalog) GetItemImage(ctx context.Context, itemID int64) ([]byte, string, error) {
	var data []byte
	var mime string
	err := c.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		data, mime, err = store.GetItemImage(ctx, tx, itemID)
		return err
	})
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: item %d has no image", model.ErrNotFound, itemID)
	}
	return data, mime, nil
}

// ImageURL is the photo reference stored for an item with an uploaded image.
func ImageURL(itemID int64) string {
	return fmt.Sprintf("/api/items/%d/image", itemID)
}
