package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/model"
	"github.com/erazemk/donacije/internal/store"
)

// Intake records donated items.
type Intake struct {
	store *db.Store
	now   func() time.Time
}

// AcceptDonation catalogs a donated item with its pieces and records the
// donation, all in one transaction. The caller must be staff and the donor a
// registered donor; any failure leaves no trace of the item.
func (in *Intake) AcceptDonation(ctx context.Context, staff, donor string, item model.ItemInput, pieces []model.PieceInput) (int64, error) {
	var itemID int64
	err := in.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := store.RequireRole(ctx, tx, staff, model.RoleStaff); err != nil {
			return err
		}

		err := store.RequireRole(ctx, tx, donor, model.RoleDonor)
		if errors.Is(err, model.ErrAuthorization) {
			return fmt.Errorf("%w: donor %q not registered", model.ErrValidation, donor)
		}
		if err != nil {
			return err
		}

		if err := validateStruct(item); err != nil {
			return err
		}
		for i, p := range pieces {
			if err := validateStruct(p); err != nil {
				return fmt.Errorf("piece %d: %w", i+1, err)
			}
		}

		itemID, err = store.CreateItem(ctx, tx, item)
		if err != nil {
			return err
		}
		if err := store.CreateDonation(ctx, tx, itemID, donor, today(in.now)); err != nil {
			return err
		}
		return store.AddPieces(ctx, tx, itemID, pieces)
	})
	if err != nil {
		return 0, err
	}

	slog.Info("donation accepted", "item", itemID, "donor", donor, "staff", staff, "pieces", len(pieces))
	return itemID, nil
}

// ListDonations returns the donation history of a donor, or of every donor
// when donor is empty.
func (in *Intake) ListDonations(ctx context.Context, donor string) ([]model.Donation, error) {
	var donations []model.Donation
	err := in.store.WithTx(ctx, func(tx *sql.Tx) error {
		if donor != "" {
			if _, err := store.GetUserByUsername(ctx, tx, donor); err != nil {
				return err
			}
		}
		var err error
		donations, err = store.ListDonations(ctx, tx, donor)
		return err
	})
	return donations, err
}

// DecodePieces parses a piece payload: a JSON array of piece objects. Unknown
// fields, missing required fields, wrong types and trailing data are all
// rejected with model.ErrValidation. An empty payload or null means no pieces.
func DecodePieces(data []byte) ([]model.PieceInput, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var pieces []model.PieceInput
	if err := dec.Decode(&pieces); err != nil {
		return nil, fmt.Errorf("%w: decoding pieces: %v", model.ErrValidation, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after pieces", model.ErrValidation)
	}

	for i, p := range pieces {
		if err := validateStruct(p); err != nil {
			return nil, fmt.Errorf("piece %d: %w", i+1, err)
		}
	}
	return pieces, nil
}
