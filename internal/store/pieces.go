package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/model"
)

// AddPieces inserts pieces for an existing item. Every piece is validated
// before anything is written: piece numbers must be positive and unique within
// the item (including pieces already stored) and dimensions must not be
// negative. Callers run it inside a transaction so a failed insert leaves no
// pieces behind.
func AddPieces(ctx context.Context, q db.Querier, itemID int64, pieces []model.PieceInput) error {
	if len(pieces) == 0 {
		return nil
	}

	if _, err := GetItem(ctx, q, itemID); err != nil {
		return err
	}

	existing, err := ListPieces(ctx, q, itemID)
	if err != nil {
		return err
	}
	seen := make(map[int]bool, len(existing)+len(pieces))
	for _, p := range existing {
		seen[p.PieceNum] = true
	}

	for i, p := range pieces {
		if err := validatePiece(p); err != nil {
			return fmt.Errorf("%w: piece %d: %v", model.ErrValidation, i+1, err)
		}
		if seen[p.PieceNum] {
			return fmt.Errorf("%w: piece %d: duplicate piece number %d", model.ErrValidation, i+1, p.PieceNum)
		}
		seen[p.PieceNum] = true
	}

	for _, p := range pieces {
		var notes sql.NullString
		if p.Notes != nil {
			notes = sql.NullString{String: *p.Notes, Valid: true}
		}
		_, err := q.ExecContext(ctx,
			`INSERT INTO pieces (item_id, piece_num, description, length, width, height, room_num, shelf_num, notes)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			itemID, p.PieceNum, p.Description, *p.Length, *p.Width, *p.Height, *p.RoomNum, *p.ShelfNum, notes,
		)
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: duplicate piece number %d", model.ErrValidation, p.PieceNum)
		}
		if err != nil {
			return fmt.Errorf("adding piece: %w", err)
		}
	}

	if _, err := q.ExecContext(ctx, `UPDATE items SET has_pieces = 1 WHERE id = ?`, itemID); err != nil {
		return fmt.Errorf("marking item as having pieces: %w", err)
	}
	return nil
}

// ListPieces returns the pieces of an item ordered by piece number.
func ListPieces(ctx context.Context, q db.Querier, itemID int64) ([]model.Piece, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT item_id, piece_num, description, length, width, height, room_num, shelf_num, notes
		 FROM pieces WHERE item_id = ? ORDER BY piece_num`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pieces: %w", err)
	}
	defer rows.Close()

	var pieces []model.Piece
	for rows.Next() {
		var p model.Piece
		var notes sql.NullString
		if err := rows.Scan(&p.ItemID, &p.PieceNum, &p.Description, &p.Length, &p.Width, &p.Height,
			&p.RoomNum, &p.ShelfNum, &notes); err != nil {
			return nil, fmt.Errorf("scanning piece: %w", err)
		}
		p.Notes = notes.String
		pieces = append(pieces, p)
	}
	return pieces, rows.Err()
}

func validatePiece(p model.PieceInput) error {
	switch {
	case p.PieceNum < 1:
		return errors.New("piece number must be positive")
	case p.Description == "":
		return errors.New("description required")
	case p.Length == nil || p.Width == nil || p.Height == nil:
		return errors.New("length, width and height required")
	case *p.Length < 0 || *p.Width < 0 || *p.Height < 0:
		return errors.New("dimensions must not be negative")
	case p.RoomNum == nil || p.ShelfNum == nil:
		return errors.New("room and shelf required")
	case *p.RoomNum < 0 || *p.ShelfNum < 0:
		return errors.New("room and shelf must not be negative")
	}
	return nil
}
