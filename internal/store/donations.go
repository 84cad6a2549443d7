package store

import (
	"context"
	"fmt"
	"time"

	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/model"
)

// CreateDonation records that donor contributed the item on date. An item has
// exactly one donation.
func CreateDonation(ctx context.Context, q db.Querier, itemID int64, donor string, date time.Time) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO donations (item_id, donor_username, donate_date) VALUES (?, ?, ?)`,
		itemID, donor, date.UTC(),
	)
	if db.IsUniqueViolation(err) {
		return fmt.Errorf("%w: item %d already has a donation", model.ErrConflict, itemID)
	}
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: unknown item or donor", model.ErrValidation)
	}
	if err != nil {
		return fmt.Errorf("creating donation: %w", err)
	}
	return nil
}

// ListDonations returns donations, newest first. An empty donor lists every
// donation.
func ListDonations(ctx context.Context, q db.Querier, donor string) ([]model.Donation, error) {
	query := `SELECT d.item_id, d.donor_username, d.donate_date, i.description
		 FROM donations d
		 JOIN items i ON i.id = d.item_id`
	var args []any
	if donor != "" {
		query += ` WHERE d.donor_username = ?`
		args = append(args, donor)
	}
	query += ` ORDER BY d.donate_date DESC, d.item_id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing donations: %w", err)
	}
	defer rows.Close()

	var donations []model.Donation
	for rows.Next() {
		var d model.Donation
		if err := rows.Scan(&d.ItemID, &d.DonorUsername, &d.DonateDate, &d.ItemDescription); err != nil {
			return nil, fmt.Errorf("scanning donation: %w", err)
		}
		donations = append(donations, d)
	}
	return donations, rows.Err()
}
