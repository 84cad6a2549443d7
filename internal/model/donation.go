package model

import "time"

// Donation links an item to the donor who contributed it.
type Donation struct {
	ItemID        int64     `json:"item_id"`
	DonorUsername string    `json:"donor_username"`
	DonateDate    time.Time `json:"donate_date"`

	// Joined fields (not always populated).
	ItemDescription string `json:"item_description,omitempty"`
}
