package model

import "time"

// Order statuses.
const (
	OrderStatusOpen   = "open"
	OrderStatusClosed = "closed"
)

// Order is a staff-supervised request for items on behalf of a client.
type Order struct {
	ID         int64     `json:"order_id"`
	OrderDate  time.Time `json:"order_date"`
	Notes      string    `json:"notes,omitempty"`
	Supervisor string    `json:"supervisor"`
	Client     string    `json:"client"`
	Status     string    `json:"status"`
}

// Assignment marks an item as pulled for an order.
type Assignment struct {
	ItemID  int64 `json:"item_id"`
	OrderID int64 `json:"order_id"`
	Found   bool  `json:"found"`
}

// OrderDetail is an order header with every assigned item and the locations
// of its pieces.
type OrderDetail struct {
	Order
	Items []OrderItem `json:"items"`
}

// OrderItem is an assigned item as shown on an order.
type OrderItem struct {
	ItemID      int64           `json:"item_id"`
	Description string          `json:"description"`
	Color       string          `json:"color,omitempty"`
	IsNew       bool            `json:"is_new"`
	Material    string          `json:"material,omitempty"`
	Found       bool            `json:"found"`
	Pieces      []PieceLocation `json:"pieces"`
}

// PieceLocation is a piece with its storage location. Location fields are nil
// when no Location row matches the piece's room and shelf.
type PieceLocation struct {
	PieceNum         int     `json:"piece_num"`
	Description      string  `json:"description"`
	Length           float64 `json:"length"`
	Width            float64 `json:"width"`
	Height           float64 `json:"height"`
	RoomNum          *int    `json:"room_num"`
	ShelfNum         *int    `json:"shelf_num"`
	ShelfDescription *string `json:"shelf_description"`
}

// OrderFilter narrows order listings. Empty fields match everything.
type OrderFilter struct {
	Client     string
	Supervisor string
	Status     string
}
