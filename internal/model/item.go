package model

import "time"

// Item is a single donated object, optionally made of several pieces.
type Item struct {
	ID           int64     `json:"item_id"`
	Description  string    `json:"description"`
	Photo        string    `json:"photo,omitempty"`
	Color        string    `json:"color,omitempty"`
	IsNew        bool      `json:"is_new"`
	HasPieces    bool      `json:"has_pieces"`
	Material     string    `json:"material,omitempty"`
	MainCategory string    `json:"main_category"`
	SubCategory  string    `json:"sub_category"`
	ImageMime    string    `json:"image_mime,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ItemInput holds the caller-supplied fields of a new item.
type ItemInput struct {
	Description  string `json:"description" validate:"required,max=500"`
	Photo        string `json:"photo" validate:"max=500"`
	Color        string `json:"color" validate:"max=50"`
	IsNew        bool   `json:"is_new"`
	Material     string `json:"material" validate:"max=100"`
	MainCategory string `json:"main_category" validate:"required,max=100"`
	SubCategory  string `json:"sub_category" validate:"required,max=100"`
}

// Piece is a physically separate part of an item with its own location.
type Piece struct {
	ItemID      int64   `json:"item_id"`
	PieceNum    int     `json:"piece_num"`
	Description string  `json:"description"`
	Length      float64 `json:"length"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	RoomNum     int     `json:"room_num"`
	ShelfNum    int     `json:"shelf_num"`
	Notes       string  `json:"notes,omitempty"`
}

// PieceInput is one entry of a piece payload. Pointer fields are required and
// must be present in the payload even when zero.
type PieceInput struct {
	PieceNum    int      `json:"piece_num" validate:"required,min=1"`
	Description string   `json:"description" validate:"required,max=500"`
	Length      *float64 `json:"length" validate:"required,min=0"`
	Width       *float64 `json:"width" validate:"required,min=0"`
	Height      *float64 `json:"height" validate:"required,min=0"`
	RoomNum     *int     `json:"room_num" validate:"required,min=0"`
	ShelfNum    *int     `json:"shelf_num" validate:"required,min=0"`
	Notes       *string  `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ItemDetail is an item together with all of its pieces.
type ItemDetail struct {
	Item
	Pieces []Piece `json:"pieces"`
}

// ItemSummary is the short form returned by availability listings.
type ItemSummary struct {
	ID          int64  `json:"item_id"`
	Description string `json:"description"`
	Color       string `json:"color,omitempty"`
	Material    string `json:"material,omitempty"`
	IsNew       bool   `json:"is_new"`
}
