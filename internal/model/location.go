package model

// Location is a (room, shelf) storage slot.
type Location struct {
	RoomNum     int    `json:"room_num" validate:"min=0"`
	ShelfNum    int    `json:"shelf_num" validate:"min=0"`
	Description string `json:"description" validate:"max=500"`
}

// Category is one (main, sub) pair of the category reference set.
type Category struct {
	MainCategory string `json:"main_category" validate:"required,max=100"`
	SubCategory  string `json:"sub_category" validate:"required,max=100"`
	Notes        string `json:"notes,omitempty" validate:"max=1000"`
}
