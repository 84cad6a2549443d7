package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/donacije/internal/model"
	"github.com/erazemk/donacije/internal/service"
)

// ReferenceHandler serves categories, rooms, shelves and locations.
type ReferenceHandler struct {
	Query *service.Query
}

// ListCategories handles GET /api/categories.
func (h *ReferenceHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Query.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if cats == nil {
		cats = []model.Category{}
	}
	jsonResponse(w, http.StatusOK, cats)
}

// CreateCategory handles POST /api/categories.
func (h *ReferenceHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req model.Category
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Query.CreateCategory(r.Context(), caller(r), req); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, req)
}

// ListRooms handles GET /api/rooms.
func (h *ReferenceHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Query.ListRooms(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rooms == nil {
		rooms = []int{}
	}
	jsonResponse(w, http.StatusOK, rooms)
}

// ListShelves handles GET /api/rooms/{room}/shelves.
func (h *ReferenceHandler) ListShelves(w http.ResponseWriter, r *http.Request) {
	room, err := strconv.Atoi(r.PathValue("room"))
	if err != nil || room < 0 {
		jsonError(w, http.StatusBadRequest, "invalid room")
		return
	}

	shelves, err := h.Query.ListShelves(r.Context(), room)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if shelves == nil {
		shelves = []int{}
	}
	jsonResponse(w, http.StatusOK, shelves)
}

// ListLocations handles GET /api/locations.
func (h *ReferenceHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locs, err := h.Query.ListLocations(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if locs == nil {
		locs = []model.Location{}
	}
	jsonResponse(w, http.StatusOK, locs)
}

// CreateLocation handles POST /api/locations.
func (h *ReferenceHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var req model.Location
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Query.CreateLocation(r.Context(), caller(r), req); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, req)
}
