package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/erazemk/donacije/internal/model"
	"github.com/erazemk/donacije/internal/service"
)

// ItemsHandler handles item, piece and photo endpoints.
type ItemsHandler struct {
	Catalog *service.Catalog

	// MaxUpload bounds photo uploads, multipart overhead included.
	MaxUpload int64
}

// Available handles GET /api/items/available?main=&sub=.
func (h *ItemsHandler) Available(w http.ResponseWriter, r *http.Request) {
	main, sub := r.URL.Query().Get("main"), r.URL.Query().Get("sub")
	if main == "" || sub == "" {
		jsonError(w, http.StatusBadRequest, "main and sub category required")
		return
	}

	items, err := h.Catalog.ListAvailableItems(r.Context(), main, sub)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.ItemSummary{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	detail, err := h.Catalog.GetItemWithPieces(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, detail)
}

// AddPieces handles POST /api/items/{id}/pieces. The body is a JSON array of
// pieces.
func (h *ItemsHandler) AddPieces(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "request body too large")
		return
	}

	pieces, err := service.DecodePieces(body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(pieces) == 0 {
		jsonError(w, http.StatusBadRequest, "at least one piece required")
		return
	}

	if err := h.Catalog.AddPieces(r.Context(), caller(r), id, pieces); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("pieces added", "item", id, "count", len(pieces), "user", caller(r))
	jsonResponse(w, http.StatusCreated, map[string]int{"added": len(pieces)})
}

// UploadImage handles PUT /api/items/{id}/image with a multipart "image" file.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
	if err := r.ParseMultipartForm(h.MaxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("image larger than %d bytes", tooLarge.Limit))
			return
		}
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	if err := h.Catalog.SetItemImage(r.Context(), caller(r), id, file); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("item image uploaded", "item", id, "user", caller(r))
	jsonResponse(w, http.StatusOK, map[string]string{"photo": service.ImageURL(id)})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	data, mime, err := h.Catalog.GetItemImage(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Write(data)
}
