package api

import (
	"net/http"

	"github.com/erazemk/donacije/internal/model"
	"github.com/erazemk/donacije/internal/service"
)

// OrdersHandler handles order fulfilment endpoints.
type OrdersHandler struct {
	Fulfilment *service.Fulfilment
}

type startOrderRequest struct {
	Client string `json:"client"`
	Notes  string `json:"notes"`
}

type addItemRequest struct {
	ItemID int64 `json:"item_id"`
}

type foundRequest struct {
	Found *bool `json:"found"`
}

// Start handles POST /api/orders.
func (h *OrdersHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.Fulfilment.StartOrder(r.Context(), caller(r), req.Client, req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]int64{"order_id": id})
}

// List handles GET /api/orders?client=&supervisor=&status=.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orders, err := h.Fulfilment.ListOrders(r.Context(), model.OrderFilter{
		Client:     q.Get("client"),
		Supervisor: q.Get("supervisor"),
		Status:     q.Get("status"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// Get handles GET /api/orders/{id}.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	order, err := h.Fulfilment.GetOrder(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, order)
}

// AddItem handles POST /api/orders/{id}/items.
func (h *OrdersHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.ItemID <= 0 {
		jsonError(w, http.StatusBadRequest, "item_id required")
		return
	}

	if err := h.Fulfilment.AddItemToOrder(r.Context(), caller(r), id, req.ItemID); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, model.Assignment{ItemID: req.ItemID, OrderID: id})
}

// RemoveItem handles DELETE /api/orders/{id}/items/{item}.
func (h *OrdersHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	itemID, err := pathID(r, "item")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Fulfilment.RemoveItemFromOrder(r.Context(), caller(r), id, itemID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkFound handles PUT /api/orders/{id}/items/{item}/found.
func (h *OrdersHandler) MarkFound(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	itemID, err := pathID(r, "item")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req foundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Found == nil {
		jsonError(w, http.StatusBadRequest, "found required")
		return
	}

	if err := h.Fulfilment.MarkItemFound(r.Context(), caller(r), id, itemID, *req.Found); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, model.Assignment{ItemID: itemID, OrderID: id, Found: *req.Found})
}

// Close handles POST /api/orders/{id}/close.
func (h *OrdersHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.Fulfilment.CloseOrder(r.Context(), caller(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": model.OrderStatusClosed})
}
