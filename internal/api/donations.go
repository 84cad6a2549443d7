package api

import (
	"encoding/json"
	"net/http"

	"github.com/erazemk/donacije/internal/model"
	"github.com/erazemk/donacije/internal/service"
)

// DonationsHandler handles donation intake endpoints.
type DonationsHandler struct {
	Intake *service.Intake
}

type donationRequest struct {
	Donor  string          `json:"donor"`
	Item   model.ItemInput `json:"item"`
	Pieces json.RawMessage `json:"pieces"`
}

// Accept handles POST /api/donations.
func (h *DonationsHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req donationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.Donor == "" {
		jsonError(w, http.StatusBadRequest, "donor required")
		return
	}

	pieces, err := service.DecodePieces(req.Pieces)
	if err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.Intake.AcceptDonation(r.Context(), caller(r), req.Donor, req.Item, pieces)
	if err != nil {
		writeError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusCreated, map[string]int64{"item_id": id})
}

// ListByDonor handles GET /api/donors/{username}/donations.
func (h *DonationsHandler) ListByDonor(w http.ResponseWriter, r *http.Request) {
	donations, err := h.Intake.ListDonations(r.Context(), r.PathValue("username"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if donations == nil {
		donations = []model.Donation{}
	}
	jsonResponse(w, http.StatusOK, donations)
}
