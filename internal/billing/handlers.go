package billing

import (
	"net/http"

	"github.com/noah-isme/toko-kasir/internal/common"
)

// Handler exposes the bill endpoints.
type Handler struct {
	Service *Service
}

// Quote handles POST /api/v1/bills/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "billing service not configured", nil)
		return
	}
	var in QuoteInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	quote, err := h.Service.Quote(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

// Commit handles POST /api/v1/bills.
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	if h.Service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "billing service not configured", nil)
		return
	}
	var in CommitInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	rec, err := h.Service.Commit(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": rec})
}
