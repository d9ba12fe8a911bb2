package purchase

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-kasir/internal/common"
)

// Handler exposes read-only purchase history endpoints.
type Handler struct {
	Store *Store
}

// Get handles GET /api/v1/purchases/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rec})
}

// Items handles GET /api/v1/purchases/{id}/items.
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rec.Items})
}

// ListByCustomer handles GET /api/v1/customers/{customerId}/purchases.
func (h *Handler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "purchase store not configured", nil)
		return
	}
	page, limit := common.ParsePagination(r, 20, 100)
	items, total, err := h.Store.ListByCustomer(r.Context(), chi.URLParam(r, "customerId"), page, limit)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       items,
		"pagination": common.NewPagination(page, limit, total),
	})
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) (Record, bool) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "purchase store not configured", nil)
		return Record{}, false
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		if err == nil {
			err = errors.New("id must be positive")
		}
		common.WriteError(w, common.ValidationError("id", err))
		return Record{}, false
	}
	rec, err := h.Store.Get(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return Record{}, false
	}
	return rec, true
}
