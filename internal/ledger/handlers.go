package ledger

import (
	"net/http"

	"github.com/noah-isme/toko-kasir/internal/common"
)

// Handler exposes the drawer.
type Handler struct {
	Drawer *Drawer
}

// Denominations handles GET /api/v1/till/denominations.
func (h *Handler) Denominations(w http.ResponseWriter, r *http.Request) {
	notes, err := h.Drawer.Snapshot(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"denominations": notes,
			"total":         Total(notes),
		},
	})
}
