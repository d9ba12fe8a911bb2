// Package audit records operator changes to the catalog on the event outbox.
package audit

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/noah-isme/toko-kasir/internal/common"
	dbgen "github.com/noah-isme/toko-kasir/internal/db/gen"
	"github.com/noah-isme/toko-kasir/internal/events"
	"github.com/noah-isme/toko-kasir/internal/obs"
)

// Action names recorded for catalog management routes.
const (
	ActionProductCreate = "product.create"
	ActionProductUpdate = "product.update"
	ActionProductDelete = "product.delete"
)

// Emitter persists and dispatches a domain event; *events.Bus satisfies it.
type Emitter interface {
	Emit(ctx context.Context, topic, aggregateID string, payload any) (dbgen.DomainEvent, error)
}

// HTTPRecorder emits a catalog.changed event after each successful request it
// wraps. Failed requests change nothing and are not recorded.
type HTTPRecorder struct {
	Events  Emitter
	OnError func(error)
}

// HTTPConfig describes the audited route.
type HTTPConfig struct {
	Action   string
	SKUParam string
}

// Middleware returns chi-compatible middleware for cfg.
func (r HTTPRecorder) Middleware(cfg HTTPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if r.Events == nil {
				next.ServeHTTP(w, req)
				return
			}
			rec := obs.NewStatusRecorder(w)
			next.ServeHTTP(rec, req)

			status := rec.Status()
			if status < 200 || status >= 300 {
				return
			}
			operator, _ := common.Operator(req.Context())
			payload := events.CatalogChanged{
				Action:    cfg.Action,
				Operator:  operator,
				Status:    status,
				RequestID: middleware.GetReqID(req.Context()),
			}
			aggregate := "catalog"
			if cfg.SKUParam != "" {
				if sku := chi.URLParam(req, cfg.SKUParam); sku != "" {
					payload.SKU = sku
					aggregate = sku
				}
			}
			if _, err := r.Events.Emit(req.Context(), events.TopicCatalogChanged, aggregate, payload); err != nil && r.OnError != nil {
				r.OnError(err)
			}
		})
	}
}
