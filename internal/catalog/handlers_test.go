package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-kasir/internal/catalog"
)

type productsResponse struct {
	Data []catalog.Product `json:"data"`
}

type productResponse struct {
	Data catalog.Product `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func withSKU(req *http.Request, sku string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("sku", sku)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCatalogHandlers(t *testing.T) {
	svc, _ := newService(t, nil)
	handler := catalog.NewHandler(catalog.HandlerConfig{Service: svc})

	t.Run("products list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Products(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "5", rec.Header().Get("X-Total-Count"))
		var resp productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "P001", resp.Data[0].SKU)
	})

	t.Run("product detail", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Product(rec, withSKU(httptest.NewRequest(http.MethodGet, "/api/v1/products/P003", nil), "P003"))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp productResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "Keyboard", resp.Data.Name)
	})

	t.Run("unknown sku", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Product(rec, withSKU(httptest.NewRequest(http.MethodGet, "/api/v1/products/X", nil), "X"))
		require.Equal(t, http.StatusNotFound, rec.Code)
		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "PRODUCT_NOT_FOUND", resp.Error.Code)
		require.Equal(t, "X", resp.Error.Details["sku"])
	})

	t.Run("create update delete", func(t *testing.T) {
		body := `{"sku":"P010","name":"Headset","availableStock":2,"price":"1999.50","taxPercentage":"12"}`
		rec := httptest.NewRecorder()
		handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader(body)))
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = httptest.NewRecorder()
		req := withSKU(httptest.NewRequest(http.MethodPut, "/api/v1/admin/products/P010", strings.NewReader(`{"name":"Headset Pro","availableStock":5,"price":"2500","taxPercentage":"12"}`)), "P010")
		handler.Update(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp productResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "Headset Pro", resp.Data.Name)

		rec = httptest.NewRecorder()
		handler.Delete(rec, withSKU(httptest.NewRequest(http.MethodDelete, "/api/v1/admin/products/P010", nil), "P010"))
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("malformed stock", func(t *testing.T) {
		rec := httptest.NewRecorder()
		body := `{"sku":"P011","name":"Pad","availableStock":"lots","price":"1","taxPercentage":"0"}`
		handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/admin/products", strings.NewReader(body)))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var resp errorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
		require.Equal(t, "availableStock", resp.Error.Details["field"])
	})
}
