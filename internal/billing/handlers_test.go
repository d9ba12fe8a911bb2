package billing_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-kasir/internal/billing"
	"github.com/noah-isme/toko-kasir/internal/purchase"
)

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestQuoteHandler(t *testing.T) {
	f := newFixture(t, plentyDrawer())
	h := &billing.Handler{Service: f.svc}

	rr := httptest.NewRecorder()
	h.Quote(rr, httptest.NewRequest(http.MethodPost, "/api/v1/bills/quote", strings.NewReader(`{"items":[{"sku":"P001","quantity":1}],"paidAmount":60000}`)))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data billing.Quote `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, int64(59000), resp.Data.RoundedTotal)
	require.Equal(t, "59000", resp.Data.Total.String())
	require.NotNil(t, resp.Data.Payment)
	require.Equal(t, int64(1000), resp.Data.Payment.Balance)
}

func TestCommitHandler(t *testing.T) {
	f := newFixture(t, plentyDrawer())
	h := &billing.Handler{Service: f.svc}

	rr := httptest.NewRecorder()
	body := `{"customerId":"cust-9","items":[{"sku":"P001","quantity":1}],"paidAmount":60000,"tendered":[{"value":500,"count":120}]}`
	h.Commit(rr, httptest.NewRequest(http.MethodPost, "/api/v1/bills", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rr.Code)

	var resp struct {
		Data purchase.Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "cust-9", resp.Data.CustomerID)
	require.Equal(t, int64(1000), resp.Data.Balance)
	require.Len(t, resp.Data.Change, 1)
}

func TestCommitHandlerErrors(t *testing.T) {
	f := newFixture(t, plentyDrawer())
	h := &billing.Handler{Service: f.svc}
	cases := []struct {
		name   string
		body   string
		status int
		code   string
		field  string
	}{
		{"non numeric quantity", `{"customerId":"c","items":[{"sku":"P001","quantity":"two"}],"paidAmount":60000}`, http.StatusBadRequest, "VALIDATION_ERROR", "items.quantity"},
		{"unknown field", `{"customerId":"c","items":[{"sku":"P001","quantity":1}],"paidAmount":60000,"coupon":"X"}`, http.StatusBadRequest, "VALIDATION_ERROR", "coupon"},
		{"fractional paid", `{"customerId":"c","items":[{"sku":"P001","quantity":1}],"paidAmount":60000.5}`, http.StatusBadRequest, "VALIDATION_ERROR", "paidAmount"},
		{"non numeric paid", `{"customerId":"c","items":[{"sku":"P001","quantity":1}],"paidAmount":"abc"}`, http.StatusBadRequest, "VALIDATION_ERROR", "paidAmount"},
		{"note count beyond limit", `{"customerId":"c","items":[{"sku":"P001","quantity":1}],"paidAmount":60000,"tendered":[{"value":500,"count":4611686018427387904}]}`, http.StatusBadRequest, "VALIDATION_ERROR", "tendered[0].count"},
		{"unknown product", `{"customerId":"c","items":[{"sku":"P404","quantity":1}],"paidAmount":60000}`, http.StatusNotFound, "PRODUCT_NOT_FOUND", ""},
		{"short payment", `{"customerId":"c","items":[{"sku":"P001","quantity":1}],"paidAmount":58000}`, http.StatusUnprocessableEntity, "INSUFFICIENT_PAYMENT", ""},
		{"too many", `{"customerId":"c","items":[{"sku":"P001","quantity":11}],"paidAmount":700000}`, http.StatusConflict, "INSUFFICIENT_STOCK", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.Commit(rr, httptest.NewRequest(http.MethodPost, "/api/v1/bills", strings.NewReader(tc.body)))
			require.Equal(t, tc.status, rr.Code)
			var resp errorEnvelope
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			require.Equal(t, tc.code, resp.Error.Code)
			if tc.field != "" {
				require.Equal(t, tc.field, resp.Error.Details["field"])
			}
		})
	}
}
