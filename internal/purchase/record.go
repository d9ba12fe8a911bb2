// Package purchase is the append-only log of committed bills.
package purchase

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	dbgen "github.com/noah-isme/toko-kasir/internal/db/gen"
	"github.com/noah-isme/toko-kasir/internal/ledger"
)

// Item is one bill line with the product data as it was at commit time.
type Item struct {
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Quantity      int64           `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	TaxPercentage decimal.Decimal `json:"taxPercentage"`
	LineTotal     decimal.Decimal `json:"lineTotal"`
	LineTax       decimal.Decimal `json:"lineTax"`
}

// Record is an immutable committed bill. RoundedTotal is floor(Subtotal+TotalTax),
// Balance is PaidAmount-RoundedTotal and Change sums to Balance.
type Record struct {
	ID           int64                 `json:"id"`
	CustomerID   string                `json:"customerId"`
	PurchasedAt  time.Time             `json:"purchasedAt"`
	Items        []Item                `json:"items"`
	Subtotal     decimal.Decimal       `json:"subtotal"`
	TotalTax     decimal.Decimal       `json:"totalTax"`
	Total        decimal.Decimal       `json:"total"`
	RoundedTotal int64                 `json:"roundedTotal"`
	PaidAmount   int64                 `json:"paidAmount"`
	Balance      int64                 `json:"balance"`
	Change       []ledger.Denomination `json:"change"`
	Tendered     []ledger.Denomination `json:"tendered"`
}

func toParams(rec Record) (dbgen.InsertPurchaseParams, error) {
	items, err := json.Marshal(nonNil(rec.Items))
	if err != nil {
		return dbgen.InsertPurchaseParams{}, fmt.Errorf("encode items: %w", err)
	}
	change, err := json.Marshal(nonNil(rec.Change))
	if err != nil {
		return dbgen.InsertPurchaseParams{}, fmt.Errorf("encode change: %w", err)
	}
	tendered, err := json.Marshal(nonNil(rec.Tendered))
	if err != nil {
		return dbgen.InsertPurchaseParams{}, fmt.Errorf("encode tendered: %w", err)
	}
	if rec.PurchasedAt.IsZero() {
		return dbgen.InsertPurchaseParams{}, errors.New("purchased at is required")
	}
	return dbgen.InsertPurchaseParams{
		CustomerID:   rec.CustomerID,
		PurchasedAt:  pgtype.Timestamptz{Time: rec.PurchasedAt.UTC(), Valid: true},
		Items:        items,
		Subtotal:     rec.Subtotal,
		TotalTax:     rec.TotalTax,
		Total:        rec.Total,
		RoundedTotal: rec.RoundedTotal,
		PaidAmount:   rec.PaidAmount,
		Balance:      rec.Balance,
		Change:       change,
		Tendered:     tendered,
	}, nil
}

func fromRow(row dbgen.Purchase) (Record, error) {
	rec := Record{
		ID:           row.ID,
		CustomerID:   row.CustomerID,
		PurchasedAt:  row.PurchasedAt.Time.UTC(),
		Subtotal:     row.Subtotal,
		TotalTax:     row.TotalTax,
		Total:        row.Total,
		RoundedTotal: row.RoundedTotal,
		PaidAmount:   row.PaidAmount,
		Balance:      row.Balance,
		Items:        []Item{},
		Change:       []ledger.Denomination{},
		Tendered:     []ledger.Denomination{},
	}
	if err := decodeBlob(row.Items, &rec.Items); err != nil {
		return Record{}, fmt.Errorf("decode items of purchase %d: %w", row.ID, err)
	}
	if err := decodeBlob(row.Change, &rec.Change); err != nil {
		return Record{}, fmt.Errorf("decode change of purchase %d: %w", row.ID, err)
	}
	if err := decodeBlob(row.Tendered, &rec.Tendered); err != nil {
		return Record{}, fmt.Errorf("decode tendered of purchase %d: %w", row.ID, err)
	}
	return rec, nil
}

func decodeBlob[T any](data []byte, dst *[]T) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return err
	}
	if *dst == nil {
		*dst = []T{}
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
