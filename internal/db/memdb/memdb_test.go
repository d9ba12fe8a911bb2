package memdb_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-kasir/internal/db"
	dbgen "github.com/noah-isme/toko-kasir/internal/db/gen"
	"github.com/noah-isme/toko-kasir/internal/db/memdb"
)

var _ db.Store = (*memdb.DB)(nil)

func seedProduct(t *testing.T, store *memdb.DB, sku string, stock int64) {
	t.Helper()
	_, err := store.CreateProduct(context.Background(), dbgen.CreateProductParams{
		Sku:            sku,
		Name:           "Item " + sku,
		AvailableStock: stock,
		Price:          decimal.RequireFromString("10.50"),
		TaxPercentage:  decimal.RequireFromString("12"),
	})
	require.NoError(t, err)
}

func TestProductsCRUD(t *testing.T) {
	ctx := context.Background()
	store := memdb.New()
	seedProduct(t, store, "B", 5)
	seedProduct(t, store, "A", 3)

	_, err := store.CreateProduct(ctx, dbgen.CreateProductParams{Sku: "A", Name: "dup"})
	require.True(t, db.IsUniqueViolation(err))

	rows, err := store.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, "A", rows[0].Sku)
	require.Equal(t, int64(2), rows[0].ID)

	updated, err := store.UpdateProduct(ctx, dbgen.UpdateProductParams{Sku: "A", Name: "Renamed", AvailableStock: 9, Price: decimal.NewFromInt(1), TaxPercentage: decimal.Zero})
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)

	_, err = store.UpdateProduct(ctx, dbgen.UpdateProductParams{Sku: "missing"})
	require.True(t, db.IsNotFound(err))

	n, err := store.DeleteProduct(ctx, "B")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	n, err = store.DeleteProduct(ctx, "B")
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = store.GetProductBySKU(ctx, "B")
	require.True(t, db.IsNotFound(err))
}

func TestDecrementProductStockGuard(t *testing.T) {
	ctx := context.Background()
	store := memdb.New()
	seedProduct(t, store, "P", 2)

	left, err := store.DecrementProductStock(ctx, dbgen.DecrementProductStockParams{Sku: "P", Quantity: 2})
	require.NoError(t, err)
	require.Zero(t, left)

	_, err = store.DecrementProductStock(ctx, dbgen.DecrementProductStockParams{Sku: "P", Quantity: 1})
	require.True(t, db.IsNotFound(err))
}

func TestDenominationAdjustGuard(t *testing.T) {
	ctx := context.Background()
	store := memdb.New()
	n, err := store.InsertDenomination(ctx, dbgen.InsertDenominationParams{Value: 50, Count: 1})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	n, err = store.InsertDenomination(ctx, dbgen.InsertDenominationParams{Value: 50, Count: 7})
	require.NoError(t, err)
	require.Zero(t, n)

	_, err = store.AdjustDenominationCount(ctx, dbgen.AdjustDenominationCountParams{Value: 50, Delta: -2})
	require.True(t, db.IsNotFound(err))

	row, err := store.AdjustDenominationCount(ctx, dbgen.AdjustDenominationCountParams{Value: 50, Delta: 4})
	require.NoError(t, err)
	require.Equal(t, int64(5), row.Count)

	_, err = store.InsertDenomination(ctx, dbgen.InsertDenominationParams{Value: 0, Count: 1})
	require.Error(t, err)
}

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := memdb.New()
	seedProduct(t, store, "P", 4)

	boom := errors.New("boom")
	err := store.InTx(ctx, func(q dbgen.Querier) error {
		if _, err := q.DecrementProductStock(ctx, dbgen.DecrementProductStockParams{Sku: "P", Quantity: 3}); err != nil {
			return err
		}
		if _, err := q.InsertDomainEvent(ctx, dbgen.InsertDomainEventParams{Topic: "t", AggregateID: "1"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	row, err := store.GetProductBySKU(ctx, "P")
	require.NoError(t, err)
	require.Equal(t, int64(4), row.AvailableStock)
	require.Empty(t, store.Events())
}

func TestInTxCommitIsVisible(t *testing.T) {
	ctx := context.Background()
	store := memdb.New()
	seedProduct(t, store, "P", 4)

	err := store.InTx(ctx, func(q dbgen.Querier) error {
		_, err := q.DecrementProductStock(ctx, dbgen.DecrementProductStockParams{Sku: "P", Quantity: 1})
		return err
	})
	require.NoError(t, err)
	row, err := store.GetProductBySKU(ctx, "P")
	require.NoError(t, err)
	require.Equal(t, int64(3), row.AvailableStock)
}

func TestInTxCancelledContext(t *testing.T) {
	store := memdb.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := store.InTx(ctx, func(dbgen.Querier) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}

func TestInTxSerialisesWriters(t *testing.T) {
	ctx := context.Background()
	store := memdb.New()
	seedProduct(t, store, "P", 100)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.InTx(ctx, func(q dbgen.Querier) error {
				row, err := q.GetProductBySKUForUpdate(ctx, "P")
				if err != nil {
					return err
				}
				_, err = q.UpdateProduct(ctx, dbgen.UpdateProductParams{
					Sku:            "P",
					Name:           row.Name,
					AvailableStock: row.AvailableStock - 1,
					Price:          row.Price,
					TaxPercentage:  row.TaxPercentage,
				})
				return err
			})
		}()
	}
	wg.Wait()

	row, err := store.GetProductBySKU(ctx, "P")
	require.NoError(t, err)
	require.Equal(t, int64(50), row.AvailableStock)
}

func TestListPurchasesByCustomerOrdering(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := memdb.New()
	at := pgtype.Timestamptz{Time: base, Valid: true}

	for i := 0; i < 3; i++ {
		_, err := store.InsertPurchase(ctx, dbgen.InsertPurchaseParams{CustomerID: "c@x", PurchasedAt: at, Items: []byte("[]")})
		require.NoError(t, err)
	}
	_, err := store.InsertPurchase(ctx, dbgen.InsertPurchaseParams{CustomerID: "other", PurchasedAt: at, Items: []byte("[]")})
	require.NoError(t, err)

	total, err := store.CountPurchasesByCustomer(ctx, "c@x")
	require.NoError(t, err)
	require.Equal(t, int64(3), total)

	rows, err := store.ListPurchasesByCustomer(ctx, dbgen.ListPurchasesByCustomerParams{CustomerID: "c@x", LimitValue: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, int64(3), rows[0].ID)
	require.Equal(t, int64(2), rows[1].ID)
	require.JSONEq(t, "[]", string(rows[0].Change))

	rows, err = store.ListPurchasesByCustomer(ctx, dbgen.ListPurchasesByCustomerParams{CustomerID: "c@x", LimitValue: 2, OffsetValue: 2})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(1), rows[0].ID)

	_, err = store.GetPurchase(ctx, 99)
	require.True(t, db.IsNotFound(err))
}

func TestInsertPurchaseRequiresTimestamp(t *testing.T) {
	store := memdb.New()
	_, err := store.InsertPurchase(context.Background(), dbgen.InsertPurchaseParams{CustomerID: "c@x", Items: []byte("[]")})
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	require.Equal(t, "23502", pgErr.Code)
	require.Equal(t, "purchased_at", pgErr.ColumnName)

	total, err := store.CountPurchasesByCustomer(context.Background(), "c@x")
	require.NoError(t, err)
	require.Zero(t, total)
}

func TestClockStampsRows(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	store := memdb.New(memdb.WithClock(func() time.Time { return at }))
	_, err := store.InsertDenomination(context.Background(), dbgen.InsertDenominationParams{Value: 500, Count: 1})
	require.NoError(t, err)
	rows, err := store.ListDenominations(context.Background())
	require.NoError(t, err)
	require.True(t, at.Equal(rows[0].UpdatedAt.Time))
}

func TestDeleteDenominationsNotIn(t *testing.T) {
	ctx := context.Background()
	store := memdb.New()
	for _, v := range []int64{1, 3, 5} {
		_, err := store.InsertDenomination(ctx, dbgen.InsertDenominationParams{Value: v, Count: 1})
		require.NoError(t, err)
	}
	n, err := store.DeleteDenominationsNotIn(ctx, []int64{1, 5})
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	rows, err := store.ListDenominations(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, int64(5), rows[0].Value)
}
