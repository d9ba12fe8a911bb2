package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-kasir/internal/catalog"
	"github.com/noah-isme/toko-kasir/internal/common"
	dbgen "github.com/noah-isme/toko-kasir/internal/db/gen"
	"github.com/noah-isme/toko-kasir/internal/db/memdb"
)

func newService(t *testing.T, cache *catalog.Cache) (*catalog.Service, *memdb.DB) {
	t.Helper()
	store := memdb.New()
	svc, err := catalog.NewService(catalog.ServiceConfig{Queries: store, Cache: cache})
	require.NoError(t, err)
	_, err = svc.Seed(context.Background(), catalog.DemoProducts())
	require.NoError(t, err)
	return svc, store
}

func newRedisCache(t *testing.T) (*catalog.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return catalog.NewCache(client, time.Minute), mr
}

func TestLookup(t *testing.T) {
	svc, _ := newService(t, nil)
	p, err := svc.Lookup(context.Background(), "P001")
	require.NoError(t, err)
	require.Equal(t, "Laptop", p.Name)
	require.Equal(t, int64(10), p.AvailableStock)
	require.True(t, p.Price.Equal(decimal.NewFromInt(50000)))

	_, err = svc.Lookup(context.Background(), "NOPE")
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "PRODUCT_NOT_FOUND", appErr.Code)
}

func TestSeedIsRepeatable(t *testing.T) {
	svc, _ := newService(t, nil)
	added, err := svc.Seed(context.Background(), catalog.DemoProducts())
	require.NoError(t, err)
	require.Zero(t, added)
	items, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 5)
}

func TestCreateValidatesAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	_, err := svc.Create(ctx, catalog.ProductInput{SKU: "P001", Name: "Again", Price: decimal.NewFromInt(1)})
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "CONFLICT", appErr.Code)

	_, err = svc.Create(ctx, catalog.ProductInput{SKU: "P009", Name: "", Price: decimal.NewFromInt(1)})
	field, ok := common.ValidationField(err)
	require.True(t, ok)
	require.Equal(t, "name", field)

	_, err = svc.Create(ctx, catalog.ProductInput{SKU: "P009", Name: "Pen", Price: decimal.NewFromInt(-1)})
	field, _ = common.ValidationField(err)
	require.Equal(t, "price", field)

	p, err := svc.Create(ctx, catalog.ProductInput{SKU: " P009 ", Name: "Pen", AvailableStock: 3, Price: decimal.RequireFromString("12.30"), TaxPercentage: decimal.NewFromInt(5)})
	require.NoError(t, err)
	require.Equal(t, "P009", p.SKU)
	require.True(t, p.Price.Equal(decimal.RequireFromString("12.3")))
}

func TestCreateRejectsValuesTheColumnsCannotHold(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)
	cases := []struct {
		name  string
		price string
		tax   string
		field string
	}{
		{"price with three decimals", "12.345", "5", "price"},
		{"tax with three decimals", "12.34", "5.125", "taxPercentage"},
		{"price too large", "1000000000000", "5", "price"},
		{"tax too large", "10", "10000", "taxPercentage"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, catalog.ProductInput{
				SKU:           "P010",
				Name:          "Pen",
				Price:         decimal.RequireFromString(tc.price),
				TaxPercentage: decimal.RequireFromString(tc.tax),
			})
			field, ok := common.ValidationField(err)
			require.True(t, ok)
			require.Equal(t, tc.field, field)
		})
	}
	_, err := svc.Lookup(ctx, "P010")
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestUpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t, nil)

	p, err := svc.Update(ctx, "P002", catalog.ProductInput{Name: "Wireless Mouse", AvailableStock: 7, Price: decimal.NewFromInt(650), TaxPercentage: decimal.NewFromInt(12)})
	require.NoError(t, err)
	require.Equal(t, "Wireless Mouse", p.Name)
	require.Equal(t, int64(7), p.AvailableStock)

	_, err = svc.Update(ctx, "NOPE", catalog.ProductInput{Name: "x"})
	require.ErrorIs(t, err, catalog.ErrProductNotFound)

	require.NoError(t, svc.Delete(ctx, "P002"))
	require.ErrorIs(t, svc.Delete(ctx, "P002"), catalog.ErrProductNotFound)
}

func TestListCacheInvalidatedOnMutation(t *testing.T) {
	ctx := context.Background()
	cache, mr := newRedisCache(t)
	svc, _ := newService(t, cache)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 5)
	require.True(t, mr.Exists("catalog:products:list"))

	_, err = svc.Create(ctx, catalog.ProductInput{SKU: "P006", Name: "Webcam", AvailableStock: 4, Price: decimal.NewFromInt(2500), TaxPercentage: decimal.NewFromInt(18)})
	require.NoError(t, err)
	require.False(t, mr.Exists("catalog:products:list"))

	items, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 6)
	require.True(t, items[0].Price.Equal(decimal.NewFromInt(50000)))
}

func TestListRecoversFromCorruptCache(t *testing.T) {
	ctx := context.Background()
	cache, mr := newRedisCache(t)
	svc, _ := newService(t, cache)
	require.NoError(t, mr.Set("catalog:products:list", "not json"))

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 5)

	cached, ok, err := cache.Products(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, cached, 5)
}

func TestReserve(t *testing.T) {
	ctx := context.Background()
	_, store := newService(t, nil)

	err := store.InTx(ctx, func(q dbgen.Querier) error {
		return catalog.Reserve(ctx, q, "P001", 4)
	})
	require.NoError(t, err)
	row, err := store.GetProductBySKU(ctx, "P001")
	require.NoError(t, err)
	require.Equal(t, int64(6), row.AvailableStock)

	err = store.InTx(ctx, func(q dbgen.Querier) error {
		return catalog.Reserve(ctx, q, "P001", 7)
	})
	require.ErrorIs(t, err, catalog.ErrInsufficientStock)
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, map[string]any{"sku": "P001", "requested": int64(7), "available": int64(6)}, appErr.Details)

	err = store.InTx(ctx, func(q dbgen.Querier) error {
		return catalog.Reserve(ctx, q, "NOPE", 1)
	})
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
}
