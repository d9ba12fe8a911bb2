package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-kasir/internal/common"
	"github.com/noah-isme/toko-kasir/internal/db"
	dbgen "github.com/noah-isme/toko-kasir/internal/db/gen"
)

type queryProvider interface {
	GetProductBySKU(ctx context.Context, sku string) (dbgen.Product, error)
	ListProducts(ctx context.Context) ([]dbgen.Product, error)
	CreateProduct(ctx context.Context, arg dbgen.CreateProductParams) (dbgen.Product, error)
	UpdateProduct(ctx context.Context, arg dbgen.UpdateProductParams) (dbgen.Product, error)
	DeleteProduct(ctx context.Context, sku string) (int64, error)
}

// TxQueries is the subset of a transactional querier used while committing a bill.
type TxQueries interface {
	GetProductBySKUForUpdate(ctx context.Context, sku string) (dbgen.Product, error)
	DecrementProductStock(ctx context.Context, arg dbgen.DecrementProductStockParams) (int64, error)
}

// Service serves catalog reads and catalog management.
type Service struct {
	queries queryProvider
	cache   *Cache
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Queries queryProvider
	Cache   *Cache
}

// Product is the public product payload.
type Product struct {
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	AvailableStock int64           `json:"availableStock"`
	Price          decimal.Decimal `json:"price"`
	TaxPercentage  decimal.Decimal `json:"taxPercentage"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ProductInput is the payload for creating or replacing a product.
type ProductInput struct {
	SKU            string          `json:"sku" validate:"required,max=64"`
	Name           string          `json:"name" validate:"required,max=200"`
	AvailableStock int64           `json:"availableStock" validate:"gte=0"`
	Price          decimal.Decimal `json:"price"`
	TaxPercentage  decimal.Decimal `json:"taxPercentage"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("catalog: queries provider is required")
	}
	return &Service{queries: cfg.Queries, cache: cfg.Cache}, nil
}

// Lookup returns the product for sku.
func (s *Service) Lookup(ctx context.Context, sku string) (Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return Product{}, common.ValidationError("sku", errors.New("sku is required"))
	}
	row, err := s.queries.GetProductBySKU(ctx, sku)
	if err != nil {
		if db.IsNotFound(err) {
			return Product{}, ProductNotFound(sku)
		}
		return Product{}, fmt.Errorf("get product %s: %w", sku, err)
	}
	return FromRow(row), nil
}

// List returns every product ordered by SKU, served from cache when warm.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	if cached, ok, err := s.cache.Products(ctx); err == nil && ok {
		return cached, nil
	}
	rows, err := s.queries.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	items := make([]Product, 0, len(rows))
	for _, row := range rows {
		items = append(items, FromRow(row))
	}
	_ = s.cache.StoreProducts(ctx, items)
	return items, nil
}

// Create adds a product. A duplicate SKU yields CONFLICT.
func (s *Service) Create(ctx context.Context, in ProductInput) (Product, error) {
	in, err := normalise(in)
	if err != nil {
		return Product{}, err
	}
	row, err := s.queries.CreateProduct(ctx, dbgen.CreateProductParams{
		Sku:            in.SKU,
		Name:           in.Name,
		AvailableStock: in.AvailableStock,
		Price:          in.Price,
		TaxPercentage:  in.TaxPercentage,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Product{}, conflict(in.SKU, err)
		}
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	s.InvalidateList(ctx)
	return FromRow(row), nil
}

// Update replaces the mutable fields of the product identified by sku.
func (s *Service) Update(ctx context.Context, sku string, in ProductInput) (Product, error) {
	in.SKU = strings.TrimSpace(sku)
	in, err := normalise(in)
	if err != nil {
		return Product{}, err
	}
	row, err := s.queries.UpdateProduct(ctx, dbgen.UpdateProductParams{
		Sku:            in.SKU,
		Name:           in.Name,
		AvailableStock: in.AvailableStock,
		Price:          in.Price,
		TaxPercentage:  in.TaxPercentage,
	})
	if err != nil {
		if db.IsNotFound(err) {
			return Product{}, ProductNotFound(in.SKU)
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	s.InvalidateList(ctx)
	return FromRow(row), nil
}

// Delete removes the product identified by sku. Past purchases keep their
// snapshot of it.
func (s *Service) Delete(ctx context.Context, sku string) error {
	sku = strings.TrimSpace(sku)
	n, err := s.queries.DeleteProduct(ctx, sku)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if n == 0 {
		return ProductNotFound(sku)
	}
	s.InvalidateList(ctx)
	return nil
}

// InvalidateList drops the cached product list. Failures only cost a stale
// read until the TTL passes.
func (s *Service) InvalidateList(ctx context.Context) {
	_ = s.cache.Invalidate(ctx)
}

// Seed inserts products that do not exist yet and reports how many were added.
func (s *Service) Seed(ctx context.Context, products []ProductInput) (int, error) {
	added := 0
	for _, p := range products {
		if _, err := s.Create(ctx, p); err != nil {
			var appErr *common.AppError
			if errors.As(err, &appErr) && appErr.Code == "CONFLICT" {
				continue
			}
			return added, err
		}
		added++
	}
	return added, nil
}

// LookupForUpdate reads sku with a row lock inside a commit transaction.
func LookupForUpdate(ctx context.Context, q TxQueries, sku string) (Product, error) {
	row, err := q.GetProductBySKUForUpdate(ctx, sku)
	if err != nil {
		if db.IsNotFound(err) {
			return Product{}, ProductNotFound(sku)
		}
		return Product{}, fmt.Errorf("lock product %s: %w", sku, err)
	}
	return FromRow(row), nil
}

// Reserve takes quantity units of sku out of stock. It never leaves stock
// negative; the caller's transaction discards earlier reservations on error.
func Reserve(ctx context.Context, q TxQueries, sku string, quantity int64) error {
	if quantity <= 0 {
		return common.ValidationError("quantity", fmt.Errorf("quantity %d for %s", quantity, sku))
	}
	_, err := q.DecrementProductStock(ctx, dbgen.DecrementProductStockParams{Quantity: quantity, Sku: sku})
	if err == nil {
		return nil
	}
	if !db.IsNotFound(err) {
		return fmt.Errorf("reserve %s: %w", sku, err)
	}
	p, lookupErr := LookupForUpdate(ctx, q, sku)
	if lookupErr != nil {
		return lookupErr
	}
	return InsufficientStock(sku, quantity, p.AvailableStock)
}

// FromRow maps a products row to the public payload.
func FromRow(row dbgen.Product) Product {
	return Product{
		SKU:            row.Sku,
		Name:           row.Name,
		AvailableStock: row.AvailableStock,
		Price:          row.Price,
		TaxPercentage:  row.TaxPercentage,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}

func normalise(in ProductInput) (ProductInput, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if err := common.Validate(in); err != nil {
		return in, err
	}
	if in.Price.IsNegative() {
		return in, common.ValidationError("price", errors.New("price must not be negative"))
	}
	if in.TaxPercentage.IsNegative() {
		return in, common.ValidationError("taxPercentage", errors.New("taxPercentage must not be negative"))
	}
	// Stored as NUMERIC(14,2) and NUMERIC(6,2).
	if err := fitsNumeric("price", in.Price, maxPrice); err != nil {
		return in, err
	}
	if err := fitsNumeric("taxPercentage", in.TaxPercentage, maxTaxPercentage); err != nil {
		return in, err
	}
	return in, nil
}

var (
	maxPrice         = decimal.New(1, 12)
	maxTaxPercentage = decimal.New(1, 4)
)

// fitsNumeric rejects values the column would have to round or cannot hold.
func fitsNumeric(field string, v, limit decimal.Decimal) error {
	if !v.Equal(v.Truncate(2)) {
		return common.ValidationError(field, fmt.Errorf("%s allows at most 2 decimal places", field))
	}
	if v.GreaterThanOrEqual(limit) {
		return common.ValidationError(field, fmt.Errorf("%s must be below %s", field, limit))
	}
	return nil
}
