package purchase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/noah-isme/toko-kasir/internal/common"
	"github.com/noah-isme/toko-kasir/internal/db"
	dbgen "github.com/noah-isme/toko-kasir/internal/db/gen"
)

// ErrNotFound is wrapped when a purchase id does not exist.
var ErrNotFound = errors.New("purchase not found")

type queryProvider interface {
	GetPurchase(ctx context.Context, id int64) (dbgen.Purchase, error)
	ListPurchasesByCustomer(ctx context.Context, arg dbgen.ListPurchasesByCustomerParams) ([]dbgen.Purchase, error)
	CountPurchasesByCustomer(ctx context.Context, customerID string) (int64, error)
}

// Inserter appends purchase rows; in practice the commit transaction's querier.
type Inserter interface {
	InsertPurchase(ctx context.Context, arg dbgen.InsertPurchaseParams) (dbgen.Purchase, error)
}

// Store reads the purchase log.
type Store struct {
	Q            queryProvider
	MaxPageLimit int
}

// Append writes rec through q and returns it with its assigned id. The caller
// stamps PurchasedAt; a zero time is rejected.
func Append(ctx context.Context, q Inserter, rec Record) (Record, error) {
	params, err := toParams(rec)
	if err != nil {
		return Record{}, fmt.Errorf("insert purchase: %w", err)
	}
	row, err := q.InsertPurchase(ctx, params)
	if err != nil {
		return Record{}, fmt.Errorf("insert purchase: %w", err)
	}
	return fromRow(row)
}

// Get returns the purchase with id.
func (s *Store) Get(ctx context.Context, id int64) (Record, error) {
	if s == nil || s.Q == nil {
		return Record{}, errors.New("purchase store not configured")
	}
	row, err := s.Q.GetPurchase(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return Record{}, common.NotFound("purchase not found", fmt.Errorf("%w: %d", ErrNotFound, id))
		}
		return Record{}, fmt.Errorf("get purchase: %w", err)
	}
	return fromRow(row)
}

// ListByCustomer returns a page of the customer's purchases, newest first, and
// the customer's total purchase count.
func (s *Store) ListByCustomer(ctx context.Context, customerID string, page, limit int) ([]Record, int64, error) {
	if s == nil || s.Q == nil {
		return nil, 0, errors.New("purchase store not configured")
	}
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, 0, common.ValidationError("customerId", errors.New("customer id is required"))
	}
	if page < 1 {
		page = 1
	}
	maxLimit := s.MaxPageLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	total, err := s.Q.CountPurchasesByCustomer(ctx, customerID)
	if err != nil {
		return nil, 0, fmt.Errorf("count purchases: %w", err)
	}
	rows, err := s.Q.ListPurchasesByCustomer(ctx, dbgen.ListPurchasesByCustomerParams{
		CustomerID:  customerID,
		LimitValue:  int32(limit),
		OffsetValue: int32((page - 1) * limit),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list purchases: %w", err)
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow(row)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, nil
}
