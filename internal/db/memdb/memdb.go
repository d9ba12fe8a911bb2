// Package memdb is an in-process implementation of db.Store. It keeps the same
// contract as the Postgres queries (pgx.ErrNoRows for missing rows and failed
// guarded updates, pgconn errors for constraint violations) and serialises
// transactions with a single writer lock, so it backs tests and the
// STORE_DRIVER=memory mode.
package memdb

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	dbgen "github.com/noah-isme/toko-kasir/internal/db/gen"
)

type state struct {
	products       map[string]dbgen.Product
	nextProductID  int64
	denominations  map[int64]dbgen.Denomination
	purchases      []dbgen.Purchase
	nextPurchaseID int64
	events         []dbgen.DomainEvent
}

func newState() *state {
	return &state{
		products:      make(map[string]dbgen.Product),
		denominations: make(map[int64]dbgen.Denomination),
	}
}

// clone copies the row containers. Row values are copied by value; byte blobs
// are never mutated after insert and are shared.
func (s *state) clone() *state {
	out := &state{
		products:       make(map[string]dbgen.Product, len(s.products)),
		nextProductID:  s.nextProductID,
		denominations:  make(map[int64]dbgen.Denomination, len(s.denominations)),
		purchases:      make([]dbgen.Purchase, len(s.purchases)),
		nextPurchaseID: s.nextPurchaseID,
		events:         make([]dbgen.DomainEvent, len(s.events)),
	}
	for k, v := range s.products {
		out.products[k] = v
	}
	for k, v := range s.denominations {
		out.denominations[k] = v
	}
	copy(out.purchases, s.purchases)
	copy(out.events, s.events)
	return out
}

// DB is the in-memory store.
type DB struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	st   *state
	now  func() time.Time
}

// Option customises a DB.
type Option func(*DB)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *DB) {
		if now != nil {
			d.now = now
		}
	}
}

// New returns an empty store.
func New(opts ...Option) *DB {
	d := &DB{st: newState(), now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// InTx implements db.Store. Transactions run one at a time; the callback works
// on a private copy that replaces the shared state only when it returns nil.
func (d *DB) InTx(ctx context.Context, fn func(q dbgen.Querier) error) error {
	d.txMu.Lock()
	defer d.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.RLock()
	work := d.st.clone()
	d.mu.RUnlock()

	if err := fn(&querier{st: work, now: d.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	d.st = work
	d.mu.Unlock()
	return nil
}

// Ping always succeeds.
func (d *DB) Ping(context.Context) error { return nil }

func read[T any](d *DB, fn func(q *querier) (T, error)) (T, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return fn(&querier{st: d.st, now: d.now})
}

func write[T any](ctx context.Context, d *DB, fn func(q *querier) (T, error)) (T, error) {
	var out T
	err := d.InTx(ctx, func(q dbgen.Querier) error {
		var err error
		out, err = fn(q.(*querier))
		return err
	})
	return out, err
}

func (d *DB) AdjustDenominationCount(ctx context.Context, arg dbgen.AdjustDenominationCountParams) (dbgen.Denomination, error) {
	return write(ctx, d, func(q *querier) (dbgen.Denomination, error) { return q.AdjustDenominationCount(ctx, arg) })
}

func (d *DB) CountPurchasesByCustomer(ctx context.Context, customerID string) (int64, error) {
	return read(d, func(q *querier) (int64, error) { return q.CountPurchasesByCustomer(ctx, customerID) })
}

func (d *DB) CreateProduct(ctx context.Context, arg dbgen.CreateProductParams) (dbgen.Product, error) {
	return write(ctx, d, func(q *querier) (dbgen.Product, error) { return q.CreateProduct(ctx, arg) })
}

func (d *DB) DecrementProductStock(ctx context.Context, arg dbgen.DecrementProductStockParams) (int64, error) {
	return write(ctx, d, func(q *querier) (int64, error) { return q.DecrementProductStock(ctx, arg) })
}

func (d *DB) DeleteDenominationsNotIn(ctx context.Context, keep []int64) (int64, error) {
	return write(ctx, d, func(q *querier) (int64, error) { return q.DeleteDenominationsNotIn(ctx, keep) })
}

func (d *DB) DeleteProduct(ctx context.Context, sku string) (int64, error) {
	return write(ctx, d, func(q *querier) (int64, error) { return q.DeleteProduct(ctx, sku) })
}

func (d *DB) GetProductBySKU(ctx context.Context, sku string) (dbgen.Product, error) {
	return read(d, func(q *querier) (dbgen.Product, error) { return q.GetProductBySKU(ctx, sku) })
}

func (d *DB) GetProductBySKUForUpdate(ctx context.Context, sku string) (dbgen.Product, error) {
	return read(d, func(q *querier) (dbgen.Product, error) { return q.GetProductBySKUForUpdate(ctx, sku) })
}

func (d *DB) GetPurchase(ctx context.Context, id int64) (dbgen.Purchase, error) {
	return read(d, func(q *querier) (dbgen.Purchase, error) { return q.GetPurchase(ctx, id) })
}

func (d *DB) InsertDenomination(ctx context.Context, arg dbgen.InsertDenominationParams) (int64, error) {
	return write(ctx, d, func(q *querier) (int64, error) { return q.InsertDenomination(ctx, arg) })
}

func (d *DB) InsertDomainEvent(ctx context.Context, arg dbgen.InsertDomainEventParams) (dbgen.DomainEvent, error) {
	return write(ctx, d, func(q *querier) (dbgen.DomainEvent, error) { return q.InsertDomainEvent(ctx, arg) })
}

func (d *DB) InsertPurchase(ctx context.Context, arg dbgen.InsertPurchaseParams) (dbgen.Purchase, error) {
	return write(ctx, d, func(q *querier) (dbgen.Purchase, error) { return q.InsertPurchase(ctx, arg) })
}

func (d *DB) ListDenominations(ctx context.Context) ([]dbgen.Denomination, error) {
	return read(d, func(q *querier) ([]dbgen.Denomination, error) { return q.ListDenominations(ctx) })
}

func (d *DB) ListDenominationsForUpdate(ctx context.Context) ([]dbgen.Denomination, error) {
	return read(d, func(q *querier) ([]dbgen.Denomination, error) { return q.ListDenominationsForUpdate(ctx) })
}

func (d *DB) ListProducts(ctx context.Context) ([]dbgen.Product, error) {
	return read(d, func(q *querier) ([]dbgen.Product, error) { return q.ListProducts(ctx) })
}

func (d *DB) ListPurchasesByCustomer(ctx context.Context, arg dbgen.ListPurchasesByCustomerParams) ([]dbgen.Purchase, error) {
	return read(d, func(q *querier) ([]dbgen.Purchase, error) { return q.ListPurchasesByCustomer(ctx, arg) })
}

func (d *DB) UpdateProduct(ctx context.Context, arg dbgen.UpdateProductParams) (dbgen.Product, error) {
	return write(ctx, d, func(q *querier) (dbgen.Product, error) { return q.UpdateProduct(ctx, arg) })
}

// Events returns a copy of the recorded domain events in insertion order.
func (d *DB) Events() []dbgen.DomainEvent {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]dbgen.DomainEvent, len(d.st.events))
	copy(out, d.st.events)
	return out
}

var _ dbgen.Querier = (*DB)(nil)

// querier operates on one state snapshot. Inside InTx that snapshot is private
// to the transaction; outside it is only used under the read lock.
type querier struct {
	st  *state
	now func() time.Time
}

var _ dbgen.Querier = (*querier)(nil)

func (q *querier) timestamp() pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: q.now().UTC(), Valid: true}
}

func notNullViolation(column string) error {
	return &pgconn.PgError{Code: "23502", Message: "null value in column violates not-null constraint", ColumnName: column}
}

func checkViolation(constraint string) error {
	return &pgconn.PgError{Code: "23514", Message: "new row violates check constraint", ConstraintName: constraint}
}

func (q *querier) AdjustDenominationCount(_ context.Context, arg dbgen.AdjustDenominationCountParams) (dbgen.Denomination, error) {
	row, ok := q.st.denominations[arg.Value]
	if !ok || row.Count+arg.Delta < 0 {
		return dbgen.Denomination{}, pgx.ErrNoRows
	}
	row.Count += arg.Delta
	row.UpdatedAt = q.timestamp()
	q.st.denominations[arg.Value] = row
	return row, nil
}

func (q *querier) CountPurchasesByCustomer(_ context.Context, customerID string) (int64, error) {
	var n int64
	for _, p := range q.st.purchases {
		if p.CustomerID == customerID {
			n++
		}
	}
	return n, nil
}

func (q *querier) CreateProduct(_ context.Context, arg dbgen.CreateProductParams) (dbgen.Product, error) {
	if _, exists := q.st.products[arg.Sku]; exists {
		return dbgen.Product{}, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint", ConstraintName: "products_sku_key"}
	}
	if arg.AvailableStock < 0 {
		return dbgen.Product{}, checkViolation("products_available_stock_check")
	}
	if arg.Price.IsNegative() {
		return dbgen.Product{}, checkViolation("products_price_check")
	}
	if arg.TaxPercentage.IsNegative() {
		return dbgen.Product{}, checkViolation("products_tax_percentage_check")
	}
	q.st.nextProductID++
	ts := q.timestamp()
	row := dbgen.Product{
		ID:             q.st.nextProductID,
		Sku:            arg.Sku,
		Name:           arg.Name,
		AvailableStock: arg.AvailableStock,
		Price:          arg.Price,
		TaxPercentage:  arg.TaxPercentage,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	q.st.products[arg.Sku] = row
	return row, nil
}

func (q *querier) DecrementProductStock(_ context.Context, arg dbgen.DecrementProductStockParams) (int64, error) {
	row, ok := q.st.products[arg.Sku]
	if !ok || row.AvailableStock < arg.Quantity {
		return 0, pgx.ErrNoRows
	}
	row.AvailableStock -= arg.Quantity
	row.UpdatedAt = q.timestamp()
	q.st.products[arg.Sku] = row
	return row.AvailableStock, nil
}

func (q *querier) DeleteDenominationsNotIn(_ context.Context, keep []int64) (int64, error) {
	wanted := make(map[int64]struct{}, len(keep))
	for _, v := range keep {
		wanted[v] = struct{}{}
	}
	var n int64
	for value := range q.st.denominations {
		if _, ok := wanted[value]; !ok {
			delete(q.st.denominations, value)
			n++
		}
	}
	return n, nil
}

func (q *querier) DeleteProduct(_ context.Context, sku string) (int64, error) {
	if _, ok := q.st.products[sku]; !ok {
		return 0, nil
	}
	delete(q.st.products, sku)
	return 1, nil
}

func (q *querier) GetProductBySKU(_ context.Context, sku string) (dbgen.Product, error) {
	row, ok := q.st.products[sku]
	if !ok {
		return dbgen.Product{}, pgx.ErrNoRows
	}
	return row, nil
}

func (q *querier) GetProductBySKUForUpdate(ctx context.Context, sku string) (dbgen.Product, error) {
	return q.GetProductBySKU(ctx, sku)
}

func (q *querier) GetPurchase(_ context.Context, id int64) (dbgen.Purchase, error) {
	for _, p := range q.st.purchases {
		if p.ID == id {
			return p, nil
		}
	}
	return dbgen.Purchase{}, pgx.ErrNoRows
}

func (q *querier) InsertDenomination(_ context.Context, arg dbgen.InsertDenominationParams) (int64, error) {
	if arg.Value <= 0 {
		return 0, checkViolation("denominations_value_check")
	}
	if arg.Count < 0 {
		return 0, checkViolation("denominations_count_check")
	}
	if _, exists := q.st.denominations[arg.Value]; exists {
		return 0, nil
	}
	q.st.denominations[arg.Value] = dbgen.Denomination{Value: arg.Value, Count: arg.Count, UpdatedAt: q.timestamp()}
	return 1, nil
}

func (q *querier) InsertDomainEvent(_ context.Context, arg dbgen.InsertDomainEventParams) (dbgen.DomainEvent, error) {
	payload := arg.Payload
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	row := dbgen.DomainEvent{
		ID:          pgtype.UUID{Bytes: [16]byte(uuid.New()), Valid: true},
		Topic:       arg.Topic,
		AggregateID: arg.AggregateID,
		Payload:     payload,
		OccurredAt:  q.timestamp(),
	}
	q.st.events = append(q.st.events, row)
	return row, nil
}

func (q *querier) InsertPurchase(_ context.Context, arg dbgen.InsertPurchaseParams) (dbgen.Purchase, error) {
	if arg.Balance < 0 {
		return dbgen.Purchase{}, checkViolation("purchases_balance_check")
	}
	if !arg.PurchasedAt.Valid {
		return dbgen.Purchase{}, notNullViolation("purchased_at")
	}
	change := arg.Change
	if len(change) == 0 {
		change = []byte("[]")
	}
	tendered := arg.Tendered
	if len(tendered) == 0 {
		tendered = []byte("[]")
	}
	q.st.nextPurchaseID++
	row := dbgen.Purchase{
		ID:           q.st.nextPurchaseID,
		CustomerID:   arg.CustomerID,
		PurchasedAt:  arg.PurchasedAt,
		Items:        arg.Items,
		Subtotal:     arg.Subtotal,
		TotalTax:     arg.TotalTax,
		Total:        arg.Total,
		RoundedTotal: arg.RoundedTotal,
		PaidAmount:   arg.PaidAmount,
		Balance:      arg.Balance,
		Change:       change,
		Tendered:     tendered,
	}
	q.st.purchases = append(q.st.purchases, row)
	return row, nil
}

func (q *querier) ListDenominations(_ context.Context) ([]dbgen.Denomination, error) {
	items := make([]dbgen.Denomination, 0, len(q.st.denominations))
	for _, row := range q.st.denominations {
		items = append(items, row)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Value > items[j].Value })
	return items, nil
}

func (q *querier) ListDenominationsForUpdate(ctx context.Context) ([]dbgen.Denomination, error) {
	return q.ListDenominations(ctx)
}

func (q *querier) ListProducts(_ context.Context) ([]dbgen.Product, error) {
	items := make([]dbgen.Product, 0, len(q.st.products))
	for _, row := range q.st.products {
		items = append(items, row)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Sku < items[j].Sku })
	return items, nil
}

func (q *querier) ListPurchasesByCustomer(_ context.Context, arg dbgen.ListPurchasesByCustomerParams) ([]dbgen.Purchase, error) {
	var items []dbgen.Purchase
	for _, p := range q.st.purchases {
		if p.CustomerID == arg.CustomerID {
			items = append(items, p)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.PurchasedAt.Time.Equal(b.PurchasedAt.Time) {
			return a.PurchasedAt.Time.After(b.PurchasedAt.Time)
		}
		return a.ID > b.ID
	})
	offset := int(arg.OffsetValue)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil, nil
	}
	items = items[offset:]
	if arg.LimitValue >= 0 && int(arg.LimitValue) < len(items) {
		items = items[:arg.LimitValue]
	}
	return items, nil
}

func (q *querier) UpdateProduct(_ context.Context, arg dbgen.UpdateProductParams) (dbgen.Product, error) {
	row, ok := q.st.products[arg.Sku]
	if !ok {
		return dbgen.Product{}, pgx.ErrNoRows
	}
	if arg.AvailableStock < 0 {
		return dbgen.Product{}, checkViolation("products_available_stock_check")
	}
	if arg.Price.IsNegative() {
		return dbgen.Product{}, checkViolation("products_price_check")
	}
	if arg.TaxPercentage.IsNegative() {
		return dbgen.Product{}, checkViolation("products_tax_percentage_check")
	}
	row.Name = arg.Name
	row.AvailableStock = arg.AvailableStock
	row.Price = arg.Price
	row.TaxPercentage = arg.TaxPercentage
	row.UpdatedAt = q.timestamp()
	q.st.products[arg.Sku] = row
	return row, nil
}
