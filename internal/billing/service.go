// Package billing prices carts and settles them against the till.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-kasir/internal/catalog"
	"github.com/noah-isme/toko-kasir/internal/common"
	"github.com/noah-isme/toko-kasir/internal/db"
	dbgen "github.com/noah-isme/toko-kasir/internal/db/gen"
	"github.com/noah-isme/toko-kasir/internal/events"
	"github.com/noah-isme/toko-kasir/internal/ledger"
	"github.com/noah-isme/toko-kasir/internal/lock"
	"github.com/noah-isme/toko-kasir/internal/obs"
	"github.com/noah-isme/toko-kasir/internal/pricing"
	"github.com/noah-isme/toko-kasir/internal/purchase"
)

const defaultLockTTL = 10 * time.Second

// TillLocker serialises commits across processes.
type TillLocker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// ServiceConfig groups Service dependencies. Events, Lock and OnError are
// optional.
type ServiceConfig struct {
	Store   db.Store
	Catalog *catalog.Service
	Events  *events.Bus
	Lock    TillLocker
	LockTTL time.Duration
	// LowCountThreshold raises a low change event when a face value holds
	// fewer notes than this after a commit. Zero disables the check.
	LowCountThreshold int64
	// OnError receives failures of post-commit work, which never change the
	// outcome of the commit.
	OnError func(error)
	// Now stamps committed purchases. Defaults to time.Now.
	Now func() time.Time
}

// Service implements quote and commit.
type Service struct {
	store     db.Store
	catalog   *catalog.Service
	drawer    *ledger.Drawer
	events    *events.Bus
	lock      TillLocker
	lockTTL   time.Duration
	threshold int64
	onError   func(error)
	now       func() time.Time
}

// Quote is a priced cart.
type Quote struct {
	Items        []purchase.Item `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	TotalTax     decimal.Decimal `json:"totalTax"`
	Total        decimal.Decimal `json:"total"`
	RoundedTotal int64           `json:"roundedTotal"`
	Payment      *PaymentPreview `json:"payment,omitempty"`
}

// PaymentPreview is the settlement a commit would make for PaidAmount with the
// drawer as it is now.
type PaymentPreview struct {
	PaidAmount int64                 `json:"paidAmount"`
	Balance    int64                 `json:"balance"`
	Change     []ledger.Denomination `json:"change"`
	Exact      bool                  `json:"exact"`
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("billing: store is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("billing: catalog is required")
	}
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	onError := cfg.OnError
	if onError == nil {
		onError = func(error) {}
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:     cfg.Store,
		catalog:   cfg.Catalog,
		drawer:    &ledger.Drawer{Q: cfg.Store},
		events:    cfg.Events,
		lock:      cfg.Lock,
		lockTTL:   ttl,
		threshold: cfg.LowCountThreshold,
		onError:   onError,
		now:       now,
	}, nil
}

// Quote prices a cart without changing anything.
func (s *Service) Quote(ctx context.Context, in QuoteInput) (Quote, error) {
	q, err := s.quote(ctx, in)
	obs.ObserveQuote(resultLabel(err))
	return q, err
}

func (s *Service) quote(ctx context.Context, in QuoteInput) (Quote, error) {
	cmd, err := in.command()
	if err != nil {
		return Quote{}, err
	}
	products := make([]catalog.Product, 0, len(cmd.lines))
	for _, line := range cmd.lines {
		p, err := s.catalog.Lookup(ctx, line.SKU)
		if err != nil {
			return Quote{}, err
		}
		products = append(products, p)
	}
	items, sum, err := price(cmd.lines, products)
	if err != nil {
		return Quote{}, err
	}
	out := Quote{
		Items:        items,
		Subtotal:     sum.Subtotal,
		TotalTax:     sum.Tax,
		Total:        sum.Total,
		RoundedTotal: sum.Rounded,
	}
	if cmd.paid != nil {
		preview := &PaymentPreview{PaidAmount: *cmd.paid, Balance: *cmd.paid - sum.Rounded, Change: []ledger.Denomination{}}
		if preview.Balance >= 0 {
			alloc, exact, err := s.drawer.Quote(ctx, preview.Balance)
			if err != nil {
				return Quote{}, err
			}
			if alloc != nil {
				preview.Change = alloc
			}
			preview.Exact = exact
		}
		out.Payment = preview
	}
	return out, nil
}

// Commit settles a cart: it checks stock, payment and change, then reserves
// stock, credits the tendered notes, debits the change and appends the
// purchase record in one transaction. On any error nothing is changed.
func (s *Service) Commit(ctx context.Context, in CommitInput) (purchase.Record, error) {
	start := time.Now()
	rec, err := s.commit(ctx, in)
	obs.ObserveCommit(resultLabel(err), time.Since(start))
	return rec, err
}

type committed struct {
	record purchase.Record
	event  dbgen.DomainEvent
	drawer []ledger.Denomination
}

func (s *Service) commit(ctx context.Context, in CommitInput) (purchase.Record, error) {
	cmd, err := in.command()
	if err != nil {
		return purchase.Record{}, err
	}

	var out committed
	run := func(ctx context.Context) error {
		var err error
		out, err = s.commitTx(ctx, cmd)
		return err
	}
	if s.lock != nil {
		err = s.lock.WithLock(ctx, lock.TillKey, s.lockTTL, run)
		if errors.Is(err, lock.ErrBusy) {
			return purchase.Record{}, tillBusy(err)
		}
	} else {
		err = run(ctx)
	}
	if err != nil {
		return purchase.Record{}, err
	}

	s.afterCommit(ctx, out)
	return out.record, nil
}

func (s *Service) commitTx(ctx context.Context, cmd commitCommand) (committed, error) {
	var out committed
	err := s.store.InTx(ctx, func(q dbgen.Querier) error {
		drawer, err := ledger.Lock(ctx, q)
		if err != nil {
			return err
		}
		if err := acceptsTendered(drawer, cmd.tendered); err != nil {
			return err
		}

		products := make([]catalog.Product, 0, len(cmd.lines))
		requested := make(map[string]int64, len(cmd.lines))
		for _, line := range cmd.lines {
			p, err := catalog.LookupForUpdate(ctx, q, line.SKU)
			if err != nil {
				return err
			}
			requested[line.SKU] += line.Quantity
			if requested[line.SKU] > p.AvailableStock {
				return catalog.InsufficientStock(line.SKU, requested[line.SKU], p.AvailableStock)
			}
			products = append(products, p)
		}

		items, sum, err := price(cmd.lines, products)
		if err != nil {
			return err
		}
		balance := cmd.paid - sum.Rounded
		if balance < 0 {
			return InsufficientPayment(-balance, sum.Rounded, cmd.paid)
		}
		change := ledger.Allocation{}
		if balance > 0 {
			alloc, exact := ledger.MakeChange(drawer, balance)
			if !exact {
				return ChangeUnavailable(balance)
			}
			change = alloc
		}

		for _, line := range cmd.lines {
			if err := catalog.Reserve(ctx, q, line.SKU, line.Quantity); err != nil {
				return err
			}
		}
		if err := ledger.Credit(ctx, q, cmd.tendered); err != nil {
			return err
		}
		if err := ledger.Debit(ctx, q, change); err != nil {
			return err
		}

		rec, err := purchase.Append(ctx, q, purchase.Record{
			CustomerID:   cmd.customerID,
			PurchasedAt:  s.now().UTC(),
			Items:        items,
			Subtotal:     sum.Subtotal,
			TotalTax:     sum.Tax,
			Total:        sum.Total,
			RoundedTotal: sum.Rounded,
			PaidAmount:   cmd.paid,
			Balance:      balance,
			Change:       change,
			Tendered:     cmd.tendered,
		})
		if err != nil {
			return err
		}
		ev, err := events.Record(ctx, q, events.TopicPurchaseCommitted, strconv.FormatInt(rec.ID, 10), events.PurchaseCommitted{
			PurchaseID:   rec.ID,
			CustomerID:   rec.CustomerID,
			RoundedTotal: rec.RoundedTotal,
			PaidAmount:   rec.PaidAmount,
			Balance:      rec.Balance,
		})
		if err != nil {
			return err
		}
		after, err := ledger.Lock(ctx, q)
		if err != nil {
			return err
		}
		out = committed{record: rec, event: ev, drawer: after}
		return nil
	})
	if err != nil {
		return committed{}, err
	}
	return out, nil
}

// acceptsTendered rejects face values the till does not hold before any
// stock or payment check runs.
func acceptsTendered(drawer []ledger.Denomination, tendered []ledger.Denomination) error {
	known := make(map[int64]struct{}, len(drawer))
	for _, d := range drawer {
		known[d.Value] = struct{}{}
	}
	for _, n := range tendered {
		if _, ok := known[n.Value]; !ok {
			return common.ValidationError("tendered", fmt.Errorf("denomination %d not accepted", n.Value))
		}
	}
	return nil
}

func (s *Service) afterCommit(ctx context.Context, out committed) {
	s.catalog.InvalidateList(ctx)

	counts := make(map[int64]int64, len(out.drawer))
	for _, d := range out.drawer {
		counts[d.Value] = d.Count
	}
	obs.SetDrawer(counts)

	if s.events == nil {
		return
	}
	if err := s.events.Dispatch(ctx, out.event); err != nil {
		s.onError(fmt.Errorf("dispatch purchase %d: %w", out.record.ID, err))
	}
	if s.threshold <= 0 {
		return
	}
	low := ledger.Below(out.drawer, s.threshold)
	if len(low) == 0 {
		return
	}
	obs.IncLowChange()
	payload := events.LowChange{Threshold: s.threshold, Low: make([]events.LowDenomination, 0, len(low))}
	for _, d := range low {
		payload.Low = append(payload.Low, events.LowDenomination{Value: d.Value, Count: d.Count})
	}
	if _, err := s.events.Emit(ctx, events.TopicTillLowChange, "till", payload); err != nil {
		s.onError(fmt.Errorf("emit low change: %w", err))
	}
}

// price snapshots products into purchase items and totals them. lines and
// products are parallel.
func price(lines []CartLine, products []catalog.Product) ([]purchase.Item, pricing.Summary, error) {
	in := make([]pricing.Item, len(lines))
	for i, line := range lines {
		in[i] = pricing.Item{
			Qty:           line.Quantity,
			UnitPrice:     products[i].Price,
			TaxPercentage: products[i].TaxPercentage,
		}
	}
	sum, err := pricing.Compute(in)
	if errors.Is(err, pricing.ErrOutOfRange) {
		return nil, pricing.Summary{}, common.ValidationError("items", fmt.Errorf("bill total is too large: %w", err))
	}
	if err != nil {
		return nil, pricing.Summary{}, err
	}
	items := make([]purchase.Item, len(lines))
	for i, line := range lines {
		items[i] = purchase.Item{
			SKU:           line.SKU,
			Name:          products[i].Name,
			Quantity:      line.Quantity,
			UnitPrice:     products[i].Price,
			TaxPercentage: products[i].TaxPercentage,
			LineTotal:     sum.Lines[i].Total,
			LineTax:       sum.Lines[i].Tax,
		}
	}
	return items, sum, nil
}
