package billing_test

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-kasir/internal/billing"
	"github.com/noah-isme/toko-kasir/internal/catalog"
	"github.com/noah-isme/toko-kasir/internal/common"
	dbgen "github.com/noah-isme/toko-kasir/internal/db/gen"
	"github.com/noah-isme/toko-kasir/internal/db/memdb"
	"github.com/noah-isme/toko-kasir/internal/ledger"
	"github.com/noah-isme/toko-kasir/internal/purchase"
)

func TestBillingFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "billing",
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("billing features failed")
	}
}

type till struct {
	store   *memdb.DB
	catalog *catalog.Service
	drawer  *ledger.Drawer
	svc     *billing.Service

	before []ledger.Denomination
	quote  billing.Quote
	record purchase.Record
	err    error
}

func initializeScenario(sc *godog.ScenarioContext) {
	w := &till{}
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		*w = till{}
		return ctx, nil
	})

	sc.Step(`^the catalog holds the demo products$`, w.demoCatalog)
	sc.Step(`^the drawer holds:$`, w.drawerHolds)
	sc.Step(`^I quote (\d+) of "([^"]*)"$`, w.quoteOne)
	sc.Step(`^the subtotal is "([^"]*)"$`, w.amountIs(func(q billing.Quote) decimal.Decimal { return q.Subtotal }))
	sc.Step(`^the total tax is "([^"]*)"$`, w.amountIs(func(q billing.Quote) decimal.Decimal { return q.TotalTax }))
	sc.Step(`^the total is "([^"]*)"$`, w.amountIs(func(q billing.Quote) decimal.Decimal { return q.Total }))
	sc.Step(`^the rounded total is (\d+)$`, w.roundedTotalIs)
	sc.Step(`^customer "([^"]*)" pays (\d+) for (\d+) of "([^"]*)"$`, w.paysForOne)
	sc.Step(`^customer "([^"]*)" pays (\d+) for:$`, w.paysForCart)
	sc.Step(`^customer "([^"]*)" hands over (\d+) notes of (\d+) for (\d+) of "([^"]*)"$`, w.handsOver)
	sc.Step(`^the bill is settled with balance (\d+)$`, w.settledWithBalance)
	sc.Step(`^the change is:$`, w.changeIs)
	sc.Step(`^the bill is rejected with "([^"]*)" where "([^"]*)" is (\d+)$`, w.rejectedWith)
	sc.Step(`^the rejection reports "([^"]*)" as (\d+)$`, w.rejectionDetail)
	sc.Step(`^the stock of "([^"]*)" is (\d+)$`, w.stockIs)
	sc.Step(`^customer "([^"]*)" has (\d+) purchases$`, w.purchaseCount)
	sc.Step(`^the drawer is unchanged$`, w.drawerUnchanged)
	sc.Step(`^the drawer value grew by (\d+)$`, w.drawerGrewBy)
}

func (w *till) demoCatalog(ctx context.Context) error {
	w.store = memdb.New()
	cat, err := catalog.NewService(catalog.ServiceConfig{Queries: w.store})
	if err != nil {
		return err
	}
	if _, err := cat.Seed(ctx, catalog.DemoProducts()); err != nil {
		return err
	}
	svc, err := billing.NewService(billing.ServiceConfig{Store: w.store, Catalog: cat})
	if err != nil {
		return err
	}
	w.catalog, w.svc, w.drawer = cat, svc, &ledger.Drawer{Q: w.store}
	return nil
}

func (w *till) drawerHolds(ctx context.Context, table *godog.Table) error {
	rows, err := intTable(table)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if _, err := w.store.InsertDenomination(ctx, dbgen.InsertDenominationParams{Value: r[0], Count: r[1]}); err != nil {
			return err
		}
	}
	w.before, err = w.drawer.Snapshot(ctx)
	return err
}

func (w *till) quoteOne(ctx context.Context, qty int64, sku string) error {
	w.quote, w.err = w.svc.Quote(ctx, billing.QuoteInput{Items: []billing.CartLine{{SKU: sku, Quantity: qty}}})
	return w.err
}

func (w *till) amountIs(get func(billing.Quote) decimal.Decimal) func(string) error {
	return func(want string) error {
		expected, err := decimal.NewFromString(want)
		if err != nil {
			return err
		}
		if got := get(w.quote); !got.Equal(expected) {
			return fmt.Errorf("expected %s, got %s", expected, got)
		}
		return nil
	}
}

func (w *till) roundedTotalIs(want int64) error {
	if w.quote.RoundedTotal != want {
		return fmt.Errorf("expected rounded total %d, got %d", want, w.quote.RoundedTotal)
	}
	return nil
}

func (w *till) commit(ctx context.Context, in billing.CommitInput) {
	w.record, w.err = w.svc.Commit(ctx, in)
}

func (w *till) paysForOne(ctx context.Context, customer string, paid, qty int64, sku string) error {
	w.commit(ctx, billing.CommitInput{
		CustomerID: customer,
		Items:      []billing.CartLine{{SKU: sku, Quantity: qty}},
		PaidAmount: decimalPtr(paid),
	})
	return nil
}

func (w *till) paysForCart(ctx context.Context, customer string, paid int64, table *godog.Table) error {
	var lines []billing.CartLine
	for _, row := range table.Rows[1:] {
		qty, err := strconv.ParseInt(row.Cells[1].Value, 10, 64)
		if err != nil {
			return err
		}
		lines = append(lines, billing.CartLine{SKU: row.Cells[0].Value, Quantity: qty})
	}
	w.commit(ctx, billing.CommitInput{CustomerID: customer, Items: lines, PaidAmount: decimalPtr(paid)})
	return nil
}

func (w *till) handsOver(ctx context.Context, customer string, notes, value, qty int64, sku string) error {
	w.commit(ctx, billing.CommitInput{
		CustomerID: customer,
		Items:      []billing.CartLine{{SKU: sku, Quantity: qty}},
		PaidAmount: decimalPtr(notes * value),
		Tendered:   []billing.Note{{Value: value, Count: notes}},
	})
	return nil
}

func (w *till) settledWithBalance(balance int64) error {
	if w.err != nil {
		return fmt.Errorf("commit failed: %w", w.err)
	}
	if w.record.Balance != balance {
		return fmt.Errorf("expected balance %d, got %d", balance, w.record.Balance)
	}
	if got := ledger.Total(w.record.Change); got != balance {
		return fmt.Errorf("change sums to %d, balance is %d", got, balance)
	}
	return nil
}

func (w *till) changeIs(table *godog.Table) error {
	rows, err := intTable(table)
	if err != nil {
		return err
	}
	if len(rows) != len(w.record.Change) {
		return fmt.Errorf("expected %d change entries, got %v", len(rows), w.record.Change)
	}
	for i, r := range rows {
		got := w.record.Change[i]
		if got.Value != r[0] || got.Count != r[1] {
			return fmt.Errorf("change[%d]: expected %d x %d, got %d x %d", i, r[0], r[1], got.Value, got.Count)
		}
	}
	return nil
}

func (w *till) rejectedWith(code, key string, value int64) error {
	if w.err == nil {
		return errors.New("expected the commit to fail")
	}
	var appErr *common.AppError
	if !errors.As(w.err, &appErr) {
		return fmt.Errorf("unexpected error: %w", w.err)
	}
	if appErr.Code != code {
		return fmt.Errorf("expected %s, got %s", code, appErr.Code)
	}
	return w.rejectionDetail(key, value)
}

func (w *till) rejectionDetail(key string, value int64) error {
	var appErr *common.AppError
	if !errors.As(w.err, &appErr) {
		return fmt.Errorf("unexpected error: %v", w.err)
	}
	details, _ := appErr.Details.(map[string]any)
	if got, ok := details[key].(int64); !ok || got != value {
		return fmt.Errorf("expected %s=%d, got %v", key, value, details[key])
	}
	return nil
}

func (w *till) stockIs(ctx context.Context, sku string, want int64) error {
	p, err := w.catalog.Lookup(ctx, sku)
	if err != nil {
		return err
	}
	if p.AvailableStock != want {
		return fmt.Errorf("expected %s stock %d, got %d", sku, want, p.AvailableStock)
	}
	return nil
}

func (w *till) purchaseCount(ctx context.Context, customer string, want int64) error {
	_, total, err := (&purchase.Store{Q: w.store}).ListByCustomer(ctx, customer, 1, 10)
	if err != nil {
		return err
	}
	if total != want {
		return fmt.Errorf("expected %d purchases, got %d", want, total)
	}
	return nil
}

func (w *till) drawerUnchanged(ctx context.Context) error {
	now, err := w.drawer.Snapshot(ctx)
	if err != nil {
		return err
	}
	if fmt.Sprint(now) != fmt.Sprint(w.before) {
		return fmt.Errorf("drawer changed from %v to %v", w.before, now)
	}
	return nil
}

func (w *till) drawerGrewBy(ctx context.Context, want int64) error {
	now, err := w.drawer.Snapshot(ctx)
	if err != nil {
		return err
	}
	if got := ledger.Total(now) - ledger.Total(w.before); got != want {
		return fmt.Errorf("expected drawer to grow by %d, grew by %d", want, got)
	}
	return nil
}

func intTable(table *godog.Table) ([][2]int64, error) {
	out := make([][2]int64, 0, len(table.Rows))
	for _, row := range table.Rows[1:] {
		a, err := strconv.ParseInt(row.Cells[0].Value, 10, 64)
		if err != nil {
			return nil, err
		}
		b, err := strconv.ParseInt(row.Cells[1].Value, 10, 64)
		if err != nil {
			return nil, err
		}
		out = append(out, [2]int64{a, b})
	}
	return out, nil
}

func decimalPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
