package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/noah-isme/toko-kasir/internal/common"
	"github.com/noah-isme/toko-kasir/internal/db"
	dbgen "github.com/noah-isme/toko-kasir/internal/db/gen"
)

// ErrInsufficientNotes is returned when a debit would drive a count below zero.
var ErrInsufficientNotes = errors.New("ledger: insufficient notes in drawer")

type queryProvider interface {
	ListDenominations(ctx context.Context) ([]dbgen.Denomination, error)
}

// TxQueries is the subset of a transactional querier the ledger mutates through.
type TxQueries interface {
	ListDenominationsForUpdate(ctx context.Context) ([]dbgen.Denomination, error)
	AdjustDenominationCount(ctx context.Context, arg dbgen.AdjustDenominationCountParams) (dbgen.Denomination, error)
}

// Drawer answers read-only questions about the till.
type Drawer struct {
	Q queryProvider
}

// Snapshot returns the drawer ordered by value descending.
func (d *Drawer) Snapshot(ctx context.Context) ([]Denomination, error) {
	if d == nil || d.Q == nil {
		return nil, errors.New("ledger: drawer not configured")
	}
	rows, err := d.Q.ListDenominations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list denominations: %w", err)
	}
	return fromRows(rows), nil
}

// Quote computes change for balance against the current drawer without
// reserving anything.
func (d *Drawer) Quote(ctx context.Context, balance int64) (Allocation, bool, error) {
	drawer, err := d.Snapshot(ctx)
	if err != nil {
		return nil, false, err
	}
	alloc, exact := MakeChange(drawer, balance)
	return alloc, exact, nil
}

// Lock reads the drawer with row locks held until the surrounding transaction
// ends. Every commit calls it first so commits against the till serialise.
func Lock(ctx context.Context, q TxQueries) ([]Denomination, error) {
	rows, err := q.ListDenominationsForUpdate(ctx)
	if err != nil {
		return nil, fmt.Errorf("lock denominations: %w", err)
	}
	return fromRows(rows), nil
}

// Credit adds tendered notes to the drawer. A face value the till does not
// hold is rejected as invalid tendered input.
func Credit(ctx context.Context, q TxQueries, notes []Denomination) error {
	for _, n := range notes {
		if n.Count == 0 {
			continue
		}
		if n.Count < 0 {
			return common.ValidationError("tendered", fmt.Errorf("negative count for %d", n.Value))
		}
		if _, err := q.AdjustDenominationCount(ctx, dbgen.AdjustDenominationCountParams{Value: n.Value, Delta: n.Count}); err != nil {
			if db.IsNotFound(err) {
				return common.ValidationError("tendered", fmt.Errorf("denomination %d not accepted", n.Value))
			}
			return fmt.Errorf("credit denomination %d: %w", n.Value, err)
		}
	}
	return nil
}

// Debit removes an allocation from the drawer.
func Debit(ctx context.Context, q TxQueries, alloc Allocation) error {
	for _, n := range alloc {
		if n.Count <= 0 {
			continue
		}
		if _, err := q.AdjustDenominationCount(ctx, dbgen.AdjustDenominationCountParams{Value: n.Value, Delta: -n.Count}); err != nil {
			if db.IsNotFound(err) {
				return fmt.Errorf("debit denomination %d: %w", n.Value, ErrInsufficientNotes)
			}
			return fmt.Errorf("debit denomination %d: %w", n.Value, err)
		}
	}
	return nil
}

func fromRows(rows []dbgen.Denomination) []Denomination {
	out := make([]Denomination, 0, len(rows))
	for _, r := range rows {
		out = append(out, Denomination{Value: r.Value, Count: r.Count})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}
