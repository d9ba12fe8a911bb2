package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/noah-isme/toko-kasir/internal/db"
	dbgen "github.com/noah-isme/toko-kasir/internal/db/gen"
)

// ReconcileReport summarises the startup reconciliation.
type ReconcileReport struct {
	Removed  int64
	Inserted []int64
}

// Reconcile aligns the drawer with the canonical face values: values outside
// the set are removed and missing ones are inserted with seed notes. Counts of
// values already present are left alone.
func Reconcile(ctx context.Context, store db.Store, canonical []int64, seed int64) (ReconcileReport, error) {
	var report ReconcileReport
	if len(canonical) == 0 {
		return report, errors.New("ledger: canonical denominations required")
	}
	if seed < 0 {
		return report, errors.New("ledger: seed count must not be negative")
	}
	seen := make(map[int64]struct{}, len(canonical))
	for _, v := range canonical {
		if v <= 0 {
			return report, fmt.Errorf("ledger: invalid denomination %d", v)
		}
		if _, dup := seen[v]; dup {
			return report, fmt.Errorf("ledger: duplicate denomination %d", v)
		}
		seen[v] = struct{}{}
	}

	err := store.InTx(ctx, func(q dbgen.Querier) error {
		removed, err := q.DeleteDenominationsNotIn(ctx, canonical)
		if err != nil {
			return fmt.Errorf("remove obsolete denominations: %w", err)
		}
		report.Removed = removed
		for _, v := range canonical {
			n, err := q.InsertDenomination(ctx, dbgen.InsertDenominationParams{Value: v, Count: seed})
			if err != nil {
				return fmt.Errorf("insert denomination %d: %w", v, err)
			}
			if n > 0 {
				report.Inserted = append(report.Inserted, v)
			}
		}
		return nil
	})
	if err != nil {
		return ReconcileReport{}, err
	}
	return report, nil
}
