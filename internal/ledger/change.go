// Package ledger owns the till's denomination inventory: computing change,
// crediting tendered notes and debiting returned change.
package ledger

import (
	"math"
	"sort"
)

// Denomination is a face value and the number of notes or coins held.
type Denomination struct {
	Value int64 `json:"value"`
	Count int64 `json:"count"`
}

// Allocation lists the notes handed out (or taken in) for one transaction.
type Allocation []Denomination

// Total returns the face value sum of the allocation.
func (a Allocation) Total() int64 {
	return Total(a)
}

// Total returns Σ value×count. Callers holding untrusted counts use SafeTotal.
func Total(notes []Denomination) int64 {
	var sum int64
	for _, n := range notes {
		sum += n.Value * n.Count
	}
	return sum
}

// SafeTotal is Total for notes that may not fit in int64. ok is false when a
// value or count is negative or the sum would overflow.
func SafeTotal(notes []Denomination) (sum int64, ok bool) {
	for _, n := range notes {
		if n.Value < 0 || n.Count < 0 {
			return 0, false
		}
		if n.Count != 0 && n.Value > (math.MaxInt64-sum)/n.Count {
			return 0, false
		}
		sum += n.Value * n.Count
	}
	return sum, true
}

// MakeChange allocates balance from drawer greedily, largest face value first,
// taking as many notes of each value as fit and are held. exact reports whether
// the whole balance was covered.
//
// Greedy allocation is incomplete for some drawers: it may report exact=false
// although another combination of held notes sums to balance (e.g. balance 6
// with {5:1, 3:2, 1:0}). Callers treat that as change being unavailable.
func MakeChange(drawer []Denomination, balance int64) (Allocation, bool) {
	alloc := Allocation{}
	if balance <= 0 {
		return alloc, balance == 0
	}
	sorted := make([]Denomination, len(drawer))
	copy(sorted, drawer)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Value > sorted[j].Value })

	remaining := balance
	for _, d := range sorted {
		if remaining == 0 {
			break
		}
		if d.Value <= 0 || d.Count <= 0 {
			continue
		}
		take := remaining / d.Value
		if take > d.Count {
			take = d.Count
		}
		if take > 0 {
			alloc = append(alloc, Denomination{Value: d.Value, Count: take})
			remaining -= take * d.Value
		}
	}
	return alloc, remaining == 0
}

// Below returns the denominations whose count is under threshold, value desc.
func Below(drawer []Denomination, threshold int64) []Denomination {
	var low []Denomination
	for _, d := range drawer {
		if d.Count < threshold {
			low = append(low, d)
		}
	}
	sort.Slice(low, func(i, j int) bool { return low[i].Value > low[j].Value })
	return low
}
