package ledger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakeChangeGreedy(t *testing.T) {
	drawer := []Denomination{{Value: 50, Count: 20}, {Value: 500, Count: 20}}
	alloc, exact := MakeChange(drawer, 1000)
	require.True(t, exact)
	require.Equal(t, Allocation{{Value: 500, Count: 2}}, alloc)
	require.Equal(t, int64(1000), alloc.Total())
}

func TestMakeChangeUsesSmallerNotesWhenLargeRunOut(t *testing.T) {
	drawer := []Denomination{{Value: 500, Count: 1}, {Value: 50, Count: 20}, {Value: 20, Count: 5}, {Value: 1, Count: 9}}
	alloc, exact := MakeChange(drawer, 1073)
	require.True(t, exact)
	require.Equal(t, Allocation{{Value: 500, Count: 1}, {Value: 50, Count: 11}, {Value: 20, Count: 1}, {Value: 1, Count: 3}}, alloc)
}

func TestMakeChangeZeroBalance(t *testing.T) {
	alloc, exact := MakeChange(nil, 0)
	require.True(t, exact)
	require.Empty(t, alloc)
}

func TestMakeChangeNotExact(t *testing.T) {
	// only two 1s held: 3 cannot be made
	alloc, exact := MakeChange([]Denomination{{Value: 2, Count: 0}, {Value: 1, Count: 2}}, 3)
	require.False(t, exact)
	require.Equal(t, Allocation{{Value: 1, Count: 2}}, alloc)
}

func TestMakeChangeGreedyIsIncomplete(t *testing.T) {
	// 3+3 exists, greedy commits to the 5 first.
	_, exact := MakeChange([]Denomination{{Value: 5, Count: 1}, {Value: 3, Count: 2}}, 6)
	require.False(t, exact)
}

func TestMakeChangeDoesNotMutateInput(t *testing.T) {
	drawer := []Denomination{{Value: 1, Count: 5}, {Value: 10, Count: 5}}
	_, _ = MakeChange(drawer, 12)
	require.Equal(t, []Denomination{{Value: 1, Count: 5}, {Value: 10, Count: 5}}, drawer)
}

func TestMakeChangeProperty(t *testing.T) {
	drawer := []Denomination{{Value: 500, Count: 3}, {Value: 50, Count: 7}, {Value: 20, Count: 4}, {Value: 10, Count: 2}, {Value: 5, Count: 1}, {Value: 2, Count: 3}, {Value: 1, Count: 2}}
	counts := map[int64]int64{}
	for _, d := range drawer {
		counts[d.Value] = d.Count
	}
	for balance := int64(0); balance <= 2500; balance++ {
		alloc, exact := MakeChange(drawer, balance)
		if exact {
			require.Equal(t, balance, alloc.Total(), "balance %d", balance)
		} else {
			require.Less(t, alloc.Total(), balance)
		}
		for _, a := range alloc {
			require.Positive(t, a.Count)
			require.LessOrEqual(t, a.Count, counts[a.Value])
		}
	}
}

func TestSafeTotal(t *testing.T) {
	cases := []struct {
		name  string
		notes []Denomination
		want  int64
		ok    bool
	}{
		{"empty", nil, 0, true},
		{"plain", []Denomination{{Value: 500, Count: 3}, {Value: 1, Count: 2}}, 1502, true},
		{"product wraps", []Denomination{{Value: 500, Count: 120}, {Value: 1 << 62, Count: 4}}, 0, false},
		{"sum wraps", []Denomination{{Value: math.MaxInt64, Count: 1}, {Value: 1, Count: 1}}, 0, false},
		{"at the limit", []Denomination{{Value: math.MaxInt64 - 1, Count: 1}, {Value: 1, Count: 1}}, math.MaxInt64, true},
		{"negative count", []Denomination{{Value: 5, Count: -1}}, 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := SafeTotal(tc.notes)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestBelow(t *testing.T) {
	low := Below([]Denomination{{Value: 1, Count: 2}, {Value: 500, Count: 0}, {Value: 50, Count: 9}}, 3)
	require.Equal(t, []Denomination{{Value: 500, Count: 0}, {Value: 1, Count: 2}}, low)
}
