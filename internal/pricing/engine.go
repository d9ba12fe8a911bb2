package pricing

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var (
	hundred  = decimal.NewFromInt(100)
	maxWhole = decimal.NewFromInt(math.MaxInt64)
	minWhole = decimal.NewFromInt(math.MinInt64)
)

// ErrOutOfRange is returned when a rounded total does not fit in int64.
var ErrOutOfRange = errors.New("pricing: total out of range")

// Item describes a bill line priced from a catalog snapshot.
type Item struct {
	Qty           int64
	UnitPrice     decimal.Decimal
	TaxPercentage decimal.Decimal
}

// Line holds the computed amounts of one Item.
type Line struct {
	Total decimal.Decimal
	Tax   decimal.Decimal
}

// Summary aggregates computed bill components. Rounded is the amount the
// customer pays: the final total rounded down to a whole unit. No rounding is
// applied per line.
type Summary struct {
	Lines    []Line
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	Rounded  int64
}

// Compute calculates line totals, tax and the rounded bill total.
func Compute(items []Item) (Summary, error) {
	sum := Summary{
		Lines:    make([]Line, 0, len(items)),
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
	}
	for _, it := range items {
		lineTotal := it.UnitPrice.Mul(decimal.NewFromInt(it.Qty))
		lineTax := lineTotal.Mul(it.TaxPercentage).Div(hundred)
		sum.Lines = append(sum.Lines, Line{Total: lineTotal, Tax: lineTax})
		sum.Subtotal = sum.Subtotal.Add(lineTotal)
		sum.Tax = sum.Tax.Add(lineTax)
	}
	sum.Total = sum.Subtotal.Add(sum.Tax)
	rounded, err := RoundDown(sum.Total)
	if err != nil {
		return Summary{}, err
	}
	sum.Rounded = rounded
	return sum, nil
}

// RoundDown truncates toward negative infinity to a whole unit.
func RoundDown(v decimal.Decimal) (int64, error) {
	f := v.Floor()
	if f.GreaterThan(maxWhole) || f.LessThan(minWhole) {
		return 0, ErrOutOfRange
	}
	return f.IntPart(), nil
}
