package billing

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-kasir/internal/common"
	"github.com/noah-isme/toko-kasir/internal/ledger"
)

var maxPaid = decimal.NewFromInt(math.MaxInt64)

// CartLine requests quantity units of a product.
type CartLine struct {
	SKU      string `json:"sku" validate:"required,max=64"`
	Quantity int64  `json:"quantity" validate:"gt=0,max=1000000"`
}

// Note is a bundle of tendered notes or coins of one face value.
type Note struct {
	Value int64 `json:"value" validate:"gt=0"`
	Count int64 `json:"count" validate:"gte=0,max=100000"`
}

// QuoteInput prices a cart. PaidAmount is optional; when set the quote also
// previews the balance and the change the drawer would return.
type QuoteInput struct {
	Items      []CartLine       `json:"items" validate:"required,min=1,max=100,dive"`
	PaidAmount *decimal.Decimal `json:"paidAmount,omitempty"`
}

// CommitInput settles a cart. Tendered lists what the customer handed over;
// when present its value must equal PaidAmount.
type CommitInput struct {
	CustomerID string           `json:"customerId" validate:"required,max=128"`
	Items      []CartLine       `json:"items" validate:"required,min=1,max=100,dive"`
	PaidAmount *decimal.Decimal `json:"paidAmount"`
	Tendered   []Note           `json:"tendered" validate:"max=50,dive"`
}

type quoteCommand struct {
	lines []CartLine
	paid  *int64
}

type commitCommand struct {
	customerID string
	lines      []CartLine
	paid       int64
	tendered   []ledger.Denomination
}

func (in QuoteInput) command() (quoteCommand, error) {
	lines := trimLines(in.Items)
	in.Items = lines
	if err := common.Validate(in); err != nil {
		return quoteCommand{}, err
	}
	cmd := quoteCommand{lines: lines}
	if in.PaidAmount != nil {
		paid, err := wholeAmount(*in.PaidAmount)
		if err != nil {
			return quoteCommand{}, err
		}
		cmd.paid = &paid
	}
	return cmd, nil
}

func (in CommitInput) command() (commitCommand, error) {
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	in.Items = trimLines(in.Items)
	if err := common.Validate(in); err != nil {
		return commitCommand{}, err
	}
	if in.PaidAmount == nil {
		return commitCommand{}, common.ValidationError("paidAmount", errors.New("paid amount is required"))
	}
	paid, err := wholeAmount(*in.PaidAmount)
	if err != nil {
		return commitCommand{}, err
	}
	tendered := mergeNotes(in.Tendered)
	if len(tendered) > 0 {
		sum, ok := ledger.SafeTotal(tendered)
		if !ok {
			return commitCommand{}, common.ValidationError("tendered", errors.New("tendered value is too large"))
		}
		if sum != paid {
			return commitCommand{}, common.ValidationError("tendered", fmt.Errorf("tendered %d does not match paid amount %d", sum, paid))
		}
	}
	return commitCommand{
		customerID: in.CustomerID,
		lines:      in.Items,
		paid:       paid,
		tendered:   tendered,
	}, nil
}

func wholeAmount(d decimal.Decimal) (int64, error) {
	switch {
	case d.IsNegative():
		return 0, common.ValidationError("paidAmount", errors.New("paid amount must not be negative"))
	case !d.IsInteger():
		return 0, common.ValidationError("paidAmount", errors.New("paid amount must be a whole number"))
	case d.GreaterThan(maxPaid):
		return 0, common.ValidationError("paidAmount", errors.New("paid amount is too large"))
	}
	return d.IntPart(), nil
}

func trimLines(lines []CartLine) []CartLine {
	out := make([]CartLine, len(lines))
	for i, l := range lines {
		out[i] = CartLine{SKU: strings.TrimSpace(l.SKU), Quantity: l.Quantity}
	}
	return out
}

// mergeNotes folds repeated face values together, drops empty bundles and
// orders the result largest value first.
func mergeNotes(notes []Note) []ledger.Denomination {
	counts := make(map[int64]int64, len(notes))
	for _, n := range notes {
		if n.Count > 0 {
			counts[n.Value] += n.Count
		}
	}
	out := make([]ledger.Denomination, 0, len(counts))
	for value, count := range counts {
		out = append(out, ledger.Denomination{Value: value, Count: count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value > out[j].Value })
	return out
}
