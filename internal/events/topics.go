package events

// Topic constants for domain events emitted by the till.
const (
	TopicPurchaseCommitted = "purchase.committed"
	TopicTillLowChange     = "till.low_change"
	TopicCatalogChanged    = "catalog.changed"
)

// PurchaseCommitted is the payload of TopicPurchaseCommitted.
type PurchaseCommitted struct {
	PurchaseID   int64  `json:"purchaseId"`
	CustomerID   string `json:"customerId"`
	RoundedTotal int64  `json:"roundedTotal"`
	PaidAmount   int64  `json:"paidAmount"`
	Balance      int64  `json:"balance"`
}

// LowChange is the payload of TopicTillLowChange.
type LowChange struct {
	Threshold int64             `json:"threshold"`
	Low       []LowDenomination `json:"low"`
}

// LowDenomination is a face value whose held count fell under the threshold.
type LowDenomination struct {
	Value int64 `json:"value"`
	Count int64 `json:"count"`
}

// CatalogChanged is the payload of TopicCatalogChanged, written for every
// successful catalog management request.
type CatalogChanged struct {
	Action    string `json:"action"`
	SKU       string `json:"sku,omitempty"`
	Operator  string `json:"operator"`
	Status    int    `json:"status"`
	RequestID string `json:"requestId,omitempty"`
}
