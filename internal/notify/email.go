package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/mail"
	"strings"

	"github.com/hibiken/asynq"

	dbgen "github.com/noah-isme/toko-kasir/internal/db/gen"
	"github.com/noah-isme/toko-kasir/internal/events"
	"github.com/noah-isme/toko-kasir/internal/obs"
	"github.com/noah-isme/toko-kasir/internal/purchase"
)

// TaskReceiptEmail is the asynq task type for emailed receipts.
const TaskReceiptEmail = "receipt:email"

const defaultReceiptRetries = 5

// ReceiptPayload identifies the purchase to mail and its recipient.
type ReceiptPayload struct {
	PurchaseID int64  `json:"purchaseId"`
	Email      string `json:"email"`
}

// NewReceiptTask builds the asynq task for payload.
func NewReceiptTask(p ReceiptPayload) (*asynq.Task, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskReceiptEmail, body), nil
}

// TaskEnqueuer is the subset of *asynq.Client used to queue receipts.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ReceiptEnqueuer queues a receipt email for committed purchases whose
// customer id is an email address.
type ReceiptEnqueuer struct {
	Client   TaskEnqueuer
	Enabled  bool
	Queue    string
	MaxRetry int
}

// Notify implements events.Notifier.
func (e ReceiptEnqueuer) Notify(ctx context.Context, ev dbgen.DomainEvent) error {
	if !e.Enabled || e.Client == nil || ev.Topic != events.TopicPurchaseCommitted {
		return nil
	}
	var committed events.PurchaseCommitted
	if err := json.Unmarshal(ev.Payload, &committed); err != nil {
		return fmt.Errorf("receipt: decode payload: %w", err)
	}
	to, ok := emailAddress(committed.CustomerID)
	if !ok {
		obs.ObserveReceiptJob("enqueue", "skipped")
		return nil
	}
	task, err := NewReceiptTask(ReceiptPayload{PurchaseID: committed.PurchaseID, Email: to})
	if err != nil {
		return fmt.Errorf("receipt: build task: %w", err)
	}
	retries := e.MaxRetry
	if retries <= 0 {
		retries = defaultReceiptRetries
	}
	opts := []asynq.Option{
		asynq.TaskID(fmt.Sprintf("receipt:%d", committed.PurchaseID)),
		asynq.MaxRetry(retries),
	}
	if e.Queue != "" {
		opts = append(opts, asynq.Queue(e.Queue))
	}
	if _, err := e.Client.EnqueueContext(ctx, task, opts...); err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			obs.ObserveReceiptJob("enqueue", "duplicate")
			return nil
		}
		obs.ObserveReceiptJob("enqueue", "error")
		return fmt.Errorf("receipt: enqueue: %w", err)
	}
	obs.ObserveReceiptJob("enqueue", "ok")
	return nil
}

func emailAddress(customerID string) (string, bool) {
	customerID = strings.TrimSpace(customerID)
	if !strings.Contains(customerID, "@") {
		return "", false
	}
	addr, err := mail.ParseAddress(customerID)
	if err != nil || addr.Address != customerID {
		return "", false
	}
	return addr.Address, true
}

// PurchaseReader loads a committed purchase.
type PurchaseReader interface {
	Get(ctx context.Context, id int64) (purchase.Record, error)
}

// ReceiptHandler processes TaskReceiptEmail tasks.
type ReceiptHandler struct {
	Purchases PurchaseReader
	Mail      Mailer
}

// ProcessTask implements asynq.Handler. Unknown purchases and malformed
// payloads are not retried.
func (h ReceiptHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ReceiptPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		obs.ObserveReceiptJob("send", "invalid")
		return fmt.Errorf("receipt: decode task: %v: %w", err, asynq.SkipRetry)
	}
	if p.PurchaseID <= 0 || p.Email == "" {
		obs.ObserveReceiptJob("send", "invalid")
		return fmt.Errorf("receipt: incomplete task payload: %w", asynq.SkipRetry)
	}
	rec, err := h.Purchases.Get(ctx, p.PurchaseID)
	if err != nil {
		if errors.Is(err, purchase.ErrNotFound) {
			obs.ObserveReceiptJob("send", "missing")
			return fmt.Errorf("receipt: purchase %d: %v: %w", p.PurchaseID, err, asynq.SkipRetry)
		}
		obs.ObserveReceiptJob("send", "error")
		return fmt.Errorf("receipt: load purchase %d: %w", p.PurchaseID, err)
	}
	body, err := RenderReceipt(rec)
	if err != nil {
		obs.ObserveReceiptJob("send", "error")
		return fmt.Errorf("receipt: render: %w", err)
	}
	if err := h.Mail.Send(p.Email, fmt.Sprintf("Struk pembelian #%d", rec.ID), body); err != nil {
		obs.ObserveReceiptJob("send", "error")
		return fmt.Errorf("receipt: send: %w", err)
	}
	obs.ObserveReceiptJob("send", "ok")
	return nil
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<h1>Struk #{{.ID}}</h1>
<p>{{.PurchasedAt.Format "2006-01-02 15:04"}}</p>
<table>
{{range .Items}}<tr><td>{{.Name}}</td><td>{{.Quantity}} x {{.UnitPrice.StringFixed 2}}</td><td>{{.LineTotal.StringFixed 2}}</td><td>{{.LineTax.StringFixed 2}}</td></tr>
{{end}}</table>
<p>Subtotal: {{.Subtotal.StringFixed 2}}</p>
<p>Pajak: {{.TotalTax.StringFixed 2}}</p>
<p>Total: {{.RoundedTotal}}</p>
<p>Dibayar: {{.PaidAmount}}</p>
<p>Kembalian: {{.Balance}}{{range .Change}} [{{.Value}} x {{.Count}}]{{end}}</p>
`))

// RenderReceipt renders the HTML body of a receipt email.
func RenderReceipt(rec purchase.Record) (string, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, rec); err != nil {
		return "", err
	}
	return buf.String(), nil
}
