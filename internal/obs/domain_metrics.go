package obs

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// BillCommitTotal counts bill commits by outcome (ok or the error code).
	BillCommitTotal *prometheus.CounterVec
	// BillCommitDuration records commit latency in milliseconds.
	BillCommitDuration prometheus.Histogram
	// BillQuoteTotal counts quotes by outcome.
	BillQuoteTotal *prometheus.CounterVec
	// DrawerNotes exposes the held count per face value.
	DrawerNotes *prometheus.GaugeVec
	// DrawerValue exposes the total value held in the drawer.
	DrawerValue prometheus.Gauge
	// LowChangeTotal counts low-change alerts raised after commits.
	LowChangeTotal prometheus.Counter
	// ReceiptJobsTotal counts receipt job enqueue/processing outcomes.
	ReceiptJobsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BillCommitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_commit_total",
			Help:      "Count of bill commit outcomes.",
		}, []string{"result"})
		BillCommitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bill_commit_duration_ms",
			Help:      "Latency of bill commits in milliseconds.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		})
		BillQuoteTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_quote_total",
			Help:      "Count of bill quote outcomes.",
		}, []string{"result"})
		DrawerNotes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "drawer_notes",
			Help:      "Notes or coins held in the till per face value.",
		}, []string{"value"})
		DrawerValue = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "drawer_value",
			Help:      "Total face value held in the till.",
		})
		LowChangeTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drawer_low_change_total",
			Help:      "Number of low-change alerts raised.",
		})
		ReceiptJobsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "receipt_jobs_total",
			Help:      "Count of receipt job outcomes by stage.",
		}, []string{"stage", "result"})

		mustRegisterCollector(reg, BillCommitTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BillCommitTotal = v
			}
		})
		mustRegisterCollector(reg, BillCommitDuration, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Histogram); ok {
				BillCommitDuration = v
			}
		})
		mustRegisterCollector(reg, BillQuoteTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				BillQuoteTotal = v
			}
		})
		mustRegisterCollector(reg, DrawerNotes, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.GaugeVec); ok {
				DrawerNotes = v
			}
		})
		mustRegisterCollector(reg, DrawerValue, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Gauge); ok {
				DrawerValue = v
			}
		})
		mustRegisterCollector(reg, LowChangeTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(prometheus.Counter); ok {
				LowChangeTotal = v
			}
		})
		mustRegisterCollector(reg, ReceiptJobsTotal, func(existing prometheus.Collector) {
			if v, ok := existing.(*prometheus.CounterVec); ok {
				ReceiptJobsTotal = v
			}
		})
	})
}

// ObserveCommit records one commit outcome. It is a no-op until the domain
// metrics are registered.
func ObserveCommit(result string, took time.Duration) {
	if BillCommitTotal != nil {
		BillCommitTotal.WithLabelValues(result).Inc()
	}
	if BillCommitDuration != nil {
		BillCommitDuration.Observe(DurationMillis(took))
	}
}

// ObserveQuote records one quote outcome.
func ObserveQuote(result string) {
	if BillQuoteTotal != nil {
		BillQuoteTotal.WithLabelValues(result).Inc()
	}
}

// SetDrawer publishes the held count per face value and the drawer total.
func SetDrawer(counts map[int64]int64) {
	if DrawerNotes == nil || DrawerValue == nil {
		return
	}
	var total int64
	for value, count := range counts {
		DrawerNotes.WithLabelValues(strconv.FormatInt(value, 10)).Set(float64(count))
		total += value * count
	}
	DrawerValue.Set(float64(total))
}

// IncLowChange counts a low-change alert.
func IncLowChange() {
	if LowChangeTotal != nil {
		LowChangeTotal.Inc()
	}
}

// ObserveReceiptJob records a receipt job outcome for stage (enqueue or send).
func ObserveReceiptJob(stage, result string) {
	if ReceiptJobsTotal != nil {
		ReceiptJobsTotal.WithLabelValues(stage, result).Inc()
	}
}

func mustRegisterCollector(reg prometheus.Registerer, collector prometheus.Collector, reuse func(prometheus.Collector)) {
	if err := reg.Register(collector); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if reuse != nil {
				reuse(are.ExistingCollector)
			}
			return
		}
		panic(fmt.Errorf("register domain metric: %w", err))
	}
}
