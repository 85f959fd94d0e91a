package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"discord-sales-bot/internal/domain/model"
)

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		confirmationsTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by status reached (pending/paid/cancelled/expired).",
		},
		[]string{"status"},
	)

	paymentsRevenueTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payments_revenue_total",
			Help: "Sum of confirmed payment amounts.",
		},
	)

	// source: command|webhook|dashboard|scheduler
	// outcome: applied|already_confirmed|already_cancelled|already_expired|not_found|error
	confirmationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_confirmations_total",
			Help: "Confirm/cancel/expire requests by trigger source and outcome.",
		},
		[]string{"action", "source", "outcome"},
	)
)

func IncPayment(status string) {
	paymentsTotal.WithLabelValues(norm(status)).Inc()
}

func AddPaymentRevenue(amount decimal.Decimal) {
	f, _ := amount.Float64()
	paymentsRevenueTotal.Add(f)
}

func IncConfirmation(action, source, outcome string) {
	confirmationsTotal.WithLabelValues(norm(action), norm(source), norm(outcome)).Inc()
}

// ObserveResolution counts one dispatcher call. applied is the payment when
// the call changed its status, nil otherwise.
func ObserveResolution(action, source, outcome string, applied *model.Payment) {
	IncConfirmation(action, source, outcome)
	if applied == nil {
		return
	}
	IncPayment(string(applied.Status))
	if applied.Status == model.PaymentStatusPaid {
		AddPaymentRevenue(applied.Amount)
	}
}
