package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // created, awaiting confirmation
	PaymentStatusPaid      PaymentStatus = "paid"      // confirmed by command, webhook or dashboard
	PaymentStatusCancelled PaymentStatus = "cancelled" // operator cancel
	PaymentStatusExpired   PaymentStatus = "expired"   // pending longer than the configured TTL
)

const (
	PaymentIDPrefix       = "PAY"
	ManualPaymentIDPrefix = "MANUAL"

	DefaultPaymentMethod = "PIX"
	ManualPaymentMethod  = "Manual"
	DefaultPlan          = "Standard"
)

// DefaultPaymentAmount is charged when a sale is opened without an explicit amount.
var DefaultPaymentAmount = decimal.RequireFromString("25.00")

// IsTerminal reports whether no further transition is allowed out of s.
func (s PaymentStatus) IsTerminal() bool {
	switch s {
	case PaymentStatusPaid, PaymentStatusCancelled, PaymentStatusExpired:
		return true
	}
	return false
}

func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusPending || s.IsTerminal()
}

// CanTransitionTo allows only pending -> {paid, cancelled, expired}.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentStatusPending && next.IsTerminal()
}

// ParsePaymentStatus accepts the canonical names plus the Portuguese labels operators type in chat.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "pendente":
		return PaymentStatusPending, nil
	case "paid", "pago":
		return PaymentStatusPaid, nil
	case "cancelled", "canceled", "cancelado":
		return PaymentStatusCancelled, nil
	case "expired", "expirado":
		return PaymentStatusExpired, nil
	}
	return "", fmt.Errorf("unknown payment status %q", raw)
}

// Payment is one purchase attempt by a buyer.
type Payment struct {
	ID           string
	PrincipalID  string // Discord snowflake of the buyer
	DisplayName  string
	Plan         string
	Amount       decimal.Decimal
	Method       string
	Status       PaymentStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
	ConfirmedAt  *time.Time
	ConfirmedBy  *string
	CancelReason *string
	Metadata     map[string]any // gateway payloads, resolver ids; JSONB in the store
}

// NewPaymentID returns "<prefix>_<ULID>". ULIDs are time ordered, so ids sort by creation.
func NewPaymentID(prefix string, now time.Time) string {
	if prefix == "" {
		prefix = PaymentIDPrefix
	}
	return prefix + "_" + ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String()
}

// Clone returns a deep copy so callers never share mutable state with the ledger.
func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	cp := *p
	if p.ConfirmedAt != nil {
		t := *p.ConfirmedAt
		cp.ConfirmedAt = &t
	}
	if p.ConfirmedBy != nil {
		s := *p.ConfirmedBy
		cp.ConfirmedBy = &s
	}
	if p.CancelReason != nil {
		s := *p.CancelReason
		cp.CancelReason = &s
	}
	if p.Metadata != nil {
		cp.Metadata = make(map[string]any, len(p.Metadata))
		for k, v := range p.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// PaymentTransition is the change persisted when a pending payment reaches a terminal state.
type PaymentTransition struct {
	Status       PaymentStatus
	At           time.Time
	ConfirmedBy  *string        // set only for paid
	CancelReason *string        // set only for cancelled
	Metadata     map[string]any // merged into the stored metadata
}

// Apply copies a persisted transition onto p.
func (p *Payment) Apply(t PaymentTransition) {
	p.Status = t.Status
	p.UpdatedAt = t.At
	if t.Status == PaymentStatusPaid {
		at := t.At
		p.ConfirmedAt = &at
	}
	if t.ConfirmedBy != nil {
		s := *t.ConfirmedBy
		p.ConfirmedBy = &s
	}
	if t.CancelReason != nil {
		s := *t.CancelReason
		p.CancelReason = &s
	}
	if len(t.Metadata) > 0 && p.Metadata == nil {
		p.Metadata = make(map[string]any, len(t.Metadata))
	}
	for k, v := range t.Metadata {
		p.Metadata[k] = v
	}
}

// SalesSummary aggregates the ledger for reports.
type SalesSummary struct {
	Total           int
	Pending         int
	Paid            int
	Cancelled       int
	Expired         int
	Revenue         decimal.Decimal // sum of paid amounts
	UniqueCustomers int
	PayingCustomers int
}

// ConversionRate is paid/total as a percentage, 0 when there are no payments.
func (s SalesSummary) ConversionRate() decimal.Decimal {
	if s.Total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.Paid)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(s.Total))).
		Round(1)
}
