package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPayload   = errors.New("gateway: invalid payload")
	ErrInvalidSignature = errors.New("gateway: invalid signature")
	// ErrEventIgnored marks notifications that are acknowledged but never confirm anything.
	ErrEventIgnored = errors.New("gateway: event ignored")
	// ErrLookupUnavailable is returned when a gateway needs a status lookup that is not configured.
	ErrLookupUnavailable = errors.New("gateway: status lookup not configured")
)

// Event is the canonical form of a gateway notification.
type Event struct {
	Gateway           string
	ExternalReference string // our payment id
	Approved          bool
	Status            string           // gateway status as reported
	Amount            *decimal.Decimal // nil when the gateway did not send one
	ProviderID        string           // the gateway's own transaction id
	RawPayload        []byte
}

// Metadata is what gets merged into the payment record on confirmation.
func (e *Event) Metadata() map[string]any {
	m := map[string]any{
		"gateway":        e.Gateway,
		"gateway_status": e.Status,
	}
	if e.ProviderID != "" {
		m["gateway_payment_id"] = e.ProviderID
	}
	if e.Amount != nil {
		m["gateway_amount"] = e.Amount.StringFixed(2)
	}
	return m
}

// Adapter turns one gateway's webhook call into an Event.
type Adapter interface {
	Name() string
	// Verify checks the call's authenticity. Adapters without a configured secret accept everything.
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*Event, error)
}

// Registry resolves adapters by route name.
type Registry struct {
	adapters map[string]Adapter
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

func (r *Registry) Get(name string) (Adapter, bool) {
	if r == nil {
		return nil, false
	}
	a, ok := r.adapters[strings.ToLower(name)]
	return a, ok
}

func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// HMACVerifier checks a hex encoded HMAC-SHA256 of the raw body carried in Header.
// An empty secret disables the check.
type HMACVerifier struct {
	Secret string
	Header string
}

func (v HMACVerifier) Verify(payload []byte, headers http.Header) error {
	if v.Secret == "" {
		return nil
	}
	got := strings.TrimSpace(headers.Get(v.Header))
	got = strings.TrimPrefix(got, "sha256=")
	if got == "" {
		return ErrInvalidSignature
	}
	if !hmac.Equal([]byte(strings.ToLower(got)), []byte(Sign(v.Secret, payload))) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign returns the lowercase hex HMAC-SHA256 of payload.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func parseAmount(raw any) *decimal.Decimal {
	var (
		d   decimal.Decimal
		err error
	)
	switch v := raw.(type) {
	case float64:
		d = decimal.NewFromFloat(v)
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		d, err = decimal.NewFromString(strings.TrimSpace(v))
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	d = d.Round(2)
	return &d
}
