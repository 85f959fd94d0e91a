package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const MercadoPagoName = "mercadopago"

// MercadoPagoPayment is the subset of GET /v1/payments/{id} we read.
type MercadoPagoPayment struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	ExternalReference string      `json:"external_reference"`
	TransactionAmount float64     `json:"transaction_amount"`
}

// MercadoPagoLookup fetches the authoritative payment state; notifications only carry an id.
type MercadoPagoLookup interface {
	Payment(ctx context.Context, id string) (*MercadoPagoPayment, error)
}

type mercadoPagoNotification struct {
	Action string `json:"action"`
	Type   string `json:"type"`
	Data   struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

type MercadoPago struct {
	verifier HMACVerifier
	lookup   MercadoPagoLookup // nil: notifications are acknowledged only
}

func NewMercadoPago(verifier HMACVerifier, lookup MercadoPagoLookup) *MercadoPago {
	return &MercadoPago{verifier: verifier, lookup: lookup}
}

func (m *MercadoPago) Name() string { return MercadoPagoName }

func (m *MercadoPago) Verify(_ context.Context, payload []byte, headers http.Header) error {
	return m.verifier.Verify(payload, headers)
}

func (m *MercadoPago) Parse(ctx context.Context, payload []byte) (*Event, error) {
	var n mercadoPagoNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, ErrInvalidPayload
	}
	switch {
	case n.Action == "payment.updated" || n.Action == "payment.created" || n.Type == "payment":
	default:
		return nil, ErrEventIgnored
	}
	id := n.Data.ID.String()
	if id == "" {
		return nil, ErrInvalidPayload
	}
	if m.lookup == nil {
		return nil, ErrLookupUnavailable
	}

	p, err := m.lookup.Payment(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.ExternalReference == "" {
		return nil, ErrEventIgnored
	}
	ev := &Event{
		Gateway:           MercadoPagoName,
		ExternalReference: p.ExternalReference,
		Approved:          p.Status == "approved",
		Status:            p.Status,
		Amount:            parseAmount(p.TransactionAmount),
		ProviderID:        id,
		RawPayload:        payload,
	}
	return ev, nil
}

// MercadoPagoClient queries the Mercado Pago REST API with an access token.
type MercadoPagoClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewMercadoPagoClient(baseURL, accessToken string, timeout time.Duration) *MercadoPagoClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MercadoPagoClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   accessToken,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *MercadoPagoClient) Payment(ctx context.Context, id string) (*MercadoPagoPayment, error) {
	endpoint := c.baseURL + "/v1/payments/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mercadopago: payment %s: status %d", id, resp.StatusCode)
	}

	var p MercadoPagoPayment
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &p, nil
}
