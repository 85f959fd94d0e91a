package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const GenericName = "payment"

type genericPayload struct {
	PaymentID         string `json:"payment_id"`
	ExternalReference string `json:"external_reference"`
	Status            string `json:"status"`
	Amount            any    `json:"amount"`
	CustomerID        string `json:"customer_id"`
}

// Generic accepts {payment_id|external_reference, status, amount?} from any
// gateway able to call back with our payment id.
type Generic struct {
	verifier HMACVerifier
}

func NewGeneric(verifier HMACVerifier) *Generic {
	return &Generic{verifier: verifier}
}

func (g *Generic) Name() string { return GenericName }

func (g *Generic) Verify(_ context.Context, payload []byte, headers http.Header) error {
	return g.verifier.Verify(payload, headers)
}

func (g *Generic) Parse(_ context.Context, payload []byte) (*Event, error) {
	var body genericPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, ErrInvalidPayload
	}
	ref := strings.TrimSpace(body.ExternalReference)
	if ref == "" {
		ref = strings.TrimSpace(body.PaymentID)
	}
	if ref == "" {
		return nil, ErrInvalidPayload
	}

	status := strings.ToLower(strings.TrimSpace(body.Status))
	ev := &Event{
		Gateway:           GenericName,
		ExternalReference: ref,
		Status:            status,
		Amount:            parseAmount(body.Amount),
		ProviderID:        body.PaymentID,
		RawPayload:        payload,
	}
	switch status {
	case "approved", "paid", "completed":
		ev.Approved = true
	}
	return ev, nil
}
