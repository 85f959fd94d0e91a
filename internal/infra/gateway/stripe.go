package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const StripeName = "stripe"

// stripeTolerance rejects replays of signed events older than this.
const stripeTolerance = 5 * time.Minute

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string         `json:"id"`
			Amount   int64          `json:"amount"`
			Currency string         `json:"currency"`
			Status   string         `json:"status"`
			Metadata map[string]any `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// Stripe handles payment_intent events whose metadata carries our payment_id.
type Stripe struct {
	webhookSecret string // empty disables the Stripe-Signature check
	now           func() time.Time
}

func NewStripe(webhookSecret string) *Stripe {
	return &Stripe{webhookSecret: strings.TrimSpace(webhookSecret), now: time.Now}
}

func (s *Stripe) Name() string { return StripeName }

func (s *Stripe) Verify(_ context.Context, payload []byte, headers http.Header) error {
	if s.webhookSecret == "" {
		return nil
	}
	sigHeader := strings.TrimSpace(headers.Get("Stripe-Signature"))
	if sigHeader == "" {
		return ErrInvalidSignature
	}
	timestamp, signatures, err := parseStripeSignature(sigHeader)
	if err != nil {
		return ErrInvalidSignature
	}
	sec, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if age := s.now().Sub(time.Unix(sec, 0)); age > stripeTolerance || age < -stripeTolerance {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	_, _ = mac.Write([]byte(fmt.Sprintf("%s.%s", timestamp, string(payload))))
	expected := hex.EncodeToString(mac.Sum(nil))
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}
	return ErrInvalidSignature
}

func (s *Stripe) Parse(_ context.Context, payload []byte) (*Event, error) {
	var event stripeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, ErrInvalidPayload
	}
	if strings.TrimSpace(event.Type) != "payment_intent.succeeded" {
		return nil, ErrEventIgnored
	}
	obj := event.Data.Object
	ref := readMetadataValue(obj.Metadata, "payment_id")
	if ref == "" {
		return nil, ErrInvalidPayload
	}
	// stripe amounts are in minor units
	amount := decimal.NewFromInt(obj.Amount).Shift(-2)
	return &Event{
		Gateway:           StripeName,
		ExternalReference: ref,
		Approved:          true,
		Status:            obj.Status,
		Amount:            &amount,
		ProviderID:        obj.ID,
		RawPayload:        payload,
	}, nil
}

func parseStripeSignature(header string) (string, []string, error) {
	var (
		timestamp  string
		signatures []string
	)
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.TrimSpace(kv[0]) {
		case "t":
			timestamp = strings.TrimSpace(kv[1])
		case "v1":
			signatures = append(signatures, strings.TrimSpace(kv[1]))
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return "", nil, ErrInvalidSignature
	}
	return timestamp, signatures, nil
}

func readMetadataValue(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	switch v := metadata[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	}
	return ""
}
