package gateway

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const PagSeguroName = "pagseguro"

// PagSeguro transaction statuses that mean the money arrived.
const (
	pagSeguroPaid      = 3
	pagSeguroAvailable = 4
)

// PagSeguroTransaction is the subset of the notification lookup response we read.
type PagSeguroTransaction struct {
	XMLName     xml.Name `xml:"transaction"`
	Code        string   `xml:"code"`
	Reference   string   `xml:"reference"`
	Status      int      `xml:"status"`
	GrossAmount string   `xml:"grossAmount"`
}

type PagSeguroLookup interface {
	Transaction(ctx context.Context, notificationCode string) (*PagSeguroTransaction, error)
}

type PagSeguro struct {
	verifier HMACVerifier
	lookup   PagSeguroLookup
}

func NewPagSeguro(verifier HMACVerifier, lookup PagSeguroLookup) *PagSeguro {
	return &PagSeguro{verifier: verifier, lookup: lookup}
}

func (p *PagSeguro) Name() string { return PagSeguroName }

func (p *PagSeguro) Verify(_ context.Context, payload []byte, headers http.Header) error {
	return p.verifier.Verify(payload, headers)
}

// Parse accepts the form encoded notificationCode/notificationType body PagSeguro posts.
func (p *PagSeguro) Parse(ctx context.Context, payload []byte) (*Event, error) {
	form, err := url.ParseQuery(string(payload))
	if err != nil {
		return nil, ErrInvalidPayload
	}
	if form.Get("notificationType") != "transaction" {
		return nil, ErrEventIgnored
	}
	code := strings.TrimSpace(form.Get("notificationCode"))
	if code == "" {
		return nil, ErrInvalidPayload
	}
	if p.lookup == nil {
		return nil, ErrLookupUnavailable
	}

	tx, err := p.lookup.Transaction(ctx, code)
	if err != nil {
		return nil, err
	}
	if tx.Reference == "" {
		return nil, ErrEventIgnored
	}
	return &Event{
		Gateway:           PagSeguroName,
		ExternalReference: tx.Reference,
		Approved:          tx.Status == pagSeguroPaid || tx.Status == pagSeguroAvailable,
		Status:            fmt.Sprintf("%d", tx.Status),
		Amount:            parseAmount(tx.GrossAmount),
		ProviderID:        tx.Code,
		RawPayload:        payload,
	}, nil
}

// PagSeguroClient resolves notification codes through the v3 notifications API.
type PagSeguroClient struct {
	baseURL string
	email   string
	token   string
	client  *http.Client
}

func NewPagSeguroClient(baseURL, email, token string, timeout time.Duration) *PagSeguroClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PagSeguroClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		email:   email,
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *PagSeguroClient) Transaction(ctx context.Context, notificationCode string) (*PagSeguroTransaction, error) {
	q := url.Values{}
	q.Set("email", c.email)
	q.Set("token", c.token)
	endpoint := c.baseURL + "/v3/transactions/notifications/" + url.PathEscape(notificationCode) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")

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
		return nil, fmt.Errorf("pagseguro: notification %s: status %d", notificationCode, resp.StatusCode)
	}

	var tx PagSeguroTransaction
	if err := xml.Unmarshal(body, &tx); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &tx, nil
}
