package check

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// DefaultMailgunURL is the Mailgun API base used when none is configured.
const DefaultMailgunURL = "https://api.mailgun.net"

// MailgunValidator asks the Mailgun address validation API whether an
// address is valid.
type MailgunValidator struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// MailgunOption customizes a MailgunValidator.
type MailgunOption func(*MailgunValidator)

// WithMailgunURL overrides the API base URL (for testing or EU endpoints).
func WithMailgunURL(baseURL string) MailgunOption {
	return func(v *MailgunValidator) { v.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithHTTPClient overrides the HTTP client. Default: 10s timeout.
func WithHTTPClient(c *http.Client) MailgunOption {
	return func(v *MailgunValidator) { v.client = c }
}

// NewMailgunValidator creates a validator authenticated with the public apiKey.
func NewMailgunValidator(apiKey string, opts ...MailgunOption) *MailgunValidator {
	v := &MailgunValidator{
		apiKey:  apiKey,
		baseURL: DefaultMailgunURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

type mailgunResponse struct {
	Address string `json:"address"`
	IsValid bool   `json:"is_valid"`
}

// Validate returns the service's is_valid verdict for address.
// Transport failures and non-2xx responses are returned as errors.
func (v *MailgunValidator) Validate(ctx context.Context, address string) (bool, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("api_key", v.apiKey)
	endpoint := v.baseURL + "/v2/address/validate?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("mailgun: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("mailgun: validate: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("mailgun: validate: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out mailgunResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("mailgun: decode response: %w", err)
	}
	return out.IsValid, nil
}
