// Package forward delivers extracted payment records to the downstream
// webhook sink. One POST per record, bounded by a fixed timeout; there is no
// retry and no queue — a failed send is logged by the caller and dropped.
package forward

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"syscall"
	"time"

	"github.com/goccy/go-json"

	"github.com/johnrak/payrelay/internal/domain"
)

// SecretHeader carries the shared secret. The same secret is also appended
// as the "key" query parameter because some sink deployments check one and
// some the other.
const SecretHeader = "X-Webhook-Secret"

const (
	defaultTimeout     = 10 * time.Second
	maxResponseExcerpt = 200
	maxResponseBytes   = 1 << 20
)

var (
	// ErrMissingEndpoint indicates the sink URL is not configured.
	ErrMissingEndpoint = errors.New("webhook endpoint URL is required")
	// ErrMissingSecret indicates the shared secret is not configured.
	ErrMissingSecret = errors.New("webhook secret is required")
)

// Reason classifies a transport-level delivery failure. All reasons are
// handled identically upstream; they exist for diagnostics.
type Reason string

const (
	ReasonTimeout           Reason = "timeout"
	ReasonConnectionRefused Reason = "connection_refused"
	ReasonDNS               Reason = "dns"
	ReasonOther             Reason = "other"
)

// TransportError reports that the forward call never completed.
type TransportError struct {
	Reason Reason
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("webhook transport failure (%s): %v", e.Reason, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SinkError reports that the sink answered with a non-200 status.
type SinkError struct {
	StatusCode int
	Body       string
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink rejected payment: status %d: %s", e.StatusCode, e.Body)
}

// ForwardResult is the outcome of one delivery attempt. Body holds the
// sink's parsed JSON response when the call succeeded.
type ForwardResult struct {
	OK         bool
	StatusCode int
	Body       map[string]any
}

// Config describes the sink endpoint. It is passed in at construction;
// nothing in this package reads ambient state.
type Config struct {
	EndpointURL string
	Secret      string
	Timeout     time.Duration
}

// Forwarder performs the outbound webhook call.
type Forwarder struct {
	cfg    Config
	client *http.Client
}

// New validates the config and builds a Forwarder. A zero Timeout falls back
// to the 10 second default.
func New(cfg Config) (*Forwarder, error) {
	if cfg.EndpointURL == "" {
		return nil, ErrMissingEndpoint
	}
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Forwarder{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Forward serializes the record and POSTs it to the sink. Non-200 responses
// come back as a *SinkError alongside the populated result; transport
// failures come back as a *TransportError with a classified reason.
func (f *Forwarder) Forward(ctx context.Context, record domain.PaymentRecord) (ForwardResult, error) {
	body, err := json.Marshal(newPayload(record))
	if err != nil {
		return ForwardResult{}, fmt.Errorf("encode webhook body: %w", err)
	}

	endpoint, err := withSecretParam(f.cfg.EndpointURL, f.cfg.Secret)
	if err != nil {
		return ForwardResult{}, fmt.Errorf("build webhook URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return ForwardResult{}, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SecretHeader, f.cfg.Secret)

	res, err := f.client.Do(req)
	if err != nil {
		return ForwardResult{}, &TransportError{Reason: classifyReason(err), Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return ForwardResult{}, &TransportError{Reason: ReasonOther, Err: err}
	}

	if res.StatusCode != http.StatusOK {
		return ForwardResult{StatusCode: res.StatusCode},
			&SinkError{StatusCode: res.StatusCode, Body: excerpt(raw)}
	}

	result := ForwardResult{OK: true, StatusCode: res.StatusCode}
	if err := json.Unmarshal(raw, &result.Body); err != nil {
		// Delivered, but the sink returned something other than JSON.
		result.Body = nil
	}
	return result, nil
}

func withSecretParam(endpoint, secret string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("key", secret)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func classifyReason(err error) Reason {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return ReasonTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return ReasonConnectionRefused
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ReasonDNS
	}
	return ReasonOther
}

func excerpt(raw []byte) string {
	if len(raw) > maxResponseExcerpt {
		return string(raw[:maxResponseExcerpt])
	}
	return string(raw)
}
