package forward

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/johnrak/payrelay/internal/domain"
)

func sampleRecord() domain.PaymentRecord {
	return domain.PaymentRecord{
		Amount:        decimal.RequireFromString("1.00"),
		Currency:      domain.CurrencyUSD,
		TransactionID: "176769352210115",
		PayerName:     "Yun Vorak",
		PayerPhone:    "444",
		ApprovalCode:  "657806",
		Metadata: domain.Metadata{
			PaymentTime: "Jan 06, 04:58 PM",
			Location:    "Johnrak",
			PayerBy:     "V",
			RawMessage:  "$1.00 paid by Yun Vorak ...",
		},
	}
}

func newForwarder(t *testing.T, endpoint string, timeout time.Duration) *Forwarder {
	t.Helper()
	f, err := New(Config{EndpointURL: endpoint, Secret: "s3cret", Timeout: timeout})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return f
}

func TestForward_Success(t *testing.T) {
	var (
		gotSecret      string
		gotQuerySecret string
		gotContentType string
		gotBody        []byte
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		gotSecret = r.Header.Get(SecretHeader)
		gotQuerySecret = r.URL.Query().Get("key")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"transaction_id":"176769352210115"}`))
	}))
	defer srv.Close()

	f := newForwarder(t, srv.URL, 0)
	result, err := f.Forward(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("Forward returned error: %v", err)
	}

	if !result.OK || result.StatusCode != http.StatusOK {
		t.Errorf("expected OK result, got %+v", result)
	}
	if result.Body["success"] != true {
		t.Errorf("expected parsed sink response, got %v", result.Body)
	}
	if gotSecret != "s3cret" {
		t.Errorf("expected secret header, got %q", gotSecret)
	}
	if gotQuerySecret != "s3cret" {
		t.Errorf("expected secret query parameter, got %q", gotQuerySecret)
	}
	if gotContentType != "application/json" {
		t.Errorf("unexpected content type %q", gotContentType)
	}

	body := string(gotBody)
	if !strings.Contains(body, `"amount":1.00`) {
		t.Errorf("expected amount as a two-decimal JSON number, body: %s", body)
	}
	if strings.Contains(body, "order_id") {
		t.Errorf("expected no order_id key when absent, body: %s", body)
	}

	var decoded map[string]any
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("request body is not valid JSON: %v", err)
	}
	if decoded["currency"] != "USD" {
		t.Errorf("unexpected currency %v", decoded["currency"])
	}
	if decoded["transaction_id"] != "176769352210115" {
		t.Errorf("unexpected transaction_id %v", decoded["transaction_id"])
	}
	meta, ok := decoded["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("expected metadata object, got %v", decoded["metadata"])
	}
	if meta["apv"] != "657806" {
		t.Errorf("unexpected apv %v", meta["apv"])
	}
	if meta["payment_time"] != "Jan 06, 04:58 PM" {
		t.Errorf("unexpected payment_time %v", meta["payment_time"])
	}
}

func TestForward_OrderIDIncludedWhenPresent(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	record := sampleRecord()
	orderID := "ORDER-789"
	record.OrderID = &orderID

	f := newForwarder(t, srv.URL, 0)
	if _, err := f.Forward(context.Background(), record); err != nil {
		t.Fatalf("Forward returned error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(gotBody, &decoded); err != nil {
		t.Fatalf("request body is not valid JSON: %v", err)
	}
	if decoded["order_id"] != "ORDER-789" {
		t.Errorf("expected order_id ORDER-789, got %v", decoded["order_id"])
	}
}

func TestForward_SinkRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad secret"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	f := newForwarder(t, srv.URL, 0)
	result, err := f.Forward(context.Background(), sampleRecord())

	var sinkErr *SinkError
	if !errors.As(err, &sinkErr) {
		t.Fatalf("expected *SinkError, got %v", err)
	}
	if sinkErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", sinkErr.StatusCode)
	}
	if !strings.Contains(sinkErr.Body, "bad secret") {
		t.Errorf("expected body excerpt, got %q", sinkErr.Body)
	}
	if result.OK || result.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected failed result with status 401, got %+v", result)
	}
}

func TestForward_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	f := newForwarder(t, srv.URL, 20*time.Millisecond)
	_, err := f.Forward(context.Background(), sampleRecord())

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if transportErr.Reason != ReasonTimeout {
		t.Errorf("expected timeout reason, got %s", transportErr.Reason)
	}
}

func TestForward_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	endpoint := srv.URL
	srv.Close()

	f := newForwarder(t, endpoint, 0)
	_, err := f.Forward(context.Background(), sampleRecord())

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if transportErr.Reason != ReasonConnectionRefused {
		t.Errorf("expected connection_refused reason, got %s", transportErr.Reason)
	}
}

func TestForward_DNSFailure(t *testing.T) {
	f := newForwarder(t, "http://sink.invalid/api/payment/webhook", 0)
	_, err := f.Forward(context.Background(), sampleRecord())

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if transportErr.Reason != ReasonDNS {
		t.Errorf("expected dns reason, got %s", transportErr.Reason)
	}
}

func TestForward_NonJSONSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("accepted"))
	}))
	defer srv.Close()

	f := newForwarder(t, srv.URL, 0)
	result, err := f.Forward(context.Background(), sampleRecord())
	if err != nil {
		t.Fatalf("Forward returned error: %v", err)
	}
	if !result.OK || result.Body != nil {
		t.Errorf("expected delivered result with nil body, got %+v", result)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{Secret: "x"}); !errors.Is(err, ErrMissingEndpoint) {
		t.Errorf("expected ErrMissingEndpoint, got %v", err)
	}
	if _, err := New(Config{EndpointURL: "http://localhost"}); !errors.Is(err, ErrMissingSecret) {
		t.Errorf("expected ErrMissingSecret, got %v", err)
	}
}
