package domain

import "github.com/shopspring/decimal"

// Currency enumerates the currencies the notification bot reports.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyKHR Currency = "KHR"
)

// RawMessageLimit caps the excerpt of the original notification text that is
// carried in the record metadata.
const RawMessageLimit = 500

// Metadata groups the optional context fields extracted alongside the
// payment itself. Any of them may be empty.
type Metadata struct {
	PaymentTime string
	Location    string
	PayerBy     string
	RawMessage  string
}

// PaymentRecord is the normalized result of extracting one payment
// notification. A record exists only when both Amount and TransactionID were
// found; every other field may be empty. OrderID is nil when no order
// reference was present in the message, which is distinct from an empty
// string — downstream matching falls back to TransactionID alone.
type PaymentRecord struct {
	Amount        decimal.Decimal
	Currency      Currency
	TransactionID string
	PayerName     string
	PayerPhone    string
	ApprovalCode  string
	OrderID       *string
	Metadata      Metadata
}

// OrderRef returns the extracted order reference and whether one was present.
func (r PaymentRecord) OrderRef() (string, bool) {
	if r.OrderID == nil {
		return "", false
	}
	return *r.OrderID, true
}
