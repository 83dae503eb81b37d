// Package extract turns raw ABA payment-bot notification text into a
// structured payment record. Each field is located by its own compiled
// pattern rather than one monolithic expression, so a vendor tweak to the
// message format degrades a single field instead of breaking extraction
// outright.
package extract

import (
	"errors"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/johnrak/payrelay/internal/domain"
)

var (
	// ErrNotPaymentMessage indicates the text carries no currency amount
	// token and is not a payment notification at all.
	ErrNotPaymentMessage = errors.New("text is not a payment notification")
	// ErrMissingTransactionID indicates an amount was found but the required
	// transaction identifier is absent.
	ErrMissingTransactionID = errors.New("payment notification has no transaction ID")
)

var (
	usdAmountRegex   = regexp.MustCompile(`\$(\d+\.\d{2})`)
	khrAmountRegex   = regexp.MustCompile(`(\d+\.\d{2})\s?៛`)
	payerRegex       = regexp.MustCompile(`paid\s+by\s+(.+?)\s+\(\*?(\d+)\)`)
	trxIDRegex       = regexp.MustCompile(`Trx\.\s+ID:\s+(\d+)`)
	apvRegex         = regexp.MustCompile(`APV:\s+(\d+)`)
	paymentTimeRegex = regexp.MustCompile(`on\s+(.+?)\s+via`)
	locationRegex    = regexp.MustCompile(`at\s+(\S+)`)
	// Stops at the first period, so an attribution like "V.YUN" comes out
	// truncated. That matches the live bot's observed behaviour; do not
	// widen without confirming the vendor format.
	payerByRegex = regexp.MustCompile(`by\s+([^.]+)\.`)

	usdFilterRegex = regexp.MustCompile(`\$\d+\.\d{2}.*paid\s+by`)
	khrFilterRegex = regexp.MustCompile(`\d+\.\d{2}\s?៛.*paid\s+by`)
)

// Extract parses one notification text into a PaymentRecord. It is a pure
// function: the same text always yields the same record. A record is
// returned only when both an amount and a transaction ID were found; all
// other fields degrade to empty (or, for the order ID, absent).
func Extract(text string) (domain.PaymentRecord, error) {
	amount, currency, ok := extractAmount(text)
	if !ok {
		return domain.PaymentRecord{}, ErrNotPaymentMessage
	}

	trx := trxIDRegex.FindStringSubmatch(text)
	if trx == nil {
		return domain.PaymentRecord{}, ErrMissingTransactionID
	}

	record := domain.PaymentRecord{
		Amount:        amount,
		Currency:      currency,
		TransactionID: trx[1],
		Metadata: domain.Metadata{
			RawMessage: truncate(text, domain.RawMessageLimit),
		},
	}

	if m := payerRegex.FindStringSubmatch(text); m != nil {
		record.PayerName = strings.TrimSpace(m[1])
		record.PayerPhone = m[2] // mask marker already excluded by the digit group
	}
	if m := apvRegex.FindStringSubmatch(text); m != nil {
		record.ApprovalCode = m[1]
	}
	if m := paymentTimeRegex.FindStringSubmatch(text); m != nil {
		record.Metadata.PaymentTime = strings.TrimSpace(m[1])
	}
	if m := locationRegex.FindStringSubmatch(text); m != nil {
		record.Metadata.Location = m[1]
	}
	if m := payerByRegex.FindStringSubmatch(text); m != nil {
		record.Metadata.PayerBy = strings.TrimSpace(m[1])
	}
	if orderID, ok := extractOrderID(text); ok {
		record.OrderID = &orderID
	}

	return record, nil
}

// Classify reports whether the text is a complete payment notification:
// a currency amount token, the phrase "paid by" and a transaction ID. The
// router's catch-all path uses it to pick up formatting variants the primary
// filter missed.
func Classify(text string) bool {
	if _, _, ok := extractAmount(text); !ok {
		return false
	}
	return strings.Contains(text, "paid by") && trxIDRegex.MatchString(text)
}

// MatchesPrimaryFilter is the permissive first-pass routing check: an
// amount-plus-"paid by" shape in either currency, or a bare transaction ID
// token. Messages failing it are still re-checked by Classify.
func MatchesPrimaryFilter(text string) bool {
	return usdFilterRegex.MatchString(text) ||
		khrFilterRegex.MatchString(text) ||
		trxIDRegex.MatchString(text)
}

// extractAmount looks for a USD amount first, then a Riel amount. Both
// formats carry exactly two fraction digits.
func extractAmount(text string) (decimal.Decimal, domain.Currency, bool) {
	if m := usdAmountRegex.FindStringSubmatch(text); m != nil {
		if amount, err := decimal.NewFromString(m[1]); err == nil {
			return amount, domain.CurrencyUSD, true
		}
	}
	if m := khrAmountRegex.FindStringSubmatch(text); m != nil {
		if amount, err := decimal.NewFromString(m[1]); err == nil {
			return amount, domain.CurrencyKHR, true
		}
	}
	return decimal.Decimal{}, "", false
}

// truncate limits s to at most limit characters, not bytes, so a cut never
// splits a Khmer glyph.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
