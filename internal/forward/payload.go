package forward

import (
	"encoding/json"

	"github.com/johnrak/payrelay/internal/domain"
)

// payload is the wire shape the sink accepts. OrderID is a pointer with
// omitempty so the key disappears entirely when no order reference was
// extracted — the sink falls back to matching by transaction ID and must not
// see a null or an empty string.
type payload struct {
	Amount        json.Number     `json:"amount"`
	Currency      domain.Currency `json:"currency"`
	TransactionID string          `json:"transaction_id"`
	PayerName     string          `json:"payer_name"`
	PayerPhone    string          `json:"payer_phone"`
	OrderID       *string         `json:"order_id,omitempty"`
	Metadata      payloadMetadata `json:"metadata"`
}

type payloadMetadata struct {
	PaymentTime string `json:"payment_time"`
	Location    string `json:"location"`
	PayerBy     string `json:"payer_by"`
	APV         string `json:"apv"`
	RawMessage  string `json:"raw_message"`
}

func newPayload(record domain.PaymentRecord) payload {
	return payload{
		// StringFixed keeps the two fraction digits the bot always emits.
		Amount:        json.Number(record.Amount.StringFixed(2)),
		Currency:      record.Currency,
		TransactionID: record.TransactionID,
		PayerName:     record.PayerName,
		PayerPhone:    record.PayerPhone,
		OrderID:       record.OrderID,
		Metadata: payloadMetadata{
			PaymentTime: record.Metadata.PaymentTime,
			Location:    record.Metadata.Location,
			PayerBy:     record.Metadata.PayerBy,
			APV:         record.ApprovalCode,
			RawMessage:  record.Metadata.RawMessage,
		},
	}
}
