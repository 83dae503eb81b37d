// relaycheck runs a notification text through the extractor and, optionally,
// forwards the result to a real sink. Useful for verifying webhook
// credentials and message-format assumptions without waiting for a live
// payment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/johnrak/payrelay/internal/extract"
	"github.com/johnrak/payrelay/internal/forward"
)

const sampleMessage = "$1.00 paid by Yun Vorak (*444) on Jan 06, 04:58 PM via ABA KHQR (ACLBKHPPXXX) at Johnrak by V.YUN. Trx. ID: 176769352210115, APV: 657806."

func main() {
	var (
		message = flag.String("message", sampleMessage, "notification text to extract")
		send    = flag.Bool("send", false, "forward the extracted record to the sink")
		url     = flag.String("url", os.Getenv("PAYMENT_WEBHOOK_URL"), "webhook endpoint URL")
		secret  = flag.String("secret", os.Getenv("PAYMENT_WEBHOOK_SECRET"), "webhook shared secret")
		timeout = flag.Duration("timeout", 10*time.Second, "forward timeout")
	)
	flag.Parse()

	record, err := extract.Extract(*message)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extraction failed: %v\n", err)
		os.Exit(1)
	}

	summary := map[string]any{
		"amount":         record.Amount.StringFixed(2),
		"currency":       record.Currency,
		"transaction_id": record.TransactionID,
		"payer_name":     record.PayerName,
		"payer_phone":    record.PayerPhone,
		"apv":            record.ApprovalCode,
		"payment_time":   record.Metadata.PaymentTime,
		"location":       record.Metadata.Location,
		"payer_by":       record.Metadata.PayerBy,
	}
	if orderID, ok := record.OrderRef(); ok {
		summary["order_id"] = orderID
	}

	out, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode summary: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if !*send {
		return
	}

	forwarder, err := forward.New(forward.Config{
		EndpointURL: *url,
		Secret:      *secret,
		Timeout:     *timeout,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "forwarder setup failed: %v\n", err)
		os.Exit(1)
	}

	result, err := forwarder.Forward(context.Background(), record)
	if err != nil {
		fmt.Fprintf(os.Stderr, "forward failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("sink accepted: status=%d response=%v\n", result.StatusCode, result.Body)
}
