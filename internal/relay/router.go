// Package relay routes inbound bot messages through extraction and on to the
// webhook forwarder. One message is handled at a time; the outbound HTTP
// call is offloaded to its own goroutine so intake never blocks on network
// I/O. There is deliberately no admission control — a burst of payments
// produces concurrently in-flight forwards, each over an independent record.
package relay

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/johnrak/payrelay/internal/dedup"
	"github.com/johnrak/payrelay/internal/domain"
	"github.com/johnrak/payrelay/internal/extract"
	"github.com/johnrak/payrelay/internal/forward"
)

// Message is one inbound text message from the bot transport.
type Message struct {
	ID     int
	ChatID int64
	Text   string
}

// Forwarder abstracts the webhook delivery call.
type Forwarder interface {
	Forward(ctx context.Context, record domain.PaymentRecord) (forward.ForwardResult, error)
}

// Router dispatches every inbound message: a permissive primary filter keeps
// unrelated chatter away from the full extraction pipeline, and a catch-all
// re-check covers payment messages the primary filter's patterns miss.
type Router struct {
	logger    *slog.Logger
	forwarder Forwarder
	claims    dedup.Store
	wg        sync.WaitGroup
}

// NewRouter wires a Router.
func NewRouter(logger *slog.Logger, forwarder Forwarder, claims dedup.Store) *Router {
	return &Router{
		logger:    logger,
		forwarder: forwarder,
		claims:    claims,
	}
}

// Dispatch handles one inbound message. Every failure mode is terminal here:
// logged, dropped, and the loop moves on to the next message.
func (r *Router) Dispatch(ctx context.Context, msg Message) {
	logger := r.logger.With(
		"processing_id", uuid.NewString(),
		"message_id", msg.ID,
	)

	if extract.MatchesPrimaryFilter(msg.Text) {
		r.process(ctx, logger, msg.Text)
		return
	}

	// Catch-all path: the primary filter can false-negative on formatting
	// variants, so anything it skipped is re-checked with the stricter
	// classification predicate before being ignored.
	if extract.Classify(msg.Text) {
		logger.Warn("payment message missed by primary filter")
		r.process(ctx, logger, msg.Text)
		return
	}

	logger.Debug("ignoring non-payment message", "preview", preview(msg.Text))
}

func (r *Router) process(ctx context.Context, logger *slog.Logger, text string) {
	record, err := extract.Extract(text)
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrNotPaymentMessage):
			logger.Info("dropping message without amount token", "preview", preview(text))
		case errors.Is(err, extract.ErrMissingTransactionID):
			logger.Warn("dropping payment message missing required field", "error", err, "preview", preview(text))
		default:
			logger.Warn("extraction failed", "error", err)
		}
		return
	}

	first, err := r.claims.Claim(ctx, record.TransactionID)
	if err != nil {
		// Fail open: a dedup outage must never drop a payment.
		logger.Warn("dedup claim failed, forwarding anyway",
			"error", err, "transaction_id", record.TransactionID)
	} else if !first {
		logger.Info("transaction already forwarded, skipping",
			"transaction_id", record.TransactionID)
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.deliver(logger, record)
	}()
}

// deliver runs the blocking webhook call off the intake goroutine. Once
// begun it is never cancelled; the forwarder's own timeout bounds it.
func (r *Router) deliver(logger *slog.Logger, record domain.PaymentRecord) {
	logger = logger.With("transaction_id", record.TransactionID)

	result, err := r.forwarder.Forward(context.Background(), record)
	if err != nil {
		var sinkErr *forward.SinkError
		var transportErr *forward.TransportError
		switch {
		case errors.As(err, &sinkErr):
			logger.Error("sink rejected payment",
				"status", sinkErr.StatusCode, "body", sinkErr.Body)
		case errors.As(err, &transportErr):
			logger.Error("webhook transport failure",
				"reason", string(transportErr.Reason), "error", transportErr.Err)
		default:
			logger.Error("forward failed", "error", err)
		}
		return
	}

	logger.Info("payment forwarded",
		"status", result.StatusCode,
		"amount", record.Amount.StringFixed(2),
		"currency", string(record.Currency),
	)
}

// Wait blocks until all in-flight forwards have finished, for shutdown.
func (r *Router) Wait() {
	r.wg.Wait()
}

func preview(text string) string {
	const limit = 100
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
