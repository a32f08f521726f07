// Package notify delivers transfer-received events to the receiver.
// Delivery is fire-and-forget: the ledger write path never waits on it
// and never fails because of it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// TransferEvent is the payload sent when a transfer lands.
type TransferEvent struct {
	TransferID   string    `json:"transfer_id"`
	SenderName   string    `json:"sender_name"`
	ReceiverName string    `json:"receiver_name"`
	ReceiverMail string    `json:"receiver_mail,omitempty"`
	Amount       string    `json:"amount"` // decimal string, e.g. "150.75"
	Currency     string    `json:"currency"`
	Description  string    `json:"description,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Notifier delivers a transfer-received event. Implementations must
// respect ctx; callers bound delivery with a timeout and drop the error
// after logging it.
type Notifier interface {
	TransferReceived(ctx context.Context, ev TransferEvent) error
}

// LogNotifier writes events to the structured log. Used when no NATS
// URL is configured (single-machine installs).
type LogNotifier struct {
	Log *slog.Logger
}

func (n *LogNotifier) TransferReceived(_ context.Context, ev TransferEvent) error {
	logger := n.Log
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("transfer received",
		"transfer_id", ev.TransferID,
		"receiver", ev.ReceiverName,
		"amount", ev.Amount,
		"currency", ev.Currency,
	)
	return nil
}

// NATSNotifier publishes events as JSON on a subject. The mail/push
// worker consuming the subject runs in its own process, so outbound
// mail latency never couples to ledger-write latency.
type NATSNotifier struct {
	Conn    *nats.Conn
	Subject string
}

// Connect dials the NATS server and returns a notifier publishing on
// the given subject.
func Connect(url, subject string) (*NATSNotifier, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATSNotifier{Conn: nc, Subject: subject}, nil
}

func (n *NATSNotifier) TransferReceived(ctx context.Context, ev TransferEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.Conn.Publish(n.Subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", n.Subject, err)
	}
	// FlushWithContext bounds the publish by the caller's timeout.
	return n.Conn.FlushWithContext(ctx)
}

// Close releases the underlying connection.
func (n *NATSNotifier) Close() {
	if n.Conn != nil {
		n.Conn.Close()
	}
}
