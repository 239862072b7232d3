// Package notify moves notifications from the queue to a concrete sender.
// The reconciler publishes, the dispatcher consumes and delivers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	sl "github.com/NiklasMM/ebk-bot/internal/lib/logger"
	"github.com/NiklasMM/ebk-bot/internal/models"
)

type Producer interface {
	PublishJSON(ctx context.Context, msg any) error
}

// QueueNotifier adapts the queue producer to the reconciler's Notifier.
type QueueNotifier struct {
	producer Producer
}

func NewQueueNotifier(p Producer) *QueueNotifier {
	return &QueueNotifier{producer: p}
}

func (n *QueueNotifier) Send(ctx context.Context, destination, text string) error {
	return n.producer.PublishJSON(ctx, models.Notification{
		Destination: destination,
		Text:        text,
	})
}

type Sender interface {
	Send(ctx context.Context, destination, text string) error
}

type Consumer interface {
	Consume(ctx context.Context, handler func(ctx context.Context, body []byte) error) error
}

type Dispatcher struct {
	log      *slog.Logger
	sender   Sender
	consumer Consumer
}

func NewDispatcher(log *slog.Logger, sender Sender, consumer Consumer) *Dispatcher {
	return &Dispatcher{
		log:      log,
		sender:   sender,
		consumer: consumer,
	}
}

func (d *Dispatcher) Run(ctx context.Context) error {
	return d.consumer.Consume(ctx, d.handleMessage)
}

func (d *Dispatcher) handleMessage(ctx context.Context, body []byte) error {
	var msg models.Notification

	if err := json.Unmarshal(body, &msg); err != nil {
		// Requeueing a malformed message would just loop it forever.
		d.log.Error("dropping malformed notification", sl.Err(err))
		return nil
	}

	if err := d.sender.Send(ctx, msg.Destination, msg.Text); err != nil {
		d.log.Error("failed to deliver notification",
			slog.String("destination", msg.Destination),
			sl.Err(err),
		)
		return fmt.Errorf("deliver notification: %w", err)
	}

	return nil
}
