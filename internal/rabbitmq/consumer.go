package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	sl "github.com/NiklasMM/ebk-bot/internal/lib/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// HandlerFunc is an alias so consumers can accept this type through their
// own small interfaces without importing this package's named type.
type HandlerFunc = func(ctx context.Context, body []byte) error

type Consumer struct {
	ch             *amqp.Channel
	log            *slog.Logger
	queueName      string
	workerPoolSize int
}

func NewConsumer(ch *amqp.Channel, log *slog.Logger, queueName string, poolSize int) *Consumer {
	return &Consumer{
		ch:             ch,
		log:            log,
		queueName:      queueName,
		workerPoolSize: poolSize,
	}
}

// Consume feeds deliveries to handler with manual acks. A handler error
// nacks the message back onto the queue. Deliveries stay ordered when the
// pool size is 1, which is what the notification queue needs.
func (c *Consumer) Consume(ctx context.Context, handler HandlerFunc) error {
	const op = "rabbitmq.Consume"

	if err := c.ch.Qos(c.workerPoolSize, 0, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msgs, err := c.ch.Consume(
		c.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	go func() {
		var wg sync.WaitGroup
		semaphore := make(chan struct{}, c.workerPoolSize)

		for {
			select {
			case <-ctx.Done():
				wg.Wait()
				return
			case msg, ok := <-msgs:
				if !ok {
					wg.Wait()
					return
				}

				wg.Add(1)
				semaphore <- struct{}{}

				go func(m amqp.Delivery) {
					defer wg.Done()
					defer func() { <-semaphore }()

					if err := handler(ctx, m.Body); err != nil {
						if err := m.Nack(false, true); err != nil {
							c.log.Error("nack failed",
								slog.String("op", op),
								sl.Err(err),
							)
						}
					} else {
						if err := m.Ack(false); err != nil {
							c.log.Error("ack failed",
								slog.String("op", op),
								sl.Err(err),
							)
						}
					}
				}(msg)
			}
		}
	}()

	return nil
}
