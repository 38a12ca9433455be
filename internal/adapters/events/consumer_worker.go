package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/drinkmmaenergy-prog/avalo-platform-sub015/internal/application"
)

type Message struct {
	Topic   string
	Payload []byte
}

type Consumer interface {
	Poll(ctx context.Context, max int) ([]Message, error)
}

// ConsumerWorker drains counter-increment topics and applies them to the
// projection through the application layer.
type ConsumerWorker struct {
	logger   *slog.Logger
	consumer Consumer
	service  *application.Service
	interval time.Duration
}

func NewConsumerWorker(logger *slog.Logger, consumer Consumer, service *application.Service, interval time.Duration) *ConsumerWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &ConsumerWorker{
		logger: logger, consumer: consumer, service: service, interval: interval,
	}
}

func (w *ConsumerWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.processOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.ErrorContext(ctx, "consumer iteration failed",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "process_once",
				"outcome", "failure",
				"error", err,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *ConsumerWorker) processOnce(ctx context.Context) error {
	msgs, err := w.consumer.Poll(ctx, 50)
	if err != nil {
		return err
	}
	for _, msg := range msgs {
		if _, ok := application.CounterForTopic(msg.Topic); !ok {
			w.logger.WarnContext(ctx, "unroutable message",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "route",
				"outcome", "skipped",
				"topic", msg.Topic,
			)
			continue
		}
		if err := w.service.HandleCounterEvent(ctx, msg.Topic, msg.Payload); err != nil {
			w.logger.WarnContext(ctx, "failed to apply counter event",
				"module", "events.consumer_worker",
				"layer", "adapter",
				"operation", "apply",
				"outcome", "failure",
				"topic", msg.Topic,
				"error", err,
			)
		}
	}
	return nil
}
