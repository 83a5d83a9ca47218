package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"cart-service/internal/cart"
	"cart-service/pkg/logkey"
)

type Conf struct {
	client *kgo.Client
}

func NewConf(brokers []string) (*Conf, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no kafka brokers configured")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &Conf{client: client}, nil
}

// ProduceCartUpdated publishes the event asynchronously. Delivery failures
// are logged, not surfaced: the in-process observers already got the event
// and a lost badge update is not worth failing a mutation over.
func (c *Conf) ProduceCartUpdated(event CartUpdatedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal cart event: %w", err)
	}

	record := &kgo.Record{
		Topic: TopicCartUpdated,
		Key:   []byte(event.OwnerID),
		Value: data,
	}
	c.client.Produce(context.Background(), record, func(r *kgo.Record, err error) {
		if err != nil {
			slog.Error("failed to produce cart event",
				slog.String(logkey.OwnerID, event.OwnerID), slog.String(logkey.ERROR, err.Error()))
		}
	})

	return nil
}

// Forward drains a bus subscription into the Kafka topic until the context
// is canceled or the subscription is closed.
func (c *Conf) Forward(ctx context.Context, sub *cart.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			if err := c.ProduceCartUpdated(CartUpdatedEvent(e)); err != nil {
				slog.Error("failed to forward cart event to kafka",
					slog.String(logkey.OwnerID, e.OwnerID), slog.String(logkey.ERROR, err.Error()))
			}
		}
	}
}

func (c *Conf) Close() {
	c.client.Close()
}
