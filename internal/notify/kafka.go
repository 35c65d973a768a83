package notify

import (
	"context"
	"strconv"

	"orderdesk/internal/messaging"
)

// KafkaChannel publishes events to the order events topic, keyed by
// order id so all events for one order land in one partition.
type KafkaChannel struct {
	producer *messaging.Producer
}

func NewKafkaChannel(producer *messaging.Producer) *KafkaChannel {
	return &KafkaChannel{producer: producer}
}

func (c *KafkaChannel) Deliver(ctx context.Context, ev OrderEvent) error {
	return c.producer.Publish(ctx, strconv.FormatInt(ev.OrderID, 10), ev)
}
