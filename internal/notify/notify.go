// Package notify fans order lifecycle events out to delivery channels
// (Kafka topic, webhook). Delivery is best effort: failures are logged
// and never surface to the request that produced the event.
package notify

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"orderdesk/internal/model"
)

type EventType string

const (
	EventOrderCreated       EventType = "order.created"
	EventOrderStatusChanged EventType = "order.status_changed"
)

type OrderEvent struct {
	Type           EventType         `json:"type"`
	OrderID        int64             `json:"order_id"`
	Reference      string            `json:"reference"`
	ClientID       int64             `json:"client_id"`
	UserID         int64             `json:"user_id"`
	Status         model.OrderStatus `json:"status"`
	PreviousStatus model.OrderStatus `json:"previous_status,omitempty"`
	Total          float64           `json:"total"`
	OccurredAt     time.Time         `json:"occurred_at"`
}

// Channel delivers one event to one destination.
type Channel interface {
	Deliver(ctx context.Context, ev OrderEvent) error
}

type Service struct {
	channels []Channel
	timeout  time.Duration
	logger   *slog.Logger
}

func NewService(logger *slog.Logger, channels ...Channel) *Service {
	return &Service{
		channels: channels,
		timeout:  10 * time.Second,
		logger:   logger,
	}
}

func (s *Service) OrderCreated(ctx context.Context, o *model.Order) {
	s.dispatch(ctx, OrderEvent{
		Type:       EventOrderCreated,
		OrderID:    o.ID,
		Reference:  o.Reference,
		ClientID:   o.ClientID,
		UserID:     o.UserID,
		Status:     o.Status,
		Total:      o.Total,
		OccurredAt: time.Now().UTC(),
	})
}

func (s *Service) OrderStatusChanged(ctx context.Context, o *model.Order, previous model.OrderStatus) {
	s.dispatch(ctx, OrderEvent{
		Type:           EventOrderStatusChanged,
		OrderID:        o.ID,
		Reference:      o.Reference,
		ClientID:       o.ClientID,
		UserID:         o.UserID,
		Status:         o.Status,
		PreviousStatus: previous,
		Total:          o.Total,
		OccurredAt:     time.Now().UTC(),
	})
}

func (s *Service) dispatch(ctx context.Context, ev OrderEvent) {
	if len(s.channels) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	for _, ch := range s.channels {
		g.Go(func() error {
			return ch.Deliver(ctx, ev)
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error("failed to deliver order event",
			"error", err, "type", ev.Type, "order_id", ev.OrderID)
	}
}
