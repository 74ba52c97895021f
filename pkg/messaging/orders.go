package messaging

import (
	"context"

	"github.com/matst80/slask-storefront/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
)

// OrderPublisher sends order status changes to the order_changed topic.
type OrderPublisher struct {
	conn   *amqp.Connection
	prefix string
}

func NewOrderPublisher(conn *amqp.Connection, prefix string) (*OrderPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	defer ch.Close()
	if err := DefineTopic(ch, prefix, OrderChanged); err != nil {
		return nil, err
	}
	return &OrderPublisher{conn: conn, prefix: prefix}, nil
}

func (p *OrderPublisher) OrderChanged(ctx context.Context, change types.OrderChange) error {
	return SendChange(p.conn, p.prefix, OrderChanged, change)
}
