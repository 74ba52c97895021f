package messaging

import (
	"github.com/matst80/slask-storefront/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type BookHandler interface {
	UpsertBook(book types.Book)
	DeleteBook(id types.ItemId)
}

// HandleBookChange applies one catalog_changed message body.
func HandleBookChange(handler BookHandler, body []byte) error {
	change, err := decode[BookChange](body)
	if err != nil {
		return err
	}
	if change.Deleted {
		handler.DeleteBook(change.Book.Id)
	} else {
		handler.UpsertBook(change.Book)
	}
	return nil
}

func ListenToCatalogChanges(conn *amqp.Connection, prefix string, handler BookHandler, log *zap.SugaredLogger) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	if err := DefineTopic(ch, prefix, CatalogChanged); err != nil {
		ch.Close()
		return err
	}
	return ListenToTopic(ch, prefix, CatalogChanged, log, func(d amqp.Delivery) error {
		return HandleBookChange(handler, d.Body)
	})
}
