package main

import (
	"context"
	"fmt"
	"time"

	"github.com/matst80/slask-storefront/pkg/messaging"
	"github.com/matst80/slask-storefront/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
)

// UpsertBook and DeleteBook let the app receive catalog changes, the catalog is saved
// on the next tick after a change.
func (a *app) UpsertBook(book types.Book) {
	a.index.UpsertBook(book)
	a.gotSaveTrigger.Store(true)
}

func (a *app) DeleteBook(id types.ItemId) {
	a.index.DeleteBook(id)
	a.gotSaveTrigger.Store(true)
}

func (a *app) ConnectAmqp(amqpUrl string) error {
	conn, err := amqp.DialConfig(amqpUrl, amqp.Config{
		Properties: amqp.NewConnectionProperties(),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	a.conn = conn
	if err := messaging.ListenToCatalogChanges(conn, a.cfg.Country, a, a.log); err != nil {
		return fmt.Errorf("failed to listen to %s: %w", messaging.CatalogChanged, err)
	}
	a.log.Infof("listening for catalog changes")
	publisher, err := messaging.NewOrderPublisher(conn, a.cfg.Country)
	if err != nil {
		return fmt.Errorf("failed to define %s: %w", messaging.OrderChanged, err)
	}
	a.notifier = publisher
	return nil
}

func (a *app) saveCatalog() error {
	if !a.gotSaveTrigger.Swap(false) {
		return nil
	}
	a.log.Infof("saving catalog due to trigger")
	if err := a.storage.SaveCatalog(a.index.Snapshot()); err != nil {
		a.gotSaveTrigger.Store(true)
		return err
	}
	return nil
}

func (a *app) saveOnTrigger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := a.saveCatalog(); err != nil {
					a.log.Errorf("failed to save catalog: %v", err)
				}
			}
		}
	}()
}
