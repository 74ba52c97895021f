package main

import (
	"flag"
	"log"
	"os"

	"github.com/matst80/slask-storefront/pkg/catalog"
	"github.com/matst80/slask-storefront/pkg/common"
	"github.com/matst80/slask-storefront/pkg/messaging"
	"github.com/matst80/slask-storefront/pkg/storage"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var (
	file    = flag.String("file", "", "xlsx workbook with categories, publishers and books sheets")
	publish = flag.Bool("publish", false, "send the books to running storefronts as catalog changes")
	strict  = flag.Bool("strict", false, "abort when a row cannot be read")
)

func publishBooks(cfg *common.Config, books []messaging.BookChange, logger *zap.SugaredLogger) error {
	conn, err := amqp.Dial(cfg.RabbitUrl)
	if err != nil {
		return err
	}
	defer conn.Close()
	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	err = messaging.DefineTopic(ch, cfg.Country, messaging.CatalogChanged)
	ch.Close()
	if err != nil {
		return err
	}
	for _, change := range books {
		if err := messaging.SendChange(conn, cfg.Country, messaging.CatalogChanged, change); err != nil {
			return err
		}
	}
	logger.Infof("published %d books to %s", len(books), messaging.CatalogChanged)
	return nil
}

func main() {
	flag.Parse()
	cfg, _ := common.LoadConfig()
	logger, err := common.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	if *file == "" {
		logger.Fatalf("missing -file")
	}
	f, err := os.Open(*file)
	if err != nil {
		logger.Fatalf("failed to open %s: %v", *file, err)
	}
	defer f.Close()

	c, err := catalog.ReadSpreadsheet(f)
	if c == nil {
		logger.Fatalf("failed to read %s: %v", *file, err)
	}
	if err != nil {
		if *strict {
			logger.Fatalf("rows could not be read: %v", err)
		}
		logger.Warnf("skipped rows: %v", err)
	}
	logger.Infof("read %d books, %d categories and %d publishers", len(c.Books), len(c.Categories), len(c.Publishers))

	if *publish {
		if cfg.RabbitUrl == "" {
			logger.Fatalf("RABBIT_HOST is required to publish")
		}
		changes := make([]messaging.BookChange, 0, len(c.Books))
		for _, b := range c.Books {
			changes = append(changes, messaging.BookChange{Book: b})
		}
		if err := publishBooks(cfg, changes, logger); err != nil {
			logger.Fatalf("failed to publish books: %v", err)
		}
		return
	}

	// Load through the index so the snapshot has the same shape the storefront saves.
	idx := catalog.NewIndex()
	idx.Load(c)
	disk := storage.NewDiskStorage(cfg.Country, cfg.DataDir)
	if err := disk.SaveCatalog(idx.Snapshot()); err != nil {
		logger.Fatalf("failed to save catalog: %v", err)
	}
	logger.Infof("catalog saved to %s", cfg.DataDir)
}
