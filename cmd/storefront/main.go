package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/matst80/slask-storefront/pkg/cache"
	"github.com/matst80/slask-storefront/pkg/catalog"
	"github.com/matst80/slask-storefront/pkg/common"
	"github.com/matst80/slask-storefront/pkg/filter"
	"github.com/matst80/slask-storefront/pkg/order"
	"github.com/matst80/slask-storefront/pkg/server"
	"github.com/matst80/slask-storefront/pkg/storage"
	"github.com/matst80/slask-storefront/pkg/tracking"
	"github.com/matst80/slask-storefront/pkg/types"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var enableProfiling = flag.Bool("profiling", false, "expose pprof on the debug listener")

type app struct {
	cfg            *common.Config
	log            *zap.SugaredLogger
	gotSaveTrigger atomic.Bool
	conn           *amqp.Connection
	storage        *storage.DiskStorage
	index          *catalog.Index
	notifier       order.Notifier
}

func (a *app) orderRepository(ctx context.Context) (order.Repository, []common.ShutdownHook) {
	if a.cfg.DatabaseUrl == "" {
		repo := storage.NewMemoryOrderRepository(a.storage)
		if err := repo.Load(); err != nil {
			a.log.Warnf("could not load orders from disk: %v", err)
		}
		return repo, nil
	}
	pool, err := storage.ConnectPostgres(ctx, a.cfg.DatabaseUrl)
	if err != nil {
		a.log.Fatalf("failed to connect to postgres: %v", err)
	}
	if err := storage.Migrate(ctx, pool); err != nil {
		a.log.Fatalf("failed to migrate database: %v", err)
	}
	a.log.Infof("orders stored in postgres")
	return storage.NewPostgresOrderRepository(pool, a.log), []common.ShutdownHook{func(ctx context.Context) error {
		pool.Close()
		return nil
	}}
}

func (a *app) draftStore(ctx context.Context) (filter.DraftStore, []common.ShutdownHook) {
	if a.cfg.RedisUrl == "" {
		return filter.NewMemoryDraftStore(a.cfg.DraftTTL), nil
	}
	c := cache.NewCache(a.cfg.RedisUrl, a.cfg.RedisPassword, 0)
	if err := c.Ping(ctx); err != nil {
		a.log.Warnf("redis not reachable at %s, drafts kept in memory: %v", a.cfg.RedisUrl, err)
		c.Close()
		return filter.NewMemoryDraftStore(a.cfg.DraftTTL), nil
	}
	return cache.NewDraftStore(c, a.cfg.DraftTTL), []common.ShutdownHook{func(ctx context.Context) error {
		return c.Close()
	}}
}

func main() {
	flag.Parse()
	cfg, foundEnv := common.LoadConfig()
	logger, err := common.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()
	if foundEnv {
		logger.Debugf("loaded .env")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a := &app{
		cfg:     cfg,
		log:     logger,
		storage: storage.NewDiskStorage(cfg.Country, cfg.DataDir),
		index:   catalog.NewIndex(),
	}

	c := &types.Catalog{}
	if err := a.storage.LoadCatalog(c); err != nil {
		logger.Warnf("could not load catalog from disk: %v", err)
	}
	a.index.Load(c)
	logger.Infof("loaded %d books in %d categories", len(c.Books), len(c.Categories))

	hooks := []common.ShutdownHook{}
	var tracker types.Tracking
	if cfg.RabbitUrl != "" {
		if err := a.ConnectAmqp(cfg.RabbitUrl); err != nil {
			logger.Errorf("messaging disabled: %v", err)
		}
		rt, err := tracking.NewRabbitTracking(cfg.RabbitUrl, cfg.Country, logger)
		if err != nil {
			logger.Errorf("failed to connect to rabbitmq for tracking: %v", err)
		} else {
			tracker = rt
			hooks = append(hooks, func(ctx context.Context) error {
				return rt.Close()
			})
		}
	}

	repo, repoHooks := a.orderRepository(ctx)
	hooks = append(hooks, repoHooks...)
	drafts, draftHooks := a.draftStore(ctx)
	hooks = append(hooks, draftHooks...)

	orders := order.NewService(repo, order.Config{
		RefundWindow: cfg.RefundWindow,
		Notifier:     a.notifier,
		Log:          logger,
	})

	var auth *server.TokenAuth
	if auth, err = server.NewTokenAuth(cfg.JwtSecret, 24*time.Hour); err != nil {
		logger.Warnf("order endpoints disabled: %v", err)
	}

	ws := server.NewWebServer(a.index, drafts, orders, auth, logger)
	ws.Tracking = tracker

	a.saveOnTrigger(ctx, time.Minute)
	hooks = append(hooks, func(ctx context.Context) error {
		cancel()
		return a.saveCatalog()
	})
	if a.conn != nil {
		hooks = append(hooks, func(ctx context.Context) error {
			return a.conn.Close()
		})
	}

	servers := map[string]*http.Server{
		"storefront": common.NewServerWithTimeouts(cfg.ListenAddress, ws.ClientHandler(), cfg.Timeouts),
		"debug":      common.NewServerWithTimeouts(cfg.DebugAddress, server.DebugHandler(*enableProfiling), cfg.Timeouts),
	}
	common.ServeUntilSignal(logger, servers, cfg.Timeouts.Shutdown, cfg.Timeouts.Hook, hooks...)
	logger.Infof("storefront stopped")
}
