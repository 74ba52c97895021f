package common

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// ShutdownHook runs after a termination signal and before the servers shut down.
// Errors are logged, shutdown continues.
type ShutdownHook func(ctx context.Context) error

// ServeUntilSignal starts every server and blocks until SIGINT or SIGTERM. Hooks then
// run in order, each bounded by hookTimeout, and finally the servers are shut down
// within what is left of shutdownTimeout.
func ServeUntilSignal(log *zap.SugaredLogger, servers map[string]*http.Server, shutdownTimeout, hookTimeout time.Duration, hooks ...ShutdownHook) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	ServeUntil(log, stop, servers, shutdownTimeout, hookTimeout, hooks...)
}

func ServeUntil[S any](log *zap.SugaredLogger, stop <-chan S, servers map[string]*http.Server, shutdownTimeout, hookTimeout time.Duration, hooks ...ShutdownHook) {
	if hookTimeout <= 0 {
		hookTimeout = 5 * time.Second
	}
	for name, server := range servers {
		go func() {
			log.Infof("starting %s on %s", name, server.Addr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("%s listen error: %v", name, err)
			}
		}()
	}

	<-stop
	log.Infof("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	for i, h := range hooks {
		if h == nil {
			continue
		}
		hCtx, hCancel := context.WithTimeout(ctx, hookTimeout)
		if err := h(hCtx); err != nil {
			log.Errorf("shutdown hook %d failed: %v", i, err)
		}
		if errors.Is(hCtx.Err(), context.DeadlineExceeded) {
			log.Warnf("shutdown hook %d timed out", i)
		}
		hCancel()
	}

	for name, server := range servers {
		if err := server.Shutdown(ctx); err != nil {
			log.Errorf("graceful shutdown of %s failed: %v", name, err)
		} else {
			log.Infof("%s shutdown complete", name)
		}
	}
}

type TimeoutConfig struct {
	ReadHeader time.Duration
	Read       time.Duration
	Write      time.Duration
	Idle       time.Duration
	Shutdown   time.Duration
	Hook       time.Duration
}

// LoadTimeoutConfig overrides the defaults with whole seconds from READ_HEADER_TIMEOUT,
// READ_TIMEOUT, WRITE_TIMEOUT, IDLE_TIMEOUT, SHUTDOWN_TIMEOUT and HOOK_TIMEOUT.
func LoadTimeoutConfig(defaults TimeoutConfig) TimeoutConfig {
	apply := func(curr *time.Duration, env string) {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*curr = time.Duration(n) * time.Second
			}
		}
	}
	apply(&defaults.ReadHeader, "READ_HEADER_TIMEOUT")
	apply(&defaults.Read, "READ_TIMEOUT")
	apply(&defaults.Write, "WRITE_TIMEOUT")
	apply(&defaults.Idle, "IDLE_TIMEOUT")
	apply(&defaults.Shutdown, "SHUTDOWN_TIMEOUT")
	apply(&defaults.Hook, "HOOK_TIMEOUT")
	return defaults
}

func NewServerWithTimeouts(addr string, handler http.Handler, cfg TimeoutConfig) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeader,
		ReadTimeout:       cfg.Read,
		WriteTimeout:      cfg.Write,
		IdleTimeout:       cfg.Idle,
	}
}
