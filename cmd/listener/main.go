package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/johnrak/payrelay/internal/config"
	"github.com/johnrak/payrelay/internal/dedup"
	"github.com/johnrak/payrelay/internal/forward"
	"github.com/johnrak/payrelay/internal/logging"
	"github.com/johnrak/payrelay/internal/relay"
	"github.com/johnrak/payrelay/internal/server"
	"github.com/johnrak/payrelay/internal/transport"
)

// crashPause keeps the process alive after an unexpected failure so the
// container's logs can be inspected before the orchestrator recycles it.
const crashPause = 60 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	claims, err := buildDedupStore(ctx, cfg.Dedup)
	if err != nil {
		logger.Error("failed to create dedup store", "error", err)
		os.Exit(1)
	}
	defer claims.Close()

	forwarder, err := forward.New(forward.Config{
		EndpointURL: cfg.Forward.WebhookURL,
		Secret:      cfg.Forward.Secret,
		Timeout:     cfg.Forward.Timeout,
	})
	if err != nil {
		logger.Error("failed to create forwarder", "error", err)
		os.Exit(1)
	}

	router := relay.NewRouter(logger, forwarder, claims)

	listener, err := transport.NewTelegramListener(transport.Options{
		BotToken:    cfg.Telegram.BotToken,
		PollTimeout: cfg.Telegram.PollTimeout,
		DropPending: cfg.Telegram.DropPending,
	}, logger)
	if err != nil {
		logger.Error("failed to create telegram listener", "error", err)
		os.Exit(1)
	}

	httpRouter := server.NewRouter(logger, server.RouterDependencies{
		Health: server.StoreHealthService{Store: claims},
	})
	srv := server.New(logger, cfg.HTTP, httpRouter)

	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.Start()
	}()
	go func() {
		errCh <- listener.Listen(ctx, router.Dispatch)
	}()

	logger.Info("payment relay started",
		"webhook_url", cfg.Forward.WebhookURL,
		"dedup_redis", cfg.Dedup.RedisAddr != "",
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	crashed := false
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("listener stopped unexpectedly", "error", err)
			crashed = true
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}

	// Let in-flight webhook calls finish; each is bounded by its timeout.
	router.Wait()

	if crashed {
		logger.Error("pausing before exit for log inspection", "pause", crashPause.String())
		time.Sleep(crashPause)
		os.Exit(1)
	}
}

func buildDedupStore(ctx context.Context, cfg config.DedupConfig) (dedup.Store, error) {
	if cfg.RedisAddr == "" {
		return dedup.NewMemoryStore(cfg.TTL), nil
	}
	return dedup.NewRedisStore(ctx, cfg.RedisAddr, cfg.TTL)
}
