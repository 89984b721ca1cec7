package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fplstack/fplproxy/internal/api"
	"github.com/fplstack/fplproxy/internal/cache"
	"github.com/fplstack/fplproxy/internal/config"
	"github.com/fplstack/fplproxy/internal/upstream"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fplproxy exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(
		context.Background(), syscall.SIGINT, syscall.SIGTERM,
	)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	store := cache.New()
	router := api.NewRouter(api.RouterDeps{
		Cache:   store,
		Fetcher: upstream.New(),
		TTLs:    cfg.TTLs,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second, // must outlast the 10s upstream fetch
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MiB
	}

	g, ctx := errgroup.WithContext(ctx)

	// Cache expiry loop; Start blocks until Stop.
	g.Go(func() error {
		store.Start()
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		store.Stop()
		return nil
	})

	// HTTP server with graceful shutdown.
	g.Go(func() error {
		errCh := make(chan error, 1)
		go func() {
			slog.Info("http server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()
		select {
		case <-ctx.Done():
			slog.Info("shutting down http server")
			return srv.Shutdown(context.Background())
		case err := <-errCh:
			return err
		}
	})

	return g.Wait()
}
