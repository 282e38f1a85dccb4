// Package main запускает локальный HTTP-сервер витрины.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/novastore/internal/cart"
	"github.com/mmeshcher/novastore/internal/config"
	"github.com/mmeshcher/novastore/internal/handler"
	"github.com/mmeshcher/novastore/internal/remote"
	"github.com/mmeshcher/novastore/internal/service"
	"github.com/mmeshcher/novastore/internal/session"
	"github.com/mmeshcher/novastore/internal/storage"
)

// openStorage выбирает хранилище локального состояния: Postgres, затем Redis, затем файлы.
func openStorage(cfg *config.Config, sugar *zap.SugaredLogger) (storage.Storage, func() error, error) {
	switch {
	case cfg.DatabaseURI != "":
		s, err := storage.NewPostgresStorage(cfg.DatabaseURI)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres storage: %w", err)
		}
		sugar.Infow("using postgres storage")
		return s, s.Close, nil
	case cfg.RedisAddress != "":
		s, err := storage.NewRedisStorage(cfg.RedisAddress)
		if err != nil {
			return nil, nil, fmt.Errorf("redis storage: %w", err)
		}
		sugar.Infow("using redis storage", "addr", cfg.RedisAddress)
		return s, s.Close, nil
	default:
		s, err := storage.NewFileStorage(cfg.StorageDir)
		if err != nil {
			return nil, nil, fmt.Errorf("file storage: %w", err)
		}
		sugar.Infow("using file storage", "dir", cfg.StorageDir)
		return s, func() error { return nil }, nil
	}
}

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	// Удалённый API принимает и отдаёт цены числами.
	decimal.MarshalJSONWithoutQuotes = true

	store, closeStore, err := openStorage(cfg, sugar)
	if err != nil {
		sugar.Fatalw("storage initialization error", "error", err.Error())
	}
	defer closeStore()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := remote.NewClient(cfg.APIBaseURL, cfg.APITimeout)
	sessionHolder := session.NewHolder(ctx, store, api, logger)
	cartHolder := cart.NewHolder(ctx, store, logger)

	svc := service.NewService(api, sessionHolder, cartHolder, logger)
	h := handler.NewHandler(svc, logger)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sugar.Infow("starting storefront server", "addr", cfg.RunAddress, "api", cfg.APIBaseURL)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
