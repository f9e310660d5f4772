package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/bookshop/internal/cart"
	"github.com/fjod/go_cart/bookshop/internal/catalog"
	"github.com/fjod/go_cart/bookshop/internal/config"
	"github.com/fjod/go_cart/bookshop/internal/fetcher"
	h "github.com/fjod/go_cart/bookshop/internal/http"
	"github.com/fjod/go_cart/bookshop/internal/publisher"
	"github.com/fjod/go_cart/bookshop/internal/repository"
	"github.com/fjod/go_cart/bookshop/internal/shop"
	"github.com/fjod/go_cart/bookshop/internal/storage"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal("bookshop stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	source, closeSource, err := newFetcher(cfg, logger)
	if err != nil {
		return err
	}
	closers = append(closers, closeSource)

	store, closeStore, err := newStorage(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, closeStore)

	var pub h.ReceiptPublisher
	kafkaPub, err := publisher.NewKafkaPublisher(cfg.KafkaBrokers, logger.Named("publisher"))
	switch {
	case errors.Is(err, publisher.ErrNoBrokers):
		logger.Info("no kafka brokers configured, receipts are not published")
	case err != nil:
		return err
	default:
		pub = kafkaPub
		closers = append(closers, func() {
			if err := kafkaPub.Close(); err != nil {
				logger.Warn("failed to close kafka writer", zap.Error(err))
			}
		})
	}

	s := shop.New(shop.Config{
		ToastPersist: cfg.ToastPersist,
		ToastFade:    cfg.ToastFade,
	}, source, store, logger)
	closers = append(closers, s.Close)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h.NewRouter(s, pub, cfg.RequestTimeout, logger.Named("http")),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("bookshop starting",
			zap.String("port", cfg.HTTPPort),
			zap.String("catalog_source", cfg.CatalogSource),
			zap.String("cart_storage", cfg.CartStorage))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func newFetcher(cfg *config.Config, logger *zap.Logger) (catalog.Fetcher, func(), error) {
	switch cfg.CatalogSource {
	case "http":
		return fetcher.NewHTTPFetcher(cfg.BooksURL, cfg.RequestTimeout, logger.Named("fetcher")), func() {}, nil
	case "file":
		return fetcher.NewFileFetcher(cfg.BooksFile), func() {}, nil
	case "sqlite":
		repo, err := repository.NewRepository(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
			repo.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		logger.Info("migrations completed", zap.String("db_path", cfg.DBPath))
		return repo, func() { repo.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown CATALOG_SOURCE %q", cfg.CatalogSource)
	}
}

func newStorage(cfg *config.Config) (cart.Storage, func(), error) {
	switch cfg.CartStorage {
	case "memory":
		return storage.NewMemory(""), func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return storage.NewRedis(client, cfg.ShopperID), func() { client.Close() }, nil
	case "mongo":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db, err := storage.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		store := storage.NewMongo(db, cfg.ShopperID)
		if err := store.CreateIndexes(ctx); err != nil {
			_ = store.Disconnect(context.Background())
			return nil, nil, err
		}
		return store, func() { _ = store.Disconnect(context.Background()) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown CART_STORAGE %q", cfg.CartStorage)
	}
}
