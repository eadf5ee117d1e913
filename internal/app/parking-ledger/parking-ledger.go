// Package parkingledger собирает приложение парковочного журнала:
// хранилище, миграции, кеш, тарифный движок, публикацию квитанций
// и HTTP-сервер с маршрутами.
package parkingledger

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/parking-ledger/internal/cache"
	"github.com/magabrotheeeer/parking-ledger/internal/config"
	"github.com/magabrotheeeer/parking-ledger/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/parking-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/parking-ledger/internal/migrations"
	services "github.com/magabrotheeeer/parking-ledger/internal/services/session"
	"github.com/magabrotheeeer/parking-ledger/internal/storage"
	"github.com/magabrotheeeer/parking-ledger/internal/tariff"
)

// App агрегирует зависимости приложения и владеет их жизненным циклом.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
}

// New инициализирует все зависимости и возвращает готовое приложение.
// Публикация квитанций включается только при заданном адресе AMQP.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}
	if err = storage.CheckDatabaseReady(db); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	tariffs, err := tariff.Load(cfg.RatesPath)
	if err != nil {
		return nil, err
	}

	var receipts services.ReceiptPublisher
	if cfg.AddressAMQP != "" {
		conn, err := rabbitmq.Connect(cfg.AddressAMQP, cfg.Retries, cfg.RetryDelay)
		if err != nil {
			return nil, err
		}
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetReceiptQueues())
		if err != nil {
			return nil, err
		}
		receipts = rabbitmq.NewReceiptPublisher(ch)
	} else {
		logger.Warn("receipt publishing disabled, AMQP address is empty")
	}

	sessionService := services.NewSessionService(db, tariffs, cacheRedis, receipts, logger, nil)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, sessionService)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
	}, nil
}

// Run запускает HTTP-сервер и блокируется до остановки контекста
// либо фатальной ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.db.DB.Close(); closeErr != nil {
			a.logger.Error("failed to close database", sl.Err(closeErr))
		}
		return err
	}
}
