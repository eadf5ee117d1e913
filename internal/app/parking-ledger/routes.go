package parkingledger

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/parking-ledger/internal/http/handlers/session/active"
	"github.com/magabrotheeeer/parking-ledger/internal/http/handlers/session/entry"
	"github.com/magabrotheeeer/parking-ledger/internal/http/handlers/session/exit"
	"github.com/magabrotheeeer/parking-ledger/internal/http/handlers/session/history"
	"github.com/magabrotheeeer/parking-ledger/internal/http/middlewarectx"
	services "github.com/magabrotheeeer/parking-ledger/internal/services/session"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, sessionService *services.SessionService) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.OperatorMiddleware())
		r.Use(middlewarectx.RateLimitMiddleware(logger))
		r.Post("/sessions/entry", entry.New(logger, sessionService).ServeHTTP)
		r.Post("/sessions/exit", exit.New(logger, sessionService).ServeHTTP)
		r.Get("/sessions/active", active.New(logger, sessionService).ServeHTTP)
		r.Get("/ledger", history.New(logger, sessionService).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
