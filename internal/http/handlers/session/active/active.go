// Package active реализует HTTP-обработчик списка активных парковочных сессий.
//
// Handler возвращает все транспортные средства, находящиеся на парковке,
// в порядке въезда. Чтение не изменяет состояние сессий.
package active

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/parking-ledger/internal/http/response"
	"github.com/magabrotheeeer/parking-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/parking-ledger/internal/models"
)

// Handler управляет HTTP-запросами на чтение активных сессий.
type Handler struct {
	log     *slog.Logger // Логгер для записи информации и ошибок
	service Service      // Сервис бизнес-логики парковочных сессий
}

// Service описывает интерфейс бизнес-логики чтения активных сессий.
type Service interface {
	ListActive(ctx context.Context) ([]*models.Session, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список активных сессий
// @Description Возвращает все транспортные средства на парковке, самые давние первыми.
// @Tags Sessions
// @Produce  json
// @Success 200 {object} response.Response "Активные сессии и их количество"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при чтении сессий"
// @Router /sessions/active [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.active"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	sessions, err := h.service.ListActive(r.Context())
	if err != nil {
		log.Error("failed to list active sessions", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list active sessions"))
		return
	}

	log.Info("success to list active sessions", slog.Int("count", len(sessions)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"count":    len(sessions),
		"sessions": sessions,
	}))
}
