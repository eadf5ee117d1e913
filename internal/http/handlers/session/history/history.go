// Package history реализует HTTP-обработчик фильтрованных запросов к журналу.
//
// Handler принимает параметры фильтра из query-строки: подстроку номерного
// знака, категорию и период дат въезда. Все условия объединяются через AND,
// пустой фильтр возвращает журнал целиком.
package history

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/parking-ledger/internal/http/response"
	"github.com/magabrotheeeer/parking-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/parking-ledger/internal/models"
)

// Handler управляет HTTP-запросами к журналу завершённых стоянок.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики парковочных сессий
	validate *validator.Validate // Валидатор параметров фильтра
}

// Service описывает интерфейс бизнес-логики чтения журнала.
type Service interface {
	QueryHistory(ctx context.Context, req models.DummyHistoryFilter) ([]*models.LedgerEntry, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Журнал завершённых стоянок
// @Description Возвращает записи журнала по фильтру, самые свежие первыми. Все параметры опциональны.
// @Tags Ledger
// @Produce  json
// @Param plate query string false "Подстрока номерного знака"
// @Param category query string false "Тип транспортного средства: car или motorcycle"
// @Param date_from query string false "Дата начала периода въезда, формат 2006-01-02"
// @Param date_to query string false "Дата окончания периода въезда, формат 2006-01-02"
// @Success 200 {object} response.Response "Записи журнала и их количество"
// @Failure 422 {object} response.ErrorResponse "Некорректный фильтр"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при чтении журнала"
// @Router /ledger [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.history"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	req := models.DummyHistoryFilter{
		Plate:    r.URL.Query().Get("plate"),
		Category: r.URL.Query().Get("category"),
		DateFrom: r.URL.Query().Get("date_from"),
		DateTo:   r.URL.Query().Get("date_to"),
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("filter parsed", slog.Any("filter", req))

	entries, err := h.service.QueryHistory(r.Context(), req)
	switch {
	case errors.Is(err, models.ErrInvalidCategory):
		log.Error("rejected history filter", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case err != nil:
		log.Error("failed to query history", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not query history"))
		return
	}

	log.Info("success to query history", slog.Int("count", len(entries)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"count":   len(entries),
		"entries": entries,
	}))
}
