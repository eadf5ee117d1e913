// Package exit реализует HTTP-обработчик регистрации выезда транспортного средства.
//
// Handler принимает JSON-запрос с номерным знаком и опциональной меткой времени,
// валидирует их, закрывает сессию через сервис и возвращает запись журнала
// с рассчитанной длительностью и суммой к оплате.
package exit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/parking-ledger/internal/http/middlewarectx"
	"github.com/magabrotheeeer/parking-ledger/internal/http/response"
	"github.com/magabrotheeeer/parking-ledger/internal/lib/sl"
	"github.com/magabrotheeeer/parking-ledger/internal/models"
)

// Handler управляет HTTP-запросами на регистрацию выезда.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики парковочных сессий
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики регистрации выезда.
type Service interface {
	RegisterExit(ctx context.Context, operator string, req models.DummyExit) (*models.LedgerEntry, error)
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
// @Summary Зарегистрировать выезд
// @Description Закрывает активную сессию и возвращает запись журнала с длительностью и суммой к оплате.
// @Tags Sessions
// @Accept  json
// @Produce  json
// @Param request body models.DummyExit true "Данные о выезде"
// @Success 200 {object} response.Response "Запись журнала"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "У знака нет открытой сессии"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при регистрации выезда"
// @Router /sessions/exit [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.exit"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyExit
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	operator, _ := r.Context().Value(middlewarectx.Operator).(string)

	entry, err := h.service.RegisterExit(r.Context(), operator, req)
	switch {
	case errors.Is(err, models.ErrInvalidPlate):
		log.Error("rejected exit request", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case errors.Is(err, models.ErrNoActiveSession):
		log.Error("plate not on site", sl.Err(err))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case errors.Is(err, models.ErrNoDefaultRate):
		// Дефект таблицы тарифов доводится до оператора дословно,
		// а не прячется за общим сообщением.
		log.Error("rate table misconfigured", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case err != nil:
		log.Error("failed to register exit", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not register exit"))
		return
	}

	log.Info("success to register exit",
		slog.String("plate", entry.Plate), slog.Int64("fee", entry.Fee))
	render.JSON(w, r, response.StatusOKWithData(entry))
}
