// Package entry реализует HTTP-обработчик регистрации въезда транспортного средства.
//
// Handler принимает JSON-запрос с номерным знаком, категорией и опциональной
// меткой времени, валидирует их, извлекает оператора из контекста,
// открывает сессию через сервис и возвращает созданную сессию в JSON-формате.
//
// В случае ошибок формируются соответствующие HTTP-ответы с описанием проблемы.
package entry

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

// Handler управляет HTTP-запросами на регистрацию въезда.
//
// Использует логгер для записи операций и ошибок,
// сервис бизнес-логики для открытия сессии,
// а также валидатор для проверки структуры входных данных.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики парковочных сессий
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс бизнес-логики регистрации въезда.
type Service interface {
	RegisterEntry(ctx context.Context, operator string, req models.DummyEntry) (*models.Session, error)
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
// @Summary Зарегистрировать въезд
// @Description Открывает парковочную сессию для транспортного средства. Метка времени опциональна, по умолчанию текущее время.
// @Tags Sessions
// @Accept  json
// @Produce  json
// @Param request body models.DummyEntry true "Данные о въезде"
// @Success 200 {object} response.Response "Открытая сессия"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 409 {object} response.ErrorResponse "У знака уже есть открытая сессия"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера при регистрации въезда"
// @Router /sessions/entry [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.entry"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.DummyEntry
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

	session, err := h.service.RegisterEntry(r.Context(), operator, req)
	switch {
	case errors.Is(err, models.ErrInvalidPlate) || errors.Is(err, models.ErrInvalidCategory):
		log.Error("rejected entry request", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case errors.Is(err, models.ErrDuplicateSession):
		log.Error("plate already on site", sl.Err(err))
		w.WriteHeader(http.StatusConflict)
		render.JSON(w, r, response.Error(err.Error()))
		return
	case err != nil:
		log.Error("failed to register entry", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not register entry"))
		return
	}

	log.Info("success to register entry", slog.String("plate", session.Plate))
	render.JSON(w, r, response.StatusOKWithData(session))
}
