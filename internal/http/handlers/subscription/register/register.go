// Package register обрабатывает регистрацию абонемента: дату окончания,
// освобождение от оплаты и платёж одним запросом.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/coach-portal/internal/http/response"
	"github.com/magabrotheeeer/coach-portal/internal/lib/daykey"
	"github.com/magabrotheeeer/coach-portal/internal/lib/sl"
	"github.com/magabrotheeeer/coach-portal/internal/models"
	"github.com/magabrotheeeer/coach-portal/internal/services/status"
)

// Service регистрирует абонемент.
type Service interface {
	RegisterSubscription(ctx context.Context, clientID string, in models.SubscriptionInput) (*models.Payment, models.SubscriptionStatus, error)
}

// Handler обрабатывает PUT /clients/{clientID}/subscription.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Зарегистрировать абонемент
// @Description Меняет дату окончания и признак освобождения от оплаты, при необходимости добавляет платёж; статус пересчитывается в той же записи
// @Tags Subscription
// @Accept json
// @Produce json
// @Param clientID path string true "ID клиента"
// @Param request body models.SubscriptionInput true "Абонемент"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Клиент не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse
// @Router /clients/{clientID}/subscription [put]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscription.register"
	clientID := chi.URLParam(r, "clientID")
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("client_id", clientID),
	)

	var req models.SubscriptionInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}

	payment, st, err := h.service.RegisterSubscription(r.Context(), clientID, req)
	switch {
	case errors.Is(err, status.ErrClientNotFound):
		response.Fail(w, r, http.StatusNotFound, "client not found")
		return
	case errors.Is(err, daykey.ErrBadDate):
		response.Fail(w, r, http.StatusUnprocessableEntity, "date must be YYYY-MM-DD")
		return
	case err != nil:
		log.Error("failed to register subscription", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not register subscription")
		return
	}

	data := map[string]any{"status": st}
	if payment != nil {
		data["payment"] = payment
	}
	log.Info("subscription registered", slog.String("status", string(st)))
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(data))
}
