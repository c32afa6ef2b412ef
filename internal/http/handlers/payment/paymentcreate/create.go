// Package paymentcreate регистрирует платёж клиента.
package paymentcreate

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

// Service сохраняет платёж.
type Service interface {
	AddPayment(ctx context.Context, clientID string, in models.PaymentInput) (models.Payment, models.SubscriptionStatus, error)
}

// Handler обрабатывает POST /clients/{clientID}/payments.
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
// @Summary Добавить платёж
// @Description Сохраняет платёж и пересчитывает статус абонемента
// @Tags Payments
// @Accept json
// @Produce json
// @Param clientID path string true "ID клиента"
// @Param request body models.PaymentInput true "Платёж"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Клиент не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse
// @Router /clients/{clientID}/payments [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"
	clientID := chi.URLParam(r, "clientID")
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("client_id", clientID),
	)

	var req models.PaymentInput
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

	payment, st, err := h.service.AddPayment(r.Context(), clientID, req)
	switch {
	case errors.Is(err, status.ErrClientNotFound):
		response.Fail(w, r, http.StatusNotFound, "client not found")
		return
	case errors.Is(err, daykey.ErrBadDate):
		response.Fail(w, r, http.StatusUnprocessableEntity, "date must be YYYY-MM-DD")
		return
	case err != nil:
		log.Error("failed to add payment", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not add payment")
		return
	}

	log.Info("payment created", slog.String("payment_id", payment.ID), slog.String("status", string(st)))
	response.JSON(w, r, http.StatusCreated, response.StatusOKWithData(map[string]any{
		"payment": payment,
		"status":  st,
	}))
}
