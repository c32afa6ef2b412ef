// Package paymentremove удаляет платёж клиента.
package paymentremove

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/coach-portal/internal/http/response"
	"github.com/magabrotheeeer/coach-portal/internal/lib/sl"
	"github.com/magabrotheeeer/coach-portal/internal/models"
	"github.com/magabrotheeeer/coach-portal/internal/services/status"
)

// Service удаляет платёж.
type Service interface {
	DeletePayment(ctx context.Context, clientID, paymentID string) (models.SubscriptionStatus, error)
}

// Handler обрабатывает DELETE /clients/{clientID}/payments/{paymentID}.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить платёж
// @Description Удаляет платёж и пересчитывает статус абонемента
// @Tags Payments
// @Produce json
// @Param clientID path string true "ID клиента"
// @Param paymentID path string true "ID платежа"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Клиент или платёж не найден"
// @Failure 500 {object} response.ErrorResponse
// @Router /clients/{clientID}/payments/{paymentID} [delete]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.remove"
	clientID := chi.URLParam(r, "clientID")
	paymentID := chi.URLParam(r, "paymentID")
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("client_id", clientID),
		slog.String("payment_id", paymentID),
	)

	st, err := h.service.DeletePayment(r.Context(), clientID, paymentID)
	switch {
	case errors.Is(err, status.ErrClientNotFound):
		response.Fail(w, r, http.StatusNotFound, "client not found")
		return
	case errors.Is(err, status.ErrPaymentNotFound):
		response.Fail(w, r, http.StatusNotFound, "payment not found")
		return
	case err != nil:
		log.Error("failed to delete payment", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not delete payment")
		return
	}

	log.Info("payment deleted", slog.String("status", string(st)))
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(map[string]any{
		"status": st,
	}))
}
