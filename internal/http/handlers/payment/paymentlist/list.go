// Package paymentlist отдаёт историю платежей клиента.
package paymentlist

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

// Service читает платежи.
type Service interface {
	ListPayments(ctx context.Context, clientID string) ([]models.Payment, error)
}

// Handler обрабатывает GET /clients/{clientID}/payments.
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
// @Summary Список платежей
// @Description Платежи клиента, новые первыми
// @Tags Payments
// @Produce json
// @Param clientID path string true "ID клиента"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Клиент не найден"
// @Failure 500 {object} response.ErrorResponse
// @Router /clients/{clientID}/payments [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.list"
	clientID := chi.URLParam(r, "clientID")
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("client_id", clientID),
	)

	payments, err := h.service.ListPayments(r.Context(), clientID)
	if errors.Is(err, status.ErrClientNotFound) {
		response.Fail(w, r, http.StatusNotFound, "client not found")
		return
	}
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not list payments")
		return
	}

	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(map[string]any{
		"payments": payments,
	}))
}
