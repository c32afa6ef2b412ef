// Package read отдаёт статус абонемента клиента. Статус пересчитывается
// при каждом запросе и сохраняется, если изменился.
package read

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

// Service пересчитывает статус.
type Service interface {
	Recalculate(ctx context.Context, clientID string) (models.SubscriptionStatus, error)
}

// Handler обрабатывает GET /clients/{clientID}/status.
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
// @Summary Статус абонемента
// @Tags Status
// @Produce json
// @Param clientID path string true "ID клиента"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Клиент не найден"
// @Failure 500 {object} response.ErrorResponse
// @Router /clients/{clientID}/status [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.status.read"
	clientID := chi.URLParam(r, "clientID")
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("client_id", clientID),
	)

	st, err := h.service.Recalculate(r.Context(), clientID)
	if errors.Is(err, status.ErrClientNotFound) {
		log.Warn("client not found")
		response.Fail(w, r, http.StatusNotFound, "client not found")
		return
	}
	if err != nil {
		log.Error("failed to recalculate status", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not read status")
		return
	}

	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(map[string]any{
		"status": st,
	}))
}
