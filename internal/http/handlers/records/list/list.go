// Package list отдаёт личные рекорды клиента.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/coach-portal/internal/http/response"
	"github.com/magabrotheeeer/coach-portal/internal/lib/sl"
	"github.com/magabrotheeeer/coach-portal/internal/models"
)

// Service читает рекорды.
type Service interface {
	List(ctx context.Context, clientID string) (models.PersonalRecords, error)
}

// Handler обрабатывает GET /clients/{clientID}/records.
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
// @Summary Личные рекорды
// @Tags Records
// @Produce json
// @Param clientID path string true "ID клиента"
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /clients/{clientID}/records [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.records.list"
	clientID := chi.URLParam(r, "clientID")

	recs, err := h.service.List(r.Context(), clientID)
	if err != nil {
		h.log.Error("failed to list records",
			sl.Op(op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("client_id", clientID),
			sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not list records")
		return
	}
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(recs))
}
