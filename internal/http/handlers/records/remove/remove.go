// Package remove удаляет личный рекорд клиента.
package remove

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
	"github.com/magabrotheeeer/coach-portal/internal/services/records"
)

// Service удаляет рекорд.
type Service interface {
	Delete(ctx context.Context, clientID string, kind models.RecordKind, recordID string) error
}

// Handler обрабатывает DELETE /clients/{clientID}/records/{kind}/{recordID}.
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
// @Summary Удалить рекорд
// @Tags Records
// @Produce json
// @Param clientID path string true "ID клиента"
// @Param kind path string true "RM или PR"
// @Param recordID path string true "ID рекорда"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Неизвестный вид рекорда"
// @Failure 404 {object} response.ErrorResponse "Рекорд не найден"
// @Failure 500 {object} response.ErrorResponse
// @Router /clients/{clientID}/records/{kind}/{recordID} [delete]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.records.remove"
	clientID := chi.URLParam(r, "clientID")
	recordID := chi.URLParam(r, "recordID")
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("client_id", clientID),
		slog.String("record_id", recordID),
	)

	kind, err := records.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		response.Fail(w, r, http.StatusBadRequest, "record kind must be RM or PR")
		return
	}

	err = h.service.Delete(r.Context(), clientID, kind, recordID)
	if errors.Is(err, records.ErrRecordNotFound) {
		response.Fail(w, r, http.StatusNotFound, "record not found")
		return
	}
	if err != nil {
		log.Error("failed to delete record", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not delete record")
		return
	}

	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(map[string]any{
		"deleted": recordID,
	}))
}
