// Package compare проверяет новый личный рекорд против рекордов других
// клиентов, ничего не сохраняя.
package compare

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
	"github.com/magabrotheeeer/coach-portal/internal/lib/sl"
	"github.com/magabrotheeeer/coach-portal/internal/models"
	"github.com/magabrotheeeer/coach-portal/internal/services/records"
)

// Service сравнивает рекорд с остальными клиентами.
type Service interface {
	CompareAgainstPeers(ctx context.Context, clientID string, rec models.PersonalRecord, kind models.RecordKind) ([]models.Comparison, error)
}

// Request - рекорд для сравнения.
type Request struct {
	Exercise string `json:"exercise" validate:"required,max=200"`
	Value    string `json:"value" validate:"required,max=50"`
}

// Handler обрабатывает POST /clients/{clientID}/records/{kind}/compare.
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
// @Summary Сравнить рекорд
// @Description Рекорды других клиентов по тому же упражнению, равные новому или лучше; для PR лучше меньшее время
// @Tags Records
// @Accept json
// @Produce json
// @Param clientID path string true "ID клиента"
// @Param kind path string true "RM или PR"
// @Param request body Request true "Рекорд"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или вид рекорда"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse
// @Router /clients/{clientID}/records/{kind}/compare [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.records.compare"
	clientID := chi.URLParam(r, "clientID")
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("client_id", clientID),
	)

	kind, err := records.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		response.Fail(w, r, http.StatusBadRequest, "record kind must be RM or PR")
		return
	}
	var req Request
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

	peers, err := h.service.CompareAgainstPeers(r.Context(), clientID,
		models.PersonalRecord{Exercise: req.Exercise, Value: req.Value}, kind)
	if errors.Is(err, records.ErrUnknownKind) {
		response.Fail(w, r, http.StatusBadRequest, "record kind must be RM or PR")
		return
	}
	if err != nil {
		log.Error("failed to compare record", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not compare record")
		return
	}

	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(map[string]any{
		"peers": peers,
	}))
}
