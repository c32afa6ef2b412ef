// Package save сохраняет личный рекорд клиента. Если у других клиентов
// есть рекорды не хуже, без force=true запись не делается и в ответе
// возвращается их список.
package save

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/coach-portal/internal/http/response"
	"github.com/magabrotheeeer/coach-portal/internal/lib/daykey"
	"github.com/magabrotheeeer/coach-portal/internal/lib/sl"
	"github.com/magabrotheeeer/coach-portal/internal/models"
	"github.com/magabrotheeeer/coach-portal/internal/services/records"
)

// Service сохраняет рекорд.
type Service interface {
	Save(ctx context.Context, clientID string, kind models.RecordKind, in models.RecordInput, force bool) (records.SaveResult, error)
}

// Handler обрабатывает POST /clients/{clientID}/records/{kind}.
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
// @Summary Сохранить рекорд
// @Description Добавляет рекорд или заменяет существующий по id. Без force=true при наличии рекордов не хуже возвращает их и не сохраняет
// @Tags Records
// @Accept json
// @Produce json
// @Param clientID path string true "ID клиента"
// @Param kind path string true "RM или PR"
// @Param force query bool false "Сохранить, даже если есть рекорды не хуже"
// @Param request body models.RecordInput true "Рекорд"
// @Success 201 {object} response.Response "Сохранено"
// @Success 200 {object} response.Response "Не сохранено, есть рекорды не хуже"
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Рекорд с таким id не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse
// @Router /clients/{clientID}/records/{kind} [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.records.save"
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
	force := false
	if raw := r.URL.Query().Get("force"); raw != "" {
		force, err = strconv.ParseBool(raw)
		if err != nil {
			response.Fail(w, r, http.StatusBadRequest, "force must be a boolean")
			return
		}
	}

	var req models.RecordInput
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

	res, err := h.service.Save(r.Context(), clientID, kind, req, force)
	switch {
	case errors.Is(err, records.ErrRecordNotFound):
		response.Fail(w, r, http.StatusNotFound, "record not found")
		return
	case errors.Is(err, daykey.ErrBadDate):
		response.Fail(w, r, http.StatusUnprocessableEntity, "date must be YYYY-MM-DD")
		return
	case err != nil:
		log.Error("failed to save record", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not save record")
		return
	}

	code := http.StatusOK
	if res.Saved {
		code = http.StatusCreated
	}
	response.JSON(w, r, code, response.StatusOKWithData(res))
}
