// Package calendar отдаёт календарь активности клиента.
package calendar

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/coach-portal/internal/http/response"
	"github.com/magabrotheeeer/coach-portal/internal/lib/sl"
	"github.com/magabrotheeeer/coach-portal/internal/models"
)

// Service строит календарь.
type Service interface {
	Calendar(ctx context.Context, clientID, from, to string) (models.Calendar, error)
	Invalidate(ctx context.Context, clientID string) error
}

// Day - день календаря в ответе.
type Day struct {
	models.ActivityRecord
	Category models.ActivityCategory `json:"category"`
}

type rangeQuery struct {
	From    string `validate:"omitempty,datetime=2006-01-02"`
	To      string `validate:"omitempty,datetime=2006-01-02"`
	Refresh string `validate:"omitempty,oneof=true false"`
}

// Handler обрабатывает GET /clients/{clientID}/activity.
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
// @Summary Календарь активности
// @Description Дни с тренировками, отзывами и записями нагрузки; категория multiple, если источников несколько
// @Tags Activity
// @Produce json
// @Param clientID path string true "ID клиента"
// @Param from query string false "Начало интервала YYYY-MM-DD"
// @Param to query string false "Конец интервала YYYY-MM-DD"
// @Param refresh query bool false "Пересобрать календарь в обход кэша"
// @Success 200 {object} response.Response
// @Failure 422 {object} response.ErrorResponse "Неверный интервал"
// @Failure 500 {object} response.ErrorResponse
// @Router /clients/{clientID}/activity [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.activity.calendar"
	clientID := chi.URLParam(r, "clientID")
	log := h.log.With(
		sl.Op(op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("client_id", clientID),
	)

	params := r.URL.Query()
	q := rangeQuery{From: params.Get("from"), To: params.Get("to"), Refresh: params.Get("refresh")}
	if err := h.validate.Struct(q); err != nil {
		log.Warn("invalid range", sl.Err(err))
		response.Invalid(w, r, err)
		return
	}
	if q.Refresh == "true" {
		if err := h.service.Invalidate(r.Context(), clientID); err != nil {
			log.Warn("failed to invalidate calendar cache", sl.Err(err))
		}
	}

	cal, err := h.service.Calendar(r.Context(), clientID, q.From, q.To)
	if err != nil {
		log.Error("failed to build calendar", sl.Err(err))
		response.Fail(w, r, http.StatusInternalServerError, "could not build activity calendar")
		return
	}

	days := make(map[string]Day, len(cal))
	for key, rec := range cal {
		days[key] = Day{ActivityRecord: rec, Category: rec.Category()}
	}
	log.Debug("calendar built", slog.Int("days", len(days)))
	response.JSON(w, r, http.StatusOK, response.StatusOKWithData(map[string]any{
		"days": days,
	}))
}
