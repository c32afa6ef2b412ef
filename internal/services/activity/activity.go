// Package activity собирает календарь активности клиента из трёх
// независимых источников: сводки прогресса, отзывов о тренировках
// и журнала нагрузки/усилия.
package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/coach-portal/internal/lib/daykey"
	"github.com/magabrotheeeer/coach-portal/internal/lib/sl"
	"github.com/magabrotheeeer/coach-portal/internal/models"
	"github.com/magabrotheeeer/coach-portal/internal/observability"
	"github.com/magabrotheeeer/coach-portal/internal/store"
)

// Имена источников в логах и метриках.
const (
	SourceProgress   = "progress"
	SourceFeedback   = "feedback"
	SourceLoadEffort = "load_effort"
)

// Reader - часть хранилища, нужная для чтения источников.
type Reader interface {
	Get(ctx context.Context, p store.Path) (store.Document, error)
	Query(ctx context.Context, q store.Query) ([]store.Document, error)
}

// Cache описывает кэш готовых календарей.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Service строит календарь активности.
type Service struct {
	store Reader
	cache Cache
	ttl   time.Duration
	keyer daykey.Keyer
	log   *slog.Logger
}

// NewService создаёт Service. ttl <= 0 отключает кэш.
func NewService(st Reader, cache Cache, keyer daykey.Keyer, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		store: st,
		cache: cache,
		ttl:   ttl,
		keyer: keyer,
		log:   log,
	}
}

func cacheKey(clientID string) string {
	return "activity:" + clientID
}

// Calendar возвращает дни с активностью в интервале [from, to]. При ttl > 0
// календарь читается через кэш и может отставать от источников не больше
// чем на ttl. Пустые границы интервал не ограничивают.
func (s *Service) Calendar(ctx context.Context, clientID, from, to string) (models.Calendar, error) {
	const op = "activity.Calendar"
	log := s.log.With(sl.Op(op), slog.String("client_id", clientID))

	if s.ttl <= 0 {
		cal, err := s.Aggregate(ctx, clientID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		observability.RecordAggregation(false)
		return cal.Range(from, to), nil
	}

	key := cacheKey(clientID)
	var cached models.Calendar
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Warn("failed to read calendar from cache", slog.String("key", key), sl.Err(err))
	}
	if err == nil && found {
		observability.RecordAggregation(true)
		return cached.Range(from, to), nil
	}

	cal, err := s.Aggregate(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	observability.RecordAggregation(false)

	if err := s.cache.Set(ctx, key, cal, s.ttl); err != nil {
		log.Warn("failed to add calendar to cache", slog.String("key", key), sl.Err(err))
	}
	return cal.Range(from, to), nil
}

// Invalidate сбрасывает закэшированный календарь клиента.
func (s *Service) Invalidate(ctx context.Context, clientID string) error {
	const op = "activity.Invalidate"
	if err := s.cache.Invalidate(ctx, cacheKey(clientID)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Aggregate читает все три источника и сливает их флаги по дням.
// Ошибка одного источника логируется и не мешает остальным; ошибка
// возвращается только для пустого clientID или отменённого контекста.
func (s *Service) Aggregate(ctx context.Context, clientID string) (models.Calendar, error) {
	const op = "activity.Aggregate"
	if clientID == "" {
		return nil, fmt.Errorf("%s: %w", op, store.ErrInvalidPath)
	}
	log := s.log.With(sl.Op(op), slog.String("client_id", clientID))

	cal := make(models.Calendar)
	sources := []struct {
		name string
		run  func(context.Context, string, models.Calendar) error
	}{
		{SourceProgress, s.progress},
		{SourceFeedback, s.feedback},
		{SourceLoadEffort, s.loadEffort},
	}
	for _, src := range sources {
		if err := src.run(ctx, clientID, cal); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%s: %w", op, ctxErr)
			}
			observability.RecordSourceFailure(src.name)
			log.Error("activity source unavailable", slog.String("source", src.name), sl.Err(err))
		}
	}
	return cal, nil
}

// progress отмечает тренировки из progress/{clientId}.completedDays.
func (s *Service) progress(ctx context.Context, clientID string, cal models.Calendar) error {
	doc, err := s.store.Get(ctx, store.Doc("progress", clientID))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var summary models.ProgressSummary
	if err := doc.Decode(&summary); err != nil {
		return err
	}
	for day, done := range summary.CompletedDays {
		if !done {
			continue
		}
		key := day
		if t, ok := daykey.FromText(day).Local(s.keyer.Location); ok {
			key = t.Format(daykey.Layout)
		}
		rec := cal.Touch(key)
		rec.HasWorkout = true
		cal[key] = rec
	}
	return nil
}

// feedback отмечает отзывы; отзыв означает и тренировку в тот же день.
func (s *Service) feedback(ctx context.Context, clientID string, cal models.Calendar) error {
	docs, err := s.store.Query(ctx, store.Query{
		Collection: "feedback",
		Filters:    []store.Filter{store.Eq("clientId", clientID)},
		OrderBy:    "date",
	})
	if err != nil {
		return err
	}
	for _, doc := range docs {
		key := s.keyer.Key(doc.Data["date"])
		rec := cal.Touch(key)
		rec.HasFeedback = true
		rec.HasWorkout = true
		cal[key] = rec
	}
	return nil
}

// loadEffort отмечает записи из loadEffort/{clientId}.entries.
func (s *Service) loadEffort(ctx context.Context, clientID string, cal models.Calendar) error {
	doc, err := s.store.Get(ctx, store.Doc("loadEffort", clientID))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var entries models.LoadEffortLog
	if err := doc.Decode(&entries); err != nil {
		return err
	}
	for _, e := range entries.Entries {
		key := s.keyer.Key(e.Date)
		rec := cal.Touch(key)
		rec.HasLoadEffort = true
		cal[key] = rec
	}
	return nil
}
