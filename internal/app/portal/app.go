package portal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/coach-portal/internal/cache"
	"github.com/magabrotheeeer/coach-portal/internal/config"
	"github.com/magabrotheeeer/coach-portal/internal/http/handlers/health"
	"github.com/magabrotheeeer/coach-portal/internal/lib/authz"
	"github.com/magabrotheeeer/coach-portal/internal/lib/daykey"
	"github.com/magabrotheeeer/coach-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/coach-portal/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/coach-portal/internal/lib/sl"
	"github.com/magabrotheeeer/coach-portal/internal/migrations"
	activityservice "github.com/magabrotheeeer/coach-portal/internal/services/activity"
	recordsservice "github.com/magabrotheeeer/coach-portal/internal/services/records"
	statusservice "github.com/magabrotheeeer/coach-portal/internal/services/status"
	"github.com/magabrotheeeer/coach-portal/internal/store"
	"github.com/magabrotheeeer/coach-portal/internal/store/memory"
	"github.com/magabrotheeeer/coach-portal/internal/store/postgres"
)

// App HTTP-сервер портала со всеми зависимостями.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	closers []func()
}

// New поднимает хранилище, кэш и брокер и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "portal.New"
	a := &App{logger: logger}
	checks := make(map[string]health.Pinger)

	st, err := a.openStore(ctx, cfg.Storage, checks)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var activityCache activityservice.Cache = cache.Noop{}
	if cfg.RedisConnection.Address != "" {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		a.closers = append(a.closers, func() { _ = redisCache.Close() })
		checks["cache"] = redisCache
		activityCache = redisCache
	} else {
		logger.Info("redis address is empty, activity cache disabled")
	}

	publisher, err := a.openPublisher(cfg.RabbitMQ)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	loc, err := cfg.Location()
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	keyer := daykey.New(loc)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Tokens:     jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		Authorizer: authz.NewAllowList(cfg.Coaches.Emails),
		Activity:   activityservice.NewService(st, activityCache, keyer, cfg.Activity.CacheTTL, logger),
		Status:     statusservice.NewService(st, publisher, keyer, logger),
		Records:    recordsservice.NewService(st, keyer, logger),
		Checks:     checks,
		RateLimit:  cfg.RateLimit,
		RateBurst:  cfg.RateBurst,
	})

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg config.Storage, checks map[string]health.Pinger) (store.Store, error) {
	switch cfg.Driver {
	case "memory":
		a.logger.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), nil
	case "postgres":
		pg, err := postgres.New(ctx, cfg.ConnectionString)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		if err := migrations.RunPool(pg.Pool(), cfg.MigrationsPath); err != nil {
			return nil, err
		}
		checks["store"] = pg
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func (a *App) openPublisher(cfg config.RabbitMQ) (statusservice.Publisher, error) {
	if cfg.URL == "" {
		a.logger.Info("rabbitmq url is empty, status events are only logged")
		return logPublisher{log: a.logger}, nil
	}
	conn, err := rabbitmq.Connect(cfg.URL, cfg.MaxRetries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = conn.Close() })

	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.ClientQueues())
	if err != nil {
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch, cfg.Exchange)
	a.closers = append(a.closers, func() { _ = publisher.Close() })
	go a.watchBroker(conn)
	return publisher, nil
}

func (a *App) watchBroker(conn *amqp.Connection) {
	if err := <-conn.NotifyClose(make(chan *amqp.Error, 1)); err != nil {
		a.logger.Error("rabbitmq connection closed", sl.Err(err))
	}
}

// close освобождает ресурсы в обратном порядке.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Run запускает сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		return a.server.Shutdown(timeoutCtx)
	}
}

// logPublisher пишет события в лог, когда брокер не настроен.
type logPublisher struct {
	log *slog.Logger
}

func (p logPublisher) Publish(_ context.Context, routingKey string, message any) error {
	p.log.Info("event", slog.String("routing_key", routingKey), slog.Any("message", message))
	return nil
}
