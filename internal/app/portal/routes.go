// Package portal собирает HTTP-приложение портала тренера.
package portal

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/coach-portal/internal/http/handlers/activity/calendar"
	"github.com/magabrotheeeer/coach-portal/internal/http/handlers/health"
	"github.com/magabrotheeeer/coach-portal/internal/http/handlers/payment/paymentcreate"
	"github.com/magabrotheeeer/coach-portal/internal/http/handlers/payment/paymentlist"
	"github.com/magabrotheeeer/coach-portal/internal/http/handlers/payment/paymentremove"
	"github.com/magabrotheeeer/coach-portal/internal/http/handlers/records/compare"
	recordslist "github.com/magabrotheeeer/coach-portal/internal/http/handlers/records/list"
	recordsremove "github.com/magabrotheeeer/coach-portal/internal/http/handlers/records/remove"
	"github.com/magabrotheeeer/coach-portal/internal/http/handlers/records/save"
	statusread "github.com/magabrotheeeer/coach-portal/internal/http/handlers/status/read"
	"github.com/magabrotheeeer/coach-portal/internal/http/handlers/subscription/register"
	"github.com/magabrotheeeer/coach-portal/internal/http/middlewarectx"
	"github.com/magabrotheeeer/coach-portal/internal/lib/authz"
	activityservice "github.com/magabrotheeeer/coach-portal/internal/services/activity"
	recordsservice "github.com/magabrotheeeer/coach-portal/internal/services/records"
	statusservice "github.com/magabrotheeeer/coach-portal/internal/services/status"
)

// Deps зависимости маршрутов.
type Deps struct {
	Tokens     middlewarectx.TokenParser
	Authorizer authz.Authorizer
	Activity   *activityservice.Service
	Status     *statusservice.Service
	Records    *recordsservice.Service
	Checks     map[string]health.Pinger
	RateLimit  float64
	RateBurst  int
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(d.RateLimit, d.RateBurst, logger))
		r.Use(middlewarectx.JWTMiddleware(d.Tokens, logger))

		r.Route("/clients/{clientID}", func(r chi.Router) {
			r.Use(middlewarectx.ClientAccess(d.Authorizer, logger))

			r.Get("/activity", calendar.New(logger, d.Activity).ServeHTTP)
			r.Get("/status", statusread.New(logger, d.Status).ServeHTTP)
			r.Get("/payments", paymentlist.New(logger, d.Status).ServeHTTP)

			r.Get("/records", recordslist.New(logger, d.Records).ServeHTTP)
			r.Post("/records/{kind}", save.New(logger, d.Records).ServeHTTP)
			r.Post("/records/{kind}/compare", compare.New(logger, d.Records).ServeHTTP)
			r.Delete("/records/{kind}/{recordID}", recordsremove.New(logger, d.Records).ServeHTTP)

			// Оплаты и подписку меняет только тренер
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.RequireCoach(d.Authorizer, logger))
				r.Post("/payments", paymentcreate.New(logger, d.Status).ServeHTTP)
				r.Delete("/payments/{paymentID}", paymentremove.New(logger, d.Status).ServeHTTP)
				r.Put("/subscription", register.New(logger, d.Status).ServeHTTP)
			})
		})
	})

	r.Get("/health", health.New(logger, d.Checks).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
