package middlewarectx

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/coach-portal/internal/http/response"
	"github.com/magabrotheeeer/coach-portal/internal/lib/authz"
)

// RequireCoach пропускает только тренеров.
func RequireCoach(a authz.Authorizer, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !a.IsCoach(id) {
				log.Warn("coach access denied",
					slog.String("email", id.Email),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				response.Fail(w, r, http.StatusForbidden, "coach access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientAccess пропускает тренера и клиента, чей id совпадает
// с параметром маршрута clientID.
func ClientAccess(a authz.Authorizer, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFrom(r.Context())
			if !ok {
				response.Fail(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}
			clientID := chi.URLParam(r, "clientID")
			if !authz.CanAccessClient(a, id, clientID) {
				log.Warn("client access denied",
					slog.String("email", id.Email),
					slog.String("client_id", clientID),
					slog.String("request_id", middleware.GetReqID(r.Context())))
				response.Fail(w, r, http.StatusForbidden, "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
