// Package middlewarectx содержит HTTP middleware портала: проверку JWT,
// права тренера и клиента, ограничение частоты запросов.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/coach-portal/internal/http/response"
	"github.com/magabrotheeeer/coach-portal/internal/lib/authz"
	"github.com/magabrotheeeer/coach-portal/internal/lib/jwt"
	"github.com/magabrotheeeer/coach-portal/internal/lib/sl"
)

// Key тип ключей контекста запроса.
type Key string

// IdentityKey - ключ authz.Identity в контексте.
const IdentityKey Key = "identity"

// TokenParser разбирает bearer-токен.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// WithIdentity кладёт пользователя в контекст.
func WithIdentity(ctx context.Context, id authz.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

// IdentityFrom достаёт пользователя из контекста.
func IdentityFrom(ctx context.Context) (authz.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(authz.Identity)
	return id, ok
}

// JWTMiddleware проверяет заголовок Authorization и кладёт пользователя
// в контекст. Без валидного токена отвечает 401.
func JWTMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				sl.Op(op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				response.Fail(w, r, http.StatusUnauthorized, "missing or invalid authorization header")
				return
			}
			claims, err := parser.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				response.Fail(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			ctx := WithIdentity(r.Context(), authz.Identity{Email: claims.Email, ClientID: claims.ClientID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
