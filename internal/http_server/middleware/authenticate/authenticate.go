// Package authenticate guards routes with a bearer session token.
package authenticate

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"contacts_api/internal/auth"
	resp "contacts_api/internal/lib/api/response"
	sl "contacts_api/internal/lib/logger"
	"contacts_api/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type ctxKey struct{}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.User, error)
}

// New rejects requests without a valid "Authorization: Bearer" token and
// stores the resolved account in the request context.
func New(log *slog.Logger, authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			const op = "middleware.authenticate"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			token, ok := bearer(r.Header.Get("Authorization"))
			if !ok {
				log.Debug("missing bearer token")

				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Not authorized"))

				return
			}

			user, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, auth.ErrNotAuthorized) {
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, resp.Error("Not authorized"))

					return
				}

				log.Error("failed to authenticate", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))

				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		}

		return http.HandlerFunc(fn)
	}
}

func bearer(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)

	return token, token != ""
}

func WithUser(ctx context.Context, user models.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFromContext returns the account stored by the middleware.
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(ctxKey{}).(models.User)

	return user, ok
}
