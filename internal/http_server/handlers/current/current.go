package current

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"contacts_api/internal/auth"
	"contacts_api/internal/http_server/middleware/authenticate"
	resp "contacts_api/internal/lib/api/response"
	sl "contacts_api/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type CurrentProvider interface {
	Current(ctx context.Context, userID int64) (auth.Current, error)
}

func New(log *slog.Logger, provider CurrentProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.current.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		user, ok := authenticate.UserFromContext(r.Context())
		if !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Not authorized"))

			return
		}

		cur, err := provider.Current(r.Context(), user.ID)
		if err != nil {
			if errors.Is(err, auth.ErrNotAuthorized) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Not authorized"))

				return
			}

			log.Error("failed to get current user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, cur)
	}
}
