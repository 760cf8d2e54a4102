package logout

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

type UserLogouter interface {
	Logout(ctx context.Context, userID int64) error
}

// New ends the session of the authenticated account. Every token issued to
// it stops working.
func New(log *slog.Logger, logouter UserLogouter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

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

		if err := logouter.Logout(r.Context(), user.ID); err != nil {
			if errors.Is(err, auth.ErrNotAuthorized) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Not authorized"))

				return
			}

			log.Error("failed to logout", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Logout successful", slog.Int64("uid", user.ID))

		render.JSON(w, r, resp.Message{Message: "Logout success"})
	}
}
