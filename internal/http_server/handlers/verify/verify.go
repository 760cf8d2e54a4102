package verify

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"contacts_api/internal/auth"
	resp "contacts_api/internal/lib/api/response"
	sl "contacts_api/internal/lib/logger"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

const URLParam = "verificationToken"

type UserVerifier interface {
	VerifyUser(ctx context.Context, token string) error
}

func New(log *slog.Logger, verifier UserVerifier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.verify.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		token := chi.URLParam(r, URLParam)
		if token == "" {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, resp.Error("Not found"))

			return
		}

		if err := verifier.VerifyUser(r.Context(), token); err != nil {
			if errors.Is(err, auth.ErrVerificationNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Not found"))

				return
			}

			log.Error("failed to mark user as verified", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("email verified successfully")

		render.JSON(w, r, resp.Message{Message: "Verification successful"})
	}
}
