package resendEmail

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"contacts_api/internal/auth"
	resp "contacts_api/internal/lib/api/response"
	sl "contacts_api/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
}

type VerificationResender interface {
	ResendVerification(ctx context.Context, email string) error
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	resender VerificationResender,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.resendVerificationEmail.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Info("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		err = resender.ResendVerification(ctx, req.Email)
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrUserNotFound):
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, resp.Error("User not found"))

			return
		case errors.Is(err, auth.ErrAlreadyVerified):
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Verification has already been passed"))

			return
		default:
			log.Error("Failed to send verification email", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Verification email resent")

		render.JSON(w, r, resp.Message{Message: "Verification email sent"})
	}
}
