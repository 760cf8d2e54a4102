package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"contacts_api/internal/auth"
	resp "contacts_api/internal/lib/api/response"
	sl "contacts_api/internal/lib/logger"
	"contacts_api/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email        string `json:"email" validate:"required,email"`
	Pass         string `json:"password" validate:"required"`
	Subscription string `json:"subscription" validate:"omitempty,subscription"`
}

type Response struct {
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
	AvatarURL    string `json:"avatarURL"`
}

// SubscriptionTag validates a plan name against models.Subscriptions. It
// must be registered on the validator passed to New.
const SubscriptionTag = "subscription"

func ValidateSubscription(fl validator.FieldLevel) bool {
	return models.ValidSubscription(fl.Field().String())
}

type UserRegistrar interface {
	RegisterNewUser(ctx context.Context, in auth.RegisterInput) (models.User, error)
}

func New(
	log *slog.Logger,
	validate *validator.Validate,
	registrar UserRegistrar,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.register.New"

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

		log.Info("Request body decoded")

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

		user, err := registrar.RegisterNewUser(ctx, auth.RegisterInput{
			Email:        req.Email,
			Password:     req.Pass,
			Subscription: req.Subscription,
		})
		if err != nil {
			if errors.Is(err, auth.ErrEmailInUse) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("Email in use"))

				return
			}

			log.Error("failed to register user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("User registered", slog.Int64("id", user.ID))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Email:        user.Email,
			Subscription: user.Subscription,
			AvatarURL:    user.AvatarURL,
		})
	}
}
