package router

import (
	"log/slog"
	"net/http"

	"contacts_api/internal/auth"
	"contacts_api/internal/contacts"
	"contacts_api/internal/http_server/handlers/avatar"
	avatarFile "contacts_api/internal/http_server/handlers/avatar_file"
	contactsHandlers "contacts_api/internal/http_server/handlers/contacts"
	"contacts_api/internal/http_server/handlers/current"
	"contacts_api/internal/http_server/handlers/login"
	"contacts_api/internal/http_server/handlers/logout"
	register "contacts_api/internal/http_server/handlers/register"
	resendEmail "contacts_api/internal/http_server/handlers/resend_verification_email"
	"contacts_api/internal/http_server/handlers/verify"
	"contacts_api/internal/http_server/middleware/authenticate"
	resp "contacts_api/internal/lib/api/response"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Deps struct {
	Auth     *auth.Auth
	Contacts *contacts.Service
	Avatars  avatarFile.AvatarOpener

	// TempDir receives uploads before they are normalized.
	TempDir       string
	MaxUploadSize int64
}

func New(log *slog.Logger, deps Deps) *chi.Mux {
	validate := validator.New()
	if err := validate.RegisterValidation(register.SubscriptionTag, register.ValidateSubscription); err != nil {
		panic(err)
	}
	requireAuth := authenticate.New(log, deps.Auth)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", register.New(log, validate, deps.Auth))
		r.Get("/verify/{"+verify.URLParam+"}", verify.New(log, deps.Auth))
		r.Post("/verify", resendEmail.New(log, validate, deps.Auth))
		r.Post("/login", login.New(log, validate, deps.Auth))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/current", current.New(log, deps.Auth))
			r.Post("/logout", logout.New(log, deps.Auth))
			r.Patch("/avatars", avatar.New(log, deps.Auth, deps.TempDir, deps.MaxUploadSize))
		})
	})

	r.Route("/api/contacts", func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/", contactsHandlers.List(log, deps.Contacts))
		r.Post("/", contactsHandlers.Create(log, validate, deps.Contacts))
		r.Get("/{"+contactsHandlers.URLParam+"}", contactsHandlers.Get(log, deps.Contacts))
		r.Delete("/{"+contactsHandlers.URLParam+"}", contactsHandlers.Delete(log, deps.Contacts))
		r.Put("/{"+contactsHandlers.URLParam+"}", contactsHandlers.Update(log, validate, deps.Contacts))
		r.Patch("/{"+contactsHandlers.URLParam+"}/favorite", contactsHandlers.Favorite(log, validate, deps.Contacts))
	})

	r.Get("/avatars/{"+avatarFile.URLParam+"}", avatarFile.New(log, deps.Avatars))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error("Not found"))
	})

	return r
}
