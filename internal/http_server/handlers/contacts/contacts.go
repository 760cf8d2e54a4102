// Package contacts holds the handlers of the /api/contacts routes. All of
// them expect the authenticate middleware in front.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"contacts_api/internal/contacts"
	"contacts_api/internal/http_server/middleware/authenticate"
	resp "contacts_api/internal/lib/api/response"
	sl "contacts_api/internal/lib/logger"
	"contacts_api/internal/models"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const URLParam = "id"

type Service interface {
	List(ctx context.Context, owner int64, page contacts.Page) ([]models.Contact, error)
	Get(ctx context.Context, owner, id int64) (models.Contact, error)
	Create(ctx context.Context, owner int64, in contacts.Input) (models.Contact, error)
	Update(ctx context.Context, owner, id int64, patch models.ContactPatch) (models.Contact, error)
	UpdateFavorite(ctx context.Context, owner, id int64, favorite bool) (models.Contact, error)
	Delete(ctx context.Context, owner, id int64) error
}

type CreateRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required"`
	Favorite bool   `json:"favorite"`
}

type UpdateRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone" validate:"omitempty,min=1"`
	Favorite *bool   `json:"favorite"`
}

type FavoriteRequest struct {
	Favorite *bool `json:"favorite" validate:"required"`
}

func List(log *slog.Logger, svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.contacts.List"

		log := requestLog(log, op, r)

		owner, ok := ownerID(w, r)
		if !ok {
			return
		}

		page, err := parsePage(r)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error(err.Error()))

			return
		}

		list, err := svc.List(r.Context(), owner, page)
		if err != nil {
			if errors.Is(err, contacts.ErrInvalidPage) {
				log.Info("pagination out of range", sl.Err(err))

				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error(fmt.Sprintf("Invalid pagination, limit must be at most %d", contacts.MaxLimit)))

				return
			}

			log.Error("failed to list contacts", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		if list == nil {
			list = []models.Contact{}
		}

		render.JSON(w, r, list)
	}
}

func Get(log *slog.Logger, svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.contacts.Get"

		log := requestLog(log, op, r)

		owner, ok := ownerID(w, r)
		if !ok {
			return
		}

		id, ok := contactID(w, r)
		if !ok {
			return
		}

		c, err := svc.Get(r.Context(), owner, id)
		if err != nil {
			fail(w, r, log, id, err)

			return
		}

		render.JSON(w, r, c)
	}
}

func Create(log *slog.Logger, validate *validator.Validate, svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.contacts.Create"

		log := requestLog(log, op, r)

		owner, ok := ownerID(w, r)
		if !ok {
			return
		}

		var req CreateRequest
		if !decode(w, r, log, validate, &req) {
			return
		}

		c, err := svc.Create(r.Context(), owner, contacts.Input{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			Favorite: req.Favorite,
		})
		if err != nil {
			log.Error("failed to create contact", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, c)
	}
}

func Update(log *slog.Logger, validate *validator.Validate, svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.contacts.Update"

		log := requestLog(log, op, r)

		owner, ok := ownerID(w, r)
		if !ok {
			return
		}

		id, ok := contactID(w, r)
		if !ok {
			return
		}

		var req UpdateRequest
		if !decode(w, r, log, validate, &req) {
			return
		}

		c, err := svc.Update(r.Context(), owner, id, models.ContactPatch{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			Favorite: req.Favorite,
		})
		if err != nil {
			fail(w, r, log, id, err)

			return
		}

		render.JSON(w, r, c)
	}
}

func Favorite(log *slog.Logger, validate *validator.Validate, svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.contacts.Favorite"

		log := requestLog(log, op, r)

		owner, ok := ownerID(w, r)
		if !ok {
			return
		}

		id, ok := contactID(w, r)
		if !ok {
			return
		}

		var req FavoriteRequest
		if !decode(w, r, log, validate, &req) {
			return
		}

		c, err := svc.UpdateFavorite(r.Context(), owner, id, *req.Favorite)
		if err != nil {
			fail(w, r, log, id, err)

			return
		}

		render.JSON(w, r, c)
	}
}

func Delete(log *slog.Logger, svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.contacts.Delete"

		log := requestLog(log, op, r)

		owner, ok := ownerID(w, r)
		if !ok {
			return
		}

		id, ok := contactID(w, r)
		if !ok {
			return
		}

		if err := svc.Delete(r.Context(), owner, id); err != nil {
			fail(w, r, log, id, err)

			return
		}

		render.JSON(w, r, resp.Message{Message: "Delete success"})
	}
}

func requestLog(log *slog.Logger, op string, r *http.Request) *slog.Logger {
	return log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func ownerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	user, ok := authenticate.UserFromContext(r.Context())
	if !ok {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, resp.Error("Not authorized"))

		return 0, false
	}

	return user.ID, true
}

func contactID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, URLParam)

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error(fmt.Sprintf("%s is not valid id", raw)))

		return 0, false
	}

	return id, true
}

func parsePage(r *http.Request) (contacts.Page, error) {
	var page contacts.Page

	q := r.URL.Query()

	for key, dst := range map[string]*int{"page": &page.Page, "limit": &page.Limit} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}

		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return contacts.Page{}, fmt.Errorf("%s must be a positive integer", key)
		}

		*dst = v
	}

	return page, nil
}

func decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, validate *validator.Validate, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		log.Error("Failed to decode request body", sl.Err(err))

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("Failed to decode request"))

		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validateErr validator.ValidationErrors
		errors.As(err, &validateErr)

		log.Info("Invalid request", sl.Err(err))

		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.ValidationError(validateErr))

		return false
	}

	return true
}

func fail(w http.ResponseWriter, r *http.Request, log *slog.Logger, id int64, err error) {
	switch {
	case errors.Is(err, contacts.ErrNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, resp.Error(fmt.Sprintf("Contact with id:%d not found", id)))
	case errors.Is(err, contacts.ErrEmptyBody):
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("Body must have at least one field"))
	default:
		log.Error("contact operation failed", sl.Err(err))

		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, resp.Error("Internal error"))
	}
}
