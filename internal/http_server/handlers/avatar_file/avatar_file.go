package avatarFile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"

	resp "contacts_api/internal/lib/api/response"
	sl "contacts_api/internal/lib/logger"
	"contacts_api/internal/storage"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

const URLParam = "name"

type AvatarOpener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// New streams a stored avatar.
func New(log *slog.Logger, opener AvatarOpener) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.avatarFile.New"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		name := chi.URLParam(r, URLParam)

		rc, err := opener.Open(r.Context(), name)
		if err != nil {
			if errors.Is(err, storage.ErrAvatarNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Not found"))

				return
			}

			log.Error("failed to open avatar", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}
		defer rc.Close()

		if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
			w.Header().Set("Content-Type", ct)
		}

		if _, err := io.Copy(w, rc); err != nil {
			log.Warn("failed to stream avatar", sl.Err(err))
		}
	}
}
