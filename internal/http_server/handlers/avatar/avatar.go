package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"contacts_api/internal/auth"
	"contacts_api/internal/http_server/middleware/authenticate"
	resp "contacts_api/internal/lib/api/response"
	sl "contacts_api/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

// FormField is the multipart field carrying the image.
const FormField = "avatar"

type Response struct {
	AvatarURL string `json:"avatarURL"`
}

type AvatarUpdater interface {
	UpdateAvatar(ctx context.Context, userID int64, upload *auth.Upload) (string, error)
}

// New accepts a multipart upload, stages it in tempDir as <uuid>_<name>
// and hands it to the avatar pipeline.
func New(
	log *slog.Logger,
	updater AvatarUpdater,
	tempDir string,
	maxUploadSize int64,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.avatar.New"

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

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

		upload, err := stage(r, tempDir)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				render.Status(r, http.StatusRequestEntityTooLarge)
				render.JSON(w, r, resp.Error("File too large"))

				return
			}

			log.Error("failed to stage upload", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		avatarURL, err := updater.UpdateAvatar(r.Context(), user.ID, upload)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrNotAuthorized):
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Not authorized"))
			case errors.Is(err, auth.ErrNoFile):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("No file attached"))
			case errors.Is(err, auth.ErrInvalidImage):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("File is not a supported image"))
			case errors.Is(err, auth.ErrImageTooLarge):
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, resp.Error("Image dimensions too large"))
			default:
				log.Error("failed to update avatar", sl.Err(err))

				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, resp.Error("Internal error"))
			}

			return
		}

		render.JSON(w, r, Response{AvatarURL: avatarURL})
	}
}

// stage copies the multipart file into tempDir. A request without the
// field yields a nil upload.
func stage(r *http.Request, tempDir string) (*auth.Upload, error) {
	const op = "handlers.avatar.stage"

	file, hdr, err := r.FormFile(FormField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer file.Close()

	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	name := uuid.NewString() + "_" + baseName(hdr)
	dst := filepath.Join(tempDir, name)

	if err := writeFile(dst, file); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &auth.Upload{Path: dst, Filename: name}, nil
}

func baseName(hdr *multipart.FileHeader) string {
	name := filepath.Base(strings.ReplaceAll(hdr.Filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return FormField
	}

	return name
}

func writeFile(dst string, src io.Reader) (err error) {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	_, err = io.Copy(out, src)

	return err
}
