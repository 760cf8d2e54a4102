package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"contacts_api/internal/lib/avatar"
	sl "contacts_api/internal/lib/logger"
	"contacts_api/internal/models"
	"contacts_api/internal/storage"
)

// AvatarPrefix is the path under which stored avatars are referenced.
const AvatarPrefix = "avatars"

// Upload is a file already written to temporary storage by the transport.
// Filename is unique per upload and becomes the durable name, with the
// extension of the decoded format appended when it is missing.
type Upload struct {
	Path     string
	Filename string
}

// UpdateAvatar normalizes the uploaded image, moves it into avatar storage
// and points the account at it. The account is only updated after the move
// succeeds. On failure the temporary file is removed when possible.
func (a *Auth) UpdateAvatar(ctx context.Context, userID int64, upload *Upload) (avatarURL string, err error) {
	const op = "auth.UpdateAvatar"

	log := a.log.With(
		slog.String("op", op),
		slog.Int64("uid", userID),
	)

	if upload != nil {
		defer func() {
			if err != nil {
				a.discard(log, upload.Path)
			}
		}()
	}

	if _, err := a.usrProvider.UserByID(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", ErrNotAuthorized
		}

		log.Error("failed to get user", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if upload == nil || upload.Path == "" {
		return "", ErrNoFile
	}

	ext, err := a.images.Normalize(upload.Path, a.opts.AvatarSize)
	if err != nil {
		switch {
		case errors.Is(err, avatar.ErrInvalidImage):
			log.Info("uploaded file is not an image", sl.Err(err))

			return "", fmt.Errorf("%s: %w", op, ErrInvalidImage)
		case errors.Is(err, avatar.ErrTooLarge):
			log.Info("uploaded image is too large", sl.Err(err))

			return "", fmt.Errorf("%s: %w", op, ErrImageTooLarge)
		}

		log.Error("failed to resize avatar", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	name := path.Base(upload.Filename)
	if upload.Filename == "" {
		name = filepath.Base(upload.Path)
	}
	name = avatar.WithExtension(name, ext)

	if err := a.avatars.Save(ctx, upload.Path, name); err != nil {
		log.Error("failed to move avatar", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	avatarURL = path.Join(AvatarPrefix, name)

	if _, err := a.usrSaver.UpdateUser(ctx, userID, models.UserPatch{AvatarURL: &avatarURL}); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", ErrNotAuthorized
		}

		log.Error("failed to save avatar url", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("avatar updated", slog.String("avatar", avatarURL))

	return avatarURL, nil
}

func (a *Auth) discard(log *slog.Logger, tmp string) {
	if tmp == "" {
		return
	}

	if err := os.Remove(tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to remove temporary upload", slog.String("path", tmp), sl.Err(err))
	}
}
