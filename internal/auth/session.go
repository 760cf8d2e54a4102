package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sl "contacts_api/internal/lib/logger"
	"contacts_api/internal/lib/password"
	"contacts_api/internal/models"
	"contacts_api/internal/storage"
)

// Login returns a new session token and makes it the account's only valid
// one. Unknown email, unverified account and wrong password all return
// ErrInvalidCredentials.
func (a *Auth) Login(ctx context.Context, email, pass string) (string, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("user not found")

			return "", ErrInvalidCredentials
		}

		log.Error("failed to get user", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !user.Verified {
		log.Info("email not verified", slog.Int64("uid", user.ID))

		return "", ErrInvalidCredentials
	}

	if !password.Verify(pass, user.PassHash) {
		log.Info("invalid credentials", slog.Int64("uid", user.ID))

		return "", ErrInvalidCredentials
	}

	token, err := a.tokens.NewToken(user.ID)
	if err != nil {
		log.Error("failed to generate session token", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err := a.usrSaver.UpdateUser(ctx, user.ID, models.UserPatch{SessionToken: &token}); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}

		log.Error("failed to save session token", sl.Err(err))

		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in successfully", slog.Int64("uid", user.ID))

	return token, nil
}

// Authenticate resolves the account behind a session token. The token must
// be well signed, unexpired and still the one stored on the account.
func (a *Auth) Authenticate(ctx context.Context, token string) (models.User, error) {
	const op = "auth.Authenticate"

	log := a.log.With(slog.String("op", op))

	if token == "" {
		return models.User{}, ErrNotAuthorized
	}

	userID, err := a.tokens.ParseToken(token)
	if err != nil {
		log.Debug("invalid session token", sl.Err(err))

		return models.User{}, ErrNotAuthorized
	}

	user, err := a.usrProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, ErrNotAuthorized
		}

		log.Error("failed to get user", sl.Err(err))

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	if user.SessionToken == "" || user.SessionToken != token {
		log.Debug("session token revoked or superseded", slog.Int64("uid", user.ID))

		return models.User{}, ErrNotAuthorized
	}

	return user, nil
}

// Logout clears the stored session token, revoking every token issued so
// far for the account.
func (a *Auth) Logout(ctx context.Context, userID int64) error {
	const op = "auth.Logout"

	log := a.log.With(slog.String("op", op))

	if _, err := a.usrSaver.UpdateUser(ctx, userID, models.UserPatch{SessionToken: ptr("")}); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrNotAuthorized
		}

		log.Error("failed to clear session token", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("logout successful", slog.Int64("uid", userID))

	return nil
}
