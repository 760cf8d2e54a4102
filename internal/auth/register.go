package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"contacts_api/internal/lib/avatar"
	sl "contacts_api/internal/lib/logger"
	"contacts_api/internal/lib/password"
	"contacts_api/internal/lib/verification"
	"contacts_api/internal/models"
	"contacts_api/internal/storage"
)

type RegisterInput struct {
	Email    string
	Password string
	// Subscription defaults to models.SubscriptionStarter.
	Subscription string
}

// RegisterNewUser creates an unverified account and mails its verification
// link. A failed dispatch is logged and does not undo the account: the user
// can ask for the link again with ResendVerification.
func (a *Auth) RegisterNewUser(ctx context.Context, in RegisterInput) (models.User, error) {
	const op = "auth.RegisterNewUser"

	log := a.log.With(
		slog.String("op", op),
	)

	log.Info("Registering new user")

	_, err := a.usrProvider.User(ctx, in.Email)
	switch {
	case err == nil:
		log.Warn("User already exists")

		return models.User{}, fmt.Errorf("%s: %w", op, ErrEmailInUse)
	case !errors.Is(err, storage.ErrUserNotFound):
		log.Error("failed to get user", sl.Err(err))

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := password.Hash(in.Password, a.opts.PasswordCost)
	if err != nil {
		log.Error("failed to generate password hash", sl.Err(err))

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	subscription := in.Subscription
	if subscription == "" {
		subscription = models.SubscriptionStarter
	}

	user, err := a.usrSaver.SaveUser(ctx, models.User{
		Email:             in.Email,
		PassHash:          passHash,
		Subscription:      subscription,
		AvatarURL:         avatar.Placeholder(in.Email),
		VerificationToken: verification.NewToken(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("User already exists")

			return models.User{}, fmt.Errorf("%s: %w", op, ErrEmailInUse)
		}

		log.Error("Failed to save user", sl.Err(err))

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("User registered", slog.Int64("uid", user.ID))

	err = verification.VerifyUserEmail(ctx, log, a.publisher, a.opts.BaseURL, user.Email, user.VerificationToken)
	if err != nil {
		log.Warn("account left unverified until resend", slog.Int64("uid", user.ID))
	}

	return user, nil
}

// VerifyUser consumes a verification token. A token that was already used
// is indistinguishable from one that never existed.
func (a *Auth) VerifyUser(ctx context.Context, token string) error {
	const op = "auth.VerifyUser"

	log := a.log.With(
		slog.String("op", op),
	)

	user, err := a.usrProvider.UserByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("verification token not found")

			return fmt.Errorf("%s: %w", op, ErrVerificationNotFound)
		}

		log.Error("failed to get user", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = a.usrSaver.UpdateUser(ctx, user.ID, models.UserPatch{
		Verified:          ptr(true),
		VerificationToken: ptr(""),
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return fmt.Errorf("%s: %w", op, ErrVerificationNotFound)
		}

		log.Error("failed to update status in database", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("email verified", slog.Int64("uid", user.ID))

	return nil
}

// ResendVerification mails the existing token again. Verified accounts get
// ErrAlreadyVerified and no email.
func (a *Auth) ResendVerification(ctx context.Context, email string) error {
	const op = "auth.ResendVerification"

	log := a.log.With(
		slog.String("op", op),
	)

	user, err := a.usrProvider.User(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Info("User not found")

			return fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		log.Error("failed to get user", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	if user.Verified {
		return fmt.Errorf("%s: %w", op, ErrAlreadyVerified)
	}

	err = verification.VerifyUserEmail(ctx, log, a.publisher, a.opts.BaseURL, user.Email, user.VerificationToken)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("verification email resent", slog.Int64("uid", user.ID))

	return nil
}
