package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	sl "contacts_api/internal/lib/logger"
	"contacts_api/internal/lib/verification"
	"contacts_api/internal/models"
	"contacts_api/internal/storage"
)

var (
	ErrEmailInUse           = errors.New("email in use")
	ErrInvalidCredentials   = errors.New("email or password invalid")
	ErrNotAuthorized        = errors.New("not authorized")
	ErrUserNotFound         = errors.New("user not found")
	ErrVerificationNotFound = errors.New("verification token not found")
	ErrAlreadyVerified      = errors.New("verification has already been passed")
	ErrNoFile               = errors.New("no file attached")
	ErrInvalidImage         = errors.New("invalid image")
	ErrImageTooLarge        = errors.New("image dimensions too large")
)

type Auth struct {
	log         *slog.Logger
	usrSaver    UserSaver
	usrProvider UserProvider
	tokens      TokenManager
	publisher   verification.Publisher
	images      ImageProcessor
	avatars     AvatarStore
	opts        Options
}

type UserSaver interface {
	SaveUser(ctx context.Context, user models.User) (models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (models.User, error)
}

type UserProvider interface {
	User(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id int64) (models.User, error)
	UserByVerificationToken(ctx context.Context, token string) (models.User, error)
}

type TokenManager interface {
	NewToken(userID int64) (string, error)
	ParseToken(token string) (int64, error)
}

// ImageProcessor rewrites the image at path as a size x size square and
// returns the file extension matching the decoded format.
type ImageProcessor interface {
	Normalize(path string, size int) (ext string, err error)
}

// AvatarStore moves a local file into durable avatar storage.
type AvatarStore interface {
	Save(ctx context.Context, src, name string) error
}

type Options struct {
	// BaseURL is the public origin used in verification links.
	BaseURL      string
	PasswordCost int
	AvatarSize   int
}

func New(
	log *slog.Logger,
	userSaver UserSaver,
	userProvider UserProvider,
	tokens TokenManager,
	publisher verification.Publisher,
	images ImageProcessor,
	avatars AvatarStore,
	opts Options,
) *Auth {
	return &Auth{
		log:         log,
		usrSaver:    userSaver,
		usrProvider: userProvider,
		tokens:      tokens,
		publisher:   publisher,
		images:      images,
		avatars:     avatars,
		opts:        opts,
	}
}

// Current is the public projection of an authenticated account.
type Current struct {
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
}

func (a *Auth) Current(ctx context.Context, userID int64) (Current, error) {
	const op = "auth.Current"

	user, err := a.usrProvider.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return Current{}, ErrNotAuthorized
		}

		a.log.Error("failed to get user", slog.String("op", op), sl.Err(err))

		return Current{}, fmt.Errorf("%s: %w", op, err)
	}

	return Current{Email: user.Email, Subscription: user.Subscription}, nil
}

func ptr[T any](v T) *T {
	return &v
}
