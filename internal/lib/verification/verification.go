package verification

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"

	sl "contacts_api/internal/lib/logger"
	"contacts_api/internal/models"

	"github.com/google/uuid"
)

const Subject = "Verify email"

type Publisher interface {
	SendMessage(ctx context.Context, msg models.Message) error
}

// NewToken returns a random v4 uuid. 122 bits of entropy make collisions
// negligible, so callers never retry.
func NewToken() string {
	return uuid.NewString()
}

func Link(baseURL, token string) string {
	return fmt.Sprintf("%s/api/users/verify/%s", strings.TrimRight(baseURL, "/"), url.PathEscape(token))
}

func Message(baseURL, email, token string) models.Message {
	link := html.EscapeString(Link(baseURL, token))

	return models.Message{
		To:      email,
		Subject: Subject,
		HTML:    fmt.Sprintf(`<a target="_blank" href="%s">Click to verify your email</a>`, link),
	}
}

// VerifyUserEmail sends the verification link for token to email.
func VerifyUserEmail(
	ctx context.Context,
	log *slog.Logger,
	pub Publisher,
	baseURL, email, token string,
) error {
	const op = "verification.VerifyUserEmail"

	if err := pub.SendMessage(ctx, Message(baseURL, email, token)); err != nil {
		log.Error("failed to send verification link", slog.String("op", op), sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
