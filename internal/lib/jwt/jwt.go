package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"id"`
}

// Manager signs and parses session tokens with HMAC-SHA256.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret string, ttl time.Duration) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// NewToken issues a token for userID that expires after the manager's TTL.
// Every token carries a fresh jti, so two logins in the same second still
// produce different tokens.
func (m *Manager) NewToken(userID int64) (string, error) {
	const op = "jwt.NewToken"

	now := m.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// ParseToken checks signature and expiry and returns the embedded user id.
func (m *Manager) ParseToken(tokenStr string) (int64, error) {
	const op = "jwt.ParseToken"

	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %v", op, ErrInvalidToken, err)
	}

	if !parsed.Valid || claims.UserID == 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidToken)
	}

	return claims.UserID, nil
}
