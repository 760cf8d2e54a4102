package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_NewAndParse(t *testing.T) {
	m := New("secret", 23*time.Hour)

	token, err := m.NewToken(42)
	require.NoError(t, err)

	id, err := m.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestManager_TokensAreUnique(t *testing.T) {
	m := New("secret", time.Hour)
	fixed := time.Now()
	m.now = func() time.Time { return fixed }

	a, err := m.NewToken(1)
	require.NoError(t, err)
	b, err := m.NewToken(1)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestManager_Expired(t *testing.T) {
	m := New("secret", time.Hour)
	issued := time.Now().Add(-2 * time.Hour)
	m.now = func() time.Time { return issued }

	token, err := m.NewToken(1)
	require.NoError(t, err)

	m.now = time.Now

	_, err = m.ParseToken(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestManager_WrongSecret(t *testing.T) {
	token, err := New("one", time.Hour).NewToken(1)
	require.NoError(t, err)

	_, err = New("two", time.Hour).ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsOtherAlgorithms(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: 1,
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = New("secret", time.Hour).ParseToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_Garbage(t *testing.T) {
	_, err := New("secret", time.Hour).ParseToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
