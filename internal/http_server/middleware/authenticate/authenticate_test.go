package authenticate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"contacts_api/internal/auth"
	"contacts_api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type authenticatorMock struct {
	mock.Mock
}

func (m *authenticatorMock) Authenticate(ctx context.Context, token string) (models.User, error) {
	args := m.Called(ctx, token)

	return args.Get(0).(models.User), args.Error(1)
}

func TestNew(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		header     string
		setup      func(m *authenticatorMock)
		wantStatus int
	}{
		{
			name:       "missing header",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic abc",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty token",
			header:     "Bearer  ",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "rejected token",
			header: "Bearer bad",
			setup: func(m *authenticatorMock) {
				m.On("Authenticate", mock.Anything, "bad").Return(models.User{}, auth.ErrNotAuthorized)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "store failure",
			header: "Bearer tok",
			setup: func(m *authenticatorMock) {
				m.On("Authenticate", mock.Anything, "tok").Return(models.User{}, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:   "valid token",
			header: "Bearer tok",
			setup: func(m *authenticatorMock) {
				m.On("Authenticate", mock.Anything, "tok").Return(models.User{ID: 7, Email: "a@x.com"}, nil)
			},
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &authenticatorMock{}
			if tt.setup != nil {
				tt.setup(m)
			}

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				user, ok := UserFromContext(r.Context())
				require.True(t, ok)
				assert.Equal(t, int64(7), user.ID)

				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			New(log, m)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			m.AssertExpectations(t)
		})
	}
}
