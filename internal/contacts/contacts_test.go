package contacts

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"

	"contacts_api/internal/models"
	"contacts_api/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() *Service {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), memory.New())
}

func TestPage_Bounds(t *testing.T) {
	tests := []struct {
		name      string
		page      Page
		wantSkip  int
		wantLimit int
		wantErr   bool
	}{
		{name: "defaults", page: Page{}, wantSkip: 0, wantLimit: 20},
		{name: "second page", page: Page{Page: 2, Limit: 20}, wantSkip: 20, wantLimit: 20},
		{name: "custom limit", page: Page{Page: 3, Limit: 5}, wantSkip: 10, wantLimit: 5},
		{name: "negative values", page: Page{Page: -1, Limit: -4}, wantSkip: 0, wantLimit: 20},
		{name: "max limit", page: Page{Page: 1, Limit: MaxLimit}, wantSkip: 0, wantLimit: MaxLimit},
		{name: "limit too large", page: Page{Page: 1, Limit: MaxLimit + 1}, wantErr: true},
		{name: "offset overflow", page: Page{Page: 1 << 62, Limit: 4}, wantErr: true},
		{name: "largest page", page: Page{Page: math.MaxInt, Limit: 1}, wantSkip: math.MaxInt - 1, wantLimit: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, limit, err := tt.page.Bounds()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPage)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantSkip, skip)
			assert.Equal(t, tt.wantLimit, limit)
			assert.GreaterOrEqual(t, skip, 0)
		})
	}
}

func TestService_ListRejectsOverflowingPage(t *testing.T) {
	s := newService()

	_, err := s.List(context.Background(), 1, Page{Page: 1 << 62, Limit: 4})
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestService_OwnerScoping(t *testing.T) {
	ctx := context.Background()
	s := newService()

	const ownerA, ownerB = int64(1), int64(2)

	c, err := s.Create(ctx, ownerA, Input{Name: "Ann", Email: "ann@x.com", Phone: "123"})
	require.NoError(t, err)
	assert.Equal(t, ownerA, c.Owner)
	assert.False(t, c.Favorite)

	list, err := s.List(ctx, ownerB, Page{})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.Get(ctx, ownerB, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	name := "Mallory"
	_, err = s.Update(ctx, ownerB, c.ID, models.ContactPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdateFavorite(ctx, ownerB, c.ID, true)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, s.Delete(ctx, ownerB, c.ID), ErrNotFound)

	got, err := s.Get(ctx, ownerA, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", got.Name)
	assert.False(t, got.Favorite)
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	s := newService()

	c, err := s.Create(ctx, 1, Input{Name: "Ann", Email: "ann@x.com", Phone: "123"})
	require.NoError(t, err)

	_, err = s.Update(ctx, 1, c.ID, models.ContactPatch{})
	assert.ErrorIs(t, err, ErrEmptyBody)

	phone := "456"
	got, err := s.Update(ctx, 1, c.ID, models.ContactPatch{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "456", got.Phone)
	assert.Equal(t, "Ann", got.Name)

	got, err = s.UpdateFavorite(ctx, 1, c.ID, true)
	require.NoError(t, err)
	assert.True(t, got.Favorite)
}

func TestService_ListPaginates(t *testing.T) {
	ctx := context.Background()
	s := newService()

	for i := 0; i < 25; i++ {
		_, err := s.Create(ctx, 1, Input{Name: "c", Email: "c@x.com", Phone: "1"})
		require.NoError(t, err)
	}

	first, err := s.List(ctx, 1, Page{})
	require.NoError(t, err)
	assert.Len(t, first, 20)

	second, err := s.List(ctx, 1, Page{Page: 2})
	require.NoError(t, err)
	assert.Len(t, second, 5)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	s := newService()

	c, err := s.Create(ctx, 1, Input{Name: "Ann", Email: "ann@x.com", Phone: "123"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, 1, c.ID))

	_, err = s.Get(ctx, 1, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
