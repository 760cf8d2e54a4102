// Package contacts manages the contact records of authenticated accounts.
// Every operation is scoped to the owner id taken from the session.
package contacts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	sl "contacts_api/internal/lib/logger"
	"contacts_api/internal/models"
	"contacts_api/internal/storage"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

var (
	ErrNotFound    = errors.New("contact not found")
	ErrEmptyBody   = errors.New("body must have at least one field")
	ErrInvalidPage = errors.New("invalid pagination")
)

type Store interface {
	SaveContact(ctx context.Context, c models.Contact) (models.Contact, error)
	Contacts(ctx context.Context, owner int64, skip, limit int) ([]models.Contact, error)
	Contact(ctx context.Context, owner, id int64) (models.Contact, error)
	UpdateContact(ctx context.Context, owner, id int64, patch models.ContactPatch) (models.Contact, error)
	DeleteContact(ctx context.Context, owner, id int64) (models.Contact, error)
}

type Service struct {
	log   *slog.Logger
	store Store
}

func New(log *slog.Logger, store Store) *Service {
	return &Service{log: log, store: store}
}

// Page is a 1-based page request. Zero values take the defaults.
type Page struct {
	Page  int
	Limit int
}

// Bounds converts the page into a skip/limit pair. Limits above MaxLimit
// and pages whose offset does not fit an int return ErrInvalidPage.
func (p Page) Bounds() (skip, limit int, err error) {
	page, limit := p.Page, p.Limit
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	if limit > MaxLimit {
		return 0, 0, fmt.Errorf("%w: limit must not exceed %d", ErrInvalidPage, MaxLimit)
	}
	if page-1 > math.MaxInt/limit {
		return 0, 0, fmt.Errorf("%w: page %d is out of range", ErrInvalidPage, page)
	}

	return (page - 1) * limit, limit, nil
}

type Input struct {
	Name     string
	Email    string
	Phone    string
	Favorite bool
}

func (s *Service) List(ctx context.Context, owner int64, page Page) ([]models.Contact, error) {
	const op = "contacts.List"

	skip, limit, err := page.Bounds()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.store.Contacts(ctx, owner, skip, limit)
	if err != nil {
		s.log.Error("failed to list contacts", slog.String("op", op), sl.Err(err))

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

func (s *Service) Get(ctx context.Context, owner, id int64) (models.Contact, error) {
	const op = "contacts.Get"

	c, err := s.store.Contact(ctx, owner, id)
	if err != nil {
		return models.Contact{}, s.wrap(op, err)
	}

	return c, nil
}

func (s *Service) Create(ctx context.Context, owner int64, in Input) (models.Contact, error) {
	const op = "contacts.Create"

	c, err := s.store.SaveContact(ctx, models.Contact{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Favorite: in.Favorite,
		Owner:    owner,
	})
	if err != nil {
		s.log.Error("failed to save contact", slog.String("op", op), sl.Err(err))

		return models.Contact{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("contact created", slog.String("op", op), slog.Int64("owner", owner), slog.Int64("id", c.ID))

	return c, nil
}

func (s *Service) Update(ctx context.Context, owner, id int64, patch models.ContactPatch) (models.Contact, error) {
	const op = "contacts.Update"

	if patch.Empty() {
		return models.Contact{}, fmt.Errorf("%s: %w", op, ErrEmptyBody)
	}

	c, err := s.store.UpdateContact(ctx, owner, id, patch)
	if err != nil {
		return models.Contact{}, s.wrap(op, err)
	}

	return c, nil
}

func (s *Service) UpdateFavorite(ctx context.Context, owner, id int64, favorite bool) (models.Contact, error) {
	const op = "contacts.UpdateFavorite"

	c, err := s.store.UpdateContact(ctx, owner, id, models.ContactPatch{Favorite: &favorite})
	if err != nil {
		return models.Contact{}, s.wrap(op, err)
	}

	return c, nil
}

func (s *Service) Delete(ctx context.Context, owner, id int64) error {
	const op = "contacts.Delete"

	if _, err := s.store.DeleteContact(ctx, owner, id); err != nil {
		return s.wrap(op, err)
	}

	s.log.Info("contact deleted", slog.String("op", op), slog.Int64("owner", owner), slog.Int64("id", id))

	return nil
}

func (s *Service) wrap(op string, err error) error {
	if errors.Is(err, storage.ErrContactNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	s.log.Error("contact store failure", slog.String("op", op), sl.Err(err))

	return fmt.Errorf("%s: %w", op, err)
}
