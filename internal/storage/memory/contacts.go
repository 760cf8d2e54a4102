package memory

import (
	"context"

	"contacts_api/internal/models"
	"contacts_api/internal/storage"
)

func (s *Storage) SaveContact(_ context.Context, c models.Contact) (models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastContact++
	c.ID = s.lastContact

	s.contacts[c.ID] = c
	s.contactIDs = append(s.contactIDs, c.ID)

	return c, nil
}

// Contacts lists owner's contacts in insertion order.
func (s *Storage) Contacts(_ context.Context, owner int64, skip, limit int) ([]models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]models.Contact, 0)

	for _, id := range s.contactIDs {
		c, ok := s.contacts[id]
		if !ok || c.Owner != owner {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		if len(res) == limit {
			break
		}
		res = append(res, c)
	}

	return res, nil
}

func (s *Storage) Contact(_ context.Context, owner, id int64) (models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contacts[id]
	if !ok || c.Owner != owner {
		return models.Contact{}, storage.ErrContactNotFound
	}

	return c, nil
}

func (s *Storage) UpdateContact(_ context.Context, owner, id int64, patch models.ContactPatch) (models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contacts[id]
	if !ok || c.Owner != owner {
		return models.Contact{}, storage.ErrContactNotFound
	}

	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.Email != nil {
		c.Email = *patch.Email
	}
	if patch.Phone != nil {
		c.Phone = *patch.Phone
	}
	if patch.Favorite != nil {
		c.Favorite = *patch.Favorite
	}

	s.contacts[id] = c

	return c, nil
}

func (s *Storage) DeleteContact(_ context.Context, owner, id int64) (models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contacts[id]
	if !ok || c.Owner != owner {
		return models.Contact{}, storage.ErrContactNotFound
	}

	delete(s.contacts, id)

	for i, cid := range s.contactIDs {
		if cid == id {
			s.contactIDs = append(s.contactIDs[:i], s.contactIDs[i+1:]...)
			break
		}
	}

	return c, nil
}
