package postgres

import (
	"context"
	"errors"
	"fmt"

	"contacts_api/internal/models"
	"contacts_api/internal/storage"

	"github.com/jackc/pgx/v5"
)

const contactColumns = `id, name, email, phone, favorite, owner`

func scanContact(row pgx.Row) (models.Contact, error) {
	var c models.Contact

	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Favorite, &c.Owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Contact{}, storage.ErrContactNotFound
		}

		return models.Contact{}, err
	}

	return c, nil
}

func (r *PostgresRepo) SaveContact(ctx context.Context, c models.Contact) (models.Contact, error) {
	const op = "storage.postgres.SaveContact"

	query := `
		INSERT INTO contacts (name, email, phone, favorite, owner)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + contactColumns

	saved, err := scanContact(r.pool.QueryRow(ctx, query, c.Name, c.Email, c.Phone, c.Favorite, c.Owner))
	if err != nil {
		return models.Contact{}, fmt.Errorf("%s: %w", op, err)
	}

	return saved, nil
}

func (r *PostgresRepo) Contacts(ctx context.Context, owner int64, skip, limit int) ([]models.Contact, error) {
	const op = "storage.postgres.Contacts"

	query := `
		SELECT ` + contactColumns + `
		FROM contacts
		WHERE owner = $1
		ORDER BY id
		OFFSET $2 LIMIT $3`

	rows, err := r.pool.Query(ctx, query, owner, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	res := make([]models.Contact, 0)

	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

func (r *PostgresRepo) Contact(ctx context.Context, owner, id int64) (models.Contact, error) {
	const op = "storage.postgres.Contact"

	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = $1 AND owner = $2`

	c, err := scanContact(r.pool.QueryRow(ctx, query, id, owner))
	if err != nil {
		return models.Contact{}, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

func (r *PostgresRepo) UpdateContact(ctx context.Context, owner, id int64, patch models.ContactPatch) (models.Contact, error) {
	const op = "storage.postgres.UpdateContact"

	query := `
		UPDATE contacts SET
			name = COALESCE($3, name),
			email = COALESCE($4, email),
			phone = COALESCE($5, phone),
			favorite = COALESCE($6, favorite),
			updated_at = NOW()
		WHERE id = $1 AND owner = $2
		RETURNING ` + contactColumns

	c, err := scanContact(r.pool.QueryRow(ctx, query, id, owner, patch.Name, patch.Email, patch.Phone, patch.Favorite))
	if err != nil {
		return models.Contact{}, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}

func (r *PostgresRepo) DeleteContact(ctx context.Context, owner, id int64) (models.Contact, error) {
	const op = "storage.postgres.DeleteContact"

	query := `DELETE FROM contacts WHERE id = $1 AND owner = $2 RETURNING ` + contactColumns

	c, err := scanContact(r.pool.QueryRow(ctx, query, id, owner))
	if err != nil {
		return models.Contact{}, fmt.Errorf("%s: %w", op, err)
	}

	return c, nil
}
