package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"contacts_api/internal/models"
	"contacts_api/internal/storage"
	"contacts_api/internal/storage/postgres/migrations"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

const uniqueViolation = "23505"

type PostgresRepo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return &PostgresRepo{pool: pool}, nil
}

// Migrate applies the embedded goose migrations.
func (r *PostgresRepo) Migrate(ctx context.Context) error {
	const op = "storage.postgres.Migrate"

	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

const userColumns = `id, email, password_hash, subscription, avatar_url, verified,
	COALESCE(verification_token, ''), COALESCE(session_token, '')`

func scanUser(row pgx.Row) (models.User, error) {
	var u models.User

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PassHash,
		&u.Subscription,
		&u.AvatarURL,
		&u.Verified,
		&u.VerificationToken,
		&u.SessionToken,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, err
	}

	return u, nil
}

func (r *PostgresRepo) SaveUser(ctx context.Context, user models.User) (models.User, error) {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (email, password_hash, subscription, avatar_url, verified, verification_token)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
		RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query,
		user.Email,
		user.PassHash,
		user.Subscription,
		user.AvatarURL,
		user.Verified,
		user.VerificationToken,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, storage.ErrUserExists
		}

		return models.User{}, fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return u, nil
}

func (r *PostgresRepo) User(ctx context.Context, email string) (models.User, error) {
	const op = "storage.postgres.User"

	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *PostgresRepo) UserByID(ctx context.Context, id int64) (models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *PostgresRepo) UserByVerificationToken(ctx context.Context, token string) (models.User, error) {
	const op = "storage.postgres.UserByVerificationToken"

	if token == "" {
		return models.User{}, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE verification_token = $1`

	u, err := scanUser(r.pool.QueryRow(ctx, query, token))
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// UpdateUser merges the non-nil patch fields in one statement. Empty token
// strings are stored as NULL.
func (r *PostgresRepo) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (models.User, error) {
	const op = "storage.postgres.UpdateUser"

	query := `
		UPDATE users SET
			verified = COALESCE($2, verified),
			verification_token = CASE WHEN $3::text IS NULL THEN verification_token ELSE NULLIF($3::text, '') END,
			session_token = CASE WHEN $4::text IS NULL THEN session_token ELSE NULLIF($4::text, '') END,
			avatar_url = COALESCE($5, avatar_url),
			subscription = COALESCE($6, subscription),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	u, err := scanUser(r.pool.QueryRow(ctx, query,
		id,
		patch.Verified,
		patch.VerificationToken,
		patch.SessionToken,
		patch.AvatarURL,
		patch.Subscription,
	))
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}
