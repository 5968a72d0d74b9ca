package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go-user-service/internal/model"
)

const pgUniqueViolation = "23505"

const userColumns = `id, email, hashed_password, full_name, is_active, is_superuser, created_at, updated_at`

// UserRepository is the Postgres user store.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func scanUser(row pgx.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.IsActive, &u.IsSuperuser, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, model.NormalizeEmail(email)))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, fmt.Errorf("user by email: %w", model.ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *UserRepository) Insert(ctx context.Context, u model.User) (model.User, error) {
	now := time.Now().UTC()
	created, err := scanUser(r.pool.QueryRow(ctx,
		`INSERT INTO users (email, hashed_password, full_name, is_active, is_superuser, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 RETURNING `+userColumns,
		model.NormalizeEmail(u.Email), u.PasswordHash, u.FullName, u.IsActive, u.IsSuperuser, now))
	if isPgUniqueViolation(err) {
		return model.User{}, fmt.Errorf("insert user: %w", model.ErrEmailTaken)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (r *UserRepository) Update(ctx context.Context, u model.User) (model.User, error) {
	updated, err := scanUser(r.pool.QueryRow(ctx,
		`UPDATE users
		 SET email = $2, hashed_password = $3, full_name = $4, is_active = $5, is_superuser = $6, updated_at = $7
		 WHERE id = $1
		 RETURNING `+userColumns,
		u.ID, model.NormalizeEmail(u.Email), u.PasswordHash, u.FullName, u.IsActive, u.IsSuperuser, time.Now().UTC()))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %d: %w", u.ID, model.ErrNotFound)
	}
	if isPgUniqueViolation(err) {
		return model.User{}, fmt.Errorf("update user: %w", model.ErrEmailTaken)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	return updated, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, model.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context, offset int, limit int) ([]model.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func isPgUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
