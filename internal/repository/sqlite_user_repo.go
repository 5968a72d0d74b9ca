package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"go-user-service/internal/model"
)

// SQLiteUserRepository is the user store backed by a SQLite file. Timestamps
// are kept as unix milliseconds.
type SQLiteUserRepository struct {
	db *sql.DB
}

func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteUser(row sqlScanner) (model.User, error) {
	var (
		u         model.User
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.IsActive, &u.IsSuperuser, &createdAt, &updatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func (r *SQLiteUserRepository) FindByID(ctx context.Context, id int64) (model.User, error) {
	u, err := scanSQLiteUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))

	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

func (r *SQLiteUserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	u, err := scanSQLiteUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, model.NormalizeEmail(email)))

	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user by email: %w", model.ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by email: %w", err)
	}
	return u, nil
}

func (r *SQLiteUserRepository) Insert(ctx context.Context, u model.User) (model.User, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (email, hashed_password, full_name, is_active, is_superuser, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		model.NormalizeEmail(u.Email), u.PasswordHash, u.FullName, u.IsActive, u.IsSuperuser, toMillis(now), toMillis(now))
	if isSQLiteUniqueViolation(err) {
		return model.User{}, fmt.Errorf("insert user: %w", model.ErrEmailTaken)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, fmt.Errorf("insert user id: %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *SQLiteUserRepository) Update(ctx context.Context, u model.User) (model.User, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET email = ?, hashed_password = ?, full_name = ?, is_active = ?, is_superuser = ?, updated_at = ?
		 WHERE id = ?`,
		model.NormalizeEmail(u.Email), u.PasswordHash, u.FullName, u.IsActive, u.IsSuperuser, toMillis(time.Now().UTC()), u.ID)
	if isSQLiteUniqueViolation(err) {
		return model.User{}, fmt.Errorf("update user: %w", model.ErrEmailTaken)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return model.User{}, fmt.Errorf("user %d: %w", u.ID, model.ErrNotFound)
	}
	return r.FindByID(ctx, u.ID)
}

func (r *SQLiteUserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %d: %w", id, model.ErrNotFound)
	}
	return nil
}

func (r *SQLiteUserRepository) List(ctx context.Context, offset int, limit int) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *SQLiteUserRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return count, nil
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

func isSQLiteUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_UNIQUE, sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
