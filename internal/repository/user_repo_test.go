package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"go-user-service/internal/database"
	"go-user-service/internal/model"
)

type userStore interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Insert(ctx context.Context, u model.User) (model.User, error)
	Update(ctx context.Context, u model.User) (model.User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, offset int, limit int) ([]model.User, error)
	Count(ctx context.Context) (int, error)
}

func newSQLiteRepo(t *testing.T) *SQLiteUserRepository {
	t.Helper()

	db, err := database.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)

	return NewSQLiteUserRepository(db.DB)
}

func TestSQLiteUserRepository(t *testing.T) {
	t.Parallel()

	runStoreContract(t, func(t *testing.T) userStore { return newSQLiteRepo(t) })
}

// Postgres runs the same contract when TEST_DATABASE_URL points at a
// disposable database.
func TestPostgresUserRepository(t *testing.T) {
	url := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	runStoreContract(t, func(t *testing.T) userStore {
		ctx := context.Background()
		db, err := database.New(ctx, url, 4, 1)
		require.NoError(t, err)
		t.Cleanup(db.Close)
		require.NoError(t, db.EnsureSchema(ctx))

		_, err = db.Pool.Exec(ctx, `TRUNCATE users RESTART IDENTITY`)
		require.NoError(t, err)

		return NewUserRepository(db.Pool)
	})
}

func runStoreContract(t *testing.T, open func(t *testing.T) userStore) {
	ctx := context.Background()

	t.Run("insert and find", func(t *testing.T) {
		repo := open(t)

		created, err := repo.Insert(ctx, model.User{
			Email:        "A@X.com",
			PasswordHash: "hash",
			FullName:     "A",
			IsActive:     true,
		})
		require.NoError(t, err)
		require.Positive(t, created.ID)
		require.Equal(t, "a@x.com", created.Email)
		require.True(t, created.IsActive)
		require.False(t, created.IsSuperuser)
		require.False(t, created.CreatedAt.IsZero())

		byID, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		require.Equal(t, created.Email, byID.Email)
		require.Equal(t, "hash", byID.PasswordHash)

		byEmail, err := repo.FindByEmail(ctx, "  a@X.COM ")
		require.NoError(t, err)
		require.Equal(t, created.ID, byEmail.ID)
	})

	t.Run("missing user", func(t *testing.T) {
		repo := open(t)

		_, err := repo.FindByID(ctx, 12345)
		require.ErrorIs(t, err, model.ErrNotFound)

		_, err = repo.FindByEmail(ctx, "nobody@x.com")
		require.ErrorIs(t, err, model.ErrNotFound)

		_, err = repo.Update(ctx, model.User{ID: 12345, Email: "n@x.com"})
		require.ErrorIs(t, err, model.ErrNotFound)

		require.ErrorIs(t, repo.Delete(ctx, 12345), model.ErrNotFound)
	})

	t.Run("duplicate email ignores case", func(t *testing.T) {
		repo := open(t)

		_, err := repo.Insert(ctx, model.User{Email: "dup@x.com", PasswordHash: "h", IsActive: true})
		require.NoError(t, err)

		_, err = repo.Insert(ctx, model.User{Email: "DUP@x.com", PasswordHash: "h", IsActive: true})
		require.ErrorIs(t, err, model.ErrEmailTaken)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, count)
	})

	t.Run("concurrent duplicate registration has one winner", func(t *testing.T) {
		repo := open(t)

		const workers = 8
		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			won    int
			taken  int
			others []error
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Insert(ctx, model.User{Email: "race@x.com", PasswordHash: "h", IsActive: true})
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					won++
				case isEmailTaken(err):
					taken++
				default:
					others = append(others, err)
				}
			}()
		}
		wg.Wait()

		require.Empty(t, others)
		require.Equal(t, 1, won)
		require.Equal(t, workers-1, taken)
	})

	t.Run("update and email conflict", func(t *testing.T) {
		repo := open(t)

		first, err := repo.Insert(ctx, model.User{Email: "first@x.com", PasswordHash: "h", IsActive: true})
		require.NoError(t, err)
		_, err = repo.Insert(ctx, model.User{Email: "second@x.com", PasswordHash: "h", IsActive: true})
		require.NoError(t, err)

		first.FullName = "Renamed"
		first.IsSuperuser = true
		updated, err := repo.Update(ctx, first)
		require.NoError(t, err)
		require.Equal(t, "Renamed", updated.FullName)
		require.True(t, updated.IsSuperuser)

		updated.Email = "Second@x.com"
		_, err = repo.Update(ctx, updated)
		require.ErrorIs(t, err, model.ErrEmailTaken)
	})

	t.Run("list pages in id order and delete", func(t *testing.T) {
		repo := open(t)

		ids := make([]int64, 0, 3)
		for _, email := range []string{"u1@x.com", "u2@x.com", "u3@x.com"} {
			u, err := repo.Insert(ctx, model.User{Email: email, PasswordHash: "h", IsActive: true})
			require.NoError(t, err)
			ids = append(ids, u.ID)
		}

		page, err := repo.List(ctx, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		require.Equal(t, ids[1], page[0].ID)

		all, err := repo.List(ctx, 0, 100)
		require.NoError(t, err)
		require.Len(t, all, 3)

		require.NoError(t, repo.Delete(ctx, ids[0]))
		count, err := repo.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, count)
	})
}

func isEmailTaken(err error) bool {
	return errors.Is(err, model.ErrEmailTaken)
}
