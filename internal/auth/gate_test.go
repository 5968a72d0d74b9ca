package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"go-user-service/internal/model"
)

func TestRequireActive(t *testing.T) {
	t.Parallel()

	require.NoError(t, RequireActive(model.User{ID: 1, IsActive: true}))
	require.ErrorIs(t, RequireActive(model.User{ID: 1}), model.ErrInactive)
}

func TestRequireSuperuser(t *testing.T) {
	t.Parallel()

	require.NoError(t, RequireSuperuser(model.User{ID: 1, IsSuperuser: true}))
	require.ErrorIs(t, RequireSuperuser(model.User{ID: 1, IsActive: true}), model.ErrForbidden)
}

func TestRequireSelfOrSuperuser(t *testing.T) {
	t.Parallel()

	normal := model.User{ID: 10, IsActive: true}
	super := model.User{ID: 1, IsActive: true, IsSuperuser: true}

	t.Run("self is permitted without lookup", func(t *testing.T) {
		decision, err := RequireSelfOrSuperuser(normal, 10)
		require.NoError(t, err)
		require.True(t, decision.Self)
	})

	t.Run("normal user reaching another id is forbidden", func(t *testing.T) {
		_, err := RequireSelfOrSuperuser(normal, 11)
		require.ErrorIs(t, err, model.ErrForbidden)

		_, err = RequireSelfOrSuperuser(normal, 999999)
		require.ErrorIs(t, err, model.ErrForbidden)
	})

	t.Run("superuser is permitted for any id", func(t *testing.T) {
		decision, err := RequireSelfOrSuperuser(super, 999999)
		require.NoError(t, err)
		require.False(t, decision.Self)
	})

	t.Run("superuser reading self", func(t *testing.T) {
		decision, err := RequireSelfOrSuperuser(super, 1)
		require.NoError(t, err)
		require.True(t, decision.Self)
	})
}

type stubFinder struct {
	users map[int64]model.User
	err   error
	calls int
}

func (s *stubFinder) FindByID(_ context.Context, id int64) (model.User, error) {
	s.calls++
	if s.err != nil {
		return model.User{}, s.err
	}
	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrNotFound
	}
	return u, nil
}

func TestResolver(t *testing.T) {
	t.Parallel()

	t.Run("resolves stored user", func(t *testing.T) {
		finder := &stubFinder{users: map[int64]model.User{5: {ID: 5, Email: "a@x.com"}}}
		user, err := NewResolver(finder).Resolve(context.Background(), "5")
		require.NoError(t, err)
		require.Equal(t, "a@x.com", user.Email)
		require.Equal(t, 1, finder.calls)
	})

	t.Run("vanished subject is not found", func(t *testing.T) {
		finder := &stubFinder{users: map[int64]model.User{}}
		_, err := NewResolver(finder).Resolve(context.Background(), "5")
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("non numeric subject is an invalid token", func(t *testing.T) {
		finder := &stubFinder{}
		for _, subject := range []string{"", "abc", "-3", "0", "1.5"} {
			_, err := NewResolver(finder).Resolve(context.Background(), subject)
			require.ErrorIs(t, err, model.ErrInvalidToken, subject)
		}
		require.Zero(t, finder.calls)
	})

	t.Run("store failure is wrapped", func(t *testing.T) {
		boom := errors.New("connection reset")
		_, err := NewResolver(&stubFinder{err: boom}).Resolve(context.Background(), "5")
		require.ErrorIs(t, err, boom)
		require.NotErrorIs(t, err, model.ErrNotFound)
	})
}
