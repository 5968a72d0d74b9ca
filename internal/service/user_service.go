package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go-user-service/internal/auth"
	"go-user-service/internal/event"
	"go-user-service/internal/model"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

type UserService struct {
	users  UserStore
	hasher *auth.Hasher
	bus    event.Bus
}

func NewUserService(users UserStore, hasher *auth.Hasher, bus event.Bus) *UserService {
	return &UserService{users: users, hasher: hasher, bus: bus}
}

// List returns one page of users in id order along with the total count.
func (s *UserService) List(ctx context.Context, q model.ListUsersQuery) ([]model.User, model.Meta, error) {
	if q.Skip < 0 {
		q.Skip = 0
	}
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Limit > MaxListLimit {
		q.Limit = MaxListLimit
	}

	users, err := s.users.List(ctx, q.Skip, q.Limit)
	if err != nil {
		return nil, model.Meta{}, err
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, model.Meta{}, err
	}

	return users, model.Meta{Skip: q.Skip, Limit: q.Limit, Total: total}, nil
}

// Create adds an account on behalf of a superuser. Unlike registration the
// caller may choose the account flags; new accounts are active by default.
func (s *UserService) Create(ctx context.Context, actor model.User, req model.CreateUserRequest) (model.User, error) {
	if err := auth.CheckPassword(req.Password); err != nil {
		return model.User{}, err
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.User{}, err
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	user, err := s.users.Insert(ctx, model.User{
		Email:        model.NormalizeEmail(req.Email),
		PasswordHash: hashed,
		FullName:     strings.TrimSpace(req.FullName),
		IsActive:     active,
		IsSuperuser:  req.IsSuperuser,
	})
	if err != nil {
		return model.User{}, err
	}

	slog.Info("user created", "user_id", user.ID, "actor_id", actor.ID, "superuser", user.IsSuperuser)
	publish(s.bus, event.TypeUserCreated, actor.ID, user)
	return user, nil
}

// Get reads a user by id. The permission check runs before any lookup, so a
// non-superuser cannot tell missing ids from ids that belong to others.
func (s *UserService) Get(ctx context.Context, actor model.User, id int64) (model.User, error) {
	decision, err := auth.RequireSelfOrSuperuser(actor, id)
	if err != nil {
		return model.User{}, err
	}
	if decision.Self {
		return actor, nil
	}

	user, err := s.users.FindByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateSelf applies a profile edit made by the actor on their own account.
// Privilege fields in the patch are ignored.
func (s *UserService) UpdateSelf(ctx context.Context, actor model.User, patch model.UserUpdate) (model.User, error) {
	return s.apply(ctx, actor.ID, actor, patch.SelfUpdate())
}

// Update applies a superuser edit to any account.
func (s *UserService) Update(ctx context.Context, actor model.User, id int64, patch model.UserUpdate) (model.User, error) {
	current, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	return s.apply(ctx, actor.ID, current, patch)
}

func (s *UserService) Delete(ctx context.Context, actor model.User, id int64) error {
	current, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	slog.Info("user deleted", "user_id", id, "actor_id", actor.ID)
	publish(s.bus, event.TypeUserDeleted, actor.ID, current)
	return nil
}

// EnsureSuperuser creates the bootstrap superuser when no account uses email.
// An existing account is left as it is. It reports whether a user was created.
func (s *UserService) EnsureSuperuser(ctx context.Context, email string, password string) (bool, error) {
	email = model.NormalizeEmail(email)
	if email == "" {
		return false, nil
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		if !existing.IsSuperuser {
			slog.Warn("bootstrap superuser email belongs to a regular account", "user_id", existing.ID)
		}
		return false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return false, fmt.Errorf("seed superuser: %w", err)
	}

	active := true
	user, err := s.Create(ctx, model.User{}, model.CreateUserRequest{
		Email:       email,
		Password:    password,
		IsActive:    &active,
		IsSuperuser: true,
	})
	if errors.Is(err, model.ErrEmailTaken) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("seed superuser: %w", err)
	}

	slog.Info("bootstrap superuser created", "user_id", user.ID)
	return true, nil
}

func (s *UserService) apply(ctx context.Context, actorID int64, current model.User, patch model.UserUpdate) (model.User, error) {
	if patch.Password != nil {
		if err := auth.CheckPassword(*patch.Password); err != nil {
			return model.User{}, err
		}
		hashed, err := s.hasher.Hash(*patch.Password)
		if err != nil {
			return model.User{}, err
		}
		current.PasswordHash = hashed
	}
	patch.ApplyTo(&current)

	updated, err := s.users.Update(ctx, current)
	if err != nil {
		return model.User{}, err
	}

	publish(s.bus, event.TypeUserUpdated, actorID, updated)
	return updated, nil
}
