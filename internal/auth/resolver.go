package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go-user-service/internal/model"
)

type UserFinder interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
}

// Resolver maps a verified subject claim to the stored user. Every call is one
// store lookup; nothing is cached.
type Resolver struct {
	users UserFinder
}

func NewResolver(users UserFinder) *Resolver {
	return &Resolver{users: users}
}

func (r *Resolver) Resolve(ctx context.Context, subject string) (model.User, error) {
	id, err := ParseSubject(subject)
	if err != nil {
		return model.User{}, err
	}

	user, err := r.users.FindByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.User{}, model.ErrNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("resolve subject: %w", err)
	}

	return user, nil
}

func ParseSubject(subject string) (int64, error) {
	id, err := strconv.ParseInt(subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: subject %q is not a user id", model.ErrInvalidToken, subject)
	}
	return id, nil
}
