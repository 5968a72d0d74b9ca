package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go-user-service/internal/auth"
	"go-user-service/internal/event"
	"go-user-service/internal/model"
)

const tokenTypeBearer = "bearer"

// UserStore is the persistence the services need. Implementations must
// enforce case-insensitive email uniqueness and report violations as
// model.ErrEmailTaken.
type UserStore interface {
	FindByID(ctx context.Context, id int64) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Insert(ctx context.Context, u model.User) (model.User, error)
	Update(ctx context.Context, u model.User) (model.User, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, offset int, limit int) ([]model.User, error)
	Count(ctx context.Context) (int, error)
}

type AuthService struct {
	users    UserStore
	hasher   *auth.Hasher
	tokens   *auth.TokenIssuer
	resolver *auth.Resolver
	bus      event.Bus
}

func NewAuthService(users UserStore, hasher *auth.Hasher, tokens *auth.TokenIssuer, bus event.Bus) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		resolver: auth.NewResolver(users),
		bus:      bus,
	}
}

// Login exchanges credentials for an access token. An unknown email and a
// wrong password fail identically, including the time spent hashing.
func (s *AuthService) Login(ctx context.Context, email string, password string) (model.Token, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		s.hasher.CompareDummy(password)
		slog.Debug("login rejected", "reason", "unknown_email")
		return model.Token{}, model.ErrInvalidCredentials
	}
	if err != nil {
		return model.Token{}, fmt.Errorf("login: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		slog.Debug("login rejected", "reason", "bad_password", "user_id", user.ID)
		return model.Token{}, model.ErrInvalidCredentials
	}
	if err := auth.RequireActive(user); err != nil {
		slog.Debug("login rejected", "reason", "inactive", "user_id", user.ID)
		return model.Token{}, err
	}

	return s.tokenFor(user)
}

// Register creates an active, non-privileged account and logs it in.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.Token, error) {
	email := model.NormalizeEmail(req.Email)
	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return model.Token{}, model.ErrEmailTaken
	case !errors.Is(err, model.ErrNotFound):
		return model.Token{}, fmt.Errorf("register: %w", err)
	}

	if err := auth.CheckPassword(req.Password); err != nil {
		return model.Token{}, err
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.Token{}, err
	}

	// A concurrent registration can still win between the lookup and the
	// insert; the store's unique index reports it as ErrEmailTaken.
	user, err := s.users.Insert(ctx, model.User{
		Email:        email,
		PasswordHash: hashed,
		FullName:     strings.TrimSpace(req.FullName),
		IsActive:     true,
		IsSuperuser:  false,
	})
	if err != nil {
		return model.Token{}, err
	}

	slog.Info("user registered", "user_id", user.ID)
	publish(s.bus, event.TypeUserRegistered, user.ID, user)

	return s.tokenFor(user)
}

// Authenticate turns a bearer token into the stored user it names.
func (s *AuthService) Authenticate(ctx context.Context, token string) (model.User, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, model.ErrExpiredToken) {
			slog.Debug("token rejected", "reason", "expired")
		} else {
			slog.Warn("token rejected", "reason", "invalid")
		}
		return model.User{}, err
	}
	return s.resolver.Resolve(ctx, subject)
}

func (s *AuthService) tokenFor(user model.User) (model.Token, error) {
	signed, _, err := s.tokens.Issue(user.ID)
	if err != nil {
		return model.Token{}, fmt.Errorf("issue token: %w", err)
	}
	return model.Token{
		AccessToken: signed,
		TokenType:   tokenTypeBearer,
		ExpiresIn:   int64(s.tokens.TTL() / time.Second),
	}, nil
}

func publish(bus event.Bus, t event.Type, actorID int64, user model.User) {
	if bus == nil {
		return
	}
	bus.Publish(event.New(t, actorID, event.UserPayload{
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
	}))
}
