// Package auth holds the security core of the service: password hashing, the
// password policy, bearer token issuance and verification, identity resolution
// and the access gate rules. Nothing in here touches HTTP or a concrete store.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"go-user-service/internal/model"
)

const DefaultBcryptCost = 12

// Hasher is a salted, adaptive one-way password transform backed by bcrypt.
// The salt and cost travel inside the produced secret.
type Hasher struct {
	cost  int
	dummy []byte
}

func NewHasher(cost int) (*Hasher, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte("placeholder-credential"), cost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &Hasher{cost: cost, dummy: dummy}, nil
}

func (h *Hasher) Hash(password string) (string, error) {
	secret, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: password exceeds 72 bytes", model.ErrInvalidInput)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(secret), nil
}

// Verify reports whether password matches secret. A corrupt secret is a
// mismatch, never an error.
func (h *Hasher) Verify(password string, secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(secret), []byte(password)) == nil
}

// CompareDummy spends the same work as Verify against a fixed secret. Login
// calls it when no account matches so both failure paths cost the same.
func (h *Hasher) CompareDummy(password string) {
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}
