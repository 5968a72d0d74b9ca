package model

import (
	"strings"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	IsActive     bool      `json:"is_active"`
	IsSuperuser  bool      `json:"is_superuser"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserUpdate is a partial update. Nil fields are left untouched.
type UserUpdate struct {
	Email       *string `json:"email,omitempty"`
	FullName    *string `json:"full_name,omitempty"`
	Password    *string `json:"password,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsSuperuser *bool   `json:"is_superuser,omitempty"`
}

// ApplyTo merges the set fields into u. Password is not applied here: it has
// to be hashed first and is written to PasswordHash by the caller.
func (p UserUpdate) ApplyTo(u *User) {
	if p.Email != nil {
		u.Email = NormalizeEmail(*p.Email)
	}
	if p.FullName != nil {
		u.FullName = strings.TrimSpace(*p.FullName)
	}
	if p.IsActive != nil {
		u.IsActive = *p.IsActive
	}
	if p.IsSuperuser != nil {
		u.IsSuperuser = *p.IsSuperuser
	}
}

// SelfUpdate drops the privilege fields so a user editing their own profile
// can only touch email, name and password.
func (p UserUpdate) SelfUpdate() UserUpdate {
	return UserUpdate{Email: p.Email, FullName: p.FullName, Password: p.Password}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type UserList struct {
	Users []User `json:"users"`
}
