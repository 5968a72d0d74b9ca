package model

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const maxFullNameLength = 200

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.FullName, validation.Required, validation.Length(1, maxFullNameLength)),
	)
}

// CreateUserRequest is the superuser variant of registration and may set the
// account flags directly.
type CreateUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"full_name"`
	IsActive    *bool  `json:"is_active"`
	IsSuperuser bool   `json:"is_superuser"`
}

func (r CreateUserRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.FullName, validation.Length(0, maxFullNameLength)),
	)
}

func (p UserUpdate) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.NilOrNotEmpty, validation.Length(3, 254), is.Email),
		validation.Field(&p.FullName, validation.Length(0, maxFullNameLength)),
		validation.Field(&p.Password, validation.NilOrNotEmpty),
	)
}

type ListUsersQuery struct {
	Skip  int
	Limit int
}

func (q ListUsersQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Skip, validation.Min(0)),
		validation.Field(&q.Limit, validation.Min(0), validation.Max(100)),
	)
}
