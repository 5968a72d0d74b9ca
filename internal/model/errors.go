package model

import "errors"

var (
	// Credential and account errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactive           = errors.New("inactive user")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password does not meet policy")

	// Token errors. Both surface to callers as a generic denial.
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")

	// Permission/Access related errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrNotFound = errors.New("user not found")

	// Generic errors
	ErrInvalidInput = errors.New("invalid input")
)
