package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go-user-service/internal/auth"
	"go-user-service/internal/model"
	"go-user-service/pkg/apierror"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// errorTable maps domain errors to responses. Order matters only where one
// error wraps another.
var errorTable = []errorMapping{
	{model.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Incorrect email or password"},
	{model.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Not authenticated"},
	{model.ErrInactive, http.StatusBadRequest, "INACTIVE", "Inactive user"},
	{model.ErrForbidden, http.StatusForbidden, "FORBIDDEN", "The user doesn't have enough privileges"},
	{model.ErrInvalidToken, http.StatusForbidden, "FORBIDDEN", "Could not validate credentials"},
	{model.ErrExpiredToken, http.StatusForbidden, "FORBIDDEN", "Could not validate credentials"},
	{model.ErrNotFound, http.StatusNotFound, "NOT_FOUND", "User not found"},
	{model.ErrEmailTaken, http.StatusBadRequest, "EMAIL_TAKEN", "The user with this email already exists in the system"},
	{model.ErrWeakPassword, http.StatusUnprocessableEntity, "WEAK_PASSWORD", "Password does not meet requirements"},
	{model.ErrInvalidInput, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid input"},
}

// WriteError is the single place errors become HTTP responses. Middleware
// uses it too so that gate failures look the same everywhere.
func WriteError(w http.ResponseWriter, err error) {
	writeError(w, err)
}

func classify(err error) (int, *model.APIError) {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatus, &model.APIError{Code: apiErr.Code, Message: apiErr.Message, Details: apiErr.Details}
	}

	for _, m := range errorTable {
		if !errors.Is(err, m.target) {
			continue
		}
		body := &model.APIError{Code: m.code, Message: m.message}

		var policyErr *auth.PolicyError
		if errors.As(err, &policyErr) {
			body.Details = strings.Join(policyErr.Unmet, "; ")
		}
		return m.status, body
	}

	// Log unclassified errors so they are visible in container logs.
	slog.Error("unhandled error in writeError", "error", err.Error())
	return http.StatusInternalServerError, &model.APIError{
		Code:    "INTERNAL_ERROR",
		Message: "Unexpected server error",
	}
}

func validationError(err error) error {
	return apierror.Wrap(model.ErrInvalidInput, "VALIDATION_ERROR", "Request validation failed", err.Error(), http.StatusUnprocessableEntity)
}
