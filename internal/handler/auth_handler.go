package handler

import (
	"context"
	"mime"
	"net/http"

	"go-user-service/internal/model"
	"go-user-service/pkg/apierror"
)

type authService interface {
	Login(ctx context.Context, email string, password string) (model.Token, error)
	Register(ctx context.Context, req model.RegisterRequest) (model.Token, error)
}

type AuthHandler struct {
	service authService
}

func NewAuthHandler(service authService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login accepts either a JSON body or the OAuth2 password form, where the
// email travels in the username field.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload model.LoginRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := parseLoginForm(w, r, mediaType); err != nil {
			writeError(w, apierror.BadRequest("invalid form body", err.Error()))
			return
		}
		payload.Email = r.PostFormValue("username")
		payload.Password = r.PostFormValue("password")
	default:
		if err := decodeJSON(w, r, &payload); err != nil {
			writeError(w, err)
			return
		}
	}

	if err := payload.Validate(); err != nil {
		writeError(w, validationError(err))
		return
	}

	token, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, token, nil)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload model.RegisterRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if err := payload.Validate(); err != nil {
		writeError(w, validationError(err))
		return
	}

	token, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, token, nil)
}

func parseLoginForm(w http.ResponseWriter, r *http.Request, mediaType string) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(maxBodyBytes)
	}
	return r.ParseForm()
}
