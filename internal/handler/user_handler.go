package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"go-user-service/internal/middleware"
	"go-user-service/internal/model"
)

type userService interface {
	List(ctx context.Context, q model.ListUsersQuery) ([]model.User, model.Meta, error)
	Create(ctx context.Context, actor model.User, req model.CreateUserRequest) (model.User, error)
	Get(ctx context.Context, actor model.User, id int64) (model.User, error)
	UpdateSelf(ctx context.Context, actor model.User, patch model.UserUpdate) (model.User, error)
	Update(ctx context.Context, actor model.User, id int64, patch model.UserUpdate) (model.User, error)
	Delete(ctx context.Context, actor model.User, id int64) error
}

type UserHandler struct {
	service userService
}

func NewUserHandler(service userService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	query, err := parseListQuery(r)
	if err != nil {
		writeError(w, validationError(err))
		return
	}
	if err := query.Validate(); err != nil {
		writeError(w, validationError(err))
		return
	}

	users, meta, err := h.service.List(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, model.UserList{Users: users}, &meta)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	var payload model.CreateUserRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeError(w, err)
		return
	}
	if err := payload.Validate(); err != nil {
		writeError(w, validationError(err))
		return
	}

	user, err := h.service.Create(r.Context(), actor, payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, nil)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeSuccess(w, http.StatusOK, actor, nil)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}

	patch, ok := decodePatch(w, r)
	if !ok {
		return
	}

	user, err := h.service.UpdateSelf(r.Context(), actor, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.service.Get(r.Context(), actor, id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	patch, ok := decodePatch(w, r)
	if !ok {
		return
	}

	user, err := h.service.Update(r.Context(), actor, id, patch)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, user, nil)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), actor, id); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func currentUser(w http.ResponseWriter, r *http.Request) (model.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
	}
	return user, ok
}

func decodePatch(w http.ResponseWriter, r *http.Request) (model.UserUpdate, bool) {
	var patch model.UserUpdate
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, err)
		return model.UserUpdate{}, false
	}
	if err := patch.Validate(); err != nil {
		writeError(w, validationError(err))
		return model.UserUpdate{}, false
	}
	return patch, true
}

func parseUserID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, validationError(invalidParam("id", "must be a positive integer"))
	}
	return id, nil
}

func parseListQuery(r *http.Request) (model.ListUsersQuery, error) {
	var q model.ListUsersQuery
	values := r.URL.Query()

	for name, dst := range map[string]*int{"skip": &q.Skip, "limit": &q.Limit} {
		raw := strings.TrimSpace(values.Get(name))
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return q, invalidParam(name, "must be an integer")
		}
		*dst = v
	}
	return q, nil
}

type paramError struct {
	name   string
	reason string
}

func (e paramError) Error() string {
	return e.name + ": " + e.reason + "."
}

func invalidParam(name string, reason string) error {
	return paramError{name: name, reason: reason}
}
