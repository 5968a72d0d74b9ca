package auth

import "go-user-service/internal/model"

// Decision is the outcome of a permitted self-or-superuser check.
type Decision struct {
	// Self is true when the actor is the target. The target record then needs
	// no lookup.
	Self bool
}

func RequireActive(u model.User) error {
	if !u.IsActive {
		return model.ErrInactive
	}
	return nil
}

func RequireSuperuser(u model.User) error {
	if !u.IsSuperuser {
		return model.ErrForbidden
	}
	return nil
}

// RequireSelfOrSuperuser permits the actor to reach targetID when it is their
// own id or they are a superuser. It must run before any lookup of the target,
// so a normal user gets ErrForbidden whether or not targetID exists.
func RequireSelfOrSuperuser(u model.User, targetID int64) (Decision, error) {
	if u.ID == targetID {
		return Decision{Self: true}, nil
	}
	if u.IsSuperuser {
		return Decision{}, nil
	}
	return Decision{}, model.ErrForbidden
}
