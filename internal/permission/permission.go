// Package permission holds the access rules shared by every resource:
// reads are open, writes need an authenticated actor, and only the owner
// or a superuser may change an object.
package permission

import (
	"errors"
	"net/http"

	"github.com/blog-api/internal/models"
)

var (
	// ErrNotAuthenticated is returned when a rule needs an actor and there is none
	ErrNotAuthenticated = errors.New("authentication credentials were not provided")
	// ErrPermissionDenied is returned when the actor is known but not allowed
	ErrPermissionDenied = errors.New("you do not have permission to perform this action")
)

// IsSafeMethod reports whether method is read-only
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// IsAuthenticated reports whether actor is a logged-in, active user
func IsAuthenticated(actor *models.User) bool {
	return actor != nil && actor.ID != 0 && actor.IsActive
}

// IsSuperuser reports whether actor bypasses ownership checks
func IsSuperuser(actor *models.User) bool {
	return IsAuthenticated(actor) && actor.IsSuperuser
}

// IsStaff reports whether actor may manage tags
func IsStaff(actor *models.User) bool {
	return IsAuthenticated(actor) && (actor.IsStaff || actor.IsSuperuser)
}

// IsOwnerOrSuperuser reports whether actor owns the object or is a superuser
func IsOwnerOrSuperuser(actor *models.User, ownerID uint) bool {
	if !IsAuthenticated(actor) {
		return false
	}
	return actor.IsSuperuser || actor.ID == ownerID
}

// IsOwnerOrReadOnlyOrSuperuser allows safe methods to anyone and writes to
// the owner or a superuser
func IsOwnerOrReadOnlyOrSuperuser(method string, actor *models.User, ownerID uint) bool {
	if IsSafeMethod(method) {
		return true
	}
	return IsOwnerOrSuperuser(actor, ownerID)
}

// Check turns a failed predicate into ErrNotAuthenticated or ErrPermissionDenied
// depending on whether there is an actor at all
func Check(actor *models.User, allowed bool) error {
	if allowed {
		return nil
	}
	if !IsAuthenticated(actor) {
		return ErrNotAuthenticated
	}
	return ErrPermissionDenied
}
