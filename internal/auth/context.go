package auth

import (
	"context"
	"net/http"
	"slices"
)

type contextKey struct{}

// AuthContext is the identity attached to an authenticated write request.
type AuthContext struct {
	UserID      int64
	Username    string
	IsSuperuser bool
	Permissions []string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.UserID
}

// HasPerm reports whether the authenticated user holds codename.
// Superusers hold every permission.
func (ac AuthContext) HasPerm(codename string) bool {
	return ac.IsSuperuser || slices.Contains(ac.Permissions, codename)
}

// Codename returns the permission a method needs on a resource:
// add_<resource> for POST, change_<resource> for PUT and PATCH,
// delete_<resource> for DELETE. Safe methods need none and return "".
func Codename(method, resource string) string {
	switch method {
	case http.MethodPost:
		return "add_" + resource
	case http.MethodPut, http.MethodPatch:
		return "change_" + resource
	case http.MethodDelete:
		return "delete_" + resource
	default:
		return ""
	}
}

// IsSafe reports whether method only reads.
func IsSafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
