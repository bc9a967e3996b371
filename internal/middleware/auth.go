package middleware

import (
	"net/http"
	"strings"

	"github.com/clubm8/clubm8api/internal/auth"
	"github.com/clubm8/clubm8api/internal/model"
	"github.com/clubm8/clubm8api/internal/render"
)

// KeyVerifier checks API key credentials. It returns (nil, nil) when they
// do not identify an active user.
type KeyVerifier interface {
	VerifyAPIKey(username, key string) (*model.User, error)
}

// Credentials extracts API key credentials from either an
// "Authorization: ApiKey <username>:<key>" header or the username and
// api_key query parameters.
func Credentials(r *http.Request) (username, key string, ok bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, rest, found := strings.Cut(h, " ")
		if !found || !strings.EqualFold(scheme, "ApiKey") {
			return "", "", false
		}
		username, key, found = strings.Cut(strings.TrimSpace(rest), ":")
		if !found || username == "" || key == "" {
			return "", "", false
		}
		return username, key, true
	}
	q := r.URL.Query()
	username, key = q.Get("username"), q.Get("api_key")
	if username == "" || key == "" {
		return "", "", false
	}
	return username, key, true
}

// RequireAPIKey lets safe methods through untouched. Every other method
// must carry valid credentials (401 otherwise) for a user holding the
// model permission the method needs on resource (403 otherwise).
func RequireAPIKey(users KeyVerifier, resource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth.IsSafe(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			username, key, ok := Credentials(r)
			if !ok {
				render.Error(w, r, http.StatusUnauthorized, "authentication required")
				return
			}
			u, err := users.VerifyAPIKey(username, key)
			if err != nil {
				render.Error(w, r, http.StatusInternalServerError, "failed to verify credentials")
				return
			}
			if u == nil {
				render.Error(w, r, http.StatusUnauthorized, "invalid credentials")
				return
			}

			ac := auth.AuthContext{
				UserID:      u.ID,
				Username:    u.Username,
				IsSuperuser: u.IsSuperuser,
				Permissions: u.Permissions,
			}
			if codename := auth.Codename(r.Method, resource); codename != "" && !ac.HasPerm(codename) {
				render.Error(w, r, http.StatusForbidden, "permission "+codename+" required")
				return
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
