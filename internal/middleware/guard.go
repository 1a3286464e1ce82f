package middleware

import (
	"context"
	"net/http"

	"github.com/librarium/backend/internal/models"
	"github.com/librarium/backend/internal/session"
)

type contextKey string

const identityKey contextKey = "identity"

// loginPath is where unauthenticated requests are sent
const loginPath = "/auth/login"

// SessionReader resolves the authenticated identity for a request
type SessionReader interface {
	Resolve(r *http.Request) (session.Identity, bool)
}

// RequireAuth redirects unauthenticated requests to the login page and
// injects the resolved identity into the request context. It never mutates
// session state.
func RequireAuth(sessions SessionReader) func(http.Handler) http.Handler {
	return requireRole(sessions, "")
}

// RequireRole additionally redirects authenticated requests whose session
// role does not match to the application root. The two redirect targets are
// deliberately distinct: absent session goes to the login page, wrong role
// goes to "/".
func RequireRole(sessions SessionReader, role models.Role) func(http.Handler) http.Handler {
	return requireRole(sessions, role)
}

func requireRole(sessions SessionReader, role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := sessions.Resolve(r)
			if !ok {
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}

			if role != "" && identity.Role != role {
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity retrieves the authenticated identity from context
func GetIdentity(ctx context.Context) (session.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(session.Identity)
	return identity, ok
}
