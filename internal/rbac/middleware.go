package rbac

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/storefront/storefront/internal/platform/httpx"
	"github.com/storefront/storefront/internal/shared"
)

// ResourceFunc derives the targeted resource from a request.
type ResourceFunc func(r *http.Request) Resource

// NoResource is used by actions that do not target an owned object.
func NoResource(*http.Request) Resource { return Resource{} }

// OwnerFromURLParam reads the owner identity from a chi URL parameter.
func OwnerFromURLParam(name string) ResourceFunc {
	return func(r *http.Request) Resource {
		return Resource{OwnerID: chi.URLParam(r, name)}
	}
}

// Middleware wires policy checks into HTTP routes. It expects the
// authentication gate to have stored the identity in the request context.
type Middleware struct {
	Policy *Policy
	Logger *slog.Logger
}

// Require returns a middleware that lets the request through only when the
// policy allows action. Registering an action the policy does not know panics.
func (m Middleware) Require(action Action, resource ResourceFunc) func(http.Handler) http.Handler {
	if !m.Policy.Has(action) {
		panic(fmt.Sprintf("rbac: no rule registered for action %q", action))
	}
	if resource == nil {
		resource = NoResource
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := shared.IdentityFromContext(r.Context())
			if !ok {
				httpx.Unauthorized(w, httpx.MsgUnauthenticated)
				return
			}
			if m.Policy.Evaluate(action, resource(r), identity) == Allow {
				next.ServeHTTP(w, r)
				return
			}
			if m.Logger != nil {
				m.Logger.Info("rbac denied",
					slog.String("action", string(action)),
					slog.String("user_id", identity.UserID),
					slog.String("role", string(identity.Role)))
			}
			httpx.Fail(w, http.StatusForbidden, httpx.MsgForbidden)
		})
	}
}
