package users_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/storefront/internal/platform/httpx"
	"github.com/storefront/storefront/internal/rbac"
	"github.com/storefront/storefront/internal/shared"
	"github.com/storefront/storefront/internal/users"
)

// headerAuthn trusts X-Test-User / X-Test-Role; it stands in for the token gate.
func headerAuthn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Test-User")
		if id == "" {
			httpx.Unauthorized(w, httpx.MsgUnauthenticated)
			return
		}
		identity := shared.Identity{UserID: id, Role: shared.Role(r.Header.Get("X-Test-Role"))}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithIdentity(r.Context(), identity)))
	})
}

func newRouter(f fixture) http.Handler {
	h := users.NewHandler(nil, f.service, headerAuthn, rbac.Middleware{Policy: rbac.DefaultPolicy()})
	r := chi.NewRouter()
	r.Route("/user", h.MountRoutes)
	return r
}

func call(router http.Handler, method, path, userID string, role shared.Role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Test-User", userID)
		req.Header.Set("X-Test-Role", string(role))
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestMeReturnsOwnAccount(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	rr := call(router, http.MethodGet, "/user/", "u-1", shared.RoleUser, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "A", body["firstName"])
	assert.NotContains(t, rr.Body.String(), "hashed:")

	rr = call(router, http.MethodGet, "/user/", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestUpdateRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	rr := call(router, http.MethodPut, "/user/u-1", "u-2", shared.RoleAdmin, `{"firstName":"X"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = call(router, http.MethodPut, "/user/u-1", "u-1", shared.RoleUser, `{"firstName":"Ann"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"firstName":"Ann"`)
}

func TestUpdateRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	for _, body := range []string{`{"gender":"Other"}`, `{"photoUrl":"not a url"}`, `{`, `{}`} {
		rr := call(router, http.MethodPut, "/user/u-1", "u-1", shared.RoleUser, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Contains(t, rr.Body.String(), `"success":false`)
	}
}

func TestCartRoutes(t *testing.T) {
	f := newFixture(t)
	f.addProduct(t, "p-1", "Mug")
	router := newRouter(f)

	rr := call(router, http.MethodPost, "/user/cart/p-1", "u-1", shared.RoleUser, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"items":["p-1"]}`, rr.Body.String())

	rr = call(router, http.MethodPost, "/user/cart/p-1", "admin-1", shared.RoleAdmin, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = call(router, http.MethodGet, "/user/cart", "u-1", shared.RoleUser, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"title":"Mug"`)

	rr = call(router, http.MethodDelete, "/user/cart/p-1", "u-1", shared.RoleUser, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"items":[]}`, rr.Body.String())
}
