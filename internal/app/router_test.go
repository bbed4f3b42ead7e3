package app_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/storefront/internal/app"
	jobmetrics "github.com/storefront/storefront/internal/jobs"
	"github.com/storefront/storefront/internal/observability"
	"github.com/storefront/storefront/internal/products/productstest"
	"github.com/storefront/storefront/internal/shared"
	"github.com/storefront/storefront/internal/users/userstest"
)

type testApp struct {
	t        *testing.T
	handler  http.Handler
	accounts *userstest.MemoryRepository
	catalog  *productstest.MemoryRepository
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	accounts := userstest.NewMemoryRepository()
	catalog := productstest.NewMemoryRepository()
	accounts.Exists = catalog.Exists

	cfg := &app.Config{
		AppEnv:                 "test",
		AppRequestTimeout:      5 * time.Second,
		JWTSecret:              "e2e-secret",
		JWTTTL:                 time.Hour,
		AuthHashCost:           bcrypt.MinCost,
		AuthHashConcurrency:    4,
		RateLimitPerMinute:     1000,
		AuthRateLimitPerMinute: 100,
	}
	handler, err := app.Build(cfg, app.Deps{
		Metrics:  observability.NewMetrics(),
		Accounts: accounts,
		Products: catalog,
		Redis:    client,
	})
	require.NoError(t, err)
	return &testApp{t: t, handler: handler, accounts: accounts, catalog: catalog}
}

func (a *testApp) do(method, path, token string, body any) (int, []byte) {
	a.t.Helper()
	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		raw, err := json.Marshal(v)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	a.handler.ServeHTTP(rr, req)
	return rr.Code, rr.Body.Bytes()
}

func signupPayload(email, firstName string) map[string]string {
	return map[string]string{
		"firstName": firstName,
		"lastName":  "",
		"email":     email,
		"password":  "secret1",
		"phone":     "1234567890",
		"gender":    "Male",
	}
}

func (a *testApp) signup(email, firstName string) string {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/auth/signup", "", signupPayload(email, firstName))
	require.Equal(a.t, http.StatusOK, code, string(body))
	var account struct {
		ID string `json:"id"`
	}
	require.NoError(a.t, json.Unmarshal(body, &account))
	return account.ID
}

func (a *testApp) login(email, password string) string {
	a.t.Helper()
	code, body := a.do(http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, code, string(body))
	var res struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(a.t, json.Unmarshal(body, &res))
	require.NotEmpty(a.t, res.AccessToken)
	return res.AccessToken
}

func TestSignupLoginAndProfile(t *testing.T) {
	a := newTestApp(t)
	a.signup("a@x.com", "A")
	token := a.login("a@x.com", "secret1")

	code, body := a.do(http.MethodGet, "/user/", token, nil)
	require.Equal(t, http.StatusOK, code)
	var account map[string]any
	require.NoError(t, json.Unmarshal(body, &account))
	assert.Equal(t, "A", account["firstName"])
	assert.Equal(t, "User", account["role"])
	assert.NotContains(t, account, "passwordHash")

	code, body = a.do(http.MethodGet, "/user/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.JSONEq(t, `{"message":"Unauthorized"}`, string(body))
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	a := newTestApp(t)
	a.signup("a@x.com", "A")

	codeUnknown, unknown := a.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "ghost@x.com", "password": "secret1"})
	codeWrong, wrong := a.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "a@x.com", "password": "nope"})

	assert.Equal(t, http.StatusBadRequest, codeUnknown)
	assert.Equal(t, http.StatusBadRequest, codeWrong)
	assert.JSONEq(t, `{"success":false,"message":"Invalid Credentials!"}`, string(unknown))
	assert.Equal(t, string(unknown), string(wrong))
}

func TestDuplicateAndIncompleteSignup(t *testing.T) {
	a := newTestApp(t)
	a.signup("a@x.com", "A")

	code, body := a.do(http.MethodPost, "/auth/signup", "", signupPayload("a@x.com", "Again"))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), `"success":false`)

	code, _ = a.do(http.MethodPost, "/auth/signup", "", map[string]string{"email": "b@x.com"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestProductPolicy(t *testing.T) {
	a := newTestApp(t)
	a.signup("user@x.com", "U")
	a.signup("admin@x.com", "Boss")
	require.NoError(t, a.accounts.SetRole(t.Context(), "admin@x.com", shared.RoleAdmin))

	userToken := a.login("user@x.com", "secret1")
	adminToken := a.login("admin@x.com", "secret1")
	product := map[string]any{"title": "Mug", "category": "kitchen", "price": 9.5, "stock": 3}

	code, _ := a.do(http.MethodPost, "/products", "", product)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, body := a.do(http.MethodPost, "/products", userToken, product)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Contains(t, string(body), `"success":false`)

	code, body = a.do(http.MethodPost, "/products", adminToken, product)
	require.Equal(t, http.StatusCreated, code, string(body))
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &created))

	code, body = a.do(http.MethodGet, "/products?category=kitchen", "", nil)
	require.Equal(t, http.StatusOK, code)
	var page struct {
		Items []map[string]any `json:"items"`
		Total int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Equal(t, 1, page.Total)

	code, _ = a.do(http.MethodPut, "/products/"+created.ID, userToken, product)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = a.do(http.MethodDelete, "/products/"+created.ID, userToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestWishlistCartAndPurge(t *testing.T) {
	a := newTestApp(t)
	a.signup("user@x.com", "U")
	a.signup("admin@x.com", "Boss")
	require.NoError(t, a.accounts.SetRole(t.Context(), "admin@x.com", shared.RoleAdmin))
	userToken := a.login("user@x.com", "secret1")
	adminToken := a.login("admin@x.com", "secret1")

	code, body := a.do(http.MethodPost, "/products", adminToken, map[string]any{"title": "Lamp", "price": 20, "stock": 1})
	require.Equal(t, http.StatusCreated, code, string(body))
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &created))

	code, body = a.do(http.MethodPost, "/user/wishlist/"+created.ID, userToken, nil)
	require.Equal(t, http.StatusOK, code, string(body))
	assert.JSONEq(t, `{"success":true,"items":["`+created.ID+`"]}`, string(body))

	code, _ = a.do(http.MethodPost, "/user/cart/"+created.ID, userToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = a.do(http.MethodPost, "/user/cart/missing", userToken, nil)
	assert.Equal(t, http.StatusNotFound, code)

	// Admin accounts cannot shop.
	code, _ = a.do(http.MethodPost, "/user/wishlist/"+created.ID, adminToken, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, body = a.do(http.MethodGet, "/user/cart", userToken, nil)
	require.Equal(t, http.StatusOK, code)
	var cart []map[string]any
	require.NoError(t, json.Unmarshal(body, &cart))
	require.Len(t, cart, 1)
	assert.Equal(t, "Lamp", cart[0]["title"])

	code, _ = a.do(http.MethodDelete, "/products/"+created.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, body = a.do(http.MethodGet, "/user/", userToken, nil)
	require.Equal(t, http.StatusOK, code)
	var account struct {
		Wishlist []string `json:"wishlist"`
		Cart     []string `json:"cart"`
	}
	require.NoError(t, json.Unmarshal(body, &account))
	assert.Empty(t, account.Wishlist)
	assert.Empty(t, account.Cart)
}

func TestSelfUpdateOwnership(t *testing.T) {
	a := newTestApp(t)
	aliceID := a.signup("alice@x.com", "Alice")
	bobID := a.signup("bob@x.com", "Bob")
	aliceToken := a.login("alice@x.com", "secret1")

	code, _ := a.do(http.MethodPut, "/user/"+bobID, aliceToken, map[string]string{"firstName": "Mallory"})
	assert.Equal(t, http.StatusForbidden, code)

	code, body := a.do(http.MethodPut, "/user/"+aliceID, aliceToken, map[string]string{"firstName": "Alicia", "password": "newpass1"})
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Contains(t, string(body), `"firstName":"Alicia"`)

	a.login("alice@x.com", "newpass1")
	code, _ = a.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "alice@x.com", "password": "secret1"})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestLogoutRevokesToken(t *testing.T) {
	a := newTestApp(t)
	a.signup("a@x.com", "A")
	token := a.login("a@x.com", "secret1")

	code, _ := a.do(http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, code)

	code, _ = a.do(http.MethodGet, "/user/", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestOperationalEndpoints(t *testing.T) {
	a := newTestApp(t)
	code, body := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	a.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "ghost@x.com", "password": "x"})
	code, body = a.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `storefront_auth_login_total{result="invalid_credentials"} 1`)

	code, body = a.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, string(body), `"success":false`)
}

func TestMultiBytePasswordOverBcryptLimit(t *testing.T) {
	a := newTestApp(t)
	long := strings.Repeat("é", 40)

	payload := signupPayload("wide@x.com", "Wide")
	payload["password"] = long
	code, body := a.do(http.MethodPost, "/auth/signup", "", payload)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "72 bytes")

	id := a.signup("a@x.com", "A")
	token := a.login("a@x.com", "secret1")
	code, body = a.do(http.MethodPut, "/user/"+id, token, map[string]string{"password": long})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, string(body), "72 bytes")

	a.login("a@x.com", "secret1")
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	a := newTestApp(t)
	userID := a.signup("user@x.com", "U")
	a.signup("admin@x.com", "Boss")
	require.NoError(t, a.accounts.SetRole(t.Context(), "admin@x.com", shared.RoleAdmin))
	adminToken := a.login("admin@x.com", "secret1")

	code, body := a.do(http.MethodPost, "/products", adminToken, map[string]any{"title": "Cup", "price": 4, "stock": 2})
	require.Equal(t, http.StatusCreated, code, string(body))
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(body, &created))

	cases := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/user/", nil},
		{http.MethodPut, "/user/" + userID, map[string]string{"firstName": "X"}},
		{http.MethodGet, "/user/wishlist", nil},
		{http.MethodPost, "/user/wishlist/" + created.ID, nil},
		{http.MethodDelete, "/user/wishlist/" + created.ID, nil},
		{http.MethodGet, "/user/cart", nil},
		{http.MethodPost, "/user/cart/" + created.ID, nil},
		{http.MethodDelete, "/user/cart/" + created.ID, nil},
		{http.MethodPost, "/products", map[string]any{"title": "Pen", "price": 1, "stock": 1}},
		{http.MethodPut, "/products/" + created.ID, map[string]any{"title": "Pen", "price": 1, "stock": 1}},
		{http.MethodDelete, "/products/" + created.ID, nil},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			code, body := a.do(tc.method, tc.path, "", tc.body)
			assert.Equal(t, http.StatusUnauthorized, code)
			assert.JSONEq(t, `{"message":"Unauthorized"}`, string(body))
		})
	}

	for _, method := range []string{http.MethodPost, http.MethodDelete} {
		for _, list := range []string{"wishlist", "cart"} {
			code, _ := a.do(method, "/user/"+list+"/"+created.ID, adminToken, nil)
			assert.Equal(t, http.StatusForbidden, code, "admin %s %s", method, list)
		}
	}

	code, _ = a.do(http.MethodGet, "/products/"+created.ID, "", nil)
	assert.Equal(t, http.StatusOK, code, "rejected requests must not mutate the catalog")
}

func TestMetricsRouterServesJobCounters(t *testing.T) {
	metrics := observability.NewMetrics()
	jobs := jobmetrics.NewMetrics(metrics.Registerer())
	_ = jobs.Track("product:purge_orphans").End(nil)
	jobs.AddPurged("product:purge_orphans", 4)

	handler := app.NewMetricsRouter(metrics)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `storefront_job_references_purged_total{job="product:purge_orphans"} 4`)
	assert.Contains(t, rr.Body.String(), `storefront_jobs_total{job="product:purge_orphans",status="success"} 1`)

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}
