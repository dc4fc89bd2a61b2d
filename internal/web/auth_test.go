package web_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/dimbox/dimbox/internal/session"
	"github.com/stretchr/testify/require"
)

func TestLoginFailureKeepsStoreEmpty(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.session.Init(t.Context())

	rec := e.post("/login", url.Values{"username": {"bob"}, "password": {"wrong"}})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "No active account found with the given credentials")
	require.Contains(t, rec.Body.String(), `value="bob"`)

	require.Empty(t, e.store.Access())
	require.Empty(t, e.store.Refresh())
	_, cached := e.store.Profile()
	require.False(t, cached)
	require.Equal(t, session.Anonymous, e.session.State())

	require.Equal(t, 1, e.backend.count("POST /token/"))
	require.Zero(t, e.backend.count("POST /token/refresh/"), "a rejected login is never refreshed")
	require.Zero(t, e.backend.count("GET /me/"))
}

func TestLoginMissingCredentials(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.session.Init(t.Context())

	rec := e.post("/login", url.Values{"username": {"alice"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	require.Contains(t, rec.Body.String(), "username and password are required")
	require.Zero(t, e.backend.count("POST /token/"))
}

func TestLoginSuccess(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.session.Init(t.Context())

	rec := e.post("/login", url.Values{"username": {"alice"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	require.Equal(t, "A1", e.store.Access())
	require.Equal(t, "R1", e.store.Refresh())
	require.Equal(t, "alice", e.session.User().Username)
	require.Equal(t, 1, e.backend.count("GET /me/"))

	rec = e.get("/login")
	require.Equal(t, http.StatusSeeOther, rec.Code, "signed-in users skip the form")
	require.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLoginIsRateLimited(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.session.Init(t.Context())

	bad := url.Values{"username": {"bob"}, "password": {"wrong"}}
	for range 5 {
		require.Equal(t, http.StatusUnauthorized, e.post("/login", bad).Code)
	}
	rec := e.post("/login", bad)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
	require.Equal(t, 5, e.backend.count("POST /token/"))

	rec = e.post("/login", url.Values{"username": {"alice"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, rec.Code, "the limit is per username")
}

func TestRegister(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.session.Init(t.Context())

	rec := e.get("/register")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.post("/register", url.Values{"username": {"alice"}, "password": {"pw"}, "email": {"a@example.com"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "A user with that username already exists.")
	require.Contains(t, rec.Body.String(), `value="a@example.com"`)

	rec = e.post("/register", url.Values{"username": {"carol"}, "password": {"pw"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login?notice=registered", rec.Header().Get("Location"))
	require.Empty(t, e.store.Access(), "registering does not sign in")

	rec = e.get("/login?notice=registered")
	require.Contains(t, rec.Body.String(), "Account created.")
}

func TestLogout(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signIn(t, "A1", alice)

	rec := e.post("/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login?notice=logged_out", rec.Header().Get("Location"))

	require.Empty(t, e.store.Access())
	require.Empty(t, e.store.Refresh())
	require.Equal(t, session.Anonymous, e.session.State())

	require.Equal(t, http.StatusSeeOther, e.get("/").Code)
}

func TestGuardedRoutes(t *testing.T) {
	t.Parallel()

	t.Run("wait until the session is initialised", func(t *testing.T) {
		e := newEnv(t)
		rec := e.get("/")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		require.Equal(t, "1", rec.Header().Get("Retry-After"))
	})

	t.Run("anonymous users go to login", func(t *testing.T) {
		e := newEnv(t)
		e.session.Init(t.Context())
		for _, target := range []string{"/", "/profile", "/admin", "/export.csv"} {
			rec := e.get(target)
			require.Equal(t, http.StatusSeeOther, rec.Code, target)
			require.Equal(t, "/login", rec.Header().Get("Location"), target)
		}
		require.Equal(t, http.StatusOK, e.get("/login").Code)
	})

	t.Run("users are sent away from admin", func(t *testing.T) {
		e := newEnv(t)
		e.signIn(t, "A1", alice)
		rec := e.get("/admin")
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/", rec.Header().Get("Location"))
		require.Zero(t, e.backend.count("GET /admin/users/"))
	})
}

func TestExpiredSessionRedirectsToLogin(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.signIn(t, "OLD", alice)

	rec := e.get("/")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/login?notice=expired", rec.Header().Get("Location"))
	require.GreaterOrEqual(t, e.backend.count("POST /token/refresh/"), 1)

	require.Empty(t, e.store.Access())
	require.Empty(t, e.store.Refresh())
	require.Equal(t, session.Anonymous, e.session.State())

	rec = e.get("/login?notice=expired")
	require.Contains(t, rec.Body.String(), "Your session has expired.")
}
