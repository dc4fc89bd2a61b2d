package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/dimbox/dimbox/internal/session"
	"github.com/dimbox/dimbox/internal/tokenstore/drivers/memory"
	"github.com/dimbox/dimbox/internal/web"
	"github.com/dimbox/dimbox/pkg/financesdk"
	"github.com/dimbox/dimbox/pkg/slogx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	alice = financesdk.UserProfile{
		ID: 1, Username: "alice", Name: "Alice", Role: financesdk.RoleUser, Plan: financesdk.PlanFree,
		GoalName: "Trip", GoalAmount: decimal.RequireFromString("2000"),
	}
	root = financesdk.UserProfile{ID: 9, Username: "root", Role: financesdk.RoleAdmin, Plan: financesdk.PlanPremium}
)

const transactionsJSON = `[
	{"id":1,"transaction_type":"IN","amount":"1000.00","date":"2025-01-05","category":null},
	{"id":2,"transaction_type":"OUT","amount":"120.50","date":"2025-01-10","category":"AL","description":"groceries"},
	{"id":3,"transaction_type":"OUT","amount":"30.00","date":"2025-01-12","category":"TR"}
]`

// backend is a fake finance API. Tokens "A1" and "ADM" belong to alice and
// root; every other token is rejected.
type backend struct {
	srv *httptest.Server

	mu      sync.Mutex
	hits    map[string]int
	bodies  map[string]map[string]any
	queries map[string]url.Values
}

func newBackend(t *testing.T) *backend {
	t.Helper()

	b := &backend{
		hits:    make(map[string]int),
		bodies:  make(map[string]map[string]any),
		queries: make(map[string]url.Values),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /token/", func(w http.ResponseWriter, r *http.Request) {
		var creds struct{ Username, Password string }
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Username != "alice" || creds.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access": "A1", "refresh": "R1"})
	})
	mux.HandleFunc("POST /token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
	})
	mux.HandleFunc("POST /register/", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Username string }
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Username == "alice" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"username": []string{"A user with that username already exists."}})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": 5, "username": req.Username, "role": "USER"})
	})
	profile := b.authed(func(w http.ResponseWriter, r *http.Request, u financesdk.UserProfile) {
		writeJSON(w, http.StatusOK, u)
	})
	mux.HandleFunc("GET /me/", profile)
	mux.HandleFunc("GET /profile/", profile)
	mux.HandleFunc("PUT /profile/", b.authed(func(w http.ResponseWriter, r *http.Request, u financesdk.UserProfile) {
		writeJSON(w, http.StatusOK, u)
	}))
	mux.HandleFunc("GET /transactions/", b.authed(func(w http.ResponseWriter, r *http.Request, _ financesdk.UserProfile) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, transactionsJSON)
	}))
	mux.HandleFunc("POST /transactions/", b.authed(func(w http.ResponseWriter, r *http.Request, _ financesdk.UserProfile) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":4,"transaction_type":"OUT","amount":"12.50","date":"2025-03-01","category":"AL"}`)
	}))
	mux.HandleFunc("PUT /transactions/{id}/", b.authed(func(w http.ResponseWriter, r *http.Request, _ financesdk.UserProfile) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":2,"transaction_type":"IN","amount":"99.00","date":"2025-01-10","category":null}`)
	}))
	mux.HandleFunc("DELETE /transactions/{id}/", b.authed(func(w http.ResponseWriter, r *http.Request, _ financesdk.UserProfile) {
		if r.PathValue("id") != "2" {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	mux.HandleFunc("GET /export/csv/", b.authed(func(w http.ResponseWriter, r *http.Request, _ financesdk.UserProfile) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions-2025.csv"`)
		_, _ = io.WriteString(w, "date,amount\n2025-01-05,1000.00\n")
	}))
	mux.HandleFunc("GET /admin/stats/", b.authed(func(w http.ResponseWriter, r *http.Request, _ financesdk.UserProfile) {
		writeJSON(w, http.StatusOK, financesdk.AdminStats{Total: 2, Premium: 1, Free: 1, Active: 2})
	}))
	mux.HandleFunc("GET /admin/users/", b.authed(func(w http.ResponseWriter, r *http.Request, _ financesdk.UserProfile) {
		writeJSON(w, http.StatusOK, financesdk.UserPage{Count: 120, Results: []financesdk.AdminUser{
			{ID: 7, Username: "bob", Role: financesdk.RoleUser, Plan: financesdk.PlanFree, IsActive: true},
		}})
	}))
	mux.HandleFunc("POST /admin/users/{id}/set-plan/", b.authed(func(w http.ResponseWriter, r *http.Request, _ financesdk.UserProfile) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": map[string]any{"id": 7, "subscription": "PREMIUM"}})
	}))

	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(raw))

		b.mu.Lock()
		b.hits[key]++
		b.queries[key] = r.URL.Query()
		var body map[string]any
		if json.Unmarshal(raw, &body) == nil {
			b.bodies[key] = body
		}
		b.mu.Unlock()

		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) authed(h func(http.ResponseWriter, *http.Request, financesdk.UserProfile)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Bearer A1":
			h(w, r, alice)
		case "Bearer ADM":
			h(w, r, root)
		default:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
		}
	}
}

func (b *backend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

func (b *backend) body(key string) map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[key]
}

func (b *backend) query(key string) url.Values {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queries[key]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// env is one local client wired the way the app wires it.
type env struct {
	backend *backend
	store   *memory.Store
	session *session.Controller
	router  *web.Router
}

func newEnv(t *testing.T) *env {
	t.Helper()

	b := newBackend(t)
	store := memory.NewStore(slogx.Discard())
	client := financesdk.NewClient(b.srv.URL, store, financesdk.WithLogger(slogx.Discard()))
	sess := session.New(client, store, slogx.Discard())
	client.OnAuthFailure(sess.Expire)

	router, err := web.NewRouter(client, sess, "test", slogx.Discard())
	require.NoError(t, err)
	router.Store = pinger{}
	router.ApplyRoutes()

	return &env{backend: b, store: store, session: sess, router: router}
}

type pinger struct{}

func (pinger) Ping(context.Context) error { return nil }

// signIn seeds the store and hydrates from it without a request.
func (e *env) signIn(t *testing.T, access string, profile financesdk.UserProfile) {
	t.Helper()
	require.NoError(t, e.store.SaveTokens(financesdk.TokenPair{Access: access, Refresh: "R1"}))
	require.NoError(t, e.store.SaveProfile(&profile))
	e.session.Init(context.Background())
	require.Equal(t, session.Authenticated, e.session.State())
}

func (e *env) get(target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func (e *env) post(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}
