// Package web serves the views of the local finance client.
package web

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/dimbox/dimbox/internal/guard"
	"github.com/dimbox/dimbox/pkg/financesdk"
	"github.com/dimbox/dimbox/pkg/httpx"
	"github.com/dimbox/dimbox/pkg/slogx"
)

const (
	LoginPath   = "/login"
	DefaultPath = "/"
)

// API is the part of *financesdk.Client the views use.
type API interface {
	Register(ctx context.Context, req financesdk.RegisterRequest) (*financesdk.UserProfile, error)
	GetProfile(ctx context.Context) (*financesdk.UserProfile, error)
	UpdateProfile(ctx context.Context, update financesdk.ProfileUpdate) (*financesdk.UserProfile, error)

	ListTransactions(ctx context.Context, filter financesdk.TransactionFilter) ([]financesdk.Transaction, error)
	CreateTransaction(ctx context.Context, in financesdk.TransactionInput) (*financesdk.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, in financesdk.TransactionInput) (*financesdk.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	ExportCSV(ctx context.Context) (*financesdk.Export, error)

	AdminStats(ctx context.Context) (*financesdk.AdminStats, error)
	ListUsers(ctx context.Context, params financesdk.ListUsersParams) (*financesdk.UserPage, error)
	SetUserPlan(ctx context.Context, id int64, plan financesdk.Plan) (*financesdk.AdminUserResult, error)
	SetUserActive(ctx context.Context, id int64, active bool) (*financesdk.AdminUserResult, error)
	SetUserRole(ctx context.Context, id int64, role financesdk.Role) (*financesdk.AdminUserResult, error)
}

// Session is implemented by *session.Controller.
type Session interface {
	guard.SnapshotSource
	Login(ctx context.Context, username, password string) (*financesdk.UserProfile, error)
	Logout() error
	Reload(ctx context.Context) (*financesdk.UserProfile, error)
	Expire()
	ExpiresAt() (time.Time, bool)
}

// Pinger is implemented by token stores that can lose their backing file.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	api          API
	session      Session
	guard        guard.Guard
	views        *Renderer
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	// Store is checked by /readyz when set.
	Store Pinger
}

func NewRouter(api API, sess Session, buildVersion string, logger *slog.Logger) (*Router, error) {
	views, err := NewRenderer()
	if err != nil {
		return nil, err
	}

	r := &Router{
		Mux:          http.NewServeMux(),
		api:          api,
		session:      sess,
		guard:        guard.New(LoginPath, DefaultPath),
		views:        views,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		SecurityHeaders,
	}

	return r, nil
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerDashboard()
	r.registerProfile()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) protected(name string, h http.Handler) http.Handler {
	return httpx.Chain(h, r.guard.Middleware(r.session, guard.Route{Name: name, Protected: true}))
}

func (r *Router) adminOnly(name string, h http.Handler) http.Handler {
	return httpx.Chain(h, r.guard.Middleware(r.session, guard.Route{Name: name, Protected: true, AdminOnly: true}))
}

func (r *Router) registerAuth() {
	login := &LoginHandler{Session: r.session, Views: r.views}
	register := &RegisterHandler{API: r.api, Session: r.session, Views: r.views}
	logout := &LogoutHandler{Session: r.session}

	r.Mux.HandleFunc("GET /login", login.HandleGet)

	// Rate limited by IP + username so one account cannot be hammered
	r.Mux.Handle("POST /login",
		httpx.Chain(http.HandlerFunc(login.HandlePost),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)

	r.Mux.HandleFunc("GET /register", register.HandleGet)
	r.Mux.Handle("POST /register",
		httpx.Chain(http.HandlerFunc(register.HandlePost),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /logout", logout)
}

func (r *Router) registerDashboard() {
	dash := &DashboardHandler{API: r.api, Session: r.session, Views: r.views}
	tx := &TransactionsHandler{API: r.api, Session: r.session, Dashboard: dash}
	export := &ExportHandler{API: r.api, Session: r.session}

	r.Mux.Handle("GET /{$}", r.protected("dashboard", dash))
	r.Mux.Handle("POST /transactions", r.protected("transactions", http.HandlerFunc(tx.HandleCreate)))
	r.Mux.Handle("POST /transactions/{id}", r.protected("transactions", http.HandlerFunc(tx.HandleUpdate)))
	r.Mux.Handle("POST /transactions/{id}/delete", r.protected("transactions", http.HandlerFunc(tx.HandleDelete)))
	r.Mux.Handle("GET /export.csv", r.protected("export", export))
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{API: r.api, Session: r.session, Views: r.views}

	r.Mux.Handle("GET /profile", r.protected("profile", http.HandlerFunc(h.HandleGet)))
	r.Mux.Handle("POST /profile", r.protected("profile", http.HandlerFunc(h.HandlePost)))
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{API: r.api, Session: r.session, Views: r.views}

	r.Mux.Handle("GET /admin", r.adminOnly("admin", http.HandlerFunc(h.HandleGet)))
	r.Mux.Handle("POST /admin/users/{id}/plan", r.adminOnly("admin", http.HandlerFunc(h.HandlePlan)))
	r.Mux.Handle("POST /admin/users/{id}/active", r.adminOnly("admin", http.HandlerFunc(h.HandleActive)))
	r.Mux.Handle("POST /admin/users/{id}/role", r.adminOnly("admin", http.HandlerFunc(h.HandleRole)))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.session, r.Store))

	if sub, err := fs.Sub(staticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.Mux.Handle("GET /static/", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600")
			static.ServeHTTP(w, req)
		}))
	} else {
		r.logger.Warn("failed to mount embedded static files", "error", err)
	}
}
