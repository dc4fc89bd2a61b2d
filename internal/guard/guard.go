// Package guard decides whether a view may be shown for the current session.
package guard

import (
	"html/template"
	"net/http"

	"github.com/dimbox/dimbox/internal/session"
	"github.com/dimbox/dimbox/pkg/httpx"
	"github.com/dimbox/dimbox/pkg/slogx"
)

// Decision is the outcome of evaluating a route.
type Decision int

const (
	// Wait means the session is still loading and no decision can be made.
	Wait Decision = iota
	RedirectLogin
	RedirectDefault
	Allow
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case RedirectLogin:
		return "redirect_login"
	case RedirectDefault:
		return "redirect_default"
	case Allow:
		return "allow"
	}
	return "unknown"
}

// Route describes the access requirements of a view.
type Route struct {
	Name      string
	Protected bool
	AdminOnly bool
}

// Outcome is a Decision plus where to send the user, if anywhere.
type Outcome struct {
	Decision Decision
	Location string
}

// Guard holds the fixed redirect targets.
type Guard struct {
	LoginPath   string
	DefaultPath string
}

// New returns a Guard redirecting to loginPath and defaultPath.
func New(loginPath, defaultPath string) Guard {
	return Guard{LoginPath: loginPath, DefaultPath: defaultPath}
}

// Evaluate is a pure function of the snapshot and the route. AdminOnly
// implies Protected.
func (g Guard) Evaluate(s session.Snapshot, r Route) Outcome {
	if !r.Protected && !r.AdminOnly {
		return Outcome{Decision: Allow}
	}

	if s.Loading || s.State == session.Loading || s.State == session.Uninitialized {
		return Outcome{Decision: Wait}
	}

	if !s.Authenticated() {
		return Outcome{Decision: RedirectLogin, Location: g.LoginPath}
	}

	if r.AdminOnly && !s.User.IsElevated() {
		return Outcome{Decision: RedirectDefault, Location: g.DefaultPath}
	}

	return Outcome{Decision: Allow}
}

// SnapshotSource is implemented by *session.Controller.
type SnapshotSource interface {
	Snapshot() session.Snapshot
}

// Middleware evaluates r on every request. Nothing is cached between
// requests.
func (g Guard) Middleware(src SnapshotSource, r Route) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			out := g.Evaluate(src.Snapshot(), r)

			switch out.Decision {
			case Allow:
				next.ServeHTTP(w, req)
				return
			case Wait:
				httpx.NoCache(w)
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = waitPage.Execute(w, req.URL.RequestURI())
				return
			}

			slogx.FromContext(req.Context()).Debug("route guarded",
				"route", r.Name,
				"decision", out.Decision.String(),
			)
			httpx.SeeOther(w, req, out.Location)
		})
	}
}

var waitPage = template.Must(template.New("wait").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><meta http-equiv="refresh" content="1;url={{.}}"><title>Loading</title></head>
<body><p>Loading…</p></body></html>
`))
