package web

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/dimbox/dimbox/pkg/financesdk"
	"github.com/dimbox/dimbox/pkg/httpx"
	"github.com/dimbox/dimbox/pkg/slogx"
	"github.com/shopspring/decimal"
)

// Renderer executes the embedded templates.
type Renderer struct {
	templates *template.Template
}

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}

// NewRenderer parses every template once at startup.
func NewRenderer() (*Renderer, error) {
	t, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: t}, nil
}

// Render executes the named template into a buffer first, so a template
// error never leaves a half-written page behind.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := v.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slogx.FromContext(r.Context()).Error("failed to render view", "view", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	httpx.NoCache(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// Layout is the data every page shares.
type Layout struct {
	Title       string
	User        *financesdk.UserProfile
	ExpiresAt   time.Time
	Notice      string
	Error       string
	FieldErrors map[string][]string
}

var notices = map[string]string{
	"created":      "Transaction saved.",
	"updated":      "Transaction updated.",
	"deleted":      "Transaction deleted.",
	"profile":      "Profile saved.",
	"registered":   "Account created. You can sign in now.",
	"logged_out":   "You have been signed out.",
	"expired":      "Your session has expired. Please sign in again.",
	"user_updated": "User updated.",
}

// layout fills the shared page data from the session. Notices are looked up
// by key so the query string cannot inject text.
func layout(r *http.Request, sess Session, title string) Layout {
	l := Layout{
		Title:  title,
		User:   sess.Snapshot().User,
		Notice: notices[r.URL.Query().Get("notice")],
	}
	if exp, ok := sess.ExpiresAt(); ok {
		l.ExpiresAt = exp
	}
	return l
}

// Fail records err on the page.
func (l *Layout) Fail(err error) {
	l.Error = errorMessage(err)
	if apiErr, ok := financesdk.AsAPIError(err); ok {
		l.FieldErrors = apiErr.FieldErrors()
	}
	var fe *formError
	if errors.As(err, &fe) {
		l.FieldErrors = map[string][]string{fe.Field: {fe.Err.Error()}}
	}
	var ve *financesdk.ValidationError
	if errors.As(err, &ve) {
		l.FieldErrors = map[string][]string{ve.Field: {ve.Reason}}
	}
}

// errorMessage is what the user sees for err. Backend messages are shown
// verbatim.
func errorMessage(err error) string {
	if apiErr, ok := financesdk.AsAPIError(err); ok {
		return apiErr.Details()
	}
	var te *financesdk.TransportError
	if errors.As(err, &te) {
		return "The server could not be reached. Please try again."
	}
	var fe *formError
	if errors.As(err, &fe) {
		return fe.Error()
	}
	return err.Error()
}

// errorStatus maps err to the status of the re-rendered page.
func errorStatus(err error) int {
	var (
		ve *financesdk.ValidationError
		fe *formError
		te *financesdk.TransportError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &fe):
		return http.StatusUnprocessableEntity
	case errors.As(err, &te):
		return http.StatusBadGateway
	}
	if apiErr, ok := financesdk.AsAPIError(err); ok {
		if apiErr.IsServer() {
			return http.StatusBadGateway
		}
		return apiErr.StatusCode
	}
	return http.StatusInternalServerError
}

// expired ends the session and sends the user to the login page when err is
// a 401 that survived the refresh protocol.
func expired(w http.ResponseWriter, r *http.Request, sess Session, err error) bool {
	if !financesdk.IsUnauthorized(err) {
		return false
	}
	sess.Expire()
	httpx.SeeOther(w, r, LoginPath+"?notice=expired")
	return true
}
