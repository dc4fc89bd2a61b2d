package web

import (
	"net/http"
	"strings"

	"github.com/dimbox/dimbox/pkg/financesdk"
	"github.com/dimbox/dimbox/pkg/httpx"
	"github.com/dimbox/dimbox/pkg/slogx"
)

type loginPage struct {
	Layout
	Username string
}

// LoginHandler shows and submits the sign-in form.
type LoginHandler struct {
	Session Session
	Views   *Renderer
}

func (h *LoginHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if h.Session.Snapshot().Authenticated() {
		httpx.SeeOther(w, r, DefaultPath)
		return
	}
	h.Views.Render(w, r, http.StatusOK, "login.html", loginPage{Layout: layout(r, h.Session, "Sign in")})
}

// HandlePost signs in. A rejected login re-renders the form with the
// backend's message; the token store is left empty by the session.
func (h *LoginHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	if _, err := h.Session.Login(ctx, username, password); err != nil {
		log.Info("sign in rejected", "username", username, "error", err)

		page := loginPage{Layout: layout(r, h.Session, "Sign in"), Username: username}
		page.Fail(err)
		h.Views.Render(w, r, errorStatus(err), "login.html", page)
		return
	}

	httpx.SeeOther(w, r, DefaultPath)
}

type registerPage struct {
	Layout
	Form financesdk.RegisterRequest
}

// RegisterHandler creates an account. It does not sign the new user in.
type RegisterHandler struct {
	API     API
	Session Session
	Views   *Renderer
}

func (h *RegisterHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if h.Session.Snapshot().Authenticated() {
		httpx.SeeOther(w, r, DefaultPath)
		return
	}
	h.Views.Render(w, r, http.StatusOK, "register.html", registerPage{Layout: layout(r, h.Session, "Create account")})
}

func (h *RegisterHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := financesdk.RegisterRequest{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Name:     strings.TrimSpace(r.PostFormValue("name")),
	}

	if _, err := h.API.Register(ctx, req); err != nil {
		slogx.FromContext(ctx).Info("registration rejected", "username", req.Username, "error", err)

		req.Password = ""
		page := registerPage{Layout: layout(r, h.Session, "Create account"), Form: req}
		page.Fail(err)
		h.Views.Render(w, r, errorStatus(err), "register.html", page)
		return
	}

	httpx.SeeOther(w, r, LoginPath+"?notice=registered")
}

// LogoutHandler drops the local session. The backend is not called.
type LogoutHandler struct {
	Session Session
}

func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.Logout(); err != nil {
		slogx.FromContext(r.Context()).Error("logout left credentials behind", "error", err)
	}
	httpx.SeeOther(w, r, LoginPath+"?notice=logged_out")
}
