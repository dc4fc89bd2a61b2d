package web

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dimbox/dimbox/pkg/financesdk"
	"github.com/dimbox/dimbox/pkg/httpx"
	"github.com/dimbox/dimbox/pkg/slogx"
	"golang.org/x/sync/errgroup"
)

type adminQuery struct {
	Q      string
	Plan   string
	Active string
}

type adminPage struct {
	Layout
	Stats   *financesdk.AdminStats
	Users   []financesdk.AdminUser
	Count   int
	Page    int
	Pages   int
	PrevURL string
	NextURL string
	Query   adminQuery
	// Back is the current query string, posted with every action so the
	// redirect returns to the same filtered page.
	Back  string
	Plans []financesdk.Plan
	Roles []financesdk.Role
}

var (
	plans = []financesdk.Plan{financesdk.PlanFree, financesdk.PlanPremium}
	roles = []financesdk.Role{financesdk.RoleUser, financesdk.RoleAdmin}
)

// AdminHandler lists users and applies plan, active and role changes.
type AdminHandler struct {
	API     API
	Session Session
	Views   *Renderer
}

func parseAdminQuery(r *http.Request) (adminQuery, financesdk.ListUsersParams, error) {
	q := r.URL.Query()
	view := adminQuery{
		Q:      strings.TrimSpace(q.Get("q")),
		Plan:   strings.ToUpper(strings.TrimSpace(q.Get("plan"))),
		Active: strings.ToLower(strings.TrimSpace(q.Get("active"))),
	}
	params := financesdk.ListUsersParams{
		Query:    view.Q,
		Plan:     financesdk.Plan(view.Plan),
		Page:     1,
		PageSize: financesdk.DefaultPageSize,
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return view, params, &formError{Field: "page", Err: financesdk.ErrInvalidID}
		}
		params.Page = page
	}
	if view.Active != "" {
		active, err := strconv.ParseBool(view.Active)
		if err != nil {
			view.Active = ""
			return view, params, &formError{Field: "active", Err: err}
		}
		params.Active = &active
	}
	return view, params, params.Validate()
}

func (h *AdminHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	view, params, err := parseAdminQuery(r)
	page := adminPage{
		Layout: layout(r, h.Session, "Admin"),
		Query:  view,
		Page:   params.Page,
		Pages:  1,
		Back:   r.URL.RawQuery,
		Plans:  plans,
		Roles:  roles,
	}
	if err != nil {
		page.Fail(err)
		h.Views.Render(w, r, http.StatusBadRequest, "admin.html", page)
		return
	}

	var (
		stats *financesdk.AdminStats
		users *financesdk.UserPage
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := h.API.AdminStats(gctx)
		stats = s
		return err
	})
	g.Go(func() error {
		u, err := h.API.ListUsers(gctx, params)
		users = u
		return err
	})
	if err := g.Wait(); err != nil {
		if expired(w, r, h.Session, err) {
			return
		}
		slogx.FromContext(ctx).Warn("failed to load admin view", "error", err)
		page.Fail(err)
		h.Views.Render(w, r, errorStatus(err), "admin.html", page)
		return
	}

	page.Stats = stats
	page.Users = users.Results
	page.Count = users.Count
	page.Pages = users.Pages(params.PageSize)
	if params.Page > 1 {
		page.PrevURL = adminPageURL(r.URL.Query(), params.Page-1)
	}
	if params.Page < page.Pages {
		page.NextURL = adminPageURL(r.URL.Query(), params.Page+1)
	}

	h.Views.Render(w, r, http.StatusOK, "admin.html", page)
}

func adminPageURL(q url.Values, page int) string {
	q.Del("notice")
	q.Set("page", strconv.Itoa(page))
	return "/admin?" + q.Encode()
}

func (h *AdminHandler) HandlePlan(w http.ResponseWriter, r *http.Request) {
	plan := financesdk.Plan(strings.ToUpper(strings.TrimSpace(r.PostFormValue("plan"))))
	h.act(w, r, func(id int64) (*financesdk.AdminUserResult, error) {
		return h.API.SetUserPlan(r.Context(), id, plan)
	})
}

func (h *AdminHandler) HandleActive(w http.ResponseWriter, r *http.Request) {
	active, perr := strconv.ParseBool(r.PostFormValue("active"))
	h.act(w, r, func(id int64) (*financesdk.AdminUserResult, error) {
		if perr != nil {
			return nil, &formError{Field: "active", Err: perr}
		}
		return h.API.SetUserActive(r.Context(), id, active)
	})
}

func (h *AdminHandler) HandleRole(w http.ResponseWriter, r *http.Request) {
	role := financesdk.Role(strings.ToUpper(strings.TrimSpace(r.PostFormValue("role"))))
	h.act(w, r, func(id int64) (*financesdk.AdminUserResult, error) {
		return h.API.SetUserRole(r.Context(), id, role)
	})
}

// act runs one user action and redirects back to the list. Changing the
// signed-in user reloads the session, so a self-demotion takes effect on the
// next request.
func (h *AdminHandler) act(w http.ResponseWriter, r *http.Request, do func(id int64) (*financesdk.AdminUserResult, error)) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	back := adminBackURL(r.PostFormValue("back"))

	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	result, err := do(id)
	if err != nil {
		if expired(w, r, h.Session, err) {
			return
		}
		log.Info("admin action rejected", "path", r.URL.Path, "user_id", id, "error", err)
		page := adminPage{Layout: layout(r, h.Session, "Admin"), Page: 1, Pages: 1, Plans: plans, Roles: roles}
		page.Fail(err)
		h.Views.Render(w, r, errorStatus(err), "admin.html", page)
		return
	}

	log.Info("admin action applied", "path", r.URL.Path, "user_id", id, "ok", result.OK)

	if me := h.Session.Snapshot().User; me != nil && me.ID == id {
		if _, err := h.Session.Reload(ctx); err != nil {
			if expired(w, r, h.Session, err) {
				return
			}
			log.Warn("session reload after self update failed", "error", err)
		}
	}

	httpx.SeeOther(w, r, back)
}

// adminBackURL rebuilds the list URL from a posted query string. Only the
// query is taken from the form; the path is always /admin.
func adminBackURL(raw string) string {
	q, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		q = url.Values{}
	}
	q.Set("notice", "user_updated")
	return "/admin?" + q.Encode()
}
