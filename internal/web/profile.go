package web

import (
	"net/http"

	"github.com/dimbox/dimbox/pkg/financesdk"
	"github.com/dimbox/dimbox/pkg/httpx"
	"github.com/dimbox/dimbox/pkg/slogx"
)

type profilePage struct {
	Layout
	Profile *financesdk.UserProfile
	Form    profileForm
}

// ProfileHandler shows and updates the name and savings goal.
type ProfileHandler struct {
	API     API
	Session Session
	Views   *Renderer
}

func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	profile, err := h.API.GetProfile(r.Context())
	if err != nil {
		if expired(w, r, h.Session, err) {
			return
		}
		page := profilePage{Layout: layout(r, h.Session, "Profile"), Profile: &financesdk.UserProfile{}}
		page.Fail(err)
		h.Views.Render(w, r, errorStatus(err), "profile.html", page)
		return
	}

	h.Views.Render(w, r, http.StatusOK, "profile.html", profilePage{
		Layout:  layout(r, h.Session, "Profile"),
		Profile: profile,
		Form:    profileFormOf(profile),
	})
}

// HandlePost saves the profile, then reloads the session user so the header
// and the goal reflect the change.
func (h *ProfileHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	form, update, err := parseProfileForm(r)
	var saved *financesdk.UserProfile
	if err == nil {
		saved, err = h.API.UpdateProfile(ctx, update)
	}
	if err != nil {
		if expired(w, r, h.Session, err) {
			return
		}
		log.Info("profile update rejected", "error", err)

		page := profilePage{Layout: layout(r, h.Session, "Profile"), Profile: h.Session.Snapshot().User, Form: form}
		if page.Profile == nil {
			page.Profile = &financesdk.UserProfile{}
		}
		page.Fail(err)
		h.Views.Render(w, r, errorStatus(err), "profile.html", page)
		return
	}

	if _, err := h.Session.Reload(ctx); err != nil {
		if expired(w, r, h.Session, err) {
			return
		}
		log.Warn("profile saved but session reload failed", "user", saved.Username, "error", err)
	}

	httpx.SeeOther(w, r, "/profile?notice=profile")
}
