// Package session owns the in-memory authentication state of the local user
// and keeps it in step with the token store.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dimbox/dimbox/internal/tokenstore"
	"github.com/dimbox/dimbox/pkg/financesdk"
)

// State is a point in the session lifecycle.
type State int

const (
	Uninitialized State = iota
	Loading
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// API is the part of the finance client the controller needs.
type API interface {
	Login(ctx context.Context, username, password string) (*financesdk.LoginResult, error)
	Me(ctx context.Context) (*financesdk.UserProfile, error)
}

// Snapshot is a consistent read of the session.
type Snapshot struct {
	State   State
	User    *financesdk.UserProfile
	Loading bool
}

// Authenticated reports whether a user is signed in.
func (s Snapshot) Authenticated() bool {
	return s.State == Authenticated && s.User != nil
}

// Controller is the single owner of the session. It is safe for concurrent
// use.
type Controller struct {
	api   API
	store tokenstore.Store
	log   *slog.Logger

	mu      sync.RWMutex
	state   State
	user    *financesdk.UserProfile
	loading bool
}

// ErrNoProfile is returned by Login when the backend returned tokens but no
// profile.
var ErrNoProfile = errors.New("session: login returned no profile")

func New(api API, store tokenstore.Store, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{api: api, store: store, log: log}
}

// Init hydrates the session from the store. It never fails: anything that
// cannot be turned into a signed-in user ends as Anonymous with an empty
// store.
func (c *Controller) Init(ctx context.Context) {
	c.set(Loading, nil, true)

	profile, cached := c.store.Profile()
	access, refresh := c.store.Access(), c.store.Refresh()

	switch {
	case cached && access != "":
		c.log.Info("session restored from cache", "user", profile.Username)
		c.set(Authenticated, profile, false)

	case access == "" && refresh == "":
		if cached {
			c.log.Info("dropping cached profile without credentials")
			c.clearStore()
		}
		c.set(Anonymous, nil, false)

	default:
		// A token but no usable profile. Me goes through the refresh protocol,
		// so an access-less store with a refresh token can still recover.
		me, err := c.api.Me(ctx)
		if err == nil {
			err = c.store.SaveProfile(me)
		}
		if err != nil {
			c.log.Warn("session hydration failed, continuing signed out", "error", err)
			c.clearStore()
			c.set(Anonymous, nil, false)
			return
		}
		c.log.Info("session restored", "user", me.Username)
		c.set(Authenticated, me, false)
	}
}

// Login signs in. On any failure the store and the in-memory user are
// cleared and the error is returned unchanged.
func (c *Controller) Login(ctx context.Context, username, password string) (*financesdk.UserProfile, error) {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	result, err := c.api.Login(ctx, username, password)
	if err == nil && result.Profile == nil {
		err = ErrNoProfile
	}
	if err == nil {
		err = c.commit(result)
	}
	if err != nil {
		c.log.Info("login failed", "username", username, "error", err)
		c.clearStore()
		c.set(Anonymous, nil, false)
		return nil, err
	}

	c.log.Info("login succeeded", "user", result.Profile.Username, "role", result.Profile.Role)
	c.set(Authenticated, result.Profile, false)
	return result.Profile, nil
}

func (c *Controller) commit(result *financesdk.LoginResult) error {
	if err := c.store.SaveTokens(result.Tokens); err != nil {
		return fmt.Errorf("persist tokens: %w", err)
	}
	if err := c.store.SaveProfile(result.Profile); err != nil {
		return fmt.Errorf("persist profile: %w", err)
	}
	return nil
}

// Logout clears the store and the in-memory user. The session ends
// Anonymous even when the store reports an error, which is returned.
func (c *Controller) Logout() error {
	err := c.store.Clear()
	c.set(Anonymous, nil, false)
	if err != nil {
		c.log.Error("failed to clear credentials on logout", "error", err)
		return fmt.Errorf("logout: %w", err)
	}
	c.log.Info("logged out")
	return nil
}

// Reload re-fetches the current user and updates the cache. An
// unauthorized response ends the session.
func (c *Controller) Reload(ctx context.Context) (*financesdk.UserProfile, error) {
	me, err := c.api.Me(ctx)
	if err != nil {
		if financesdk.IsUnauthorized(err) {
			c.Expire()
		}
		return nil, err
	}
	if err := c.store.SaveProfile(me); err != nil {
		return nil, fmt.Errorf("cache profile: %w", err)
	}

	c.mu.Lock()
	if c.state == Authenticated {
		c.user = me
	}
	c.mu.Unlock()
	return me, nil
}

// Expire ends the session after an unrecoverable auth failure. It is
// registered as the API client's auth-failure hook.
func (c *Controller) Expire() {
	c.mu.RLock()
	wasSignedIn := c.state == Authenticated
	c.mu.RUnlock()

	c.clearStore()
	c.set(Anonymous, nil, false)
	if wasSignedIn {
		c.log.Warn("session expired")
	}
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{State: c.state, User: c.user, Loading: c.loading}
}

func (c *Controller) User() *financesdk.UserProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Controller) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// ExpiresAt returns the exp claim of the stored access token, for display.
func (c *Controller) ExpiresAt() (time.Time, bool) {
	return financesdk.TokenExpiry(c.store.Access())
}

func (c *Controller) set(state State, user *financesdk.UserProfile, loading bool) {
	c.mu.Lock()
	c.state, c.user, c.loading = state, user, loading
	c.mu.Unlock()
}

func (c *Controller) clearStore() {
	if err := c.store.Clear(); err != nil {
		c.log.Error("failed to clear credentials", "error", err)
	}
}
