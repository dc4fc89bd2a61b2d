package financesdk

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dimbox/dimbox/pkg/jwtx"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// TokenSource is where the client reads and writes credentials. The token
// store implements it; tests can use any in-memory value.
type TokenSource interface {
	Access() string
	Refresh() string
	SaveTokens(TokenPair) error
	Clear() error
}

// Client is the single outbound path to the finance backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
	limiter    *rate.Limiter
	userAgent  string

	refreshGroup singleflight.Group

	mu            sync.RWMutex
	onAuthFailure []func()
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger used when the request context carries none.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRateLimit throttles outbound requests. A limit of zero disables it.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		if limit <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(limit, max(burst, 1))
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a client for the API rooted at baseURL, e.g.
// "http://localhost:8000/api".
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		tokens: tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Tokens returns the token source the client reads credentials from.
func (c *Client) Tokens() TokenSource { return c.tokens }

// OnAuthFailure registers fn to run after the backend rejected a refresh and
// the stored credentials were cleared.
func (c *Client) OnAuthFailure(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAuthFailure = append(c.onAuthFailure, fn)
}

func (c *Client) authFailed() {
	c.mu.RLock()
	hooks := append([]func(){}, c.onAuthFailure...)
	c.mu.RUnlock()

	for _, fn := range hooks {
		fn()
	}
}

// TokenExpiry returns the exp claim of a JWT access token. It is for display
// and never triggers a refresh.
func TokenExpiry(access string) (time.Time, bool) {
	exp, err := jwtx.PeekExpiry(access)
	if err != nil {
		return time.Time{}, false
	}
	return exp, true
}
