package financesdk

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Authenticate exchanges credentials for a token pair. A 401 here means bad
// credentials, so it never goes through the refresh protocol. Nothing is
// persisted.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*TokenPair, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, invalid("credentials", ErrMissingCredentials)
	}

	resp, err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/token/",
		Body:      map[string]string{"username": username, "password": password},
		NoRefresh: true,
	})
	if err != nil {
		return nil, err
	}

	var pair TokenPair
	if err := resp.Decode(&pair); err != nil {
		return nil, err
	}
	if pair.Access == "" {
		return nil, ErrNoAccessToken
	}
	return &pair, nil
}

// RefreshAccess mints a new access token from refresh. Nothing is persisted.
func (c *Client) RefreshAccess(ctx context.Context, refresh string) (*TokenPair, error) {
	if refresh == "" {
		return nil, ErrNoRefreshToken
	}

	resp, err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      refreshPath,
		Body:      map[string]string{"refresh": refresh},
		NoRefresh: true,
	})
	if err != nil {
		return nil, err
	}

	var pair TokenPair
	if err := resp.Decode(&pair); err != nil {
		return nil, err
	}
	if pair.Access == "" {
		return nil, ErrNoAccessToken
	}
	return &pair, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*UserProfile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.Do(ctx, Request{
		Method:    http.MethodPost,
		Path:      "/register/",
		Body:      req,
		NoRefresh: true,
	})
	if err != nil {
		return nil, err
	}

	var profile UserProfile
	if err := resp.Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Me fetches the authenticated user with the stored access token.
func (c *Client) Me(ctx context.Context) (*UserProfile, error) {
	return c.me(ctx, Request{Method: http.MethodGet, Path: "/me/"})
}

func (c *Client) me(ctx context.Context, req Request) (*UserProfile, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	var profile UserProfile
	if err := resp.Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// Login authenticates and then fetches /me/ with the fresh access token
// passed per-request. Neither the tokens nor the profile are persisted; the
// caller commits the result.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	pair, err := c.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	profile, err := c.me(ctx, Request{
		Method:    http.MethodGet,
		Path:      "/me/",
		Token:     pair.Access,
		NoRefresh: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	return &LoginResult{Tokens: *pair, Profile: profile}, nil
}
