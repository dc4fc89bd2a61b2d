package financesdk

import (
	"context"
	"net/http"
)

// GetProfile fetches the settable profile of the authenticated user.
func (c *Client) GetProfile(ctx context.Context) (*UserProfile, error) {
	return c.me(ctx, Request{Method: http.MethodGet, Path: "/profile/"})
}

// UpdateProfile replaces name, goal name and goal amount.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) (*UserProfile, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	return c.me(ctx, Request{Method: http.MethodPut, Path: "/profile/", Body: update})
}
