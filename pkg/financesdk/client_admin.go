package financesdk

import (
	"context"
	"fmt"
	"net/http"
)

// AdminStats returns user counts. Requires an elevated role.
func (c *Client) AdminStats(ctx context.Context) (*AdminStats, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/admin/stats/"})
	if err != nil {
		return nil, err
	}

	var stats AdminStats
	if err := resp.Decode(&stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListUsers returns one filtered page of users.
func (c *Client) ListUsers(ctx context.Context, params ListUsersParams) (*UserPage, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	resp, err := c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   "/admin/users/",
		Query:  params.values(),
	})
	if err != nil {
		return nil, err
	}

	var page UserPage
	if err := resp.Decode(&page); err != nil {
		return nil, err
	}
	return &page, nil
}

// SetUserPlan changes a user's subscription plan.
func (c *Client) SetUserPlan(ctx context.Context, id int64, plan Plan) (*AdminUserResult, error) {
	if !plan.Valid() {
		return nil, invalid("plan", ErrInvalidPlan)
	}
	return c.adminAction(ctx, id, "set-plan", map[string]any{"plan": plan})
}

// SetUserActive enables or disables a user.
func (c *Client) SetUserActive(ctx context.Context, id int64, active bool) (*AdminUserResult, error) {
	return c.adminAction(ctx, id, "set-active", map[string]any{"is_active": active})
}

// SetUserRole changes a user's role. Only USER and ADMIN can be assigned.
func (c *Client) SetUserRole(ctx context.Context, id int64, role Role) (*AdminUserResult, error) {
	if !role.Assignable() {
		return nil, invalid("role", ErrInvalidRole)
	}
	return c.adminAction(ctx, id, "set-role", map[string]any{"role": role})
}

func (c *Client) adminAction(ctx context.Context, id int64, action string, body any) (*AdminUserResult, error) {
	if id <= 0 {
		return nil, invalid("id", ErrInvalidID)
	}

	resp, err := c.Do(ctx, Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/admin/users/%d/%s/", id, action),
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	var result AdminUserResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}
